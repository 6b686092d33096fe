package validate

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Checker tells whether a template locator can be loaded.
type Checker interface {
	Check(ctx context.Context, locator string) error
}

// LocatorChecker fetches URL locators and stats path locators.
type LocatorChecker struct {
	Client  *http.Client
	BaseDir string
	Timeout time.Duration
}

func NewLocatorChecker(baseDir string) *LocatorChecker {
	return &LocatorChecker{
		Client:  http.DefaultClient,
		BaseDir: baseDir,
		Timeout: 5 * time.Second,
	}
}

// IsURL reports whether locator is an http(s) URL rather than a path.
func IsURL(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}

func (c *LocatorChecker) Check(ctx context.Context, locator string) error {
	if IsURL(locator) {
		return c.checkURL(ctx, locator)
	}
	return c.checkPath(locator)
}

func (c *LocatorChecker) checkURL(ctx context.Context, locator string) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *LocatorChecker) checkPath(locator string) error {
	path := locator
	if !filepath.IsAbs(path) && c.BaseDir != "" {
		path = filepath.Join(c.BaseDir, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return errors.Errorf("%s is not a regular file", path)
	}
	return nil
}
