package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/koblas/djeese/pkg/appconfig"
	"github.com/koblas/djeese/pkg/validate"
	"github.com/pkg/errors"
)

// Archive member names of an app bundle
const (
	PackageMember   = "package.tar.gz"
	TemplatesPrefix = "templates/"
	LicenseMember   = "meta/LICENSE.txt"
	ConfigMember    = "meta/config.cfg"
)

// Runner executes an external command in dir.
type Runner func(ctx context.Context, dir string, name string, args ...string) error

func execRunner(ctx context.Context, dir string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "%s failed: %s", name, bytes.TrimSpace(out))
	}
	return nil
}

// Bundler assembles the archive uploaded for an app: the sdist of the
// package, its templates, the license and the descriptor.
type Bundler struct {
	Python string
	Client *http.Client
	Run    Runner
}

func NewBundler() *Bundler {
	return &Bundler{
		Python: "python",
		Client: http.DefaultClient,
		Run:    execRunner,
	}
}

func (b *Bundler) Bundle(ctx context.Context, setupPy string, config *appconfig.Config) (*bytes.Buffer, error) {
	workspace, err := os.MkdirTemp("", "djeese")
	if err != nil {
		return nil, errors.Wrap(err, "creating workspace")
	}
	defer os.RemoveAll(workspace)

	sdist, err := b.sdist(ctx, setupPy, workspace)
	if err != nil {
		return nil, err
	}

	bundle := &bytes.Buffer{}
	gz := gzip.NewWriter(bundle)
	tw := tar.NewWriter(gz)

	if err := addFile(tw, sdist, PackageMember); err != nil {
		return nil, errors.Wrap(err, "adding package")
	}
	if err := b.addTemplates(ctx, tw, config); err != nil {
		return nil, err
	}
	if !config.HasSection(validate.AppSection) {
		return nil, errors.New("configuration has no app section")
	}
	if err := b.addLicense(ctx, tw, config.Section(validate.AppSection)); err != nil {
		return nil, err
	}

	data, err := config.Bytes()
	if err != nil {
		return nil, errors.Wrap(err, "serializing configuration")
	}
	if err := addBytes(tw, data, ConfigMember); err != nil {
		return nil, errors.Wrap(err, "adding configuration")
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return bundle, nil
}

func (b *Bundler) sdist(ctx context.Context, setupPy, workspace string) (string, error) {
	setupPy, err := filepath.Abs(setupPy)
	if err != nil {
		return "", err
	}
	err = b.Run(ctx, filepath.Dir(setupPy), b.Python, filepath.Base(setupPy), "sdist", "-d", workspace)
	if err != nil {
		return "", errors.Wrap(err, "building source distribution")
	}

	entries, err := os.ReadDir(workspace)
	if err != nil {
		return "", err
	}
	if len(entries) != 1 {
		return "", errors.Errorf("expected one source distribution, found %d", len(entries))
	}
	return filepath.Join(workspace, entries[0].Name()), nil
}

func (b *Bundler) addTemplates(ctx context.Context, tw *tar.Writer, config *appconfig.Config) error {
	if !config.HasSection(validate.TemplatesSection) {
		return nil
	}
	templates := config.Section(validate.TemplatesSection)

	for _, name := range templates.Keys() {
		locator := templates.Get(name, "")
		member := TemplatesPrefix + name

		var err error
		if validate.IsURL(locator) {
			err = b.addURL(ctx, tw, locator, member)
		} else {
			err = addFile(tw, locator, member)
		}
		if err != nil {
			return errors.Wrapf(err, "adding template %q", name)
		}
	}
	return nil
}

// addLicense prefers a local license-path over the older license-text URL.
func (b *Bundler) addLicense(ctx context.Context, tw *tar.Writer, app *appconfig.Section) error {
	if path := app.Get("license-path", ""); path != "" {
		return errors.Wrap(addFile(tw, path, LicenseMember), "adding license")
	}
	if locator := app.Get("license-text", ""); locator != "" {
		return errors.Wrap(b.addURL(ctx, tw, locator, LicenseMember), "adding license")
	}
	return errors.New("neither license-path nor license-text given")
}

func (b *Bundler) addURL(ctx context.Context, tw *tar.Writer, locator, member string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return err
	}
	resp, err := b.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("fetching %s: unexpected status %d", locator, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return addBytes(tw, data, member)
}
