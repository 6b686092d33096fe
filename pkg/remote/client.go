package remote

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultHost = "https://control.djeese.com"
	HostEnv     = "DJEESE_HOST"

	LoginPath  = "/api/v1/login/"
	UploadPath = "/api/v1/apps/upload-bundle/"
	ClonePath  = "/api/v1/io/static/clone/"
	PushPath   = "/api/v1/io/static/push/"
)

// UploadResult tells whether an upload created the app or updated it.
type UploadResult int

const (
	Created UploadResult = iota
	Updated
)

func (r UploadResult) String() string {
	if r == Created {
		return "created"
	}
	return "updated"
}

// HostFromEnv returns the API host configured in the environment.
func HostFromEnv() string {
	if host := os.Getenv(HostEnv); host != "" {
		return host
	}
	return DefaultHost
}

// Client talks to the control service. A successful Login stores the
// session cookie, which every later call reuses.
type Client struct {
	base       *url.URL
	http       *http.Client
	logger     *zap.Logger
	newBackOff func() backoff.BackOff
}

type Option func(*Client)

// WithHTTPClient replaces the transport. The client keeps its own cookie
// jar when the given client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		jar := c.http.Jar
		c.http = hc
		if c.http.Jar == nil {
			c.http.Jar = jar
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBackOff sets the retry policy used by Login and CloneStatic.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = fn
	}
}

func defaultBackOff() backoff.BackOff {
	bk := backoff.NewExponentialBackOff()
	bk.MaxElapsedTime = 30 * time.Second
	return bk
}

func New(host string, opts ...Option) (*Client, error) {
	base, err := url.Parse(host)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing host %q", host)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("host %q needs a scheme and a host name", host)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		base:       base,
		http:       &http.Client{Jar: jar},
		logger:     zap.NewNop(),
		newBackOff: defaultBackOff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL resolves path against the scheme and host of the API host, keeping its
// query string and fragment.
func (c *Client) URL(path string) string {
	u := *c.base
	u.Path = path
	u.RawPath = ""
	return u.String()
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	form := url.Values{
		"username": {username},
		"password": {password},
	}

	err := c.retry(ctx, "login", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(LoginPath), strings.NewReader(form.Encode()))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNoContent {
			return nil
		}
		return classify(resp)
	})
	return errors.Wrap(err, "Login failed")
}

// UploadBundle sends the bundle of app. It is not retried: the bundle is a
// stream that has been consumed by the first attempt.
func (c *Client) UploadBundle(ctx context.Context, app string, bundle io.Reader) (UploadResult, error) {
	body, contentType, err := multipartBody(map[string]string{"app": app}, "bundle", "bundle.tar.gz", bundle)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(UploadPath), body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		return Created, nil
	case http.StatusNoContent:
		return Updated, nil
	}
	return 0, classify(resp)
}

// CloneStatic downloads the static files of website as a gzipped tarball.
// The caller closes the returned stream.
func (c *Client) CloneStatic(ctx context.Context, website string) (io.ReadCloser, error) {
	target, err := url.Parse(c.URL(ClonePath))
	if err != nil {
		return nil, err
	}
	query := target.Query()
	query.Set("name", website)
	target.RawQuery = query.Encode()

	var body io.ReadCloser
	err = c.retry(ctx, "clone", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusOK {
			body = resp.Body
			return nil
		}
		defer resp.Body.Close()
		return classify(resp)
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// PushStatic replaces the static files of website with the given tarball.
func (c *Client) PushStatic(ctx context.Context, website string, static io.Reader) error {
	body, contentType, err := multipartBody(map[string]string{"name": website}, "static", "static.tar.gz", static)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(PushPath), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return classify(resp)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	c.logger.Debug("request", zap.String("method", req.Method), zap.String("url", req.URL.String()))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}

	c.logger.Debug("response", zap.String("url", req.URL.String()), zap.Int("status", resp.StatusCode))
	return resp, nil
}

// retry runs op until it succeeds, fails permanently or the policy gives up.
// Only transport errors and ErrUnavailable are retried.
func (c *Client) retry(ctx context.Context, name string, op func() error) error {
	wrapped := func() error {
		err := op()
		if err == nil || errors.Is(err, ErrUnavailable) {
			return err
		}
		var apiErr *APIError
		var statusErr *StatusError
		if errors.As(err, &apiErr) || errors.As(err, &statusErr) || errors.Is(err, ErrAuthFailed) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("retrying", zap.String("operation", name), zap.Error(err), zap.Duration("wait", wait))
	}

	return backoff.RetryNotify(wrapped, backoff.WithContext(c.newBackOff(), ctx), notify)
}

// classify turns a reply the caller did not expect into an error.
func classify(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		code, err := strconv.Atoi(resp.Header.Get(ErrorCodeHeader))
		if err != nil {
			code = int(CodeUnknown)
		}
		return &APIError{
			Status: resp.StatusCode,
			Code:   ErrorCode(code),
			Meta:   resp.Header.Get(ErrorMetaHeader),
			Body:   body,
		}
	case http.StatusForbidden:
		return ErrAuthFailed
	case http.StatusBadGateway:
		return ErrUnavailable
	}
	return &StatusError{Status: resp.StatusCode, Body: body}
}

func multipartBody(fields map[string]string, fileField, fileName string, file io.Reader) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			return nil, "", err
		}
	}
	part, err := mw.CreateFormFile(fileField, fileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", errors.Wrapf(err, "reading %s", fileField)
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return body, mw.FormDataContentType(), nil
}
