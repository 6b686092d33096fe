package remote

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff"
	"github.com/koblas/djeese/pkg/printer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const sessionCookie = "sessionid"

// fakeService mimics the control service: login sets a session cookie that
// the other endpoints require.
func fakeService(t *testing.T) (*httptest.Server, *http.ServeMux) {
	mux := http.NewServeMux()
	mux.HandleFunc(LoginPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.FormValue("username") != "alice" || r.FormValue("password") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "s1", Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, mux
}

func authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookie)
	return err == nil && cookie.Value == "s1"
}

func noRetry() backoff.BackOff {
	return &backoff.StopBackOff{}
}

func newClient(t *testing.T, host string, opts ...Option) *Client {
	client, err := New(host, append([]Option{WithBackOff(noRetry)}, opts...)...)
	require.NoError(t, err)
	return client
}

func TestURLUsesHostSchemeAndName(t *testing.T) {
	client := newClient(t, "http://example.test:9000/ignored/path")
	assert.Equal(t, "http://example.test:9000/api/v1/login/", client.URL(LoginPath))

	_, err := New("control.djeese.com")
	assert.Error(t, err)
}

func TestHostFromEnv(t *testing.T) {
	t.Setenv(HostEnv, "")
	assert.Equal(t, DefaultHost, HostFromEnv())

	t.Setenv(HostEnv, "http://localhost:8000")
	assert.Equal(t, "http://localhost:8000", HostFromEnv())
}

func TestLogin(t *testing.T) {
	server, _ := fakeService(t)

	client := newClient(t, server.URL)
	assert.NoError(t, client.Login(context.Background(), "alice", "secret"))

	err := newClient(t, server.URL).Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.Contains(t, err.Error(), "Login failed")
}

func TestLoginRetriesWhileUnavailable(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newClient(t, server.URL, WithBackOff(func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 5)
	}))
	require.NoError(t, client.Login(context.Background(), "alice", "secret"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestLoginDoesNotRetryRejections(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newClient(t, server.URL, WithBackOff(func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 5)
	}))
	assert.ErrorIs(t, client.Login(context.Background(), "alice", "secret"), ErrAuthFailed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestUploadBundle(t *testing.T) {
	server, mux := fakeService(t)

	var existing int32
	mux.HandleFunc(UploadPath, func(w http.ResponseWriter, r *http.Request) {
		if !authenticated(r) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.FormValue("app") != "Example" {
			w.Header().Set(ErrorCodeHeader, "8")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("bundle")
		if err != nil {
			w.Header().Set(ErrorCodeHeader, "3")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		if string(data) != "bundle-bytes" {
			w.Header().Set(ErrorCodeHeader, "1")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if atomic.AddInt32(&existing, 1) == 1 {
			w.WriteHeader(http.StatusCreated)
		} else {
			w.WriteHeader(http.StatusNoContent)
		}
	})

	ctx := context.Background()
	client := newClient(t, server.URL)

	_, err := client.UploadBundle(ctx, "Example", bytes.NewBufferString("bundle-bytes"))
	assert.ErrorIs(t, err, ErrAuthFailed)

	require.NoError(t, client.Login(ctx, "alice", "secret"))

	result, err := client.UploadBundle(ctx, "Example", bytes.NewBufferString("bundle-bytes"))
	require.NoError(t, err)
	assert.Equal(t, Created, result)

	result, err = client.UploadBundle(ctx, "Example", bytes.NewBufferString("bundle-bytes"))
	require.NoError(t, err)
	assert.Equal(t, Updated, result)
	assert.Equal(t, "updated", result.String())

	_, err = client.UploadBundle(ctx, "Other", bytes.NewBufferString("bundle-bytes"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeNameMismatch, apiErr.Code)
	assert.Equal(t, "Supplied name does not match name in configuration", apiErr.Error())
}

func TestCloneStatic(t *testing.T) {
	server, mux := fakeService(t)
	mux.HandleFunc(ClonePath, func(w http.ResponseWriter, r *http.Request) {
		if !authenticated(r) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if name := r.URL.Query().Get("name"); name != "my site" {
			w.Header().Set(ErrorCodeHeader, "11")
			w.Header().Set(ErrorMetaHeader, name)
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, "no such website")
			return
		}
		io.WriteString(w, "tarball")
	})

	ctx := context.Background()
	client := newClient(t, server.URL)
	require.NoError(t, client.Login(ctx, "alice", "secret"))

	body, err := client.CloneStatic(ctx, "my site")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "tarball", string(data))

	_, err = client.CloneStatic(ctx, "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeInvalidWebsite, apiErr.Code)
	assert.Equal(t, `Website with name "missing" not found`, apiErr.Error())
	assert.Equal(t, "no such website", string(apiErr.Body))
}

func TestPushStatic(t *testing.T) {
	server, mux := fakeService(t)
	mux.HandleFunc(PushPath, func(w http.ResponseWriter, r *http.Request) {
		if !authenticated(r) || r.FormValue("name") != "site" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		file, header, err := r.FormFile("static")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		if header.Filename != "static.tar.gz" || string(data) != "tarball" {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	ctx := context.Background()
	client := newClient(t, server.URL)
	require.NoError(t, client.Login(ctx, "alice", "secret"))
	assert.NoError(t, client.PushStatic(ctx, "site", bytes.NewBufferString("tarball")))

	err := client.PushStatic(ctx, "site", bytes.NewBufferString("other"))
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTeapot, statusErr.Status)
}

func TestDescribe(t *testing.T) {
	type describeTest = struct {
		code   ErrorCode
		meta   string
		expect string
	}

	tests := []describeTest{
		{CodeUnknown, "", "Unknown error"},
		{CodeUnknown, "boom", "Unknown error: boom"},
		{CodeInvalidArchive, "", "Invalid tar file supplied"},
		{CodeMissingTemplate, "app/plugin.html", `Missing template "app/plugin.html"`},
		{CodeVersionTooLow, "1.2.0,1.1.0", "Supplied version (1.1.0) is not newer than version on server (1.2.0)"},
		{CodeVersionTooLow, "1.2.0", "Supplied version is not newer than version on server (1.2.0)"},
		{CodeQuotaExceeded, "", "Cannot add new private app, please upgrade your plan"},
		{CodeInvalidFilename, "x.exe", `Filename "x.exe" is not allowed`},
		{ErrorCode(99), "meta", "Unexpected error code: 99 (meta)"},
	}

	for _, item := range tests {
		assert.Equal(t, item.expect, describe(item.code, item.meta))
	}
}

func TestReport(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	out := bytes.Buffer{}
	p := printer.New(3, printer.WithOutput(&out), printer.WithLogger(zap.New(core)))

	Report(p, ActionUpload, &StatusError{Status: 500, Body: []byte("traceback")})
	assert.Equal(t, "Unexpected response: 500\nUpload failed, check djeese.log for more details\n", out.String())
	assert.Equal(t, 1, logs.FilterMessage("traceback").Len())

	out.Reset()
	Report(p, ActionClone, &APIError{Status: 400, Code: CodeAccessDenied, Body: []byte("denied")})
	assert.Equal(t, "Access denied\ndenied\nClone failed: Bad request\n", out.String())

	out.Reset()
	Report(p, ActionUpload, &APIError{Status: 400, Code: CodeAccessDenied})
	assert.Equal(t, "Access denied\nUpload failed\n", out.String())

	out.Reset()
	Report(p, ActionPush, ErrUnavailable)
	assert.Equal(t, "Temporarily unavailable\nPush failed\n", out.String())
}
