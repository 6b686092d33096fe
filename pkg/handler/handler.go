package handler

import (
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const notSupportedBody = "Sorry, this method is not supported by the local static server.\n"

// Methods answered locally instead of being proxied
var unsupportedMethods = []string{
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

type HandlerState struct {
	ServerConfig
	logger *zap.Logger
	proxy  *proxy
}

func NewHandler(config ServerConfig, logger *zap.Logger) (*HandlerState, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	origin, err := url.Parse(config.Origin)
	if err != nil {
		return nil, errors.Wrap(err, "invalid origin")
	}
	root, err := filepath.Abs(config.StaticDir)
	if err != nil {
		return nil, errors.Wrap(err, "resolving static directory")
	}
	config.StaticDir = root

	return &HandlerState{
		ServerConfig: config,
		logger:       logger,
		proxy:        newProxy(origin, logger),
	}, nil
}

// serveStatic answers from the static root when the file exists and falls
// back to the origin with the untouched path otherwise.
func (state *HandlerState) serveStatic(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, staticPrefix)

	if fullPath, ok := state.localFile(rest); ok {
		state.logger.Debug("serving local file", zap.String("path", fullPath))
		state.serveFile(w, r, fullPath)
		return
	}

	state.proxy.ServeHTTP(w, r)
}

func notSupported(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(notSupportedBody))
}

func (state *HandlerState) AttachRoutes(router chi.Router) {
	router.Get(staticPrefix+"*", state.serveStatic)
	router.Head(staticPrefix+"*", state.serveStatic)
	router.Get("/*", state.proxy.ServeHTTP)
	router.Head("/*", state.proxy.ServeHTTP)

	for _, method := range unsupportedMethods {
		router.MethodFunc(method, staticPrefix+"*", notSupported)
		router.MethodFunc(method, "/*", notSupported)
	}
}

// Router builds the complete request pipeline.
func (state *HandlerState) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestLogger(requestLogger(state.logger)))
	state.AttachRoutes(router)
	return router
}
