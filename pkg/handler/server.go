package handler

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/koblas/djeese/pkg/printer"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Server serves the static root and proxies everything else until its
// context is cancelled. Every connection is handled on its own goroutine.
type Server struct {
	config  ServerConfig
	handler http.Handler
	printer *printer.Printer
	logger  *zap.Logger
}

func NewServer(config ServerConfig, p *printer.Printer, logger *zap.Logger) (*Server, error) {
	state, err := NewHandler(config, logger)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:  state.ServerConfig,
		handler: state.Router(),
		printer: p,
		logger:  logger,
	}, nil
}

func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return errors.Wrapf(err, "listening on %s", s.config.Address())
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	server := http.Server{
		Handler: s.handler,
	}

	s.logger.Info("listening",
		zap.String("address", listener.Addr().String()),
		zap.String("origin", s.config.Origin),
		zap.String("static", s.config.StaticDir))

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "serving")
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutting down")
		}
	}

	s.printer.Always("Server stopped")
	return nil
}
