package handler

import (
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewLogger is a hack to enable/disable logging quickly without putting
// the logic throughout the code
func NewLogger(debug bool) *zap.Logger {
	if debug {
		return zap.Must(zap.NewDevelopment())
	}

	return zap.NewNop()
}

func requestLogger(logger *zap.Logger) middleware.LogFormatter {
	return &middleware.DefaultLogFormatter{
		Logger:  zap.NewStdLog(logger),
		NoColor: true,
	}
}
