package printer

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// Level is the minimum verbosity at which a message is shown on the console.
type Level int

const (
	// Always messages are printed regardless of the verbosity.
	Always  Level = -1
	Error   Level = 1
	Warning Level = 2
	Info    Level = 3
)

func (l Level) String() string {
	switch l {
	case Always:
		return "always"
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Printer writes user facing messages to the console when the verbosity is
// high enough. Every message is also mirrored into the log, whatever the
// verbosity.
type Printer struct {
	verbosity int
	out       io.Writer
	log       *zap.Logger
}

type Option func(*Printer)

func WithOutput(w io.Writer) Option {
	return func(p *Printer) {
		p.out = w
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(p *Printer) {
		p.log = log
	}
}

func New(verbosity int, opts ...Option) *Printer {
	p := &Printer{
		verbosity: verbosity,
		out:       os.Stdout,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewLogFile builds a logger appending JSON lines to path.
func NewLogFile(path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil
	return cfg.Build()
}

func (p *Printer) Verbosity() int {
	return p.verbosity
}

func (p *Printer) Logger() *zap.Logger {
	return p.log
}

func (p *Printer) Print(level Level, msg string) {
	switch level {
	case Error:
		p.log.Error(msg)
	case Warning:
		p.log.Warn(msg)
	default:
		p.log.Info(msg)
	}

	if p.verbosity >= int(level) {
		fmt.Fprintln(p.out, msg)
	}
}

func (p *Printer) Info(msg string) {
	p.Print(Info, msg)
}

func (p *Printer) Warning(msg string) {
	p.Print(Warning, msg)
}

func (p *Printer) Error(msg string) {
	p.Print(Error, msg)
}

func (p *Printer) Always(msg string) {
	p.Print(Always, msg)
}

func (p *Printer) Infof(format string, args ...interface{}) {
	p.Print(Info, fmt.Sprintf(format, args...))
}

func (p *Printer) Warningf(format string, args ...interface{}) {
	p.Print(Warning, fmt.Sprintf(format, args...))
}

func (p *Printer) Errorf(format string, args ...interface{}) {
	p.Print(Error, fmt.Sprintf(format, args...))
}

func (p *Printer) Alwaysf(format string, args ...interface{}) {
	p.Print(Always, fmt.Sprintf(format, args...))
}

// LogOnly records msg in the log without printing it.
func (p *Printer) LogOnly(msg string) {
	p.log.Debug(msg)
}

// Sync flushes the underlying log.
func (p *Printer) Sync() {
	_ = p.log.Sync()
}
