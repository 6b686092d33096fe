package handler

import (
	"net"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/go-playground/validator.v9"
)

const (
	DefaultListen    = "8080"
	DefaultStaticDir = "static"
	staticPrefix     = "/static/"
)

type ServerConfig struct {
	Listen    string `json:"listen" validate:"required"`
	Origin    string `json:"origin" validate:"required,url"`
	StaticDir string `json:"staticDir" validate:"required"`

	// Not in the config file
	Debug bool `json:"-"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Listen:    DefaultListen,
		StaticDir: DefaultStaticDir,
	}
}

func (c ServerConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid server configuration")
	}

	u, err := url.Parse(c.Origin)
	if err != nil {
		return errors.Wrap(err, "invalid origin")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("only http and https origins supported, got %q", c.Origin)
	}
	return nil
}

// Address turns Listen into something net.Listen accepts. A bare port
// listens on every interface.
func (c ServerConfig) Address() string {
	if strings.Contains(c.Listen, ":") {
		return c.Listen
	}
	return net.JoinHostPort("", c.Listen)
}
