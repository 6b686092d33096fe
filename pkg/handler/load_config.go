package handler

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Configuration file format, every field optional
type serverFileConfiguration = struct {
	Listen    *string `json:"listen"`
	Origin    *string `json:"origin"`
	StaticDir *string `json:"staticDir"`
}

// LoadServerConfiguration starts from the defaults and applies the JSON file
// at path when it exists.
func LoadServerConfiguration(path string) (ServerConfig, error) {
	config := DefaultServerConfig()
	data := serverFileConfiguration{}

	file, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return config, errors.Wrapf(err, "reading %s", path)
	}
	if err == nil {
		if err := json.Unmarshal(file, &data); err != nil {
			return config, errors.Wrapf(err, "parsing %s", path)
		}
	}

	if data.Listen != nil {
		config.Listen = *data.Listen
	}
	if data.Origin != nil {
		config.Origin = *data.Origin
	}
	if data.StaticDir != nil {
		config.StaticDir = *data.StaticDir
	}

	if !filepath.IsAbs(config.StaticDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return config, errors.Wrap(err, "resolving static directory")
		}
		config.StaticDir = filepath.Join(cwd, config.StaticDir)
	}

	return config, nil
}
