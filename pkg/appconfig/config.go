package appconfig

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// ErrInvalid is returned by WriteFile when the configuration does not pass
// validation.
var ErrInvalid = errors.New("configuration invalid")

// Validator decides whether a configuration may be written out.
type Validator interface {
	IsValid(ctx context.Context, c *Config) bool
}

// Config is an app descriptor: an ordered set of named sections.
type Config struct {
	file *ini.File
}

func loadOptions() ini.LoadOptions {
	return ini.LoadOptions{
		AllowPythonMultilineValues: true,
		SpaceBeforeInlineComment:   true,
		InsensitiveKeys:            true,
	}
}

// New returns an empty configuration.
func New() *Config {
	return &Config{file: ini.Empty(loadOptions())}
}

// Load parses the textual descriptor format.
func Load(data []byte) (*Config, error) {
	return load("<string>", data)
}

// LoadFile reads and parses the descriptor at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return load(path, data)
}

func load(source string, data []byte) (*Config, error) {
	file, err := ini.LoadSources(loadOptions(), joinContinuations(data))
	if err != nil {
		return nil, &SyntaxError{Source: source, Err: err}
	}
	return &Config{file: file}, nil
}

// Section returns the named section, creating it empty when missing.
func (c *Config) Section(name string) *Section {
	return &Section{sec: c.file.Section(name)}
}

func (c *Config) HasSection(name string) bool {
	_, err := c.file.GetSection(name)
	return err == nil
}

// SectionNames lists the sections in insertion order. The implicit default
// section is only listed when it holds keys.
func (c *Config) SectionNames() []string {
	names := []string{}
	for _, sec := range c.file.Sections() {
		if sec.Name() == ini.DefaultSection && len(sec.Keys()) == 0 {
			continue
		}
		names = append(names, sec.Name())
	}
	return names
}

func (c *Config) DeleteSection(name string) {
	c.file.DeleteSection(name)
}

// WriteTo serializes the configuration, sections and keys in insertion
// order. Values are never quoted: every line after the first of a
// multi-line value goes on its own indented continuation line.
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	buf := bytes.Buffer{}
	for _, sec := range c.file.Sections() {
		if sec.Name() == ini.DefaultSection && len(sec.Keys()) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "[%s]\n", sec.Name())
		for _, key := range sec.Keys() {
			lines := valueLines(key.String())
			if len(lines) == 0 {
				fmt.Fprintf(&buf, "%s = \n", key.Name())
				continue
			}
			fmt.Fprintf(&buf, "%s = %s\n", key.Name(), lines[0])
			for _, line := range lines[1:] {
				fmt.Fprintf(&buf, "%s%s\n", continuationIndent, line)
			}
		}
		buf.WriteString("\n")
	}
	return buf.WriteTo(w)
}

func (c *Config) Bytes() ([]byte, error) {
	buf := bytes.Buffer{}
	if _, err := c.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile validates the configuration with v and, only when valid, writes
// it to path.
func (c *Config) WriteFile(ctx context.Context, path string, v Validator) error {
	if !v.IsValid(ctx, c) {
		return ErrInvalid
	}

	data, err := c.Bytes()
	if err != nil {
		return errors.Wrap(err, "serializing configuration")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}
