package credentials

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/koblas/djeese/pkg/prompt"
	"github.com/pkg/errors"
)

const FileName = ".djeese"

type Credentials struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// Provider hands out the login used against the control service.
type Provider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// Static is a Provider with fixed credentials.
type Static Credentials

func (s Static) Credentials(context.Context) (Credentials, error) {
	return Credentials(s), nil
}

// FileStore keeps credentials in a TOML file. Files written by older clients
// hold a single "username:password" line and are still read.
type FileStore struct {
	Path string
}

// DefaultPath is ~/.djeese
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "locating home directory")
	}
	return filepath.Join(home, FileName), nil
}

// Load returns the stored credentials. ok is false when the file is missing
// or does not hold a complete login.
func (s *FileStore) Load() (creds Credentials, ok bool, err error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return Credentials{}, false, nil
	}
	if err != nil {
		return Credentials{}, false, errors.Wrapf(err, "reading %s", s.Path)
	}

	if _, err := toml.Decode(string(data), &creds); err != nil {
		creds = parseLegacy(string(data))
	}
	return creds, creds.Complete(), nil
}

func parseLegacy(data string) Credentials {
	if strings.Count(data, ":") != 1 {
		return Credentials{}
	}
	parts := strings.SplitN(data, ":", 2)
	return Credentials{
		Username: strings.TrimSpace(parts[0]),
		Password: strings.TrimSpace(parts[1]),
	}
}

// Save replaces the file with creds, readable by the owner only.
func (s *FileStore) Save(creds Credentials) error {
	buf := bytes.Buffer{}
	if err := toml.NewEncoder(&buf).Encode(creds); err != nil {
		return errors.Wrap(err, "encoding credentials")
	}
	if err := os.WriteFile(s.Path, buf.Bytes(), 0600); err != nil {
		return errors.Wrapf(err, "writing %s", s.Path)
	}
	return nil
}

// Prompting reads the store and asks for whatever is missing. A login typed
// in is saved when the user agrees, or unconditionally with NoInput.
type Prompting struct {
	Store    *FileStore
	Prompter *prompt.Prompter
	NoInput  bool
}

func (p *Prompting) Credentials(ctx context.Context) (Credentials, error) {
	creds, ok, err := p.Store.Load()
	if err != nil {
		return Credentials{}, err
	}
	if ok {
		return creds, nil
	}

	creds.Username, err = p.Prompter.Ask("Username")
	if err != nil {
		return Credentials{}, err
	}
	creds.Password, err = p.Prompter.AskPassword("Password:")
	if err != nil {
		return Credentials{}, err
	}

	save := p.NoInput
	if !save {
		if save, err = p.Prompter.AskBoolean("Save login data?", true); err != nil {
			return Credentials{}, err
		}
	}
	if save {
		if err := p.Store.Save(creds); err != nil {
			return Credentials{}, err
		}
	}
	return creds, nil
}
