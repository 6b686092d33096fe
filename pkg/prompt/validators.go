package prompt

import (
	"context"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/pkg/errors"
)

// Validator rejects an answer with the message shown to the user.
type Validator interface {
	Validate(value string) error
}

type ValidatorFunc func(value string) error

func (f ValidatorFunc) Validate(value string) error {
	return f(value)
}

// Regex accepts answers matching pattern.
func Regex(pattern, message string) Validator {
	re := regexp.MustCompile(pattern)
	return ValidatorFunc(func(value string) error {
		if !re.MatchString(value) {
			return errors.New(message)
		}
		return nil
	})
}

// Slug accepts letters, digits, underscores and dashes.
func Slug() Validator {
	return Regex(`^[-\w]+$`, "May only contain alphanumeric characters and dashes")
}

// URLReachable accepts URLs that answer a GET with 200 within five seconds.
func URLReachable(client *http.Client) Validator {
	if client == nil {
		client = http.DefaultClient
	}
	return ValidatorFunc(func(value string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, value, nil)
		if err == nil {
			var resp *http.Response
			resp, err = client.Do(req)
			if err == nil {
				resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return nil
				}
			}
		}
		return errors.Errorf("Could not open %q.", value)
	})
}

// PathExists accepts paths of existing files or directories.
func PathExists() Validator {
	return ValidatorFunc(func(value string) error {
		if _, err := os.Stat(value); err != nil {
			return errors.Errorf("Could not find %q.", value)
		}
		return nil
	})
}
