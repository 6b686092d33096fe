package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// DefaultMaxAttempts bounds how often a question is repeated after an
// invalid answer.
const DefaultMaxAttempts = 3

var ErrTooManyAttempts = errors.New("too many invalid answers")

// Prompter asks questions on out and reads the answers line by line from in.
type Prompter struct {
	MaxAttempts int

	in       *bufio.Reader
	out      io.Writer
	password func() (string, error)
}

func New(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{
		MaxAttempts: DefaultMaxAttempts,
		in:          bufio.NewReader(in),
		out:         out,
	}
	p.password = p.readLine
	return p
}

// NewTerminal prompts on the process terminal. Passwords are read without
// echo when stdin is a terminal.
func NewTerminal() *Prompter {
	p := New(os.Stdin, os.Stdout)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		p.password = func() (string, error) {
			data, err := term.ReadPassword(fd)
			fmt.Fprintln(p.out)
			return string(data), err
		}
	}
	return p
}

type question struct {
	def        string
	optional   bool
	validators []Validator
}

type AskOption func(*question)

// WithDefault is returned for an empty answer.
func WithDefault(def string) AskOption {
	return func(q *question) {
		q.def = def
	}
}

// Optional accepts an empty answer.
func Optional() AskOption {
	return func(q *question) {
		q.optional = true
	}
}

func Validate(validators ...Validator) AskOption {
	return func(q *question) {
		q.validators = append(q.validators, validators...)
	}
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		if err == io.EOF {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *Prompter) attempts() int {
	if p.MaxAttempts > 0 {
		return p.MaxAttempts
	}
	return DefaultMaxAttempts
}

// Ask asks for a single value.
func (p *Prompter) Ask(title string, opts ...AskOption) (string, error) {
	q := question{}
	for _, opt := range opts {
		opt(&q)
	}

	message := title + ": "
	if q.def != "" {
		message = fmt.Sprintf("%s [%s]: ", title, q.def)
	}

	for attempt := 0; attempt < p.attempts(); attempt++ {
		fmt.Fprint(p.out, message)
		value, err := p.readLine()
		if err != nil {
			return "", errors.Wrapf(err, "reading %q", title)
		}

		if value == "" {
			if q.def != "" {
				return q.def, nil
			}
			if q.optional {
				return "", nil
			}
			fmt.Fprintln(p.out, "A value is required")
			continue
		}

		if err := check(value, q.validators); err != nil {
			fmt.Fprintln(p.out, err)
			continue
		}
		return value, nil
	}
	return "", errors.Wrapf(ErrTooManyAttempts, "%q", title)
}

func check(value string, validators []Validator) error {
	for _, v := range validators {
		if err := v.Validate(value); err != nil {
			return err
		}
	}
	return nil
}

// AskBoolean asks a yes/no question. With a default an empty answer picks it,
// without one an answer is required.
func (p *Prompter) AskBoolean(title string, def ...bool) (bool, error) {
	message := fmt.Sprintf("%s [y/n]: ", title)
	if len(def) != 0 {
		if def[0] {
			message = fmt.Sprintf("%s [Y/n]: ", title)
		} else {
			message = fmt.Sprintf("%s [y/N]: ", title)
		}
	}

	for attempt := 0; attempt < p.attempts(); attempt++ {
		fmt.Fprint(p.out, message)
		value, err := p.readLine()
		if err != nil {
			return false, errors.Wrapf(err, "reading %q", title)
		}

		switch {
		case value == "" && len(def) != 0:
			return def[0], nil
		case value == "y" || value == "Y":
			return true, nil
		case value == "n" || value == "N":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please enter either 'n' or 'y'")
	}
	return false, errors.Wrapf(ErrTooManyAttempts, "%q", title)
}

// AskMulti asks for values until an empty answer, requiring at least
// minItems of them.
func (p *Prompter) AskMulti(title string, minItems int, validators ...Validator) ([]string, error) {
	values := []string{}
	for {
		opts := []AskOption{Validate(validators...)}
		if len(values) >= minItems {
			opts = append(opts, Optional())
		}
		value, err := p.Ask(title+" (leave empty for next option)", opts...)
		if err != nil {
			return nil, err
		}
		if value == "" {
			return values, nil
		}
		values = append(values, value)
	}
}

// AskChoice makes the user pick one of choices by index.
func (p *Prompter) AskChoice(title string, choices []string) (string, error) {
	if len(choices) == 0 {
		return "", errors.Errorf("no choices for %q", title)
	}

	fmt.Fprintln(p.out, title)
	for idx, choice := range choices {
		fmt.Fprintf(p.out, "(%d) %s\n", idx, choice)
	}

	inRange := ValidatorFunc(func(value string) error {
		idx, err := strconv.Atoi(value)
		if err != nil || idx < 0 || idx >= len(choices) {
			return errors.New("Invalid choice")
		}
		return nil
	})

	value, err := p.Ask(fmt.Sprintf("Please choose [0-%d]", len(choices)-1), Validate(inRange))
	if err != nil {
		return "", err
	}
	idx, _ := strconv.Atoi(value)
	return choices[idx], nil
}

// AskPassword asks for a non-empty secret.
func (p *Prompter) AskPassword(title string) (string, error) {
	for attempt := 0; attempt < p.attempts(); attempt++ {
		fmt.Fprint(p.out, title+" ")
		value, err := p.password()
		if err != nil {
			return "", errors.Wrapf(err, "reading %q", title)
		}
		if value != "" {
			return value, nil
		}
	}
	return "", errors.Wrapf(ErrTooManyAttempts, "%q", title)
}
