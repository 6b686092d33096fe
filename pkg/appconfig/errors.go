package appconfig

import "fmt"

// SyntaxError reports a malformed descriptor.
type SyntaxError struct {
	Source string
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// ParseError reports a value that could not be converted to the requested
// type.
type ParseError struct {
	Section string
	Key     string
	Value   string
	Kind    string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("[%s] %s: cannot parse %q as %s", e.Section, e.Key, e.Value, e.Kind)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
