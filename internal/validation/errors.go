package validation

import (
	"errors"
	"fmt"
)

var (
	ErrBlockedScheme   = errors.New("url scheme not allowed")
	ErrScriptInjection = errors.New("script injection")
	ErrSQLInjection    = errors.New("sql injection")
	ErrPathTraversal   = errors.New("path traversal")
	ErrValueTooLong    = errors.New("value exceeds maximum length")
)

// InputError names the request input that failed screening.
type InputError struct {
	Source string
	Name   string
	Err    error
}

func (e *InputError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Source, e.Name, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}
