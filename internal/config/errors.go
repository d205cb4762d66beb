package config

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is against a *ConfigError.
var (
	ErrMalformed          = errors.New("malformed configuration")
	ErrUnsupportedVersion = errors.New("unsupported configuration version")
	ErrNoScreens          = errors.New("no screens configured")
	ErrDuplicateGeometry  = errors.New("duplicate screen geometry")
	ErrInvalidScreen      = errors.New("invalid screen")
	ErrMappingScreen      = errors.New("mapping references a nonexistent screen")
	ErrInvalidConstraint  = errors.New("invalid constraint mode")
)

// ConfigError rejects a configuration as a whole. Path is the dotted
// document path of the offending value (for example "screens.2.w").
type ConfigError struct {
	Kind   error
	Path   string
	Source Source
	Err    error
}

func newError(kind error, path string, err error) *ConfigError {
	return &ConfigError{Kind: kind, Path: path, Err: err}
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Kind.Error()
	if e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Source.File, e.Source.Line, e.Source.Column, e.Path, msg)
	case e.Source.File != "" && e.Path != "":
		return fmt.Sprintf("%s: %s: %s", e.Source.File, e.Path, msg)
	case e.Source.File != "":
		return fmt.Sprintf("%s: %s", e.Source.File, msg)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Path, msg)
	}
	return msg
}

func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
