package site

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a configuration error.
type ErrorKind string

const (
	// KindMalformedShape indicates a missing field, a value of the wrong
	// semantic type, an unknown key or an unusable link form.
	KindMalformedShape ErrorKind = "malformed_shape"

	// KindBrokenLink indicates a sidebar link with no matching document.
	KindBrokenLink ErrorKind = "broken_link"

	// KindDuplicateNavLabel indicates two top-level nav entries sharing a label.
	KindDuplicateNavLabel ErrorKind = "duplicate_nav_label"
)

// Sentinel errors for errors.Is matching against a *ConfigError kind.
var (
	ErrMalformedShape    = &ConfigError{Kind: KindMalformedShape}
	ErrBrokenLink        = &ConfigError{Kind: KindBrokenLink}
	ErrDuplicateNavLabel = &ConfigError{Kind: KindDuplicateNavLabel}
)

// ConfigError is returned by Resolver.Load when a configuration literal
// cannot be resolved. Every ConfigError is fatal to the build.
type ConfigError struct {
	// Kind is the error classification.
	Kind ErrorKind `json:"kind"`

	// Path is the field path of the offending value
	// (e.g. "theme.sidebar[2].items[0].link").
	Path string `json:"path"`

	// Subject is the offending link for KindBrokenLink and the duplicated
	// label for KindDuplicateNavLabel. Empty for KindMalformedShape.
	Subject string `json:"subject,omitempty"`

	// Message is a human-readable description.
	Message string `json:"message,omitempty"`
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	switch e.Kind {
	case KindBrokenLink:
		return fmt.Sprintf("[%s] %s: link %q does not resolve to a document", e.Kind, e.Path, e.Subject)
	case KindDuplicateNavLabel:
		return fmt.Sprintf("[%s] %s: nav label %q is already used", e.Kind, e.Path, e.Subject)
	default:
		if e.Message == "" {
			return fmt.Sprintf("[%s] %s", e.Kind, e.Path)
		}
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Path, e.Message)
	}
}

// Is reports whether target is a *ConfigError of the same kind.
func (e *ConfigError) Is(target error) bool {
	t, ok := target.(*ConfigError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewMalformedShape creates a malformed shape error for the given field path.
func NewMalformedShape(path, format string, args ...interface{}) *ConfigError {
	return &ConfigError{
		Kind:    KindMalformedShape,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewBrokenLink creates a broken link error.
func NewBrokenLink(path, link string) *ConfigError {
	return &ConfigError{
		Kind:    KindBrokenLink,
		Path:    path,
		Subject: link,
	}
}

// NewDuplicateNavLabel creates a duplicate nav label error.
func NewDuplicateNavLabel(path, label string) *ConfigError {
	return &ConfigError{
		Kind:    KindDuplicateNavLabel,
		Path:    path,
		Subject: label,
	}
}

// AsConfigError extracts a *ConfigError from err's chain.
func AsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsMalformedShape returns true if err is a malformed shape error.
func IsMalformedShape(err error) bool {
	return errors.Is(err, ErrMalformedShape)
}

// IsBrokenLink returns true if err is a broken link error.
func IsBrokenLink(err error) bool {
	return errors.Is(err, ErrBrokenLink)
}

// IsDuplicateNavLabel returns true if err is a duplicate nav label error.
func IsDuplicateNavLabel(err error) bool {
	return errors.Is(err, ErrDuplicateNavLabel)
}
