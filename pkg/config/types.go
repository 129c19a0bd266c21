package config

import (
	"fmt"
	"strings"
	"time"
)

// Format identifies the syntax of a configuration source.
type Format string

const (
	// FormatCUE is a CUE file. The site literal is the top-level value, or
	// the value of a top-level "site" field when one exists.
	FormatCUE Format = "cue"

	// FormatYAML is a YAML document.
	FormatYAML Format = "yaml"

	// FormatJSON is a JSON object.
	FormatJSON Format = "json"

	// FormatStarlark is a Starlark script that assigns a global named "site".
	FormatStarlark Format = "star"
)

// FormatForPath returns the format implied by a file extension.
func FormatForPath(path string) (Format, error) {
	switch {
	case strings.HasSuffix(path, ".cue"):
		return FormatCUE, nil
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		return FormatYAML, nil
	case strings.HasSuffix(path, ".json"):
		return FormatJSON, nil
	case strings.HasSuffix(path, ".star"):
		return FormatStarlark, nil
	default:
		return "", fmt.Errorf("unsupported config file %q (want .cue, .yaml, .yml, .json or .star)", path)
	}
}

// Source is a raw configuration literal read from a file or inline content.
type Source struct {
	// Raw is the configuration literal handed to site.Resolver.Load.
	Raw map[string]interface{} `json:"raw"`

	// File is the source path, or "inline".
	File string `json:"file"`

	// Format is the syntax the literal was read from.
	Format Format `json:"format"`

	// LoadedAt is when the source was read.
	LoadedAt time.Time `json:"loaded_at"`
}

// ValidationError represents a syntax or schema error with location information.
type ValidationError struct {
	// File is the source file path.
	File string `json:"file,omitempty"`

	// Line is the line number (1-indexed).
	Line int `json:"line,omitempty"`

	// Column is the column number (1-indexed).
	Column int `json:"column,omitempty"`

	// Path is the field path to the error (e.g., "theme.nav.0.link").
	Path string `json:"path,omitempty"`

	// Message is the error message.
	Message string `json:"message"`

	// Severity is the error severity (error, warning, info).
	Severity string `json:"severity"`
}

// String formats the error as file:line:col: path: message.
func (ve ValidationError) String() string {
	var b strings.Builder
	if ve.File != "" {
		b.WriteString(ve.File)
		if ve.Line > 0 {
			fmt.Fprintf(&b, ":%d", ve.Line)
			if ve.Column > 0 {
				fmt.Fprintf(&b, ":%d", ve.Column)
			}
		}
		b.WriteString(": ")
	}
	if ve.Path != "" {
		b.WriteString(ve.Path)
		b.WriteString(": ")
	}
	b.WriteString(ve.Message)
	return b.String()
}

// LoadError is returned when a source cannot be read into a literal.
type LoadError struct {
	File   string
	Errors []ValidationError
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("failed to load %s", e.File)
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].String()
	}
	return fmt.Sprintf("%s (and %d more errors)", e.Errors[0].String(), len(e.Errors)-1)
}

// StarlarkResult represents the result of Starlark execution.
type StarlarkResult struct {
	// Output holds the script's exported globals.
	Output map[string]interface{} `json:"output,omitempty"`

	// ExecutionTime is how long the script took to execute.
	ExecutionTime time.Duration `json:"execution_time"`

	// Error is any error that occurred.
	Error string `json:"error,omitempty"`
}
