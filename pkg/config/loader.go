package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/rs/zerolog"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"gopkg.in/yaml.v3"
)

// SiteField is the top-level field or global that holds the site literal in
// CUE files and Starlark scripts.
const SiteField = "site"

// VarsName is the predeclared Starlark dict holding values set with
// SetVariables.
const VarsName = "vars"

// Loader reads site configuration literals from CUE, YAML, JSON and Starlark
// sources.
type Loader struct {
	cue      *cue.Context
	starlark *StarlarkEvaluator
	logger   zerolog.Logger
	vars     map[string]interface{}
}

// NewLoader creates a new loader. Starlark scripts are limited to
// starlarkTimeout; zero selects the evaluator default.
func NewLoader(logger zerolog.Logger, starlarkTimeout time.Duration) *Loader {
	return &Loader{
		cue:      cuecontext.New(),
		starlark: NewStarlarkEvaluator(starlarkTimeout),
		logger:   logger.With().Str("component", "config-loader").Logger(),
	}
}

// SetVariables makes vars visible to Starlark scripts as the predeclared
// dict "vars". Other formats ignore them.
func (l *Loader) SetVariables(vars map[string]interface{}) {
	l.vars = vars
}

// ParseDefines turns "key=value" pairs into script variables. Values are
// read as YAML scalars or flow collections, so "3" is an int, "true" a bool
// and "[a, b]" a list; anything else stays a string.
func ParseDefines(defines []string) (map[string]interface{}, error) {
	vars := make(map[string]interface{}, len(defines))
	for _, def := range defines {
		key, value, ok := strings.Cut(def, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid define %q: expected key=value", def)
		}

		var parsed interface{}
		if err := yaml.Unmarshal([]byte(value), &parsed); err != nil || parsed == nil {
			parsed = value
		}
		vars[key] = parsed
	}
	return vars, nil
}

// LoadFile reads path, choosing the syntax from its extension.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Source, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return l.load(ctx, format, path, content)
}

// LoadInline reads content in the given format.
func (l *Loader) LoadInline(ctx context.Context, format Format, content string) (*Source, error) {
	return l.load(ctx, format, "inline", []byte(content))
}

func (l *Loader) load(ctx context.Context, format Format, file string, content []byte) (*Source, error) {
	start := time.Now()

	var (
		raw map[string]interface{}
		err error
	)
	switch format {
	case FormatCUE:
		raw, err = l.loadCUE(file, content)
	case FormatYAML:
		raw, err = loadYAML(file, content)
	case FormatJSON:
		raw, err = loadJSON(file, content)
	case FormatStarlark:
		raw, err = l.loadStarlark(ctx, file, content)
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	if err != nil {
		l.logger.Debug().Err(err).Str("file", file).Str("format", string(format)).Msg("Config source rejected")
		return nil, err
	}

	l.logger.Debug().
		Str("file", file).
		Str("format", string(format)).
		Int("keys", len(raw)).
		Dur("duration", time.Since(start)).
		Msg("Config source loaded")

	return &Source{
		Raw:      raw,
		File:     file,
		Format:   format,
		LoadedAt: time.Now(),
	}, nil
}

// loadCUE compiles a CUE file and exports the site literal.
func (l *Loader) loadCUE(file string, content []byte) (map[string]interface{}, error) {
	val := l.cue.CompileBytes(content, cue.Filename(file))
	if err := val.Err(); err != nil {
		return nil, &LoadError{File: file, Errors: convertCUEErrors(err)}
	}

	if site := val.LookupPath(cue.ParsePath(SiteField)); site.Exists() {
		val = site
	}

	if err := val.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{File: file, Errors: convertCUEErrors(err)}
	}

	if val.Kind() != cue.StructKind {
		return nil, &LoadError{File: file, Errors: []ValidationError{{
			File:     file,
			Message:  fmt.Sprintf("site configuration must be a struct, got %s", val.Kind()),
			Severity: "error",
		}}}
	}

	var raw map[string]interface{}
	if err := val.Decode(&raw); err != nil {
		return nil, &LoadError{File: file, Errors: convertCUEErrors(err)}
	}
	return raw, nil
}

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

// loadYAML decodes a YAML document.
func loadYAML(file string, content []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(content, &raw); err != nil {
		ve := ValidationError{File: file, Message: err.Error(), Severity: "error"}
		if m := yamlLinePattern.FindStringSubmatch(err.Error()); m != nil {
			ve.Line, _ = strconv.Atoi(m[1])
		}
		return nil, &LoadError{File: file, Errors: []ValidationError{ve}}
	}
	if raw == nil {
		return nil, &LoadError{File: file, Errors: []ValidationError{{
			File: file, Message: "document is empty", Severity: "error",
		}}}
	}
	return raw, nil
}

// loadJSON decodes a JSON object.
func loadJSON(file string, content []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(content, &raw); err != nil {
		ve := ValidationError{File: file, Message: err.Error(), Severity: "error"}

		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxErr):
			ve.Line, ve.Column = lineColumn(content, syntaxErr.Offset)
		case errors.As(err, &typeErr):
			ve.Line, ve.Column = lineColumn(content, typeErr.Offset)
		}
		return nil, &LoadError{File: file, Errors: []ValidationError{ve}}
	}
	if raw == nil {
		return nil, &LoadError{File: file, Errors: []ValidationError{{
			File: file, Message: "document must be an object", Severity: "error",
		}}}
	}
	return raw, nil
}

// lineColumn converts a byte offset into a 1-indexed line and column.
func lineColumn(content []byte, offset int64) (int, int) {
	if offset > int64(len(content)) {
		offset = int64(len(content))
	}
	line, col := 1, 1
	for _, b := range content[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

// loadStarlark runs a script and exports its "site" global.
func (l *Loader) loadStarlark(ctx context.Context, file string, content []byte) (map[string]interface{}, error) {
	vars := l.vars
	if vars == nil {
		vars = map[string]interface{}{}
	}
	result, err := l.starlark.Evaluate(ctx, file, string(content), map[string]interface{}{VarsName: vars})
	if err != nil {
		return nil, &LoadError{File: file, Errors: []ValidationError{starlarkError(file, err)}}
	}

	site, ok := result.Output[SiteField]
	if !ok {
		return nil, &LoadError{File: file, Errors: []ValidationError{{
			File:     file,
			Message:  fmt.Sprintf("script must define a global named %q", SiteField),
			Severity: "error",
		}}}
	}

	raw, ok := site.(map[string]interface{})
	if !ok {
		return nil, &LoadError{File: file, Errors: []ValidationError{{
			File:     file,
			Path:     SiteField,
			Message:  fmt.Sprintf("must be a dict or struct, got %T", site),
			Severity: "error",
		}}}
	}

	l.logger.Debug().Str("file", file).Dur("execution_time", result.ExecutionTime).Msg("Starlark config evaluated")
	return raw, nil
}

// starlarkError extracts a position from Starlark syntax and evaluation errors.
func starlarkError(file string, err error) ValidationError {
	ve := ValidationError{File: file, Message: err.Error(), Severity: "error"}

	var syntaxErr syntax.Error
	var evalErr *starlark.EvalError
	switch {
	case errors.As(err, &syntaxErr):
		ve.Line, ve.Column = int(syntaxErr.Pos.Line), int(syntaxErr.Pos.Col)
		ve.Message = syntaxErr.Msg
	case errors.As(err, &evalErr):
		if n := len(evalErr.CallStack); n > 0 {
			pos := evalErr.CallStack[n-1].Pos
			ve.Line, ve.Column = int(pos.Line), int(pos.Col)
		}
		ve.Message = evalErr.Msg
	}
	return ve
}

// convertCUEErrors converts CUE errors to ValidationError slice.
func convertCUEErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	for _, e := range cueerrors.Errors(err) {
		ve := ValidationError{
			Path:     strings.Join(e.Path(), "."),
			Message:  cueMessage(e),
			Severity: "error",
		}
		if pos := cueerrors.Positions(e); len(pos) > 0 {
			ve.File = pos[0].Filename()
			ve.Line = pos[0].Line()
			ve.Column = pos[0].Column()
		}
		validationErrors = append(validationErrors, ve)
	}

	return validationErrors
}

// cueMessage formats an error message without its path prefix.
func cueMessage(e cueerrors.Error) string {
	format, args := e.Msg()
	return fmt.Sprintf(format, args...)
}
