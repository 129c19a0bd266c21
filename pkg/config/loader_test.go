package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func newTestLoader() *Loader {
	return NewLoader(zerolog.New(nil).Level(zerolog.Disabled), 0)
}

func TestLoader_LoadInline(t *testing.T) {
	loader := newTestLoader()
	ctx := context.Background()

	tests := []struct {
		name    string
		format  Format
		content string
	}{
		{
			name:   "cue top level",
			format: FormatCUE,
			content: `
title: "Flags"
theme: {
	nav: [{text: "Docs", link: "https://example.com"}]
	sidebar: [{text: "General", items: [{text: "Toggle", link: "/toggle"}]}]
	socialLinks: [{icon: "github", link: "https://github.com/example"}]
}
`,
		},
		{
			name:   "cue site field with helpers",
			format: FormatCUE,
			content: `
_repo: "https://github.com/example"
#Link: {text: string, link: string}

site: {
	title: "Flags"
	theme: {
		nav: [#Link & {text: "Docs", link: "https://example.com"}]
		sidebar: [{text: "General", items: [{text: "Toggle", link: "/toggle"}]}]
		socialLinks: [{icon: "github", link: _repo}]
	}
}
`,
		},
		{
			name:   "yaml",
			format: FormatYAML,
			content: `
title: Flags
theme:
  nav:
    - text: Docs
      link: https://example.com
  sidebar:
    - text: General
      items:
        - text: Toggle
          link: /toggle
  socialLinks:
    - icon: github
      link: https://github.com/example
`,
		},
		{
			name:   "json",
			format: FormatJSON,
			content: `{
  "title": "Flags",
  "theme": {
    "nav": [{"text": "Docs", "link": "https://example.com"}],
    "sidebar": [{"text": "General", "items": [{"text": "Toggle", "link": "/toggle"}]}],
    "socialLinks": [{"icon": "github", "link": "https://github.com/example"}]
  }
}`,
		},
		{
			name:   "starlark",
			format: FormatStarlark,
			content: `
def link(text, to):
    return {"text": text, "link": to}

site = {
    "title": "Flags",
    "theme": {
        "nav": [link("Docs", "https://example.com")],
        "sidebar": [{"text": "General", "items": [link("Toggle", "/toggle")]}],
        "socialLinks": [{"icon": "github", "link": "https://github.com/example"}],
    },
}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := loader.LoadInline(ctx, tt.format, tt.content)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src.Format != tt.format || src.File != "inline" {
				t.Errorf("unexpected source metadata: %s %s", src.Format, src.File)
			}
			if src.Raw["title"] != "Flags" {
				t.Errorf("expected title Flags, got %v", src.Raw["title"])
			}

			theme, ok := src.Raw["theme"].(map[string]interface{})
			if !ok {
				t.Fatalf("expected theme object, got %T", src.Raw["theme"])
			}
			sidebar, ok := theme["sidebar"].([]interface{})
			if !ok || len(sidebar) != 1 {
				t.Fatalf("expected one sidebar group, got %v", theme["sidebar"])
			}
			group := sidebar[0].(map[string]interface{})
			items := group["items"].([]interface{})
			if items[0].(map[string]interface{})["link"] != "/toggle" {
				t.Errorf("unexpected sidebar item %v", items[0])
			}
			if _, ok := src.Raw["_repo"]; ok {
				t.Error("hidden fields must not be exported")
			}
		})
	}
}

func TestLoader_Errors(t *testing.T) {
	loader := newTestLoader()
	ctx := context.Background()

	tests := []struct {
		name     string
		format   Format
		content  string
		wantLine int
	}{
		{name: "cue syntax", format: FormatCUE, content: "title: \"Flags\"\ntheme: {\n", wantLine: 0},
		{name: "cue incomplete", format: FormatCUE, content: "title: string\n"},
		{name: "cue non-struct site", format: FormatCUE, content: "site: 42\n"},
		{name: "yaml syntax", format: FormatYAML, content: "title: Flags\ntheme:\n  nav: [\n", wantLine: 0},
		{name: "yaml empty", format: FormatYAML, content: ""},
		{name: "json syntax", format: FormatJSON, content: "{\n  \"title\": \"Flags\",\n}", wantLine: 3},
		{name: "json array", format: FormatJSON, content: `["Flags"]`},
		{name: "starlark missing site", format: FormatStarlark, content: "title = \"Flags\"\n"},
		{name: "starlark site not dict", format: FormatStarlark, content: "site = [1]\n"},
		{name: "starlark syntax", format: FormatStarlark, content: "site = {\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.LoadInline(ctx, tt.format, tt.content)
			if err == nil {
				t.Fatal("expected error")
			}

			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected *LoadError, got %T: %v", err, err)
			}
			if len(loadErr.Errors) == 0 {
				t.Fatal("expected at least one validation error")
			}
			if tt.wantLine > 0 && loadErr.Errors[0].Line != tt.wantLine {
				t.Errorf("expected line %d, got %d (%s)", tt.wantLine, loadErr.Errors[0].Line, loadErr.Errors[0])
			}
		})
	}
}

func TestLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	loader := newTestLoader()

	path := filepath.Join(dir, "site.yml")
	if err := os.WriteFile(path, []byte("title: Flags\n"), 0644); err != nil {
		t.Fatal(err)
	}

	src, err := loader.LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.File != path || src.Format != FormatYAML {
		t.Errorf("unexpected source metadata: %s %s", src.File, src.Format)
	}

	if _, err := loader.LoadFile(context.Background(), filepath.Join(dir, "site.toml")); err == nil {
		t.Error("expected unsupported extension error")
	}
	if _, err := loader.LoadFile(context.Background(), filepath.Join(dir, "missing.cue")); err == nil {
		t.Error("expected read error")
	}
}

func TestLoader_CUEErrorPosition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.cue")
	content := "title: \"Flags\"\ntitle: \"Other\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := newTestLoader().LoadFile(context.Background(), path)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected *LoadError, got %v", err)
	}
	first := loadErr.Errors[0]
	if first.File != path || first.Line == 0 {
		t.Errorf("expected a position in %s, got %+v", path, first)
	}
}

func TestFormatForPath(t *testing.T) {
	tests := map[string]Format{
		"site.cue":      FormatCUE,
		"site.yaml":     FormatYAML,
		"conf/site.yml": FormatYAML,
		"site.json":     FormatJSON,
		"site.star":     FormatStarlark,
	}
	for path, want := range tests {
		got, err := FormatForPath(path)
		if err != nil || got != want {
			t.Errorf("FormatForPath(%q) = %q, %v; want %q", path, got, err, want)
		}
	}
}

func TestValidationError_String(t *testing.T) {
	ve := ValidationError{File: "site.cue", Line: 3, Column: 7, Path: "theme.nav", Message: "conflicting values"}
	if got := ve.String(); got != "site.cue:3:7: theme.nav: conflicting values" {
		t.Errorf("unexpected format %q", got)
	}
}

func TestParseDefines(t *testing.T) {
	vars, err := ParseDefines([]string{"title=Flags", "depth=3", "draft=true", "tags=[a, b]", "empty=", "url=https://example.com/a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if vars["title"] != "Flags" {
		t.Errorf("title = %#v", vars["title"])
	}
	if vars["depth"] != 3 {
		t.Errorf("depth = %#v", vars["depth"])
	}
	if vars["draft"] != true {
		t.Errorf("draft = %#v", vars["draft"])
	}
	if tags, ok := vars["tags"].([]interface{}); !ok || len(tags) != 2 {
		t.Errorf("tags = %#v", vars["tags"])
	}
	if vars["empty"] != "" {
		t.Errorf("empty = %#v", vars["empty"])
	}
	if vars["url"] != "https://example.com/a" {
		t.Errorf("url = %#v", vars["url"])
	}

	for _, bad := range []string{"novalue", "=x"} {
		if _, err := ParseDefines([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestLoader_StarlarkVariables(t *testing.T) {
	loader := newTestLoader()
	loader.SetVariables(map[string]interface{}{
		"title":    "Flags",
		"sections": []interface{}{"guide", "api"},
		"draft":    false,
	})

	script := `
def group(name):
    return struct(text = name.title(), items = [struct(text = "Intro", link = "/" + name + "/")])

site = struct(
    title = vars["title"],
    theme = struct(sidebar = [group(s) for s in vars["sections"]]),
)
`
	src, err := loader.LoadInline(context.Background(), FormatStarlark, script)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Raw["title"] != "Flags" {
		t.Errorf("title = %v", src.Raw["title"])
	}
	theme := src.Raw["theme"].(map[string]interface{})
	sidebar := theme["sidebar"].([]interface{})
	if len(sidebar) != 2 {
		t.Fatalf("expected 2 sidebar groups, got %v", sidebar)
	}
	if sidebar[1].(map[string]interface{})["text"] != "Api" {
		t.Errorf("unexpected group %v", sidebar[1])
	}

	// Without variables the dict is still predeclared.
	plain := newTestLoader()
	src, err = plain.LoadInline(context.Background(), FormatStarlark, `site = {"title": vars.get("title", "Default")}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Raw["title"] != "Default" {
		t.Errorf("title = %v", src.Raw["title"])
	}
}
