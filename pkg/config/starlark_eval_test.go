package config

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestStarlarkEvaluator_Evaluate(t *testing.T) {
	evaluator := NewStarlarkEvaluator(5 * time.Second)
	ctx := context.Background()

	tests := []struct {
		name      string
		script    string
		input     map[string]interface{}
		checkFunc func(*testing.T, *StarlarkResult)
		wantErr   bool
	}{
		{
			name: "site as dict",
			script: `
site = {"title": "Flags", "base": "/"}
`,
			checkFunc: func(t *testing.T, sr *StarlarkResult) {
				site, ok := sr.Output["site"].(map[string]interface{})
				if !ok {
					t.Fatalf("expected site dict, got %T", sr.Output["site"])
				}
				if site["title"] != "Flags" {
					t.Errorf("expected title=Flags, got %v", site["title"])
				}
			},
		},
		{
			name: "site as struct",
			script: `
site = struct(title = "Flags", theme = struct(nav = []))
`,
			checkFunc: func(t *testing.T, sr *StarlarkResult) {
				site, ok := sr.Output["site"].(map[string]interface{})
				if !ok {
					t.Fatalf("expected site map, got %T", sr.Output["site"])
				}
				theme, ok := site["theme"].(map[string]interface{})
				if !ok {
					t.Fatalf("expected theme map, got %T", site["theme"])
				}
				if nav, ok := theme["nav"].([]interface{}); !ok || len(nav) != 0 {
					t.Errorf("expected empty nav list, got %v", theme["nav"])
				}
			},
		},
		{
			name: "generated sidebar",
			script: `
def items(section, pages):
    return [{"text": p.title(), "link": "/" + section + "/" + p} for p in pages]

sidebar = [{"text": "Guide", "items": items("guide", ["intro", "setup"])}]
`,
			checkFunc: func(t *testing.T, sr *StarlarkResult) {
				if _, ok := sr.Output["items"]; ok {
					t.Error("functions must not be exported")
				}
				sidebar := sr.Output["sidebar"].([]interface{})
				group := sidebar[0].(map[string]interface{})
				items := group["items"].([]interface{})
				second := items[1].(map[string]interface{})
				if second["link"] != "/guide/setup" || second["text"] != "Setup" {
					t.Errorf("unexpected item %v", second)
				}
			},
		},
		{
			name: "tuples become lists",
			script: `
head = [("meta", {"name": "theme-color"})]
`,
			checkFunc: func(t *testing.T, sr *StarlarkResult) {
				head := sr.Output["head"].([]interface{})
				tag, ok := head[0].([]interface{})
				if !ok || len(tag) != 2 || tag[0] != "meta" {
					t.Errorf("expected [meta, {...}], got %v", head[0])
				}
			},
		},
		{
			name: "private globals hidden",
			script: `
_base = "/docs/"
base = _base
`,
			checkFunc: func(t *testing.T, sr *StarlarkResult) {
				if _, ok := sr.Output["_base"]; ok {
					t.Error("expected _base to be hidden")
				}
				if sr.Output["base"] != "/docs/" {
					t.Errorf("expected base=/docs/, got %v", sr.Output["base"])
				}
			},
		},
		{
			name: "input variables",
			script: `
title = product + " docs"
`,
			input: map[string]interface{}{"product": "Flags"},
			checkFunc: func(t *testing.T, sr *StarlarkResult) {
				if sr.Output["title"] != "Flags docs" {
					t.Errorf("expected title='Flags docs', got %v", sr.Output["title"])
				}
			},
		},
		{
			name: "syntax error",
			script: `
site = {"title": 
`,
			wantErr: true,
		},
		{
			name: "runtime error",
			script: `
site = {"title": 1 + "x"}
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := evaluator.Evaluate(ctx, "site.star", tt.script, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if result == nil || result.Error == "" {
					t.Error("expected error in result")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.checkFunc != nil {
				tt.checkFunc(t, result)
			}
		})
	}
}

func TestStarlarkEvaluator_Timeout(t *testing.T) {
	evaluator := NewStarlarkEvaluator(100 * time.Millisecond)

	script := `
def slow_function():
    result = 0
    for i in range(100000000):
        result = result + i
    return result

site = {"title": str(slow_function())}
`

	result, err := evaluator.Evaluate(context.Background(), "slow.star", script, nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected timeout error, got %v", err)
	}
	if result == nil || result.Error == "" {
		t.Error("expected timeout error in result")
	}
}

func TestStarlarkEvaluator_PrintSuppressed(t *testing.T) {
	evaluator := NewStarlarkEvaluator(5 * time.Second)

	script := `
print("this should not appear")
result = "done"
`

	result, err := evaluator.Evaluate(context.Background(), "print.star", script, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output["result"] != "done" {
		t.Errorf("expected result='done', got %v", result.Output["result"])
	}
}

func TestStarlarkEvaluator_Env(t *testing.T) {
	t.Setenv("DOCNAV_BASE", "/preview/")
	t.Setenv("HOME_SECRET", "nope")
	evaluator := NewStarlarkEvaluator(5 * time.Second)

	result, err := evaluator.Evaluate(context.Background(), "env.star", `
base = env("DOCNAV_BASE", "/")
missing = env("DOCNAV_MISSING", "fallback")
`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output["base"] != "/preview/" {
		t.Errorf("expected base=/preview/, got %v", result.Output["base"])
	}
	if result.Output["missing"] != "fallback" {
		t.Errorf("expected fallback, got %v", result.Output["missing"])
	}

	if _, err := evaluator.Evaluate(context.Background(), "env.star", `x = env("HOME_SECRET")`, nil); err == nil {
		t.Error("expected error reading unprefixed variable")
	}
}
