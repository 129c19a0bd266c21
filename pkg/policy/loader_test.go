package policy

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const headerPolicy = `# Titles must mention the product.
# severity: error
# tags: naming, branding
package docnav.custom.product

import rego.v1

deny contains "missing product name" if {
	not contains(input.site.title, "Acme")
}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
}

func TestLoadFromFile_Rego(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	loader := NewLoader(logger)

	policyFile := filepath.Join(t.TempDir(), "product-title.rego")
	writeFile(t, policyFile, headerPolicy)

	policies, err := loader.loadFromFile(context.Background(), policyFile)
	if err != nil {
		t.Fatalf("Failed to load policy: %v", err)
	}
	if len(policies) != 1 {
		t.Fatalf("Expected 1 policy, got %d", len(policies))
	}

	policy := policies[0]
	if policy.Name != "product-title" {
		t.Errorf("Expected name 'product-title', got '%s'", policy.Name)
	}
	if policy.Rego != headerPolicy {
		t.Error("Rego content doesn't match")
	}
	if policy.Description != "Titles must mention the product." {
		t.Errorf("Unexpected description %q", policy.Description)
	}
	if policy.Severity != SeverityError {
		t.Errorf("Expected severity error, got %s", policy.Severity)
	}
	if len(policy.Tags) != 2 || policy.Tags[0] != "naming" || policy.Tags[1] != "branding" {
		t.Errorf("Unexpected tags %v", policy.Tags)
	}
	if policy.Source != policyFile {
		t.Errorf("Expected source %s, got %s", policyFile, policy.Source)
	}
	if !policy.Enabled {
		t.Error("Policy should be enabled by default")
	}
}

func TestLoadFromFile_Bundle(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	loader := NewLoader(logger)

	bundle := PolicyBundle{
		Name:    "house-style",
		Version: "1.0.0",
		Policies: []Policy{
			{Name: "one", Rego: "package one\n\nimport rego.v1\n\ndeny contains \"x\" if { false }", Severity: SeverityError, Enabled: true},
			{Name: "two", Rego: "package two\n\nimport rego.v1\n\ndeny contains \"x\" if { false }", Enabled: true},
		},
	}
	data, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("Failed to marshal bundle: %v", err)
	}

	bundleFile := filepath.Join(t.TempDir(), "bundle.json")
	writeFile(t, bundleFile, string(data))

	policies, err := loader.loadFromFile(context.Background(), bundleFile)
	if err != nil {
		t.Fatalf("Failed to load bundle: %v", err)
	}
	if len(policies) != 2 {
		t.Fatalf("Expected 2 policies, got %d", len(policies))
	}
	if policies[1].Severity != SeverityWarning {
		t.Errorf("Expected default severity warning, got %s", policies[1].Severity)
	}
	for _, p := range policies {
		if p.Source != bundleFile {
			t.Errorf("policy %s has source %q", p.Name, p.Source)
		}
	}
}

func TestLoadFromDirectory_Recursive(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	loader := NewLoader(logger)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.rego"), headerPolicy)
	writeFile(t, filepath.Join(dir, "nested", "b.rego"), headerPolicy)
	writeFile(t, filepath.Join(dir, "README.md"), "# policies")
	writeFile(t, filepath.Join(dir, "broken.json"), "{not json")

	policies, err := loader.loadFromDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("Failed to load directory: %v", err)
	}

	// broken.json is skipped with a warning.
	if len(policies) != 2 {
		t.Errorf("Expected 2 policies, got %d", len(policies))
	}
}

func TestLoadFromPaths(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	loader := NewLoader(logger)

	dir := t.TempDir()
	file := filepath.Join(dir, "single.rego")
	writeFile(t, file, headerPolicy)
	writeFile(t, filepath.Join(dir, "more", "other.rego"), headerPolicy)

	policies, err := loader.LoadFromPaths(context.Background(), []string{file, filepath.Join(dir, "more")})
	if err != nil {
		t.Fatalf("LoadFromPaths: %v", err)
	}
	if len(policies) != 2 {
		t.Errorf("Expected 2 policies, got %d", len(policies))
	}

	if _, err := loader.LoadFromPaths(context.Background(), []string{"/nonexistent/path"}); err == nil {
		t.Error("Expected error for non-existent path")
	}
}

func TestHeaderComments(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "single line comment",
			content:  "# This is a test policy\npackage test",
			expected: []string{"This is a test policy"},
		},
		{
			name:     "comments with empty lines",
			content:  "# First line\n#\n\n# Second line\npackage test",
			expected: []string{"First line", "Second line"},
		},
		{
			name:     "no comments",
			content:  "package test\n# trailing",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := headerComments(tt.content)
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("comment %d = %q, want %q", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestClearCache(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	loader := NewLoader(logger)

	policyFile := filepath.Join(t.TempDir(), "test.rego")
	writeFile(t, policyFile, headerPolicy)

	if _, err := loader.loadFromFile(context.Background(), policyFile); err != nil {
		t.Fatalf("Failed to load policy: %v", err)
	}
	if len(loader.cache) != 1 {
		t.Errorf("Expected 1 cache entry, got %d", len(loader.cache))
	}

	loader.ClearCache()

	if len(loader.cache) != 0 {
		t.Errorf("Expected 0 cache entries after clear, got %d", len(loader.cache))
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	loader := NewLoader(logger)
	dir := t.TempDir()

	txt := filepath.Join(dir, "test.txt")
	writeFile(t, txt, "not a policy")
	if _, err := loader.loadFromFile(context.Background(), txt); err == nil {
		t.Error("Expected error for unsupported file type")
	}

	bad := filepath.Join(dir, "test.json")
	writeFile(t, bad, "invalid json")
	if _, err := loader.loadFromFile(context.Background(), bad); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestLoadedPolicyEvaluates(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	eng, err := NewEngine(logger)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "product-title.rego"), headerPolicy)

	if err := eng.LoadPolicies(context.Background(), []string{dir}); err != nil {
		t.Fatalf("LoadPolicies: %v", err)
	}

	result, err := eng.Evaluate(context.Background(), cleanSite(), nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	v, ok := policiesOf(result.Violations)["product-title"]
	if !ok {
		t.Fatalf("loaded policy did not fire: %+v", result.Violations)
	}
	if v.Message != "missing product name" || v.Severity != SeverityError {
		t.Errorf("unexpected violation %+v", v)
	}
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	loader := NewLoader(logger)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.rego"), headerPolicy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	done := make(chan int, 4)
	err := loader.Watch(ctx, []string{dir}, 20*time.Millisecond, func(policies []Policy) error {
		reloads.Add(1)
		done <- len(policies)
		return nil
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeFile(t, filepath.Join(dir, "b.rego"), headerPolicy)

	select {
	case n := <-done:
		if n != 2 {
			t.Errorf("Expected 2 policies after reload, got %d", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}
