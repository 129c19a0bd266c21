package config

import (
	"context"
	"strings"
	"testing"
)

func validSite() map[string]interface{} {
	return map[string]interface{}{
		"title": "Flags",
		"base":  "/flags/",
		"headTags": []interface{}{
			map[string]interface{}{"tagName": "link", "attributes": map[string]interface{}{"rel": "icon", "href": "/favicon.svg"}},
			[]interface{}{"meta", map[string]interface{}{"name": "theme-color", "content": "#3c8772"}},
		},
		"theme": map[string]interface{}{
			"editLinkPattern": "https://github.com/example/flags/edit/main/docs/:path",
			"searchProvider": map[string]interface{}{
				"provider":  "external",
				"apiKey":    "key",
				"indexName": "flags",
			},
			"nav": []interface{}{
				map[string]interface{}{"text": "Docs", "link": "https://example.com"},
				map[string]interface{}{"text": "Guide", "link": "/guide/"},
			},
			"sidebar": []interface{}{
				map[string]interface{}{
					"text":      "General",
					"collapsed": true,
					"items": []interface{}{
						map[string]interface{}{"text": "Toggle", "link": "/toggle"},
					},
				},
			},
			"socialLinks": []interface{}{
				map[string]interface{}{"icon": "github", "link": "https://github.com/example"},
				map[string]interface{}{
					"icon": map[string]interface{}{"svg": `<svg xmlns="http://www.w3.org/2000/svg"></svg>`},
					"link": "https://example.com/chat",
				},
			},
		},
	}
}

func TestSchemaRegistry_BuiltIn(t *testing.T) {
	sr := NewSchemaRegistry()

	schema, ok := sr.GetSchema(SiteSchema)
	if !ok {
		t.Fatalf("built-in schema %s not found", SiteSchema)
	}
	if schema.Err() != nil {
		t.Errorf("built-in schema has errors: %v", schema.Err())
	}

	names := sr.ListSchemas()
	if len(names) != 1 || names[0] != SiteSchema {
		t.Errorf("expected [%s], got %v", SiteSchema, names)
	}
}

func TestSchemaRegistry_CheckValid(t *testing.T) {
	sr := NewSchemaRegistry()

	errs, err := sr.Check(context.Background(), SiteSchema, validSite())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("expected no violations, got %v", errs)
	}

	local := validSite()
	local["theme"].(map[string]interface{})["searchProvider"] = map[string]interface{}{"provider": "local"}
	if errs, _ := sr.Check(context.Background(), SiteSchema, local); len(errs) != 0 {
		t.Fatalf("expected local search to conform, got %v", errs)
	}
}

func TestSchemaRegistry_CheckViolations(t *testing.T) {
	sr := NewSchemaRegistry()

	tests := []struct {
		name   string
		mutate func(site map[string]interface{})
	}{
		{
			name:   "missing title",
			mutate: func(site map[string]interface{}) { delete(site, "title") },
		},
		{
			name:   "unknown field",
			mutate: func(site map[string]interface{}) { site["themeConfig"] = map[string]interface{}{} },
		},
		{
			name: "external sidebar link",
			mutate: func(site map[string]interface{}) {
				theme := site["theme"].(map[string]interface{})
				group := theme["sidebar"].([]interface{})[0].(map[string]interface{})
				group["items"] = []interface{}{map[string]interface{}{"text": "X", "link": "https://x.example"}}
			},
		},
		{
			name: "relative nav link",
			mutate: func(site map[string]interface{}) {
				theme := site["theme"].(map[string]interface{})
				theme["nav"] = []interface{}{map[string]interface{}{"text": "Docs", "link": "docs"}}
			},
		},
		{
			name: "unknown search provider",
			mutate: func(site map[string]interface{}) {
				theme := site["theme"].(map[string]interface{})
				theme["searchProvider"] = map[string]interface{}{"provider": "magic"}
			},
		},
		{
			name: "edit link without placeholder",
			mutate: func(site map[string]interface{}) {
				theme := site["theme"].(map[string]interface{})
				theme["editLinkPattern"] = "https://github.com/example/edit"
			},
		},
		{
			name: "bad icon name",
			mutate: func(site map[string]interface{}) {
				theme := site["theme"].(map[string]interface{})
				theme["socialLinks"] = []interface{}{map[string]interface{}{"icon": "Git Hub", "link": "https://github.com"}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := validSite()
			tt.mutate(site)

			errs, err := sr.Check(context.Background(), SiteSchema, site)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(errs) == 0 {
				t.Fatal("expected violations")
			}
		})
	}
}

func TestSchemaRegistry_Custom(t *testing.T) {
	sr := NewSchemaRegistry()

	err := sr.RegisterSchema("#Footer", `
#Footer: {
	message:   string
	copyright: string & =~"^Copyright"
}
`)
	if err != nil {
		t.Fatalf("failed to register schema: %v", err)
	}

	errs, err := sr.Check(context.Background(), "#Footer", map[string]interface{}{
		"message":   "Released under MIT",
		"copyright": "(c) Example",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) == 0 || !strings.Contains(errs[0].Path, "copyright") {
		t.Errorf("expected a copyright violation, got %v", errs)
	}

	if err := sr.RegisterSchema("#Missing", `#Other: string`); err == nil {
		t.Error("expected error for missing definition")
	}
	if _, err := sr.Check(context.Background(), "#Nope", nil); err == nil {
		t.Error("expected error for unknown schema")
	}
}
