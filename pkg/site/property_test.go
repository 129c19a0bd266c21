package site

import (
	"context"
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func TestLoad_PreservesOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		navLabels := rapid.SliceOfDistinct(rapid.StringMatching(`[A-Za-z][A-Za-z ]{0,11}`), func(s string) string { return s }).Draw(t, "navLabels")
		groupLabels := rapid.SliceOfN(rapid.SampledFrom([]string{"Guide", "Reference", "API", "Guide"}), 0, 6).Draw(t, "groupLabels")

		docs := NewDocuments()
		nav := make([]interface{}, 0, len(navLabels))
		for i, label := range navLabels {
			nav = append(nav, map[string]interface{}{"text": label, "link": fmt.Sprintf("/nav-%d", i)})
		}

		sidebar := make([]interface{}, 0, len(groupLabels))
		var wantLinks [][]string
		for g, label := range groupLabels {
			n := rapid.IntRange(0, 5).Draw(t, fmt.Sprintf("items%d", g))
			items := make([]interface{}, 0, n)
			links := make([]string, 0, n)
			for i := 0; i < n; i++ {
				link := fmt.Sprintf("/g%d/doc-%d", g, n-i)
				docs.Add(link)
				items = append(items, map[string]interface{}{"text": fmt.Sprintf("Item %d", i), "link": link})
				links = append(links, link)
			}
			sidebar = append(sidebar, map[string]interface{}{"text": label, "items": items})
			wantLinks = append(wantLinks, links)
		}

		raw := map[string]interface{}{
			"title": "Property",
			"theme": map[string]interface{}{"nav": nav, "sidebar": sidebar},
		}

		cfg, err := NewResolver(docs).Load(context.Background(), raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Theme.Nav) != len(navLabels) {
			t.Fatalf("nav length %d, want %d", len(cfg.Theme.Nav), len(navLabels))
		}
		for i, label := range navLabels {
			if cfg.Theme.Nav[i].Text != label {
				t.Fatalf("nav[%d] = %q, want %q", i, cfg.Theme.Nav[i].Text, label)
			}
		}

		if len(cfg.Theme.Sidebar) != len(groupLabels) {
			t.Fatalf("sidebar length %d, want %d", len(cfg.Theme.Sidebar), len(groupLabels))
		}
		for g, label := range groupLabels {
			group := cfg.Theme.Sidebar[g]
			if group.Text != label {
				t.Fatalf("sidebar[%d] = %q, want %q", g, group.Text, label)
			}
			for i, link := range wantLinks[g] {
				if group.Items[i].Link != link {
					t.Fatalf("sidebar[%d].items[%d] = %q, want %q", g, i, group.Items[i].Link, link)
				}
			}
		}
	})
}

func TestLoad_BrokenLinkNamesLink(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		missing := "/" + rapid.StringMatching(`[a-z]{1,8}(/[a-z]{1,8}){0,2}`).Draw(t, "missing")
		raw := map[string]interface{}{
			"title": "Property",
			"theme": map[string]interface{}{
				"sidebar": []interface{}{
					map[string]interface{}{
						"text": "Only",
						"items": []interface{}{
							map[string]interface{}{"text": "Known", "link": "/known-doc"},
							map[string]interface{}{"text": "Missing", "link": missing},
						},
					},
				},
			},
		}

		docs := NewDocuments("/known-doc")
		if docs.Has(CanonicalDocPath(missing)) {
			t.Skip("generated link collides with a known document")
		}

		_, err := NewResolver(docs).Load(context.Background(), raw)
		ce, ok := AsConfigError(err)
		if !ok || ce.Kind != KindBrokenLink {
			t.Fatalf("expected broken link, got %v", err)
		}
		if ce.Subject != missing {
			t.Fatalf("subject %q, want %q", ce.Subject, missing)
		}
	})
}

func TestEditLinkFor_Pure(t *testing.T) {
	cfg := &SiteConfig{Theme: ThemeConfig{EditLinkPattern: "https://example.com/edit/:path?ref=:path"}}

	rapid.Check(t, func(t *rapid.T) {
		doc := rapid.String().Draw(t, "doc")
		first := cfg.EditLinkFor(doc)
		second := cfg.EditLinkFor(doc)
		if first != second {
			t.Fatalf("EditLinkFor(%q) not deterministic: %q vs %q", doc, first, second)
		}
	})
}
