package site

import "testing"

func TestClassifyLink(t *testing.T) {
	tests := []struct {
		link string
		want LinkKind
	}{
		{"https://example.com", LinkExternal},
		{"http://example.com/a?b#c", LinkExternal},
		{"mailto:team@example.com", LinkExternal},
		{"//cdn.example.com/lib.js", LinkExternal},
		{"/guide/intro", LinkInternal},
		{"/", LinkInternal},
		{"/odd:path", LinkInternal},
		{"guide/intro", LinkInvalid},
		{"./intro", LinkInvalid},
		{"#anchor", LinkInvalid},
		{"", LinkInvalid},
		{"1http://x", LinkInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			if got := ClassifyLink(tt.link); got != tt.want {
				t.Errorf("ClassifyLink(%q) = %s, want %s", tt.link, got, tt.want)
			}
		})
	}
}

func TestSafeExternalLink(t *testing.T) {
	tests := []struct {
		link string
		want bool
	}{
		{"https://example.com", true},
		{"HTTP://example.com", true},
		{"mailto:team@example.com", true},
		{"//cdn.example.com/lib.js", true},
		{"javascript:alert(1)", false},
		{"data:text/html,hi", false},
		{"ftp://files.example.com", false},
		{"/guide", false},
	}

	for _, tt := range tests {
		if got := SafeExternalLink(tt.link); got != tt.want {
			t.Errorf("SafeExternalLink(%q) = %v, want %v", tt.link, got, tt.want)
		}
	}
}

func TestNormalizeInternalLink(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/toggle", "/toggle"},
		{"/guide//intro", "/guide/intro"},
		{"/guide/./intro/", "/guide/intro/"},
		{"/guide/../api#top", "/api#top"},
		{"/search?q=a/../b", "/search?q=a/../b"},
		{"/", "/"},
	}

	for _, tt := range tests {
		if got := NormalizeInternalLink(tt.in); got != tt.want {
			t.Errorf("NormalizeInternalLink(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalDocPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/toggle", "/toggle"},
		{"toggle.md", "/toggle"},
		{"/guide/intro.md#setup", "/guide/intro"},
		{"/guide/intro.html?x=1", "/guide/intro"},
		{"/guide/index.md", "/guide/"},
		{"/guide/index", "/guide/"},
		{"/guide/", "/guide/"},
		{"/index.md", "/"},
		{"index.md", "/"},
		{"/", "/"},
		{"/Guide.MD", "/Guide"},
		{"/guide/intro.Html", "/guide/intro"},
		{"/guide/INDEX.md", "/guide/INDEX"},
	}

	for _, tt := range tests {
		if got := CanonicalDocPath(tt.in); got != tt.want {
			t.Errorf("CanonicalDocPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDocuments(t *testing.T) {
	docs := NewDocuments("/b.md", "a/index.md", "/c")

	for _, p := range []string{"/b", "/a/", "/c"} {
		if !docs.Has(p) {
			t.Errorf("expected %q in document set", p)
		}
	}
	if docs.Has("/b.md") {
		t.Error("Has expects canonical paths")
	}

	paths := docs.Paths()
	want := []string{"/a/", "/b", "/c"}
	if len(paths) != len(want) {
		t.Fatalf("expected %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}
