package site

import (
	"path"
	"regexp"
	"strings"
)

// LinkKind classifies a link string.
type LinkKind int

const (
	// LinkInvalid is neither an external URL nor a root-relative path.
	LinkInvalid LinkKind = iota

	// LinkInternal is a root-relative site path ("/guide/intro").
	LinkInternal

	// LinkExternal is an absolute URL with a scheme ("https://...",
	// "mailto:...") or a protocol-relative URL ("//cdn.example.com/x").
	LinkExternal
)

// String returns the kind name.
func (k LinkKind) String() string {
	switch k {
	case LinkInternal:
		return "internal"
	case LinkExternal:
		return "external"
	default:
		return "invalid"
	}
}

// schemePattern matches an RFC 3986 scheme followed by ':'.
var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*:`)

// ClassifyLink applies the link grammar:
//
//	external := scheme ":" rest | "//" rest
//	internal := "/" rest
//
// A scheme prefix wins over every other reading. Relative paths, fragment-only
// links and empty strings are invalid.
func ClassifyLink(link string) LinkKind {
	switch {
	case schemePattern.MatchString(link):
		return LinkExternal
	case strings.HasPrefix(link, "//"):
		return LinkExternal
	case strings.HasPrefix(link, "/"):
		return LinkInternal
	default:
		return LinkInvalid
	}
}

// allowedSchemes are the schemes an external link may carry.
var allowedSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
}

// SafeExternalLink reports whether an external link uses an allowed scheme.
// Protocol-relative links are allowed; "javascript:" and "data:" are not.
func SafeExternalLink(link string) bool {
	if strings.HasPrefix(link, "//") {
		return true
	}
	scheme := schemePattern.FindString(link)
	if scheme == "" {
		return false
	}
	return allowedSchemes[strings.ToLower(strings.TrimSuffix(scheme, ":"))]
}

// splitLink separates a link into path, query and fragment parts. The query
// and fragment keep their leading '?' and '#'.
func splitLink(link string) (p, query, fragment string) {
	p = link
	if i := strings.IndexByte(p, '#'); i >= 0 {
		p, fragment = p[:i], p[i:]
	}
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p, query = p[:i], p[i:]
	}
	return p, query, fragment
}

// cleanPath cleans a root-relative path, keeping a trailing slash.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	cleaned := path.Clean(p)
	if strings.HasSuffix(p, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

// NormalizeInternalLink cleans the path part of an internal link, keeping
// its query and fragment.
func NormalizeInternalLink(link string) string {
	p, query, fragment := splitLink(link)
	return cleanPath(p) + query + fragment
}

// CanonicalDocPath maps a link or a document source path to the key used in
// a DocumentSet. Query and fragment are dropped, ".md" and ".html" suffixes
// are removed in any letter case and a trailing "index" becomes its directory:
//
//	/guide/intro.md   -> /guide/intro
//	/guide/index.html -> /guide/
//	/index            -> /
func CanonicalDocPath(link string) string {
	p, _, _ := splitLink(link)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = cleanPath(p)
	if strings.HasSuffix(p, "/") {
		return p
	}
	for _, ext := range []string{".md", ".html"} {
		if len(p) > len(ext) && strings.EqualFold(p[len(p)-len(ext):], ext) {
			p = p[:len(p)-len(ext)]
			break
		}
	}
	if path.Base(p) == "index" {
		dir := path.Dir(p)
		if dir == "/" {
			return "/"
		}
		return dir + "/"
	}
	return p
}

// joinBase prefixes an internal link with the site base.
func joinBase(base, link string) string {
	if base == "" || base == "/" {
		return link
	}
	return strings.TrimSuffix(base, "/") + link
}
