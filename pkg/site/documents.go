package site

import "sort"

// DocumentSet is the content collaborator's view of known documents.
// Has is called with canonical document paths (see CanonicalDocPath).
type DocumentSet interface {
	Has(path string) bool
}

// Documents is an in-memory DocumentSet.
type Documents map[string]struct{}

// NewDocuments builds a Documents set from link-style or source-style paths.
func NewDocuments(paths ...string) Documents {
	d := make(Documents, len(paths))
	for _, p := range paths {
		d.Add(p)
	}
	return d
}

// Add inserts a path after canonicalizing it.
func (d Documents) Add(p string) {
	d[CanonicalDocPath(p)] = struct{}{}
}

// Has implements DocumentSet.
func (d Documents) Has(p string) bool {
	_, ok := d[p]
	return ok
}

// Paths returns the canonical paths in sorted order.
func (d Documents) Paths() []string {
	out := make([]string, 0, len(d))
	for p := range d {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
