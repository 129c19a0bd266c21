// Package content discovers the markdown documents under a content root.
//
// Discover walks the root for *.md files, reads their front matter and
// derives a title from, in order, the front matter "title" field, the first
// level-one heading, or the file name. Document paths are canonical site
// paths (see site.CanonicalDocPath), so an Index can be handed directly to
// site.NewResolver as its DocumentSet.
package content
