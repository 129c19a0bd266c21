// Package site resolves documentation-site configuration into a validated,
// read-only model for rendering collaborators.
//
// # Resolution
//
// Resolver.Load takes one raw nested literal (maps, lists, strings and
// booleans, as produced by the config package) and runs four stages in order:
//
//  1. Shape validation: types, unknown keys, required values, tagged variants.
//  2. Link resolution: external links pass through, internal links are cleaned
//     and prefixed with the site base.
//  3. Existence check: sidebar links must name a document in the DocumentSet.
//  4. Uniqueness check: top-level nav labels must be unique.
//
// The first failure is returned as a *ConfigError carrying the field path
// (e.g. "theme.sidebar[2].items[0].link"). Nothing partial is returned.
//
// # Polymorphic fields
//
// Icons are NamedIcon or InlineMarkup; search providers are LocalSearch or
// ExternalSearch. Inline markup must be a well-formed <svg> element and is
// kept byte-for-byte.
//
// # Thread Safety
//
// A Resolver may be used concurrently. A resolved SiteConfig is never
// mutated after Load returns.
package site
