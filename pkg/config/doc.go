// Package config reads site configuration sources.
//
// A source is a file or inline content in one of four syntaxes:
//
//   - CUE (.cue): the site literal is the top-level value, or the value of a
//     top-level "site" field. Definitions and hidden fields are not exported,
//     so a file may carry its own helpers and constraints.
//   - YAML (.yaml, .yml) and JSON (.json): a single object.
//   - Starlark (.star): a script that assigns a global named "site" as a dict
//     or struct. Scripts run with a timeout, print is discarded and the env()
//     builtin exposes DOCNAV_* environment variables.
//
// Loader only turns syntax into a raw literal. Shape, link and document checks
// belong to site.Resolver. Syntax errors are returned as *LoadError carrying
// file, line and column where the parser reports them.
//
// SchemaRegistry holds CUE definitions. The built-in #SiteConfig definition
// mirrors the raw literal shape and is used for an optional schema pass that
// lists every violation instead of stopping at the first.
//
// Watcher batches fsnotify events for the configuration file and the content
// tree and hands each batch to a callback.
//
// Usage:
//
//	loader := config.NewLoader(logger, 0)
//	src, err := loader.LoadFile(ctx, "site.cue")
//	if err != nil {
//	    return err
//	}
//	cfg, err := site.NewResolver(docs).Load(ctx, src.Raw)
package config
