// Package stores persists the content index in SQLite.
//
// The schema is managed with golang-migrate from migrations embedded in the
// binary. ReplaceDocuments swaps the whole document table inside one
// transaction, so readers see either the previous index or the new one.
// Snapshot turns the stored index back into a site.Documents set, which lets
// configuration be validated without walking the content tree again.
package stores
