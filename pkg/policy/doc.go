// Package policy lints resolved site configurations with Open Policy Agent.
//
// Lint policies are advisory: they run after site.Resolver.Load has accepted
// a configuration and never change what Load returns. Each policy is a Rego
// module whose deny set yields either strings or objects of the form
//
//	{"message": "...", "path": "theme.nav[1].link", "severity": "warning"}
//
// The input document is
//
//	{"site": <resolved configuration as JSON>, "context": {...}}
//
// so policies see the same field names as `docnav resolve` prints.
//
// Built-in policies:
//
//   - social-https (error): social links must use https
//   - external-nav-https (warning): external nav links should use https
//   - empty-sidebar-group (warning): sidebar groups should have items
//   - site-description (info): the site should set a description
//   - favicon (info): a <link rel="icon"> head tag should be declared
//
// User policies are loaded from .rego files, named after the file, or from
// JSON bundles. A .rego file's leading comment block is its description;
// "severity:" and "tags:" lines in that block set those fields.
//
// Only error violations make Result.Allowed false.
package policy
