package config

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// SiteSchema is the name of the built-in site configuration schema.
const SiteSchema = "#SiteConfig"

// SchemaRegistry manages CUE schemas for validation.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.RWMutex
}

// NewSchemaRegistry creates a new schema registry with the built-in site schema.
func NewSchemaRegistry() *SchemaRegistry {
	sr := &SchemaRegistry{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}

	if err := sr.RegisterSchema(SiteSchema, builtinSiteSchema); err != nil {
		panic(err)
	}

	return sr
}

// RegisterSchema compiles src and registers the definition named name
// (e.g. "#SiteConfig") from it.
func (sr *SchemaRegistry) RegisterSchema(name, src string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	val := sr.ctx.CompileString(src, cue.Filename(name+".cue"))
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	def := val.LookupPath(cue.ParsePath(name))
	if !def.Exists() {
		return fmt.Errorf("schema source does not define %s", name)
	}

	sr.schemas[name] = def
	return nil
}

// GetSchema retrieves a schema by name.
func (sr *SchemaRegistry) GetSchema(name string) (cue.Value, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	val, ok := sr.schemas[name]
	return val, ok
}

// Check unifies data with the named schema and reports every violation.
// A nil slice means the data conforms.
func (sr *SchemaRegistry) Check(ctx context.Context, name string, data interface{}) ([]ValidationError, error) {
	schema, ok := sr.GetSchema(name)
	if !ok {
		return nil, fmt.Errorf("schema %s not found", name)
	}

	sr.mu.Lock()
	defer sr.mu.Unlock()

	dataVal := sr.ctx.Encode(data)
	if err := dataVal.Err(); err != nil {
		return nil, fmt.Errorf("failed to encode data: %w", err)
	}

	unified := schema.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return convertCUEErrors(err), nil
	}

	return nil, nil
}

// ListSchemas returns all registered schema names in sorted order.
func (sr *SchemaRegistry) ListSchemas() []string {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	names := make([]string, 0, len(sr.schemas))
	for name := range sr.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const builtinSiteSchema = `
#SiteConfig: {
	title:        string & !=""
	description?: string
	base?:        string
	headTags?: [...#HeadTag]
	theme?: #Theme
}

#HeadTag: {
	tagName:     string & =~"^[A-Za-z0-9]+$"
	attributes?: {[string]: string}
	content?:    string
} | [string, {[string]: string}] | [string, {[string]: string}, string]

#Theme: {
	logo?:            string
	editLinkPattern?: string & =~"^[A-Za-z][A-Za-z0-9+.-]*://.*:path"
	editLinkText?:    string
	searchProvider?:  #SearchProvider
	nav?: [...#NavItem]
	sidebar?: [...#SidebarGroup]
	socialLinks?: [...#SocialLink]
	footer?: {
		message?:   string
		copyright?: string
	}
}

#InternalLink: string & =~"^/"
#ExternalLink: string & =~"^([A-Za-z][A-Za-z0-9+.-]*:|//)"

#NavItem: {
	text: string & !=""
	link: #ExternalLink | #InternalLink
}

#SidebarGroup: {
	text:       string & !=""
	collapsed?: bool
	items?: [...#SidebarItem]
}

#SidebarItem: {
	text?: string
	link:  #InternalLink
}

#SocialLink: {
	icon:       #Icon
	link:       #ExternalLink
	ariaLabel?: string
}

#Icon: (string & =~"^[a-z0-9][a-z0-9-]*$") | {svg: string & =~"^\\s*<svg"}

#SearchProvider: {
	provider: "local"
} | {
	provider:   "external"
	service?:   string
	appId?:     string
	apiKey:     string & !=""
	indexName:  string & !=""
}
`
