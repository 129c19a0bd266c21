package site

import (
	"encoding/json"
)

// EditLinkPlaceholder is substituted with the document path by EditLinkFor.
const EditLinkPlaceholder = ":path"

// DefaultBase is the base path used when a configuration does not set one.
const DefaultBase = "/"

// SiteConfig is the resolved site configuration. It is produced by
// Resolver.Load and must be treated as read-only afterwards; it is then safe
// to share between goroutines.
type SiteConfig struct {
	// Title is the site title.
	Title string `json:"title" validate:"required"`

	// Description is the site description used for meta tags.
	Description string `json:"description,omitempty"`

	// Base is the path the site is served under. Always starts and ends with "/".
	Base string `json:"base" validate:"required,startswith=/"`

	// HeadTags are injected into every page's <head> in order.
	HeadTags []HeadTag `json:"headTags,omitempty" validate:"dive"`

	// Theme holds navigation, search and presentation settings.
	Theme ThemeConfig `json:"theme"`
}

// HeadTag is an HTML element emitted into <head>.
type HeadTag struct {
	// TagName is the element name (e.g. "link", "meta", "script").
	TagName string `json:"tagName" validate:"required,alphanum"`

	// Attributes maps attribute names to values.
	Attributes map[string]string `json:"attributes,omitempty"`

	// Content is the optional inner text of the element.
	Content string `json:"content,omitempty"`
}

// ThemeConfig holds the theme-level configuration.
type ThemeConfig struct {
	// Logo is a URL or site path of the logo image.
	Logo string `json:"logo,omitempty"`

	// EditLinkPattern is an absolute URL template containing ":path".
	EditLinkPattern string `json:"editLinkPattern,omitempty" validate:"omitempty,url,contains=:path"`

	// EditLinkText is the label rendered next to the edit link.
	EditLinkText string `json:"editLinkText,omitempty"`

	// SearchProvider selects the search backend. Nil means no search.
	SearchProvider SearchProvider `json:"searchProvider,omitempty"`

	// Nav is the top navigation bar.
	Nav []NavItem `json:"nav,omitempty" validate:"dive"`

	// Sidebar is the ordered list of sidebar sections.
	Sidebar []SidebarGroup `json:"sidebar,omitempty" validate:"dive"`

	// SocialLinks are icon links rendered in the header.
	SocialLinks []SocialLink `json:"socialLinks,omitempty" validate:"dive"`

	// Footer is the optional page footer.
	Footer *Footer `json:"footer,omitempty"`
}

// NavItem is a top navigation bar entry.
type NavItem struct {
	Text string `json:"text" validate:"required"`
	Link string `json:"link" validate:"required"`

	// Href is the link as rendered: external links unchanged, internal
	// links prefixed with the site base.
	Href string `json:"href"`

	// External reports whether Link is an absolute or protocol-relative URL.
	External bool `json:"external"`
}

// SidebarGroup is a labeled section of the sidebar.
type SidebarGroup struct {
	Text      string        `json:"text" validate:"required"`
	Collapsed bool          `json:"collapsed,omitempty"`
	Items     []SidebarItem `json:"items" validate:"dive"`
}

// SidebarItem links to a content document.
type SidebarItem struct {
	Text string `json:"text" validate:"required"`
	Link string `json:"link" validate:"required"`
	Href string `json:"href"`

	// authored is Link as written, before normalization.
	authored string
}

// SocialLink is an icon-bearing external link.
type SocialLink struct {
	Icon      Icon   `json:"icon"`
	Link      string `json:"link" validate:"required"`
	AriaLabel string `json:"ariaLabel,omitempty"`
}

// Footer is rendered at the bottom of every page.
type Footer struct {
	Message   string `json:"message,omitempty"`
	Copyright string `json:"copyright,omitempty"`
}

// Icon is either a NamedIcon or an InlineMarkup payload.
type Icon interface {
	isIcon()
}

// NamedIcon is a well-known icon identifier such as "github".
type NamedIcon string

func (NamedIcon) isIcon() {}

// InlineMarkup is raw SVG markup. It is passed to renderers byte-for-byte.
type InlineMarkup string

func (InlineMarkup) isIcon() {}

// MarshalJSON encodes the markup in its tagged {"svg": ...} form.
func (m InlineMarkup) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"svg": string(m)})
}

// SearchProvider is either LocalSearch or ExternalSearch.
type SearchProvider interface {
	// Provider returns the variant tag ("local" or "external").
	Provider() string
}

// Search provider variant tags.
const (
	ProviderLocal    = "local"
	ProviderExternal = "external"
)

// LocalSearch is a search index built at build time by the indexing
// collaborator. It carries no parameters.
type LocalSearch struct{}

// Provider implements SearchProvider.
func (LocalSearch) Provider() string { return ProviderLocal }

// MarshalJSON implements json.Marshaler.
func (LocalSearch) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"provider": ProviderLocal})
}

// ExternalSearch delegates search to a hosted service.
type ExternalSearch struct {
	// Service names the hosted service (e.g. "algolia").
	Service string

	// AppID is the service application identifier.
	AppID string

	// APIKey is the search-only API key.
	APIKey string

	// IndexName is the index to query.
	IndexName string
}

// Provider implements SearchProvider.
func (ExternalSearch) Provider() string { return ProviderExternal }

// MarshalJSON implements json.Marshaler.
func (e ExternalSearch) MarshalJSON() ([]byte, error) {
	out := map[string]string{
		"provider":  ProviderExternal,
		"apiKey":    e.APIKey,
		"indexName": e.IndexName,
	}
	if e.Service != "" {
		out["service"] = e.Service
	}
	if e.AppID != "" {
		out["appId"] = e.AppID
	}
	return json.Marshal(out)
}
