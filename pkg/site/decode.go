package site

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

// namedIconPattern restricts well-known icon identifiers to lower-case slugs.
var namedIconPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Allowed keys per object, in the order they are reported when unknown keys
// are found.
var (
	siteKeys     = []string{"title", "description", "base", "headTags", "theme"}
	themeKeys    = []string{"logo", "editLinkPattern", "editLinkText", "searchProvider", "nav", "sidebar", "socialLinks", "footer"}
	headTagKeys  = []string{"tagName", "attributes", "content"}
	navKeys      = []string{"text", "link"}
	groupKeys    = []string{"text", "collapsed", "items"}
	itemKeys     = []string{"text", "link"}
	socialKeys   = []string{"icon", "link", "ariaLabel"}
	footerKeys   = []string{"message", "copyright"}
	iconKeys     = []string{"svg"}
	localKeys    = []string{"provider"}
	externalKeys = []string{"provider", "service", "appId", "apiKey", "indexName"}
)

// decodeSiteConfig converts a raw nested literal into a SiteConfig, checking
// value types and rejecting unknown keys. Presence of required scalar values
// is checked afterwards by struct validation.
func decodeSiteConfig(raw map[string]interface{}) (*SiteConfig, error) {
	if raw == nil {
		return nil, NewMalformedShape("", "configuration is empty")
	}
	if err := checkKeys(raw, "", siteKeys); err != nil {
		return nil, err
	}

	cfg := &SiteConfig{}
	var err error
	if cfg.Title, err = optString(raw, "", "title"); err != nil {
		return nil, err
	}
	if cfg.Description, err = optString(raw, "", "description"); err != nil {
		return nil, err
	}
	if cfg.Base, err = optString(raw, "", "base"); err != nil {
		return nil, err
	}
	cfg.Base = normalizeBase(cfg.Base)

	if v, ok := present(raw, "headTags"); ok {
		list, err := asList(v, "headTags")
		if err != nil {
			return nil, err
		}
		cfg.HeadTags = make([]HeadTag, 0, len(list))
		for i, entry := range list {
			tag, err := decodeHeadTag(entry, indexPath("headTags", i))
			if err != nil {
				return nil, err
			}
			cfg.HeadTags = append(cfg.HeadTags, tag)
		}
	}

	themeRaw, ok := present(raw, "theme")
	if !ok {
		return nil, NewMalformedShape("theme", "is required")
	}
	theme, err := decodeTheme(themeRaw, "theme")
	if err != nil {
		return nil, err
	}
	cfg.Theme = theme

	return cfg, nil
}

func normalizeBase(base string) string {
	if base == "" {
		return DefaultBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// decodeHeadTag accepts {tagName, attributes, content} or the tuple form
// [tagName, {attributes}, content].
func decodeHeadTag(v interface{}, p string) (HeadTag, error) {
	if list, ok := toList(v); ok {
		return decodeHeadTuple(list, p)
	}

	obj, err := asObject(v, p)
	if err != nil {
		return HeadTag{}, NewMalformedShape(p, "expected object or [tagName, attributes] tuple, got %s", kindOf(v))
	}
	if err := checkKeys(obj, p, headTagKeys); err != nil {
		return HeadTag{}, err
	}

	var tag HeadTag
	if tag.TagName, err = optString(obj, p, "tagName"); err != nil {
		return HeadTag{}, err
	}
	if attrs, ok := present(obj, "attributes"); ok {
		if tag.Attributes, err = decodeAttributes(attrs, joinPath(p, "attributes")); err != nil {
			return HeadTag{}, err
		}
	}
	if tag.Content, err = optString(obj, p, "content"); err != nil {
		return HeadTag{}, err
	}
	return tag, nil
}

func decodeHeadTuple(list []interface{}, p string) (HeadTag, error) {
	if len(list) < 1 || len(list) > 3 {
		return HeadTag{}, NewMalformedShape(p, "head tag tuple must have 1 to 3 elements, got %d", len(list))
	}

	var tag HeadTag
	var err error
	if tag.TagName, err = asString(list[0], indexPath(p, 0)); err != nil {
		return HeadTag{}, err
	}
	if len(list) > 1 && list[1] != nil {
		if tag.Attributes, err = decodeAttributes(list[1], indexPath(p, 1)); err != nil {
			return HeadTag{}, err
		}
	}
	if len(list) > 2 && list[2] != nil {
		if tag.Content, err = asString(list[2], indexPath(p, 2)); err != nil {
			return HeadTag{}, err
		}
	}
	return tag, nil
}

func decodeAttributes(v interface{}, p string) (map[string]string, error) {
	obj, err := asObject(v, p)
	if err != nil {
		return nil, err
	}
	attrs := make(map[string]string, len(obj))
	for _, key := range sortedKeys(obj) {
		if strings.TrimSpace(key) == "" {
			return nil, NewMalformedShape(p, "attribute name must not be empty")
		}
		val, err := asString(obj[key], joinPath(p, key))
		if err != nil {
			return nil, err
		}
		attrs[key] = val
	}
	return attrs, nil
}

func decodeTheme(v interface{}, p string) (ThemeConfig, error) {
	obj, err := asObject(v, p)
	if err != nil {
		return ThemeConfig{}, err
	}
	if err := checkKeys(obj, p, themeKeys); err != nil {
		return ThemeConfig{}, err
	}

	var theme ThemeConfig
	if theme.Logo, err = optString(obj, p, "logo"); err != nil {
		return ThemeConfig{}, err
	}
	if theme.EditLinkPattern, err = optString(obj, p, "editLinkPattern"); err != nil {
		return ThemeConfig{}, err
	}
	if theme.EditLinkText, err = optString(obj, p, "editLinkText"); err != nil {
		return ThemeConfig{}, err
	}

	if sv, ok := present(obj, "searchProvider"); ok {
		if theme.SearchProvider, err = decodeSearchProvider(sv, joinPath(p, "searchProvider")); err != nil {
			return ThemeConfig{}, err
		}
	}

	if nv, ok := present(obj, "nav"); ok {
		navPath := joinPath(p, "nav")
		list, err := asList(nv, navPath)
		if err != nil {
			return ThemeConfig{}, err
		}
		theme.Nav = make([]NavItem, 0, len(list))
		for i, entry := range list {
			item, err := decodeNavItem(entry, indexPath(navPath, i))
			if err != nil {
				return ThemeConfig{}, err
			}
			theme.Nav = append(theme.Nav, item)
		}
	}

	if sv, ok := present(obj, "sidebar"); ok {
		sidebarPath := joinPath(p, "sidebar")
		list, err := asList(sv, sidebarPath)
		if err != nil {
			return ThemeConfig{}, err
		}
		theme.Sidebar = make([]SidebarGroup, 0, len(list))
		for i, entry := range list {
			group, err := decodeSidebarGroup(entry, indexPath(sidebarPath, i))
			if err != nil {
				return ThemeConfig{}, err
			}
			theme.Sidebar = append(theme.Sidebar, group)
		}
	}

	if sv, ok := present(obj, "socialLinks"); ok {
		socialPath := joinPath(p, "socialLinks")
		list, err := asList(sv, socialPath)
		if err != nil {
			return ThemeConfig{}, err
		}
		theme.SocialLinks = make([]SocialLink, 0, len(list))
		for i, entry := range list {
			link, err := decodeSocialLink(entry, indexPath(socialPath, i))
			if err != nil {
				return ThemeConfig{}, err
			}
			theme.SocialLinks = append(theme.SocialLinks, link)
		}
	}

	if fv, ok := present(obj, "footer"); ok {
		footerPath := joinPath(p, "footer")
		fobj, err := asObject(fv, footerPath)
		if err != nil {
			return ThemeConfig{}, err
		}
		if err := checkKeys(fobj, footerPath, footerKeys); err != nil {
			return ThemeConfig{}, err
		}
		footer := &Footer{}
		if footer.Message, err = optString(fobj, footerPath, "message"); err != nil {
			return ThemeConfig{}, err
		}
		if footer.Copyright, err = optString(fobj, footerPath, "copyright"); err != nil {
			return ThemeConfig{}, err
		}
		theme.Footer = footer
	}

	return theme, nil
}

func decodeNavItem(v interface{}, p string) (NavItem, error) {
	obj, err := asObject(v, p)
	if err != nil {
		return NavItem{}, err
	}
	if err := checkKeys(obj, p, navKeys); err != nil {
		return NavItem{}, err
	}
	var item NavItem
	if item.Text, err = optString(obj, p, "text"); err != nil {
		return NavItem{}, err
	}
	if item.Link, err = optString(obj, p, "link"); err != nil {
		return NavItem{}, err
	}
	return item, nil
}

func decodeSidebarGroup(v interface{}, p string) (SidebarGroup, error) {
	obj, err := asObject(v, p)
	if err != nil {
		return SidebarGroup{}, err
	}
	if err := checkKeys(obj, p, groupKeys); err != nil {
		return SidebarGroup{}, err
	}

	var group SidebarGroup
	if group.Text, err = optString(obj, p, "text"); err != nil {
		return SidebarGroup{}, err
	}
	if cv, ok := present(obj, "collapsed"); ok {
		b, ok := cv.(bool)
		if !ok {
			return SidebarGroup{}, NewMalformedShape(joinPath(p, "collapsed"), "expected boolean, got %s", kindOf(cv))
		}
		group.Collapsed = b
	}

	group.Items = []SidebarItem{}
	if iv, ok := present(obj, "items"); ok {
		itemsPath := joinPath(p, "items")
		list, err := asList(iv, itemsPath)
		if err != nil {
			return SidebarGroup{}, err
		}
		group.Items = make([]SidebarItem, 0, len(list))
		for i, entry := range list {
			ip := indexPath(itemsPath, i)
			iobj, err := asObject(entry, ip)
			if err != nil {
				return SidebarGroup{}, err
			}
			if err := checkKeys(iobj, ip, itemKeys); err != nil {
				return SidebarGroup{}, err
			}
			var item SidebarItem
			if item.Text, err = optString(iobj, ip, "text"); err != nil {
				return SidebarGroup{}, err
			}
			if item.Link, err = optString(iobj, ip, "link"); err != nil {
				return SidebarGroup{}, err
			}
			group.Items = append(group.Items, item)
		}
	}
	return group, nil
}

func decodeSocialLink(v interface{}, p string) (SocialLink, error) {
	obj, err := asObject(v, p)
	if err != nil {
		return SocialLink{}, err
	}
	if err := checkKeys(obj, p, socialKeys); err != nil {
		return SocialLink{}, err
	}

	var link SocialLink
	iv, ok := present(obj, "icon")
	if !ok {
		return SocialLink{}, NewMalformedShape(joinPath(p, "icon"), "is required")
	}
	if link.Icon, err = decodeIcon(iv, joinPath(p, "icon")); err != nil {
		return SocialLink{}, err
	}
	if link.Link, err = optString(obj, p, "link"); err != nil {
		return SocialLink{}, err
	}
	if link.AriaLabel, err = optString(obj, p, "ariaLabel"); err != nil {
		return SocialLink{}, err
	}
	return link, nil
}

// decodeIcon accepts a named icon string or {svg: "<svg ...>"}.
func decodeIcon(v interface{}, p string) (Icon, error) {
	if name, ok := v.(string); ok {
		if !namedIconPattern.MatchString(name) {
			return nil, NewMalformedShape(p, "icon name %q must be a lower-case identifier", name)
		}
		return NamedIcon(name), nil
	}

	obj, err := asObject(v, p)
	if err != nil {
		return nil, NewMalformedShape(p, "expected icon name or {svg: markup}, got %s", kindOf(v))
	}
	if err := checkKeys(obj, p, iconKeys); err != nil {
		return nil, err
	}
	sv, ok := present(obj, "svg")
	if !ok {
		return nil, NewMalformedShape(joinPath(p, "svg"), "is required")
	}
	markup, err := asString(sv, joinPath(p, "svg"))
	if err != nil {
		return nil, err
	}
	if err := checkSVG(markup); err != nil {
		return nil, NewMalformedShape(joinPath(p, "svg"), "inline markup is not well-formed: %v", err)
	}
	return InlineMarkup(markup), nil
}

// checkSVG verifies markup is a single well-formed XML element named svg.
// The markup itself is never modified.
func checkSVG(markup string) error {
	dec := xml.NewDecoder(strings.NewReader(markup))
	depth := 0
	roots := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					return fmt.Errorf("more than one root element")
				}
				if t.Name.Local != "svg" {
					return fmt.Errorf("root element is <%s>, want <svg>", t.Name.Local)
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && strings.TrimSpace(string(t)) != "" {
				return fmt.Errorf("text outside the root element")
			}
		}
	}
	if roots == 0 {
		return fmt.Errorf("no <svg> element")
	}
	if depth != 0 {
		return fmt.Errorf("unclosed element")
	}
	return nil
}

func decodeSearchProvider(v interface{}, p string) (SearchProvider, error) {
	obj, err := asObject(v, p)
	if err != nil {
		return nil, err
	}
	tag, err := optString(obj, p, "provider")
	if err != nil {
		return nil, err
	}

	switch tag {
	case ProviderLocal:
		if err := checkKeys(obj, p, localKeys); err != nil {
			return nil, err
		}
		return LocalSearch{}, nil
	case ProviderExternal:
		if err := checkKeys(obj, p, externalKeys); err != nil {
			return nil, err
		}
		var ext ExternalSearch
		if ext.Service, err = optString(obj, p, "service"); err != nil {
			return nil, err
		}
		if ext.AppID, err = optString(obj, p, "appId"); err != nil {
			return nil, err
		}
		if ext.APIKey, err = optString(obj, p, "apiKey"); err != nil {
			return nil, err
		}
		if ext.IndexName, err = optString(obj, p, "indexName"); err != nil {
			return nil, err
		}
		if ext.APIKey == "" {
			return nil, NewMalformedShape(joinPath(p, "apiKey"), "is required")
		}
		if ext.IndexName == "" {
			return nil, NewMalformedShape(joinPath(p, "indexName"), "is required")
		}
		return ext, nil
	case "":
		return nil, NewMalformedShape(joinPath(p, "provider"), "is required")
	default:
		return nil, NewMalformedShape(joinPath(p, "provider"), "unknown search provider %q (want %q or %q)", tag, ProviderLocal, ProviderExternal)
	}
}

// Raw value helpers.

func joinPath(p, key string) string {
	if p == "" {
		return key
	}
	return p + "." + key
}

func indexPath(p string, i int) string {
	return fmt.Sprintf("%s[%d]", p, i)
}

// present returns the value at key when it exists and is not null.
func present(obj map[string]interface{}, key string) (interface{}, bool) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func checkKeys(obj map[string]interface{}, p string, allowed []string) error {
	var unknown []string
	for key := range obj {
		known := false
		for _, a := range allowed {
			if key == a {
				known = true
				break
			}
		}
		if !known {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return NewMalformedShape(joinPath(p, unknown[0]), "unknown field")
}

// sortedKeys returns the keys of obj in lexical order so the first error
// reported for an object is stable.
func sortedKeys(obj map[string]interface{}) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func optString(obj map[string]interface{}, p, key string) (string, error) {
	v, ok := present(obj, key)
	if !ok {
		return "", nil
	}
	return asString(v, joinPath(p, key))
}

func asString(v interface{}, p string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", NewMalformedShape(p, "expected string, got %s", kindOf(v))
	}
	return s, nil
}

func asObject(v interface{}, p string) (map[string]interface{}, error) {
	switch o := v.(type) {
	case map[string]interface{}:
		return o, nil
	case map[string]string:
		out := make(map[string]interface{}, len(o))
		for k, val := range o {
			out[k] = val
		}
		return out, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(o))
		for k, val := range o {
			ks, ok := k.(string)
			if !ok {
				return nil, NewMalformedShape(p, "object keys must be strings, got %s", kindOf(k))
			}
			out[ks] = val
		}
		return out, nil
	default:
		return nil, NewMalformedShape(p, "expected object, got %s", kindOf(v))
	}
}

func toList(v interface{}) ([]interface{}, bool) {
	switch l := v.(type) {
	case []interface{}:
		return l, true
	case []map[string]interface{}:
		out := make([]interface{}, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, true
	case []string:
		out := make([]interface{}, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, true
	default:
		return nil, false
	}
}

func asList(v interface{}, p string) ([]interface{}, error) {
	l, ok := toList(v)
	if !ok {
		return nil, NewMalformedShape(p, "expected list, got %s", kindOf(v))
	}
	return l, nil
}

// kindOf names the JSON-equivalent kind of a raw value.
func kindOf(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "number"
	case map[string]interface{}, map[string]string, map[interface{}]interface{}:
		return "object"
	case []interface{}, []map[string]interface{}, []string:
		return "list"
	default:
		return fmt.Sprintf("%T", v)
	}
}
