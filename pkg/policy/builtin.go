package policy

// GetBuiltinPolicies returns all built-in policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		socialHTTPSPolicy(),
		externalNavHTTPSPolicy(),
		emptySidebarGroupPolicy(),
		siteDescriptionPolicy(),
		faviconPolicy(),
	}
}

// socialHTTPSPolicy rejects social links served over plain HTTP.
func socialHTTPSPolicy() Policy {
	return Policy{
		Name:        "social-https",
		Description: "Social links must use https",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"security", "links"},
		Rego: `package docnav.policies.social_https

import rego.v1

deny contains violation if {
	some i, social in input.site.theme.socialLinks
	startswith(lower(social.link), "http://")
	violation := {
		"message": sprintf("social link %s is not served over https", [social.link]),
		"path": sprintf("theme.socialLinks[%d].link", [i]),
	}
}
`,
	}
}

// externalNavHTTPSPolicy flags external nav entries served over plain HTTP.
func externalNavHTTPSPolicy() Policy {
	return Policy{
		Name:        "external-nav-https",
		Description: "External navigation links should use https",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"security", "links"},
		Rego: `package docnav.policies.external_nav_https

import rego.v1

deny contains violation if {
	some i, item in input.site.theme.nav
	item.external
	startswith(lower(item.link), "http://")
	violation := {
		"message": sprintf("nav entry %q links to %s over plain http", [item.text, item.link]),
		"path": sprintf("theme.nav[%d].link", [i]),
	}
}
`,
	}
}

// emptySidebarGroupPolicy flags sidebar groups with no items.
func emptySidebarGroupPolicy() Policy {
	return Policy{
		Name:        "empty-sidebar-group",
		Description: "Sidebar groups should contain at least one item",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"navigation"},
		Rego: `package docnav.policies.empty_sidebar_group

import rego.v1

has_items(group) if {
	items := object.get(group, "items", [])
	is_array(items)
	count(items) > 0
}

deny contains violation if {
	some i, group in input.site.theme.sidebar
	not has_items(group)
	violation := {
		"message": sprintf("sidebar group %q has no items", [group.text]),
		"path": sprintf("theme.sidebar[%d].items", [i]),
	}
}
`,
	}
}

// siteDescriptionPolicy notes a missing site description.
func siteDescriptionPolicy() Policy {
	return Policy{
		Name:        "site-description",
		Description: "The site should set a description for search engines",
		Severity:    SeverityInfo,
		Enabled:     true,
		Tags:        []string{"seo"},
		Rego: `package docnav.policies.site_description

import rego.v1

deny contains violation if {
	not input.site.description
	violation := {
		"message": "site has no description",
		"path": "description",
	}
}
`,
	}
}

// faviconPolicy notes a missing favicon head tag.
func faviconPolicy() Policy {
	return Policy{
		Name:        "favicon",
		Description: "The site should declare a favicon link in its head tags",
		Severity:    SeverityInfo,
		Enabled:     true,
		Tags:        []string{"seo", "head"},
		Rego: `package docnav.policies.favicon

import rego.v1

has_favicon if {
	some tag in input.site.headTags
	tag.tagName == "link"
	contains(lower(tag.attributes.rel), "icon")
}

deny contains violation if {
	not has_favicon
	violation := {
		"message": "no <link rel=\"icon\"> head tag is declared",
		"path": "headTags",
	}
}
`,
	}
}
