package content

import "time"

// Title sources, in order of precedence.
const (
	TitleFromFrontMatter = "frontmatter"
	TitleFromHeading     = "heading"
	TitleFromFileName    = "filename"
)

// Document is a markdown file under the content root.
type Document struct {
	// Path is the canonical site path ("/guide/intro", "/guide/").
	Path string `json:"path"`

	// SourcePath is the file path relative to the content root, slash separated.
	SourcePath string `json:"source_path"`

	// Title is the display title.
	Title string `json:"title"`

	// TitleSource records where Title came from.
	TitleSource string `json:"title_source"`

	// Description is the front matter description, if any.
	Description string `json:"description,omitempty"`

	// Draft is true when front matter marks the document as a draft.
	Draft bool `json:"draft,omitempty"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// ModTime is the file modification time.
	ModTime time.Time `json:"mod_time"`
}

// frontMatter is the subset of front matter fields docnav reads.
type frontMatter struct {
	Title       string `yaml:"title" toml:"title" json:"title"`
	Description string `yaml:"description" toml:"description" json:"description"`
	Draft       bool   `yaml:"draft" toml:"draft" json:"draft"`
}
