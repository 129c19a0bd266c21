package content

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/openfroyo/docnav/pkg/site"
)

// Options controls discovery.
type Options struct {
	// IncludeDrafts keeps documents whose front matter sets draft: true.
	IncludeDrafts bool

	// Logger receives per-file warnings. The zero value discards them.
	Logger zerolog.Logger
}

// Discover walks root and indexes every markdown document under it. Hidden
// directories and node_modules are skipped.
func Discover(ctx context.Context, root string, opts Options) (*Index, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat content root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content root %s is not a directory", root)
	}

	logger := opts.Logger.With().Str("component", "content").Logger()
	md := goldmark.New()
	titleCaser := cases.Title(language.English)

	idx := newIndex(root)
	drafts := 0

	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("error accessing path %s: %w", p, walkErr)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if p != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		doc, err := readDocument(p, filepath.ToSlash(rel), md, titleCaser, logger)
		if err != nil {
			return err
		}
		if doc.Draft && !opts.IncludeDrafts {
			drafts++
			return nil
		}

		if existing, ok := idx.Lookup(doc.Path); ok {
			logger.Warn().
				Str("path", doc.Path).
				Str("file", doc.SourcePath).
				Str("kept", existing.SourcePath).
				Msg("Duplicate document path")
			return nil
		}
		idx.add(doc)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to discover content: %w", walkErr)
	}

	idx.sort()

	logger.Debug().
		Str("root", root).
		Int("documents", idx.Len()).
		Int("drafts_skipped", drafts).
		Msg("Content discovered")

	return idx, nil
}

// readDocument loads one markdown file.
func readDocument(p, rel string, md goldmark.Markdown, titleCaser cases.Caser, logger zerolog.Logger) (Document, error) {
	content, err := os.ReadFile(p)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read %s: %w", rel, err)
	}
	info, err := os.Stat(p)
	if err != nil {
		return Document{}, fmt.Errorf("failed to stat %s: %w", rel, err)
	}

	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(content), &fm)
	if err != nil {
		logger.Warn().Err(err).Str("file", rel).Msg("Could not parse front matter, treating as plain markdown")
		body = content
		fm = frontMatter{}
	}

	doc := Document{
		Path:        site.CanonicalDocPath("/" + rel),
		SourcePath:  rel,
		Description: fm.Description,
		Draft:       fm.Draft,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
	}

	switch {
	case strings.TrimSpace(fm.Title) != "":
		doc.Title = strings.TrimSpace(fm.Title)
		doc.TitleSource = TitleFromFrontMatter
	default:
		if heading := firstHeading(md, body); heading != "" {
			doc.Title = heading
			doc.TitleSource = TitleFromHeading
		} else {
			doc.Title = titleFromFileName(rel, titleCaser)
			doc.TitleSource = TitleFromFileName
		}
	}

	return doc, nil
}

// firstHeading returns the plain text of the first level-one heading.
func firstHeading(md goldmark.Markdown, source []byte) string {
	root := md.Parser().Parse(text.NewReader(source))

	var title string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if heading.Level != 1 {
			return ast.WalkSkipChildren, nil
		}
		title = strings.TrimSpace(inlineText(heading, source))
		return ast.WalkStop, nil
	})
	return title
}

// inlineText concatenates the text segments below n.
func inlineText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// titleFromFileName derives a title from the file name. Index files take the
// name of their directory; the root index is "Home".
func titleFromFileName(rel string, titleCaser cases.Caser) string {
	name := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	if name == "index" {
		dir := path.Dir(rel)
		if dir == "." {
			return "Home"
		}
		name = path.Base(dir)
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return titleCaser.String(name)
}

// Index is the set of discovered documents. It implements site.DocumentSet.
// An Index is not modified after Discover returns and is safe for concurrent
// reads.
type Index struct {
	root   string
	docs   []Document
	byPath map[string]int
}

func newIndex(root string) *Index {
	return &Index{root: root, byPath: make(map[string]int)}
}

// NewIndex builds an index from already-known documents, for example a
// snapshot read back from the document store.
func NewIndex(root string, docs []Document) *Index {
	idx := newIndex(root)
	for _, doc := range docs {
		if _, ok := idx.byPath[doc.Path]; ok {
			continue
		}
		idx.add(doc)
	}
	idx.sort()
	return idx
}

func (i *Index) add(doc Document) {
	i.byPath[doc.Path] = len(i.docs)
	i.docs = append(i.docs, doc)
}

func (i *Index) sort() {
	sort.Slice(i.docs, func(a, b int) bool { return i.docs[a].Path < i.docs[b].Path })
	for n, doc := range i.docs {
		i.byPath[doc.Path] = n
	}
}

// Has implements site.DocumentSet.
func (i *Index) Has(p string) bool {
	_, ok := i.byPath[p]
	return ok
}

// Lookup returns the document with the given canonical path.
func (i *Index) Lookup(p string) (Document, bool) {
	n, ok := i.byPath[p]
	if !ok {
		return Document{}, false
	}
	return i.docs[n], true
}

// Documents returns the documents in path order. The slice must not be modified.
func (i *Index) Documents() []Document {
	return i.docs
}

// Root returns the content root the index was built from.
func (i *Index) Root() string {
	return i.root
}

// Len returns the number of documents.
func (i *Index) Len() int {
	return len(i.docs)
}
