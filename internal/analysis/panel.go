// Package analysis loads the analysis panel shown next to the report and
// binds its inline citation markers ([1], [2], ...) to the citation table.
package analysis

import (
	_ "embed"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/citeview/internal/citation"
)

//go:embed default_analysis.md
var defaultAnalysis string

// Panel is a parsed analysis document.
type Panel struct {
	Title    string     // From <title>, the first heading, or the filename
	Sections []*Section // Top-level sections
	HTML     string     // Body markup, before marker decoration
}

// Section is a recursive heading section.
type Section struct {
	Title    string     // Heading text (empty for untitled leading text)
	Text     string     // Plain text content of this section
	Children []*Section // Subsections
}

// Loader converts a panel source into a Panel.
type Loader interface {
	Load(r io.Reader, filename string) (*Panel, error)
}

// SupportedExtensions lists panel source extensions.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
	".txt":      true,
}

// ForFile returns the loader for filename's extension.
func ForFile(filename string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return &MarkdownLoader{}, nil
	case ".html", ".htm":
		return &HTMLLoader{}, nil
	case ".docx":
		return &DOCXLoader{}, nil
	case ".txt":
		return &TextLoader{}, nil
	default:
		return nil, fmt.Errorf("unsupported analysis extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Load parses r according to filename's extension.
func Load(r io.Reader, filename string) (*Panel, error) {
	l, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	p, err := l.Load(r, filename)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}
	return p, nil
}

// Default returns the bundled analysis of the interim report.
func Default() (*Panel, error) {
	return Load(strings.NewReader(defaultAnalysis), "analysis.md")
}

// Citations returns the distinct citation ids referenced anywhere in the
// panel, in order of first appearance.
func (p *Panel) Citations() []citation.ID {
	seen := map[citation.ID]bool{}
	var ids []citation.ID
	var walk func([]*Section)
	walk = func(sections []*Section) {
		for _, s := range sections {
			for _, id := range Markers(s.Title + "\n" + s.Text) {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
			walk(s.Children)
		}
	}
	walk(p.Sections)
	return ids
}

// Unresolved returns the panel's citation ids missing from reg. Activating
// one of them clears the highlight, so they are worth reporting at startup.
func (p *Panel) Unresolved(reg *citation.Registry) []citation.ID {
	var missing []citation.ID
	for _, id := range p.Citations() {
		if _, ok := reg.Lookup(id); !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func trimExt(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}

// sectionBuilder nests sections by heading level.
type sectionBuilder struct {
	root  *Section
	stack []stackEntry
	text  strings.Builder
}

type stackEntry struct {
	node  *Section
	level int
}

func newSectionBuilder() *sectionBuilder {
	root := &Section{}
	return &sectionBuilder{root: root, stack: []stackEntry{{node: root, level: 0}}}
}

func (b *sectionBuilder) heading(level int, title string) {
	b.flush()
	node := &Section{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, node)
	b.stack = append(b.stack, stackEntry{node: node, level: level})
}

func (b *sectionBuilder) paragraph(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(t)
}

func (b *sectionBuilder) flush() {
	t := strings.TrimSpace(b.text.String())
	if t != "" {
		top := b.stack[len(b.stack)-1].node
		if top.Text != "" {
			top.Text += "\n\n" + t
		} else {
			top.Text = t
		}
	}
	b.text.Reset()
}

// sections finishes building. Text before the first heading becomes an
// untitled leading section.
func (b *sectionBuilder) sections() []*Section {
	b.flush()
	out := b.root.Children
	if b.root.Text != "" {
		out = append([]*Section{{Text: b.root.Text}}, out...)
	}
	return out
}

// firstTitle returns the first heading title, or fallback.
func firstTitle(sections []*Section, fallback string) string {
	for _, s := range sections {
		if s.Title != "" {
			return s.Title
		}
	}
	return fallback
}
