package analysis

import (
	"bufio"
	"html"
	"io"
	"strings"
)

// TextLoader handles plain text panels. Blank lines separate paragraphs.
type TextLoader struct{}

func (l *TextLoader) Load(r io.Reader, filename string) (*Panel, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	p := &Panel{Title: trimExt(filename)}
	var body strings.Builder
	for _, para := range paragraphs {
		p.Sections = append(p.Sections, &Section{Text: para})
		body.WriteString("<p>")
		body.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>\n"))
		body.WriteString("</p>\n")
	}
	p.HTML = body.String()
	return p, nil
}
