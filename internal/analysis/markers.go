package analysis

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/citeview/internal/citation"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var markerRe = regexp.MustCompile(`\[(\d{1,6})\]`)

// Markers returns the citation ids referenced in text, in order, including
// repeats.
func Markers(text string) []citation.ID {
	var ids []citation.ID
	for _, m := range markerRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		ids = append(ids, citation.ID(n))
	}
	return ids
}

// MarkerClass is the CSS class of a clickable citation marker.
const MarkerClass = "citation-btn"

// Decorate rewrites every [n] in body's text into a clickable marker span:
//
//	<span class="citation-btn active" data-citation="1">[1]</span>
//
// isActive decides whether a marker carries the "active" class. Text in
// script, style, code and pre elements is left alone.
func Decorate(body string, isActive func(citation.ID) bool) (string, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(body), context)
	if err != nil {
		return "", fmt.Errorf("parse panel html: %w", err)
	}

	holder := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		holder.AppendChild(n)
	}
	decorateNode(holder, isActive)

	var out bytes.Buffer
	for c := holder.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&out, c); err != nil {
			return "", fmt.Errorf("render panel html: %w", err)
		}
	}
	return out.String(), nil
}

func decorateNode(n *html.Node, isActive func(citation.ID) bool) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.TextNode:
			replaceMarkers(c, isActive)
		case html.ElementNode:
			switch c.DataAtom {
			case atom.Script, atom.Style, atom.Code, atom.Pre:
			default:
				if !hasClass(c, MarkerClass) {
					decorateNode(c, isActive)
				}
			}
		}
		c = next
	}
}

// replaceMarkers splits text node t around markers, inserting spans.
func replaceMarkers(t *html.Node, isActive func(citation.ID) bool) {
	locs := markerRe.FindAllStringSubmatchIndex(t.Data, -1)
	if len(locs) == 0 {
		return
	}
	parent := t.Parent
	text := t.Data
	prev := 0
	for _, loc := range locs {
		n, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil || n < 1 {
			continue
		}
		if loc[0] > prev {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: text[prev:loc[0]]}, t)
		}
		parent.InsertBefore(markerSpan(citation.ID(n), isActive != nil && isActive(citation.ID(n))), t)
		prev = loc[1]
	}
	if prev == 0 {
		return
	}
	if prev < len(text) {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: text[prev:]}, t)
	}
	parent.RemoveChild(t)
}

func markerSpan(id citation.ID, active bool) *html.Node {
	class := MarkerClass
	if active {
		class += " active"
	}
	span := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr: []html.Attribute{
			{Key: "class", Val: class},
			{Key: "data-citation", Val: strconv.Itoa(int(id))},
		},
	}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: fmt.Sprintf("[%d]", id)})
	return span
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, f := range strings.Fields(a.Val) {
			if f == class {
				return true
			}
		}
	}
	return false
}
