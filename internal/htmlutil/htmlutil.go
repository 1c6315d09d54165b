// Package htmlutil approximates a browser's innerText on parsed HTML so page
// snapshots can be read without a live DOM.
package htmlutil

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var innerWhitespace = regexp.MustCompile(`[ \t\n\r\f]+`)

var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

// breaks is the number of line breaks a block element requires around its content.
var breaks = map[atom.Atom]int{
	atom.P:          2,
	atom.Address:    1,
	atom.Article:    1,
	atom.Aside:      1,
	atom.Blockquote: 1,
	atom.Dd:         1,
	atom.Div:        1,
	atom.Dl:         1,
	atom.Dt:         1,
	atom.Figcaption: 1,
	atom.Figure:     1,
	atom.Footer:     1,
	atom.Form:       1,
	atom.H1:         1,
	atom.H2:         1,
	atom.H3:         1,
	atom.H4:         1,
	atom.H5:         1,
	atom.H6:         1,
	atom.Header:     1,
	atom.Hr:         1,
	atom.Li:         1,
	atom.Main:       1,
	atom.Nav:        1,
	atom.Ol:         1,
	atom.Pre:        1,
	atom.Section:    1,
	atom.Table:      1,
	atom.Tr:         1,
	atom.Ul:         1,
}

type piece struct {
	text string
	brk  int
}

func collect(n *html.Node, out *[]piece) {
	switch n.Type {
	case html.TextNode:
		*out = append(*out, piece{text: innerWhitespace.ReplaceAllString(n.Data, " ")})
		return
	case html.ElementNode:
		if skipped[n.DataAtom] {
			return
		}
		if n.DataAtom == atom.Br {
			*out = append(*out, piece{text: "\n"})
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	brk := breaks[n.DataAtom]
	if n.Type == html.ElementNode && brk > 0 {
		*out = append(*out, piece{brk: brk})
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, out)
	}
	if n.Type == html.ElementNode && brk > 0 {
		*out = append(*out, piece{brk: brk})
	}
}

// Text renders the visible text of n: source whitespace collapsed, block
// boundaries and <br> turned into line breaks, leading and trailing blank
// space removed from every line.
func Text(n *html.Node) string {
	var pieces []piece
	collect(n, &pieces)

	var b strings.Builder
	pending := 0
	started := false
	space := false // output ends in a collapsed space
	for _, p := range pieces {
		if p.brk > 0 {
			pending = max(pending, p.brk)
			continue
		}
		t := p.text
		if pending > 0 || !started || space {
			t = strings.TrimLeft(t, " ")
		}
		if t == "" {
			continue
		}
		if started && pending > 0 {
			b.WriteString(strings.Repeat("\n", pending))
		}
		pending = 0
		started = true
		space = strings.HasSuffix(t, " ")
		b.WriteString(t)
	}

	lines := strings.Split(b.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
