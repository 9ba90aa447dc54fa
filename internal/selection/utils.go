package selection

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const upperHex = "0123456789ABCDEF"

// elements whose text never renders
var hiddenParents = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Title:    true,
}

// elements that break words apart
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Body: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Figcaption: true, atom.Figure: true, atom.Footer: true, atom.H1: true,
	atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true,
	atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true, atom.Td: true,
	atom.Th: true, atom.Tr: true, atom.Ul: true,
}

// next node in document order
func nextNode(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}

	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}

	return nil
}

// previous node in document order
func prevNode(n *html.Node) *html.Node {
	if n.PrevSibling == nil {
		return n.Parent
	}

	n = n.PrevSibling
	for n.LastChild != nil {
		n = n.LastChild
	}

	return n
}

func isVisibleText(n *html.Node) bool {
	if n.Type != html.TextNode {
		return false
	}

	return n.Parent == nil || !hiddenParents[n.Parent.DataAtom]
}

func validPoint(p Point) bool {
	return p.Node != nil &&
		p.Node.Type == html.TextNode &&
		p.Offset >= 0 &&
		p.Offset <= len(p.Node.Data)
}

func blockAncestor(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && blockElements[p.DataAtom] {
			return p
		}
	}

	return nil
}

// text nodes in different blocks are separate words even without whitespace
func separator(a, b *html.Node) string {
	if blockAncestor(a) != blockAncestor(b) {
		return " "
	}

	return ""
}

// builds prefix-,text,-suffix with empty context parts left out
func directive(prefix, text, suffix []string) string {
	var b strings.Builder

	if len(prefix) > 0 {
		b.WriteString(encodeWords(prefix))
		b.WriteString("-,")
	}

	b.WriteString(encodeWords(text))

	if len(suffix) > 0 {
		b.WriteString(",-")
		b.WriteString(encodeWords(suffix))
	}

	return b.String()
}

func encodeWords(words []string) string {
	encoded := make([]string, len(words))
	for i, w := range words {
		encoded[i] = encodeComponent(w)
	}

	return strings.Join(encoded, "%20")
}

// percent-encodes like encodeURIComponent, and additionally escapes '-'
// since it delimits the prefix and suffix of a text directive
func encodeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}

		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}

	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}

	switch c {
	case '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}

	return false
}

func stripFragment(pageURL string) string {
	if idx := strings.IndexByte(pageURL, '#'); idx >= 0 {
		return pageURL[:idx]
	}

	return pageURL
}
