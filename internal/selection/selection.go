package selection

import (
	"strings"

	"golang.org/x/net/html"
)

// extracts the selected text and builds a text fragment link back to it.
// a blank selection yields an empty result and must not be saved.
func Capture(r Range, pageURL string) (Result, error) {
	raw, err := textBetween(r)
	if err != nil {
		return Result{}, err
	}

	words := strings.Fields(raw)
	if len(words) == 0 {
		return Result{}, nil
	}

	result := Result{Text: strings.TrimSpace(raw)}

	if pageURL != "" {
		prefix := wordsBefore(r.Start, ContextWords)
		suffix := wordsAfter(r.End, ContextWords)
		result.HighlightURL = stripFragment(pageURL) + directivePrefix + directive(prefix, words, suffix)
	}

	return result, nil
}

// finds the first occurrence of text among the visible text nodes of doc.
// matches may span several nodes; adjacent nodes are joined without separators.
func Locate(doc *html.Node, text string) (Range, error) {
	if strings.TrimSpace(text) == "" {
		return Range{}, ErrNotFound
	}

	type span struct {
		node  *html.Node
		start int
	}

	var (
		spans []span
		flat  strings.Builder
	)

	for n := doc; n != nil; n = nextNode(n) {
		if !isVisibleText(n) || n.Data == "" {
			continue
		}

		spans = append(spans, span{node: n, start: flat.Len()})
		flat.WriteString(n.Data)
	}

	idx := strings.Index(flat.String(), text)
	if idx < 0 {
		return Range{}, ErrNotFound
	}

	end := idx + len(text)

	var r Range
	for _, s := range spans {
		stop := s.start + len(s.node.Data)

		if r.Start.Node == nil && idx >= s.start && idx < stop {
			r.Start = Point{Node: s.node, Offset: idx - s.start}
		}

		if end > s.start && end <= stop {
			r.End = Point{Node: s.node, Offset: end - s.start}
			break
		}
	}

	return r, nil
}

// concatenates the text between the range endpoints
func textBetween(r Range) (string, error) {
	start, end := r.Start, r.End

	if !validPoint(start) || !validPoint(end) {
		return "", ErrBadRange
	}

	if start.Node == end.Node {
		if start.Offset > end.Offset {
			return "", ErrBadRange
		}
		return start.Node.Data[start.Offset:end.Offset], nil
	}

	var b strings.Builder
	b.WriteString(start.Node.Data[start.Offset:])

	last := start.Node
	for n := nextNode(start.Node); n != nil; n = nextNode(n) {
		if n == end.Node {
			b.WriteString(separator(last, n))
			b.WriteString(end.Node.Data[:end.Offset])
			return b.String(), nil
		}

		if !isVisibleText(n) {
			continue
		}

		b.WriteString(separator(last, n))
		b.WriteString(n.Data)
		last = n
	}

	// end never reached: it precedes start or lives in another tree
	return "", ErrBadRange
}

// collects up to count words ending at p, walking backwards through the tree
func wordsBefore(p Point, count int) []string {
	text := p.Node.Data[:p.Offset]
	last := p.Node

	for n := prevNode(p.Node); n != nil && len(strings.Fields(text)) <= count; n = prevNode(n) {
		if !isVisibleText(n) {
			continue
		}

		text = n.Data + separator(n, last) + text
		last = n
	}

	fields := strings.Fields(text)
	if len(fields) > count {
		fields = fields[len(fields)-count:]
	}

	return fields
}

// collects up to count words starting at p, walking forwards through the tree
func wordsAfter(p Point, count int) []string {
	text := p.Node.Data[p.Offset:]
	last := p.Node

	for n := nextNode(p.Node); n != nil && len(strings.Fields(text)) <= count; n = nextNode(n) {
		if !isVisibleText(n) {
			continue
		}

		text = text + separator(last, n) + n.Data
		last = n
	}

	fields := strings.Fields(text)
	if len(fields) > count {
		fields = fields[:count]
	}

	return fields
}
