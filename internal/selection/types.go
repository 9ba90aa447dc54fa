package selection

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/net/html"
)

const (
	// words of context gathered on each side of a selection
	ContextWords = 4

	directivePrefix = "#:~:text="

	defaultFetchTimeout = 10 * time.Second
	maxPageSize         = 5 << 20
)

var (
	ErrNotFound  = errors.New("text not found in page")
	ErrBadRange  = errors.New("range endpoints must be text nodes in order")
	ErrFetchPage = errors.New("failed to fetch page")
)

// position inside a text node; Offset counts bytes of Node.Data
type Point struct {
	Node   *html.Node
	Offset int
}

// the user's selection between two text positions in document order
type Range struct {
	Start Point
	End   Point
}

// the selected text and a link that re-highlights it on the page
type Result struct {
	Text         string `json:"text"`
	HighlightURL string `json:"highlight_url"`
}

// downloads pages through an SSRF guarded client
type Fetcher struct {
	client *http.Client
}
