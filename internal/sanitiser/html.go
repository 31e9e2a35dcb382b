package sanitiser

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// htmlToPDF extracts the visible text of an HTML upload and renders it as
// a PDF, one paragraph per block element. Script/style bodies and all
// markup (with whatever tracking attributes it carries) are discarded,
// consistent with the metadata-stripping posture of the other formats.
func htmlToPDF(data []byte) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var paragraphs []string
	var current strings.Builder

	flush := func() {
		text := strings.TrimSpace(current.String())
		current.Reset()
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head", "noscript":
				return
			case "p", "div", "br", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
				flush()
			}
		case html.TextNode:
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if current.Len() > 0 {
					current.WriteString(" ")
				}
				current.WriteString(text)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	flush()

	if len(paragraphs) == 0 {
		return nil, errEmptyHTML
	}
	return paragraphsToPDF(paragraphs)
}
