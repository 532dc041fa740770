package gdoc

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"imagemill/internal/services"
)

// Convert parses exported Google Doc HTML into a Document. Headings map to
// heading blocks, paragraphs to paragraph blocks, and ul/ol to list blocks.
// Google's inline-style bold and italic markers are carried onto spans.
func Convert(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "gdoc", "parse html", "", err)
	}

	doc := &Document{Blocks: []Block{}}
	if title := findElement(root, "title"); title != nil {
		doc.Title = strings.TrimSpace(textContent(title))
	}

	body := findElement(root, "body")
	if body == nil {
		return doc, nil
	}
	for child := body.FirstChild; child != nil; child = child.NextSibling {
		collectBlocks(child, doc)
	}
	return doc, nil
}

func collectBlocks(n *html.Node, doc *Document) {
	if n.Type != html.ElementNode {
		return
	}
	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		spans := collectSpans(n, spanStyle{})
		if len(spans) > 0 {
			doc.Blocks = append(doc.Blocks, Block{
				Type:  "heading",
				Level: int(n.Data[1] - '0'),
				Spans: spans,
			})
		}
	case "p":
		spans := collectSpans(n, spanStyle{})
		if len(spans) > 0 {
			doc.Blocks = append(doc.Blocks, Block{Type: "paragraph", Spans: spans})
		}
	case "ul", "ol":
		block := Block{Type: "list", Ordered: n.Data == "ol"}
		for li := n.FirstChild; li != nil; li = li.NextSibling {
			if li.Type != html.ElementNode || li.Data != "li" {
				continue
			}
			if spans := collectSpans(li, spanStyle{}); len(spans) > 0 {
				block.Items = append(block.Items, spans)
			}
		}
		if len(block.Items) > 0 {
			doc.Blocks = append(doc.Blocks, block)
		}
	default:
		// Containers such as div wrap the real content in exports.
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collectBlocks(child, doc)
		}
	}
}

type spanStyle struct {
	link   string
	bold   bool
	italic bool
}

func collectSpans(n *html.Node, style spanStyle) []Span {
	var spans []Span
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.TextNode:
			text := collapseSpace(child.Data)
			if strings.TrimSpace(text) == "" {
				continue
			}
			spans = appendSpan(spans, Span{
				Text:   text,
				Link:   style.link,
				Bold:   style.bold,
				Italic: style.italic,
			})
		case html.ElementNode:
			next := style
			switch child.Data {
			case "a":
				if href := attr(child, "href"); href != "" {
					next.link = CleanLink(href)
				}
			case "b", "strong":
				next.bold = true
			case "i", "em":
				next.italic = true
			case "span":
				css := attr(child, "style")
				if strings.Contains(css, "font-weight:700") || strings.Contains(css, "font-weight:bold") {
					next.bold = true
				}
				if strings.Contains(css, "font-style:italic") {
					next.italic = true
				}
			case "br":
				spans = appendSpan(spans, Span{Text: "\n"})
				continue
			}
			spans = append(spans, collectSpans(child, next)...)
		}
	}
	return spans
}

// appendSpan merges consecutive spans that share formatting so exports
// peppered with adjacent identical spans collapse into readable runs.
func appendSpan(spans []Span, s Span) []Span {
	if len(spans) > 0 {
		last := &spans[len(spans)-1]
		if last.Link == s.Link && last.Bold == s.Bold && last.Italic == s.Italic {
			last.Text += s.Text
			return spans
		}
	}
	return append(spans, s)
}

func collapseSpace(s string) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	if collapsed == "" {
		return collapsed
	}
	if s != strings.TrimLeft(s, " \t\n\r") {
		collapsed = " " + collapsed
	}
	if s != strings.TrimRight(s, " \t\n\r") {
		collapsed += " "
	}
	return collapsed
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, name); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
