// Package gdoc downloads a Google Doc's HTML export, strips Google's
// link-tracking redirects, and converts the markup into a structured
// document suitable for templating.
package gdoc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"imagemill/internal/services"
)

// Span is a run of text with uniform formatting.
type Span struct {
	Text   string `json:"text"`
	Link   string `json:"link,omitempty"`
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
}

// Block is one structural element of the document.
type Block struct {
	Type    string   `json:"type"` // heading, paragraph, list
	Level   int      `json:"level,omitempty"`
	Ordered bool     `json:"ordered,omitempty"`
	Spans   []Span   `json:"spans,omitempty"`
	Items   [][]Span `json:"items,omitempty"`
}

// Document is the converted Google Doc.
type Document struct {
	Title  string  `json:"title,omitempty"`
	Blocks []Block `json:"blocks"`
}

// Client fetches and converts Google Docs.
type Client struct {
	httpClient *http.Client
}

// NewClient constructs a client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// ExportURL builds the HTML export URL for a document ID.
func ExportURL(documentID string) string {
	return fmt.Sprintf("https://docs.google.com/document/d/%s/export?format=html", url.PathEscape(documentID))
}

// Fetch downloads the export URL and converts the HTML into a Document.
func (c *Client) Fetch(ctx context.Context, exportURL string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "gdoc", "build request", exportURL, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "gdoc", "download", exportURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrIO, "gdoc", "download",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	return Convert(io.LimitReader(resp.Body, 16<<20))
}

// Save writes the document as pretty-printed JSON.
func Save(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrIO, "gdoc", "encode document", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrIO, "gdoc", "write document", path, err)
	}
	return nil
}

// CleanLink unwraps Google's redirect URLs. Hrefs shaped like
// https://www.google.com/url?q=<target>&sa=... are replaced by the target;
// anything else passes through unchanged.
func CleanLink(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if !strings.HasSuffix(parsed.Hostname(), "google.com") || parsed.Path != "/url" {
		return href
	}
	target := parsed.Query().Get("q")
	if target == "" {
		return href
	}
	return target
}
