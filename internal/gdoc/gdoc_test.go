package gdoc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleExport = `<html><head><title>Launch Notes</title></head><body>
<h1><span style="font-weight:700">Launch Notes</span></h1>
<p><span>Ship date is </span><span style="font-weight:700">Friday</span><span>.</span></p>
<p><span>See </span><a href="https://www.google.com/url?q=https%3A%2F%2Fexample.com%2Fplan&amp;sa=D&amp;usg=abc">the plan</a><span> for details.</span></p>
<ul>
<li><span>verify assets</span></li>
<li><span style="font-style:italic">publish</span></li>
</ul>
<ol><li><span>first</span></li><li><span>second</span></li></ol>
</body></html>`

func TestConvertStructure(t *testing.T) {
	doc, err := Convert(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if doc.Title != "Launch Notes" {
		t.Fatalf("title = %q", doc.Title)
	}
	if len(doc.Blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d: %+v", len(doc.Blocks), doc.Blocks)
	}

	heading := doc.Blocks[0]
	if heading.Type != "heading" || heading.Level != 1 {
		t.Fatalf("unexpected heading block: %+v", heading)
	}
	if !heading.Spans[0].Bold {
		t.Fatalf("heading span should carry inline bold style")
	}

	para := doc.Blocks[1]
	if para.Type != "paragraph" || len(para.Spans) != 3 {
		t.Fatalf("unexpected paragraph: %+v", para)
	}
	if !para.Spans[1].Bold || para.Spans[1].Text != "Friday" {
		t.Fatalf("bold span not preserved: %+v", para.Spans[1])
	}

	list := doc.Blocks[3]
	if list.Type != "list" || list.Ordered || len(list.Items) != 2 {
		t.Fatalf("unexpected unordered list: %+v", list)
	}
	if !list.Items[1][0].Italic {
		t.Fatalf("italic list item not preserved: %+v", list.Items[1])
	}

	ordered := doc.Blocks[4]
	if !ordered.Ordered || len(ordered.Items) != 2 {
		t.Fatalf("unexpected ordered list: %+v", ordered)
	}
}

func TestConvertUnwrapsRedirects(t *testing.T) {
	doc, err := Convert(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	para := doc.Blocks[2]
	var link string
	for _, span := range para.Spans {
		if span.Link != "" {
			link = span.Link
		}
	}
	if link != "https://example.com/plan" {
		t.Fatalf("redirect not unwrapped: %q", link)
	}
}

func TestCleanLink(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.google.com/url?q=https%3A%2F%2Fexample.com&sa=D", "https://example.com"},
		{"https://google.com/url?q=http%3A%2F%2Fother.test%2Fx%3Fy%3D1", "http://other.test/x?y=1"},
		{"https://example.com/direct", "https://example.com/direct"},
		{"https://www.google.com/search?q=hello", "https://www.google.com/search?q=hello"},
		{"https://www.google.com/url?sa=D", "https://www.google.com/url?sa=D"},
	}
	for _, tc := range cases {
		if got := CleanLink(tc.in); got != tc.want {
			t.Errorf("CleanLink(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleExport))
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	doc, err := client.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if doc.Title != "Launch Notes" {
		t.Fatalf("title = %q", doc.Title)
	}
}

func TestFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	if _, err := client.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestExportURL(t *testing.T) {
	got := ExportURL("abc123")
	want := "https://docs.google.com/document/d/abc123/export?format=html"
	if got != want {
		t.Fatalf("ExportURL = %q, want %q", got, want)
	}
}

func TestSave(t *testing.T) {
	doc, err := Convert(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := Save(path, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), `"Launch Notes"`) {
		t.Fatalf("saved document missing title: %s", data)
	}
}
