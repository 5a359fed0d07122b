package serp

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const samplePage = `<html><body>
<div id="search">
  <div class="g">
    <a href="/url?q=ignored">wrapper</a>
    <a href="https://go.dev/doc/"><h3>The Go Documentation</h3></a>
    <div class="VwiC3b">Official docs for the Go programming language.</div>
  </div>
  <div class="g">
    <a href="https://maps.google.com/something">internal</a>
    <a href="https://pkg.go.dev/testing"><h3>testing package</h3></a>
    <span class="st">Package testing provides support for automated testing.</span>
  </div>
  <div class="g">
    <a href="https://example.com/no-title">no heading here</a>
  </div>
  <h3>A heading outside any container</h3>
  <h3></h3>
</div>
</body></html>`

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestCollector_Containers(t *testing.T) {
	c := NewCollector("https://www.google.com/search?q=go&start=0&hl=en")
	c.Collect(parseDoc(t, samplePage))

	results := c.Results()
	if len(results) < 2 {
		t.Fatalf("expected at least 2 records, got %d", len(results))
	}

	first := results[0]
	if first.Title != "The Go Documentation" {
		t.Errorf("unexpected title: %q", first.Title)
	}
	if first.Link != "https://go.dev/doc/" {
		t.Errorf("expected outbound link, got %q", first.Link)
	}
	if first.Snippet != "Official docs for the Go programming language." {
		t.Errorf("unexpected snippet: %q", first.Snippet)
	}
	if first.Source != "https://www.google.com/search?q=go&start=0&hl=en" {
		t.Errorf("expected page address as source, got %q", first.Source)
	}

	second := results[1]
	if second.Link != "https://pkg.go.dev/testing" {
		t.Errorf("google-internal link should be skipped, got %q", second.Link)
	}
	if second.Snippet != "Package testing provides support for automated testing." {
		t.Errorf("span.st fallback snippet missing, got %q", second.Snippet)
	}
}

func TestCollector_BareHeadings(t *testing.T) {
	c := NewCollector("page")
	c.Collect(parseDoc(t, samplePage))

	var bare *Result
	for i := range c.Results() {
		if c.Results()[i].Title == "A heading outside any container" {
			bare = &c.Results()[i]
			break
		}
	}
	if bare == nil {
		t.Fatalf("expected bare heading to be collected")
	}
	if bare.Link != "" || bare.Snippet != "" {
		t.Errorf("bare heading records carry no link or snippet, got %+v", bare)
	}
	if bare.Source != headingSource {
		t.Errorf("expected source %q, got %q", headingSource, bare.Source)
	}
}

func TestCollector_HeadingSweepSkipsCollectedTitles(t *testing.T) {
	c := NewCollector("page")
	c.Collect(parseDoc(t, samplePage))

	count := 0
	for _, r := range c.Results() {
		if r.Title == "The Go Documentation" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("heading sweep duplicated a container title: %d copies", count)
	}
}

func TestCollector_DropsTitlelessContainers(t *testing.T) {
	c := NewCollector("page")
	c.Collect(parseDoc(t, samplePage))

	for _, r := range c.Results() {
		if r.Link == "https://example.com/no-title" {
			t.Errorf("container without a title must not produce a record")
		}
	}
}

func TestIsOutbound(t *testing.T) {
	cases := []struct {
		href string
		want bool
	}{
		{"https://go.dev/doc/", true},
		{"http://example.com", true},
		{"/url?q=x", false},
		{"https://www.google.com/search", false},
		{"https://maps.google.com/x", false},
		{"ftp://example.com/file", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := isOutbound(tc.href); got != tc.want {
			t.Errorf("isOutbound(%q) = %v, want %v", tc.href, got, tc.want)
		}
	}
}
