package serp

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// headingSource marks records collected from bare headings on the
// results page rather than from a full result container.
const headingSource = "search results page"

// snippetSelector lists the content classes Google has used for result
// snippets across layout generations; the first match wins.
const snippetSelector = "div.VwiC3b, div.IsZvec, span.aCOpRe, span.st"

// Collector walks a parsed results page and accumulates result records.
// It is a per-page accumulator: allocate one per fetched document and
// never share it across requests.
type Collector struct {
	source  string
	results []Result
	titles  map[string]struct{}
}

// NewCollector creates a collector for one page; source is the page
// address stamped onto records extracted from full result containers.
func NewCollector(source string) *Collector {
	return &Collector{
		source: source,
		titles: make(map[string]struct{}),
	}
}

// Collect visits the document's result containers first, then sweeps the
// remaining headings so results Google renders outside a recognized
// container still surface (the normalizer removes any duplicates by title).
func (c *Collector) Collect(doc *goquery.Document) {
	doc.Find("div.g").Each(func(_ int, s *goquery.Selection) {
		c.visitContainer(s)
	})
	doc.Find("h3").Each(func(_ int, s *goquery.Selection) {
		c.visitHeading(s)
	})
}

// Results returns the accumulated records in document order.
func (c *Collector) Results() []Result {
	return c.results
}

// visitContainer extracts title, link, and snippet from one organic
// result container. Records without a title are dropped.
func (c *Collector) visitContainer(s *goquery.Selection) {
	title := strings.TrimSpace(s.Find("h3").First().Text())
	if title == "" {
		return
	}

	c.append(Result{
		Title:   title,
		Link:    containerLink(s),
		Snippet: containerSnippet(s),
		Source:  c.source,
	})
}

// visitHeading records a bare heading when no prior record carries the
// same title. These records have no link or snippet to offer.
func (c *Collector) visitHeading(s *goquery.Selection) {
	title := strings.TrimSpace(s.Text())
	if title == "" {
		return
	}
	if _, seen := c.titles[title]; seen {
		return
	}

	c.append(Result{
		Title:  title,
		Source: headingSource,
	})
}

func (c *Collector) append(r Result) {
	c.results = append(c.results, r)
	c.titles[r.Title] = struct{}{}
}

// containerLink returns the first outbound link in the container:
// absolute http(s), not pointing back into Google itself.
func containerLink(s *goquery.Selection) string {
	var link string
	s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !isOutbound(href) {
			return true
		}
		link = href
		return false
	})
	return link
}

// containerSnippet returns the first snippet text found under the known
// content classes.
func containerSnippet(s *goquery.Selection) string {
	return strings.TrimSpace(s.Find(snippetSelector).First().Text())
}

// isOutbound rejects relative hrefs and Google-internal URLs.
func isOutbound(href string) bool {
	u, err := url.Parse(href)
	if err != nil || !u.IsAbs() {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "google.com" || strings.HasSuffix(host, ".google.com") {
		return false
	}
	return true
}
