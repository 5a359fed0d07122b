package serp

import (
	"fmt"
	"net/http"
	"net/url"
)

// Plan describes how one query maps onto Google's offset-paginated SERP:
// which start offsets to request and which headers to send so the request
// resembles an ordinary browser navigation.
type Plan struct {
	Query   Query
	Offsets []int
}

// NewPlan derives the pagination descriptor for a query. Offsets begin
// at 0 and step by PageSize up to (pages-1)*PageSize.
func NewPlan(q Query) Plan {
	if q.Pages < 1 {
		q.Pages = 1
	}
	if q.Lang == "" {
		q.Lang = "en"
	}

	offsets := make([]int, q.Pages)
	for i := range offsets {
		offsets[i] = i * PageSize
	}

	return Plan{Query: q, Offsets: offsets}
}

// PageURL builds the result-page URL for one offset against the given
// base, e.g. https://www.google.com.
func (p Plan) PageURL(base string, offset int) string {
	return fmt.Sprintf("%s/search?q=%s&start=%d&hl=%s",
		base, url.QueryEscape(p.Query.Term), offset, url.QueryEscape(p.Query.Lang))
}

// Headers returns the fixed outbound header set layered on top of the
// fetcher's defaults. User-Agent is left to the fetcher's rotating pool.
func (p Plan) Headers() http.Header {
	h := http.Header{}
	h.Set("Accept-Language", acceptLanguage(p.Query.Lang))
	h.Set("Referer", "https://www.google.com/")
	h.Set("Sec-Fetch-Site", "same-origin")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

// acceptLanguage expands a bare language code into a weighted header
// value the way browsers send it.
func acceptLanguage(lang string) string {
	if lang == "en" {
		return "en-US,en;q=0.9"
	}
	return fmt.Sprintf("%s,%s;q=0.9,en;q=0.8", lang, lang)
}
