package serp

import (
	"reflect"
	"testing"
)

func TestNewPlan_Offsets(t *testing.T) {
	plan := NewPlan(Query{Term: "golang", Pages: 3, Lang: "en"})

	want := []int{0, 10, 20}
	if !reflect.DeepEqual(plan.Offsets, want) {
		t.Errorf("expected offsets %v, got %v", want, plan.Offsets)
	}
}

func TestNewPlan_Defaults(t *testing.T) {
	plan := NewPlan(Query{Term: "golang"})

	if len(plan.Offsets) != 1 || plan.Offsets[0] != 0 {
		t.Errorf("expected single zero offset, got %v", plan.Offsets)
	}
	if plan.Query.Lang != "en" {
		t.Errorf("expected default lang en, got %q", plan.Query.Lang)
	}
}

func TestPlan_PageURL(t *testing.T) {
	plan := NewPlan(Query{Term: "go testing", Pages: 2, Lang: "de"})

	got := plan.PageURL("https://www.google.com", 10)
	want := "https://www.google.com/search?q=go+testing&start=10&hl=de"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestPlan_Headers(t *testing.T) {
	plan := NewPlan(Query{Term: "x", Pages: 1, Lang: "fr"})
	h := plan.Headers()

	if got := h.Get("Accept-Language"); got != "fr,fr;q=0.9,en;q=0.8" {
		t.Errorf("unexpected Accept-Language: %q", got)
	}
	if got := h.Get("Referer"); got != "https://www.google.com/" {
		t.Errorf("unexpected Referer: %q", got)
	}
	if h.Get("Sec-Fetch-Mode") != "navigate" || h.Get("Sec-Fetch-Dest") != "document" {
		t.Errorf("expected fetch metadata headers, got %v", h)
	}
}

func TestAcceptLanguage_English(t *testing.T) {
	if got := acceptLanguage("en"); got != "en-US,en;q=0.9" {
		t.Errorf("unexpected value: %q", got)
	}
}
