package bypass

import (
	"net/http"
	"testing"
)

func TestAnalyze_GoogleSorryRedirect(t *testing.T) {
	p := Page{
		StatusCode: http.StatusFound,
		Headers:    http.Header{"Location": {"https://www.google.com/sorry/index?continue=..."}},
	}

	blocked, source := Analyze(p, DefaultDetectors())
	if !blocked {
		t.Fatalf("expected block detection")
	}
	if source != "GoogleSorry" {
		t.Errorf("expected GoogleSorry, got %s", source)
	}
}

func TestAnalyze_GoogleSorryBody(t *testing.T) {
	p := Page{
		StatusCode: http.StatusTooManyRequests,
		Body:       []byte("<html>Our systems have detected unusual traffic from your computer network.</html>"),
	}

	blocked, source := Analyze(p, DefaultDetectors())
	if !blocked || source != "GoogleSorry" {
		t.Errorf("expected GoogleSorry, got blocked=%v source=%s", blocked, source)
	}
}

func TestAnalyze_Captcha(t *testing.T) {
	p := Page{
		StatusCode: http.StatusOK,
		Body:       []byte(`<div class="g-recaptcha" data-sitekey="..."></div>`),
	}

	blocked, source := Analyze(p, DefaultDetectors())
	if !blocked || source != "GoogleCaptcha" {
		t.Errorf("expected GoogleCaptcha, got blocked=%v source=%s", blocked, source)
	}
}

func TestAnalyze_Cloudflare(t *testing.T) {
	p := Page{
		StatusCode: http.StatusForbidden,
		Headers:    http.Header{"Server": {"cloudflare"}},
	}

	blocked, source := Analyze(p, DefaultDetectors())
	if !blocked || source != "Cloudflare" {
		t.Errorf("expected Cloudflare, got blocked=%v source=%s", blocked, source)
	}
}

func TestAnalyze_PlainRateLimit(t *testing.T) {
	p := Page{StatusCode: http.StatusTooManyRequests}

	blocked, source := Analyze(p, DefaultDetectors())
	if !blocked || source != "RateLimited" {
		t.Errorf("expected RateLimited, got blocked=%v source=%s", blocked, source)
	}
}

func TestAnalyze_CleanPage(t *testing.T) {
	p := Page{
		StatusCode: http.StatusOK,
		Body:       []byte("<html><div class=\"g\"><h3>Result</h3></div></html>"),
	}

	if blocked, source := Analyze(p, DefaultDetectors()); blocked {
		t.Errorf("expected clean page, got detection from %s", source)
	}
}
