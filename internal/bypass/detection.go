package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Page is the slice of a fetched response the detectors look at.
type Page struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Detector inspects a fetched page for signs that the request was
// challenged or blocked rather than served.
type Detector func(p Page) (blocked bool, source string)

// DefaultDetectors returns the detectors run against every SERP fetch.
// Google's own interstitials come first since they are by far the most
// common outcome when scraping search results.
func DefaultDetectors() []Detector {
	return []Detector{
		detectGoogleSorry,
		detectGoogleCaptcha,
		detectCloudflare,
		detectRateLimited,
	}
}

// Analyze runs the page through all detectors and reports the first hit.
func Analyze(p Page, detectors []Detector) (bool, string) {
	for _, d := range detectors {
		if blocked, source := d(p); blocked {
			return true, source
		}
	}
	return false, ""
}

func header(h http.Header, key string) string {
	if h == nil {
		return ""
	}
	return h.Get(key)
}

// detectGoogleSorry catches the /sorry/ interstitial Google serves when
// it decides traffic is automated. It arrives either as a 302 to
// google.com/sorry or as a 429 with the notice inline.
func detectGoogleSorry(p Page) (bool, string) {
	if p.StatusCode == http.StatusFound || p.StatusCode == http.StatusMovedPermanently {
		loc := header(p.Headers, "Location")
		if strings.Contains(loc, "google.com/sorry") || strings.Contains(loc, "/sorry/index") {
			return true, "GoogleSorry"
		}
	}

	if bytes.Contains(p.Body, []byte("Our systems have detected unusual traffic")) ||
		bytes.Contains(p.Body, []byte("/sorry/index")) {
		return true, "GoogleSorry"
	}

	return false, ""
}

// detectGoogleCaptcha catches the reCAPTCHA challenge page.
func detectGoogleCaptcha(p Page) (bool, string) {
	if bytes.Contains(p.Body, []byte("g-recaptcha")) ||
		bytes.Contains(p.Body, []byte("recaptcha/api.js")) {
		// The classic SERP embeds no captcha widget, so any hit is a challenge.
		return true, "GoogleCaptcha"
	}
	return false, ""
}

// detectCloudflare covers the case where a proxy in the chain fronts
// through Cloudflare and returns its challenge instead of the SERP.
func detectCloudflare(p Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden && p.StatusCode != http.StatusServiceUnavailable {
		return false, ""
	}

	if strings.Contains(strings.ToLower(header(p.Headers, "Server")), "cloudflare") {
		return true, "Cloudflare"
	}
	if bytes.Contains(p.Body, []byte("cf-browser-verification")) ||
		bytes.Contains(p.Body, []byte("cf-turnstile")) {
		return true, "Cloudflare"
	}
	return false, ""
}

// detectRateLimited flags plain 429 responses with no recognizable vendor.
func detectRateLimited(p Page) (bool, string) {
	if p.StatusCode == http.StatusTooManyRequests {
		return true, "RateLimited"
	}
	return false, ""
}
