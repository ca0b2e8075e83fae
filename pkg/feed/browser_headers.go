package feed

import "net/http"

// addFeedHeaders adds content negotiation headers for feed fetching
func addFeedHeaders(req *http.Request) {
	// accept header for feeds - include both RSS and Atom, html as the last resort
	req.Header.Set("Accept", "application/rss+xml,application/atom+xml,application/xml;q=0.9,text/xml;q=0.8,text/html;q=0.7,*/*;q=0.5")
	// always ask for a fresh copy, a refresh runs at most once per interval anyway
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}
