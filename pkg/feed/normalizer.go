package feed

import (
	"strings"
	"time"

	"github.com/umputun/rssfilter/pkg/domain"
)

// Normalized is an entry accepted by Normalize, with the text used for filtering
type Normalized struct {
	Item       domain.Item
	FilterText string
}

// Normalize turns a raw entry into an item. Entries without a link or without any usable
// publication time are rejected.
func Normalize(e Entry) (Normalized, bool) {
	link := strings.TrimSpace(e.Link)
	if link == "" {
		return Normalized{}, false
	}

	published, ok := pickPublished(e.Published, e.Updated, e.Created)
	if !ok {
		return Normalized{}, false
	}

	title := strings.TrimSpace(e.Title)
	summary := strings.TrimSpace(e.Summary)
	var content string
	if len(e.Content) > 0 {
		content = strings.TrimSpace(e.Content[0].Value)
	}

	item := domain.Item{
		Link:      link,
		Title:     title,
		Summary:   summary,
		Content:   content,
		Published: published,
		GUID:      e.ID,
	}
	if item.Title == "" {
		item.Title = link
	}
	if item.GUID == "" {
		item.GUID = link
	}

	// the blob uses the entry's own title, not the link fallback
	return Normalized{Item: item, FilterText: joinNonEmpty(title, summary, content)}, true
}

// pickPublished returns the first candidate holding a real instant, converted to UTC
func pickPublished(candidates ...*time.Time) (time.Time, bool) {
	for _, ts := range candidates {
		if ts != nil && !ts.IsZero() {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func joinNonEmpty(parts ...string) string {
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			res = append(res, p)
		}
	}
	return strings.Join(res, "\n")
}
