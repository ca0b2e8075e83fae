package domain

import "time"

// Item represents an aggregated feed entry. Link is the identity used for dedupe.
type Item struct {
	Link      string
	Title     string
	Summary   string
	Content   string
	Published time.Time // always UTC
	GUID      string
}

// Description returns the text used as the item description in the published feed
func (i Item) Description() string {
	if i.Summary != "" {
		return i.Summary
	}
	return i.Content
}

// Channel describes the published feed itself
type Channel struct {
	Title       string
	Description string
	Link        string
	Language    string
}
