package feed

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// Entry is a raw feed entry as produced by the parser. Every field is optional.
type Entry struct {
	ID        string
	Link      string
	Title     string
	Summary   string
	Content   []ContentBlock
	Published *time.Time
	Updated   *time.Time
	Created   *time.Time
}

// ContentBlock is a single content element of an entry
type ContentBlock struct {
	Value string
}

// Parser parses RSS/Atom/JSON feeds into raw entries
type Parser struct{}

// NewParser creates a new feed parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses raw feed bytes. Format detection is done by gofeed.
func (p *Parser) Parse(data []byte) ([]Entry, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entry := Entry{
			ID:        item.GUID,
			Link:      item.Link,
			Title:     item.Title,
			Summary:   item.Description,
			Published: item.PublishedParsed,
			Updated:   item.UpdatedParsed,
			Created:   createdTime(item.Extensions),
		}
		if item.Content != "" {
			entry.Content = []ContentBlock{{Value: item.Content}}
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// createdTime looks for a creation date in dublin core terms extensions, gofeed doesn't map it
func createdTime(exts ext.Extensions) *time.Time {
	for _, prefix := range []string{"dcterms", "dc"} {
		for _, e := range exts[prefix]["created"] {
			value := strings.TrimSpace(e.Value)
			if value == "" {
				continue
			}
			ts, err := dateparse.ParseIn(value, time.UTC)
			if err != nil {
				continue
			}
			return &ts
		}
	}
	return nil
}
