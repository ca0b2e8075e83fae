package feed

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/umputun/rssfilter/pkg/domain"
)

// Generator creates RSS feeds from aggregated items
type Generator struct{}

// NewGenerator creates a new feed generator
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateRSS creates an RSS 2.0 document for the channel and items, in the given order
func (g *Generator) GenerateRSS(ch domain.Channel, items []domain.Item) ([]byte, error) {
	rssItems := make([]*RSSItem, 0, len(items))
	var lastBuild time.Time
	for _, item := range items {
		rssItems = append(rssItems, g.convertToRSSItem(item))
		if item.Published.After(lastBuild) {
			lastBuild = item.Published
		}
	}

	channel := &RSSChannel{
		Title:       ch.Title,
		Link:        ch.Link,
		Description: ch.Description,
		Language:    ch.Language,
		AtomLink:    &AtomLink{Href: ch.Link, Rel: "self", Type: "application/rss+xml"},
		Items:       rssItems,
	}
	if !lastBuild.IsZero() {
		channel.LastBuildDate = lastBuild.Format(time.RFC1123Z)
	}

	output, err := xml.MarshalIndent(&RSS{Version: "2.0", Atom: "http://www.w3.org/2005/Atom", Channel: channel}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal RSS: %w", err)
	}

	return append([]byte(xml.Header), output...), nil
}

// convertToRSSItem converts an aggregated item to an RSS item
func (g *Generator) convertToRSSItem(item domain.Item) *RSSItem {
	return &RSSItem{
		Title:       item.Title,
		Link:        item.Link,
		GUID:        RSSGUID{Value: item.GUID, IsPermaLink: "false"},
		Description: item.Description(),
		PubDate:     item.Published.Format(time.RFC1123Z),
	}
}
