package domain

import "github.com/umputun/rssfilter/pkg/filter"

// FeedSource represents a configured upstream feed with its own filter rules
type FeedSource struct {
	ID      int
	URL     string
	Filters []filter.Rule
}

// AggregationConfig is the immutable aggregation setup loaded at startup.
// An entry survives only if it passes both its feed's filters and MasterRules.
type AggregationConfig struct {
	MasterRules []filter.Rule
	Feeds       []FeedSource
}
