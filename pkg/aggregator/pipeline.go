// Package aggregator runs one refresh cycle: fetch every configured feed, normalize and filter
// entries, dedupe them by link, rank most-recent-first and cap the result.
package aggregator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/rssfilter/pkg/domain"
	"github.com/umputun/rssfilter/pkg/feed"
	"github.com/umputun/rssfilter/pkg/filter"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher

// Fetcher retrieves raw feed bytes
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]byte, error)
}

// Parser turns raw feed bytes into entries
type Parser interface {
	Parse(data []byte) ([]feed.Entry, error)
}

// Pipeline is stateless between runs, previous results are kept by the caller
type Pipeline struct {
	fetcher Fetcher
	parser  Parser
	now     func() time.Time
}

// NewPipeline creates a refresh pipeline
func NewPipeline(fetcher Fetcher, parser Parser) *Pipeline {
	return &Pipeline{fetcher: fetcher, parser: parser, now: time.Now}
}

// Run performs one full refresh cycle. On failure it returns no items and a failed outcome;
// the first feed that can't be fetched or parsed aborts the whole cycle.
func (p *Pipeline) Run(ctx context.Context, cfg domain.AggregationConfig, maxItems int) (items []domain.Item, outcome domain.RefreshOutcome) {
	started := p.now()
	lgr.Printf("[INFO] starting refresh cycle, %d feeds", len(cfg.Feeds))

	defer func() {
		if r := recover(); r != nil {
			items, outcome = nil, p.failed(started, fmt.Errorf("panic: %v", r))
			lgr.Printf("[ERROR] refresh failed: %v", r)
		}
		lgr.Printf("[INFO] refresh cycle complete in %v", outcome.Duration)
	}()

	collected, err := p.collect(ctx, cfg)
	if err != nil {
		lgr.Printf("[WARN] refresh failed: %v", err)
		return nil, p.failed(started, err)
	}

	sort.SliceStable(collected, func(i, j int) bool {
		return collected[i].Published.After(collected[j].Published)
	})
	if maxItems >= 0 && len(collected) > maxItems {
		collected = collected[:maxItems]
	}

	completed := p.now()
	outcome = domain.RefreshOutcome{
		OK:          true,
		Message:     fmt.Sprintf("OK - %d items", len(collected)),
		CompletedAt: completed.UTC(),
		Duration:    completed.Sub(started),
	}
	lgr.Printf("[INFO] %s", outcome.Message)
	return collected, outcome
}

// collect fetches feeds in declared order and returns accepted items, first seen link wins
func (p *Pipeline) collect(ctx context.Context, cfg domain.AggregationConfig) ([]domain.Item, error) {
	res := []domain.Item{}
	seen := make(map[string]struct{})

	for _, src := range cfg.Feeds {
		lgr.Printf("[INFO] fetching feed id=%d url=%s", src.ID, src.URL)
		data, err := p.fetcher.Fetch(ctx, src.URL)
		if err != nil {
			return nil, fmt.Errorf("feed %d: %w", src.ID, err)
		}

		entries, err := p.parser.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("feed %d: %w", src.ID, err)
		}

		accepted := 0
		for _, entry := range entries {
			norm, ok := feed.Normalize(entry)
			if !ok {
				continue
			}

			pass, err := passes(norm.FilterText, src.Filters, cfg.MasterRules)
			if err != nil {
				return nil, fmt.Errorf("feed %d: filter %s: %w", src.ID, norm.Item.Link, err)
			}
			if !pass {
				continue
			}

			if _, dup := seen[norm.Item.Link]; dup {
				continue
			}
			seen[norm.Item.Link] = struct{}{}
			res = append(res, norm.Item)
			accepted++
		}
		lgr.Printf("[DEBUG] feed id=%d: %d entries, %d accepted", src.ID, len(entries), accepted)
	}

	return res, nil
}

// passes requires both the feed rules and the master rules to match
func passes(text string, feedRules, masterRules []filter.Rule) (bool, error) {
	ok, err := filter.MatchesAny(text, feedRules)
	if err != nil || !ok {
		return false, err
	}
	return filter.MatchesAny(text, masterRules)
}

func (p *Pipeline) failed(started time.Time, err error) domain.RefreshOutcome {
	completed := p.now()
	return domain.RefreshOutcome{
		OK:          false,
		Message:     fmt.Sprintf("FAILED - %v", err),
		CompletedAt: completed.UTC(),
		Duration:    completed.Sub(started),
	}
}
