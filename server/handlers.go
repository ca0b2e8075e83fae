package server

import (
	"bytes"
	"context"
	"html"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/samber/lo"

	"github.com/umputun/rssfilter/pkg/domain"
	"github.com/umputun/rssfilter/pkg/filter"
)

const summaryLimit = 300 // runes of plain text shown per item on the status page

var templateFuncs = template.FuncMap{
	"fmtTime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format(time.RFC3339)
	},
}

// statusView is the data behind both the status page and the status API
type statusView struct {
	Version     string        `json:"version"`
	Uptime      string        `json:"uptime"`
	UptimeSecs  int64         `json:"uptime_secs"`
	Hits        int64         `json:"hits"`
	LastRefresh string        `json:"last_refresh"`
	LastOK      bool          `json:"last_ok"`
	RefreshedAt time.Time     `json:"refreshed_at"`
	Cycle       int64         `json:"cycle"`
	Items       []itemView    `json:"items"`
	MasterRules []string      `json:"master_rules"`
	Feeds       []feedView    `json:"feeds"`
	History     []historyView `json:"history"`
}

type itemView struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Published time.Time `json:"published"`
	Summary   string    `json:"summary"`
}

type feedView struct {
	ID      int      `json:"id"`
	URL     string   `json:"url"`
	Filters []string `json:"filters"`
}

type historyView struct {
	Cycle       int64     `json:"cycle"`
	OK          bool      `json:"ok"`
	Message     string    `json:"message"`
	Items       int       `json:"items"`
	CompletedAt time.Time `json:"completed_at"`
	Duration    string    `json:"duration"`
}

// rssHandler serves the aggregated feed built from the latest snapshot
func (s *Server) rssHandler(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)
	log.Printf("[INFO] rss requested by %s", r.RemoteAddr)

	snap := s.snapshots.Snapshot()
	data, err := s.generator.GenerateRSS(s.params.Channel, snap.Items)
	if err != nil {
		log.Printf("[ERROR] failed to generate RSS feed: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write(data); err != nil {
		log.Printf("[ERROR] failed to write RSS response: %v", err)
	}
}

// statusPageHandler renders the human-readable status page
func (s *Server) statusPageHandler(w http.ResponseWriter, r *http.Request) {
	view := s.buildStatus(r.Context())

	// render into a buffer so a template failure doesn't leave a half-written page
	var buf bytes.Buffer
	if err := s.statusTpl.Execute(&buf, view); err != nil {
		log.Printf("[ERROR] failed to render status page: %v", err)
		http.Error(w, "Failed to render status page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[ERROR] failed to write status page: %v", err)
	}
}

// statusHandler returns the status as JSON
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	rest.RenderJSON(w, s.buildStatus(r.Context()))
}

func (s *Server) buildStatus(ctx context.Context) statusView {
	snap := s.snapshots.Snapshot()
	agg := s.snapshots.Aggregation()
	uptime := time.Since(s.startedAt)

	res := statusView{
		Version:     s.params.Version,
		Uptime:      uptime.Truncate(time.Second).String(),
		UptimeSecs:  int64(uptime.Seconds()),
		Hits:        s.hits.Load(),
		LastRefresh: snap.Outcome.Message,
		LastOK:      snap.Outcome.OK,
		RefreshedAt: snap.Outcome.CompletedAt,
		Cycle:       snap.Cycle,
		Items: lo.Map(snap.Items, func(it domain.Item, _ int) itemView {
			return itemView{Title: it.Title, Link: it.Link, Published: it.Published, Summary: s.plainSummary(it.Description())}
		}),
		MasterRules: ruleStrings(agg.MasterRules),
		Feeds: lo.Map(agg.Feeds, func(fs domain.FeedSource, _ int) feedView {
			return feedView{ID: fs.ID, URL: fs.URL, Filters: ruleStrings(fs.Filters)}
		}),
		History: []historyView{},
	}

	if s.history == nil {
		return res
	}
	recs, err := s.history.Recent(ctx, historyLimit)
	if err != nil {
		lgr.Printf("[WARN] failed to load refresh history: %v", err)
		return res
	}
	res.History = lo.Map(recs, func(rec domain.RefreshRecord, _ int) historyView {
		return historyView{Cycle: rec.Cycle, OK: rec.OK, Message: rec.Message, Items: rec.Items,
			CompletedAt: rec.CompletedAt, Duration: rec.Duration.String()}
	})
	return res
}

// plainSummary strips markup from the item description and shortens it.
// The sanitizer escapes entities, they are unescaped back as the template escapes on output.
func (s *Server) plainSummary(desc string) string {
	text := []rune(strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(desc))))
	if len(text) <= summaryLimit {
		return string(text)
	}
	return string(text[:summaryLimit]) + "…"
}

func ruleStrings(rules []filter.Rule) []string {
	return lo.Map(rules, func(r filter.Rule, _ int) string { return r.String() })
}
