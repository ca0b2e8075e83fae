package domain

import "time"

// RefreshOutcome describes the result of one refresh cycle
type RefreshOutcome struct {
	OK          bool
	Message     string
	CompletedAt time.Time
	Duration    time.Duration
}

// Snapshot is the unit of publication. It is never modified after it was published,
// Items and Outcome always belong to the same publication.
type Snapshot struct {
	Items   []Item
	Outcome RefreshOutcome
	Cycle   int64
}

// NeverRefreshed is the outcome reported before the first cycle completes
var NeverRefreshed = RefreshOutcome{Message: "never"}

// RefreshRecord is a journal entry describing one published cycle
type RefreshRecord struct {
	Cycle       int64
	OK          bool
	Message     string
	Items       int
	CompletedAt time.Time
	Duration    time.Duration
}
