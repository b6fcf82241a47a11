package model

import "time"

// EventType distinguishes beacon payloads.
type EventType string

const (
	EventPageView   EventType = "page_view"
	EventSessionEnd EventType = "session_end"
)

// PageView is a single tracked beacon.
type PageView struct {
	ID         string    `json:"id"` // ULID
	SessionID  string    `json:"session_id"`
	Type       EventType `json:"type"`
	Path       string    `json:"path"`
	Referrer   string    `json:"referrer,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	NewSession bool      `json:"new_session"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PathCount is one row of the top-paths breakdown.
type PathCount struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// DailyCount is page views and sessions for one day.
type DailyCount struct {
	Date     string `json:"date"`
	Views    int64  `json:"views"`
	Sessions int64  `json:"sessions"`
}

// AnalyticsSummary is the dashboard view over a period.
type AnalyticsSummary struct {
	From           time.Time    `json:"from"`
	To             time.Time    `json:"to"`
	PageViews      int64        `json:"page_views"`
	UniqueSessions int64        `json:"unique_sessions"`
	AvgDurationMS  float64      `json:"avg_duration_ms"`
	TopPaths       []PathCount  `json:"top_paths"`
	Daily          []DailyCount `json:"daily"`
}
