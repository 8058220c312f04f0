package models

import "strings"

// Mode identifies what kind of segment the timer is running.
type Mode string

const (
	ModeNone  Mode = ""
	ModeWork  Mode = "work"
	ModeBreak Mode = "break"
)

// TimerState is the single authoritative timer snapshot. All timestamps and
// durations are in milliseconds since the Unix epoch / plain milliseconds,
// matching what gets persisted and sent over the wire.
type TimerState struct {
	Mode          Mode   `json:"mode"`
	StartTime     int64  `json:"start_time"`     // start of the current run segment, 0 when inactive
	Duration      int64  `json:"duration"`       // scheduled length of the current segment
	RemainingTime int64  `json:"remaining_time"` // authoritative only while paused
	IsActive      bool   `json:"is_active"`
	IsPaused      bool   `json:"is_paused"`
	CurrentPage   string `json:"current_page"` // page bound for tick/completion delivery
	SessionCount  int    `json:"session_count"`
}

// Idle returns the inactive state variant, preserving the session counter.
func (t TimerState) Idle() TimerState {
	return TimerState{SessionCount: t.SessionCount}
}

// SessionRecord is one immutable entry in the session history log.
// Mode carries a "_stopped" or "_interrupted" suffix when the segment did
// not run to completion.
type SessionRecord struct {
	ID            string `json:"id"`
	Timestamp     int64  `json:"timestamp"`
	Mode          string `json:"mode"`
	DurationMs    int64  `json:"duration_ms"`
	Completed     bool   `json:"completed"`
	SessionNumber int    `json:"session_number"`
	WorkDuration  int    `json:"work_duration"`  // settings snapshot, minutes
	BreakDuration int    `json:"break_duration"` // settings snapshot, minutes
}

// SessionCompleted reports whether a recorded mode string denotes a segment
// that ran to its scheduled end.
func SessionCompleted(mode string) bool {
	return !strings.Contains(mode, "_stopped") && !strings.Contains(mode, "_interrupted")
}

// DetectionRecord is one immutable entry in the detection log.
type DetectionRecord struct {
	Timestamp int64    `json:"timestamp"`
	PageID    string   `json:"page_id"`
	URL       string   `json:"url,omitempty"`
	IsLecture bool     `json:"is_lecture"`
	Score     int      `json:"score"`
	Title     string   `json:"title"`
	Factors   []string `json:"factors"`
}
