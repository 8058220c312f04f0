// Package history keeps the append-only logs of finished sessions and
// detection events, capped by dropping the oldest entries.
package history

import (
	"time"

	"github.com/google/uuid"

	"tubefocus/internal/logger"
	"tubefocus/internal/models"
)

const (
	// SessionCap bounds the session history length.
	SessionCap = 1000
	// DetectionCap bounds the detection log length.
	DetectionCap = 100
)

// Store is the slice of persistence the recorder needs.
type Store interface {
	Sessions() ([]models.SessionRecord, error)
	SaveSessions([]models.SessionRecord) error
	Detections() ([]models.DetectionRecord, error)
	SaveDetections([]models.DetectionRecord) error
}

// Recorder appends to the capped logs. Storage failures are logged and
// swallowed: the logs are bookkeeping, never worth failing a timer
// transition over.
type Recorder struct {
	store    Store
	settings func() models.Settings
	now      func() time.Time
}

func NewRecorder(store Store, settings func() models.Settings) *Recorder {
	return &Recorder{store: store, settings: settings, now: time.Now}
}

// SetNow overrides the clock, for tests.
func (r *Recorder) SetNow(now func() time.Time) {
	r.now = now
}

// RecordSession appends one session entry with a snapshot of the configured
// durations. mode carries a "_stopped" or "_interrupted" suffix for
// segments that did not complete.
func (r *Recorder) RecordSession(mode string, durationMs int64, sessionNumber int) {
	settings := r.settings()
	record := models.SessionRecord{
		ID:            uuid.New().String(),
		Timestamp:     r.now().UnixMilli(),
		Mode:          mode,
		DurationMs:    durationMs,
		Completed:     models.SessionCompleted(mode),
		SessionNumber: sessionNumber,
		WorkDuration:  settings.WorkDuration,
		BreakDuration: settings.BreakDuration,
	}

	sessions, err := r.store.Sessions()
	if err != nil {
		logger.Error("load session history: %v", err)
		sessions = nil
	}
	sessions = append(sessions, record)
	if len(sessions) > SessionCap {
		sessions = sessions[len(sessions)-SessionCap:]
	}
	if err := r.store.SaveSessions(sessions); err != nil {
		logger.Error("save session history: %v", err)
	}
}

// RecordDetection appends one detection entry.
func (r *Recorder) RecordDetection(record models.DetectionRecord) {
	detections, err := r.store.Detections()
	if err != nil {
		logger.Error("load detection log: %v", err)
		detections = nil
	}
	detections = append(detections, record)
	if len(detections) > DetectionCap {
		detections = detections[len(detections)-DetectionCap:]
	}
	if err := r.store.SaveDetections(detections); err != nil {
		logger.Error("save detection log: %v", err)
	}
}
