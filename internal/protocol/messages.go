// Package protocol defines the message surface between the page/popup
// contexts and the background coordinator. Commands travel as a tagged
// Request and get a Response back; coordinator-to-page pushes travel as
// fire-and-forget Events.
package protocol

import (
	"fmt"

	"tubefocus/internal/models"
)

// MessageType tags a Request.
type MessageType string

const (
	StartWorkTimer     MessageType = "START_WORK_TIMER"
	StartBreakTimer    MessageType = "START_BREAK_TIMER"
	PauseTimer         MessageType = "PAUSE_TIMER"
	ResumeTimer        MessageType = "RESUME_TIMER"
	StopTimer          MessageType = "STOP_TIMER"
	ForceResumeClicked MessageType = "FORCE_RESUME_CLICKED"
	GetTimerState      MessageType = "GET_TIMER_STATE"
	LectureDetected    MessageType = "LECTURE_DETECTED"
	VideoPausedByUser  MessageType = "VIDEO_PAUSED_BY_USER"
	VideoResumedByUser MessageType = "VIDEO_RESUMED_BY_USER"
	SettingsUpdated    MessageType = "SETTINGS_UPDATED"
)

// Detection is the LECTURE_DETECTED payload.
type Detection struct {
	IsLecture bool     `json:"is_lecture"`
	Score     int      `json:"score"`
	Title     string   `json:"title"`
	Factors   []string `json:"factors"`
}

// Request is a command sent to the coordinator. PageID identifies the
// sending page context and is empty for popup senders.
type Request struct {
	Type      MessageType `json:"type"`
	PageID    string      `json:"page_id,omitempty"`
	PageURL   string      `json:"page_url,omitempty"`
	Detection *Detection  `json:"detection,omitempty"`
}

// Validate rejects malformed requests before they reach a handler.
func (r Request) Validate() error {
	switch r.Type {
	case StartWorkTimer, StartBreakTimer, PauseTimer, ResumeTimer, StopTimer,
		ForceResumeClicked, GetTimerState, VideoPausedByUser, VideoResumedByUser,
		SettingsUpdated:
		return nil
	case LectureDetected:
		if r.Detection == nil {
			return fmt.Errorf("%s requires a detection payload", r.Type)
		}
		return nil
	default:
		// Exact wording is part of the wire contract.
		return fmt.Errorf("Unknown message type")
	}
}

// Response acknowledges a Request. GET_TIMER_STATE answers with the full
// state snapshot instead of a bare success flag.
type Response struct {
	Success bool               `json:"success"`
	Error   string             `json:"error,omitempty"`
	State   *models.TimerState `json:"state,omitempty"`
}

func OK() Response              { return Response{Success: true} }
func Fail(err error) Response   { return Response{Error: err.Error()} }
func Failf(msg string) Response { return Response{Error: msg} }
func (r Response) Failed() bool { return r.Error != "" }

// EventType tags a coordinator-to-page push.
type EventType string

const (
	EventTimerTick           EventType = "TIMER_TICK"
	EventWorkTimerFinished   EventType = "WORK_TIMER_FINISHED"
	EventBreakTimerFinished  EventType = "BREAK_TIMER_FINISHED"
	EventForceResume         EventType = "FORCE_RESUME"
	EventManualLectureToggle EventType = "MANUAL_LECTURE_TOGGLE"
)

// Event is a fire-and-forget push. Tick fields are only meaningful for
// TIMER_TICK; IsLecture only for MANUAL_LECTURE_TOGGLE.
type Event struct {
	Type          EventType   `json:"type"`
	RemainingTime int64       `json:"remaining_time,omitempty"`
	Mode          models.Mode `json:"mode,omitempty"`
	SessionCount  int         `json:"session_count,omitempty"`
	IsPaused      bool        `json:"is_paused,omitempty"`
	IsLecture     bool        `json:"is_lecture,omitempty"`
}
