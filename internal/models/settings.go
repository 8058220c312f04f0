package models

import "time"

// Settings holds the user preferences shared by every context.
type Settings struct {
	WorkDuration        int  `json:"work_duration"`  // minutes
	BreakDuration       int  `json:"break_duration"` // minutes
	AutoDetectLectures  bool `json:"auto_detect_lectures"`
	EnableNotifications bool `json:"enable_notifications"`
	AutoResume          bool `json:"auto_resume"`
}

func DefaultSettings() Settings {
	return Settings{
		WorkDuration:        20,
		BreakDuration:       5,
		AutoDetectLectures:  true,
		EnableNotifications: true,
		AutoResume:          true,
	}
}

func (s Settings) WorkDurationMs() int64 {
	return int64(time.Duration(s.WorkDuration) * time.Minute / time.Millisecond)
}

func (s Settings) BreakDurationMs() int64 {
	return int64(time.Duration(s.BreakDuration) * time.Minute / time.Millisecond)
}
