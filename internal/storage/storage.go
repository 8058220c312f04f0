package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"tubefocus/internal/models"
)

// Storage persists the shared state blobs as JSON files in a single data
// directory. Every write replaces the whole file; readers of a missing file
// get zero values, never an error.
type Storage struct {
	dataDir string
}

func New() (*Storage, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dataDir := filepath.Join(homeDir, ".tubefocus")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	return &Storage{dataDir: dataDir}, nil
}

// NewAt opens storage rooted at an explicit directory.
func NewAt(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	return &Storage{dataDir: dataDir}, nil
}

func (s *Storage) DataDir() string {
	return s.dataDir
}

func (s *Storage) timerStateFile() string { return filepath.Join(s.dataDir, "timer_state.json") }
func (s *Storage) settingsFile() string   { return filepath.Join(s.dataDir, "settings.json") }
func (s *Storage) sessionsFile() string   { return filepath.Join(s.dataDir, "sessions.json") }
func (s *Storage) detectionsFile() string { return filepath.Join(s.dataDir, "detections.json") }
func (s *Storage) overridesFile() string  { return filepath.Join(s.dataDir, "overrides.json") }

// TimerState loads the persisted timer snapshot. ok is false when no
// snapshot has ever been written.
func (s *Storage) TimerState() (models.TimerState, bool, error) {
	data, err := os.ReadFile(s.timerStateFile())
	if err != nil {
		if os.IsNotExist(err) {
			return models.TimerState{}, false, nil
		}
		return models.TimerState{}, false, err
	}

	var state models.TimerState
	if err := json.Unmarshal(data, &state); err != nil {
		return models.TimerState{}, false, fmt.Errorf("parse timer state: %w", err)
	}
	return state, true, nil
}

func (s *Storage) SaveTimerState(state models.TimerState) error {
	return s.writeJSON(s.timerStateFile(), state)
}

// Settings loads user preferences merged over the defaults, so a settings
// file carrying only some keys still yields a complete value. The defaults
// are written back on first read.
func (s *Storage) Settings() (models.Settings, error) {
	settings := models.DefaultSettings()

	data, err := os.ReadFile(s.settingsFile())
	if err != nil {
		if os.IsNotExist(err) {
			if err := s.SaveSettings(settings); err != nil {
				return settings, err
			}
			return settings, nil
		}
		return settings, err
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return models.DefaultSettings(), fmt.Errorf("parse settings: %w", err)
	}
	return settings, nil
}

func (s *Storage) SaveSettings(settings models.Settings) error {
	return s.writeJSON(s.settingsFile(), settings)
}

func (s *Storage) Sessions() ([]models.SessionRecord, error) {
	var sessions []models.SessionRecord
	if err := s.readJSON(s.sessionsFile(), &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *Storage) SaveSessions(sessions []models.SessionRecord) error {
	return s.writeJSON(s.sessionsFile(), sessions)
}

func (s *Storage) Detections() ([]models.DetectionRecord, error) {
	var detections []models.DetectionRecord
	if err := s.readJSON(s.detectionsFile(), &detections); err != nil {
		return nil, err
	}
	return detections, nil
}

func (s *Storage) SaveDetections(detections []models.DetectionRecord) error {
	return s.writeJSON(s.detectionsFile(), detections)
}

// Overrides returns the per-video manual classification map keyed by video
// identifier.
func (s *Storage) Overrides() (map[string]bool, error) {
	overrides := map[string]bool{}
	if err := s.readJSON(s.overridesFile(), &overrides); err != nil {
		return nil, err
	}
	return overrides, nil
}

func (s *Storage) SetOverride(videoID string, isLecture bool) error {
	overrides, err := s.Overrides()
	if err != nil {
		return err
	}
	overrides[videoID] = isLecture
	return s.writeJSON(s.overridesFile(), overrides)
}

func (s *Storage) ClearOverrides() error {
	return removeIfPresent(s.overridesFile())
}

// ResetStats drops the session history and the detection log.
func (s *Storage) ResetStats() error {
	if err := removeIfPresent(s.sessionsFile()); err != nil {
		return err
	}
	return removeIfPresent(s.detectionsFile())
}

func (s *Storage) readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Storage) writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func removeIfPresent(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
