// Package coordinator hosts the process-wide timer engine and session
// recorder and answers commands from page and popup contexts. It is the
// single source of truth for timer state.
package coordinator

import (
	"fmt"
	"sync"
	"time"

	"tubefocus/internal/history"
	"tubefocus/internal/logger"
	"tubefocus/internal/models"
	"tubefocus/internal/protocol"
	"tubefocus/internal/timer"
)

// Store is the persistence surface the coordinator and its parts share.
type Store interface {
	timer.Store
	history.Store
	Settings() (models.Settings, error)
}

type Coordinator struct {
	mu       sync.Mutex
	store    Store
	engine   *timer.Engine
	recorder *history.Recorder
	settings models.Settings
	now      func() time.Time
}

// New builds the coordinator, loads settings, and restores any persisted
// timer state.
func New(store Store, notifier timer.Notifier, opts timer.Options) *Coordinator {
	c := &Coordinator{
		store: store,
		now:   time.Now,
	}
	if opts.Now != nil {
		c.now = opts.Now
	}

	settings, err := store.Settings()
	if err != nil {
		logger.Error("load settings: %v", err)
		settings = models.DefaultSettings()
	}
	c.settings = settings

	c.recorder = history.NewRecorder(store, c.Settings)
	c.engine = timer.NewEngine(store, timer.NewSingleAlarm(), notifier, c.recorder, opts)
	c.engine.Restore()
	return c
}

// Settings returns the currently loaded preferences.
func (c *Coordinator) Settings() models.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// TimerState returns the authoritative snapshot.
func (c *Coordinator) TimerState() models.TimerState {
	return c.engine.State()
}

// Dispatch routes one command and converts every failure into an
// error-shaped response; nothing escapes the handler boundary.
func (c *Coordinator) Dispatch(req protocol.Request) (resp protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panic on %s: %v", req.Type, r)
			resp = protocol.Failf(fmt.Sprint(r))
		}
	}()

	if err := req.Validate(); err != nil {
		return protocol.Fail(err)
	}

	logger.Debug("dispatch %s from page %q", req.Type, req.PageID)

	switch req.Type {
	case protocol.StartWorkTimer:
		c.engine.Start(models.ModeWork, c.Settings().WorkDurationMs(), req.PageID)
		return protocol.OK()

	case protocol.StartBreakTimer:
		c.engine.Start(models.ModeBreak, c.Settings().BreakDurationMs(), req.PageID)
		return protocol.OK()

	case protocol.PauseTimer:
		c.engine.Pause()
		return protocol.OK()

	case protocol.ResumeTimer:
		c.engine.Resume()
		return protocol.OK()

	case protocol.StopTimer:
		c.engine.Stop()
		return protocol.OK()

	case protocol.ForceResumeClicked:
		pageID := req.PageID
		if pageID == "" {
			pageID = c.engine.State().CurrentPage
		}
		c.engine.ForceResume(pageID)
		return protocol.OK()

	case protocol.GetTimerState:
		state := c.engine.State()
		return protocol.Response{Success: true, State: &state}

	case protocol.LectureDetected:
		c.recorder.RecordDetection(models.DetectionRecord{
			Timestamp: c.now().UnixMilli(),
			PageID:    req.PageID,
			URL:       req.PageURL,
			IsLecture: req.Detection.IsLecture,
			Score:     req.Detection.Score,
			Title:     req.Detection.Title,
			Factors:   req.Detection.Factors,
		})
		return protocol.OK()

	case protocol.VideoPausedByUser:
		if !c.Settings().AutoResume {
			return protocol.OK()
		}
		state := c.engine.State()
		if state.IsActive && !state.IsPaused {
			c.engine.Pause()
		}
		return protocol.OK()

	case protocol.VideoResumedByUser:
		if !c.Settings().AutoResume {
			return protocol.OK()
		}
		state := c.engine.State()
		if state.IsActive && state.IsPaused {
			c.engine.Resume()
		}
		return protocol.OK()

	case protocol.SettingsUpdated:
		return c.reloadSettings()

	default:
		return protocol.Failf("Unknown message type")
	}
}

func (c *Coordinator) reloadSettings() protocol.Response {
	settings, err := c.store.Settings()
	if err != nil {
		logger.Error("reload settings: %v", err)
		return protocol.Fail(err)
	}
	c.mu.Lock()
	c.settings = settings
	c.mu.Unlock()
	logger.Info("settings reloaded: work %dm, break %dm", settings.WorkDuration, settings.BreakDuration)
	return protocol.OK()
}
