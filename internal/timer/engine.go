// Package timer owns the authoritative work/break state machine. The engine
// is the only mutation point for TimerState; pages and the popup act on it
// exclusively through the coordinator.
package timer

import (
	"sync"
	"time"

	"tubefocus/internal/logger"
	"tubefocus/internal/models"
	"tubefocus/internal/protocol"
)

// StopRecordThreshold is the minimum scheduled segment length for an
// interrupted segment to be worth a history entry.
const StopRecordThreshold = 2 * time.Minute

// Store persists the timer snapshot across restarts.
type Store interface {
	TimerState() (models.TimerState, bool, error)
	SaveTimerState(models.TimerState) error
}

// Alarm schedules the single segment-expiry callback. Scheduling replaces
// any pending alarm.
type Alarm interface {
	Schedule(d time.Duration, fire func())
	Cancel()
}

// Notifier delivers events to a page context, best effort.
type Notifier interface {
	Notify(pageID string, ev protocol.Event)
}

// Recorder receives finished and interrupted segments.
type Recorder interface {
	RecordSession(mode string, durationMs int64, sessionNumber int)
}

// Options contains runtime knobs for the engine.
type Options struct {
	TickInterval time.Duration
	Now          func() time.Time
}

// Engine runs one timer per process. All transitions persist the new state
// before returning; persistence failures keep the in-memory state
// authoritative for the rest of the process lifetime.
type Engine struct {
	mu       sync.Mutex
	state    models.TimerState
	store    Store
	alarm    Alarm
	notifier Notifier
	recorder Recorder
	opts     Options
	tickStop chan struct{}
}

func NewEngine(store Store, alarm Alarm, notifier Notifier, recorder Recorder, opts Options) *Engine {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		store:    store,
		alarm:    alarm,
		notifier: notifier,
		recorder: recorder,
		opts:     opts,
	}
}

// State returns the current snapshot with RemainingTime computed for a
// running segment.
func (e *Engine) State() models.TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	state := e.state
	if state.IsActive && !state.IsPaused {
		state.RemainingTime = e.remainingLocked()
	}
	return state
}

// Start begins a new segment, preempting whatever was running. A preempted
// segment that still had time left and was long enough to matter is
// recorded as stopped, the same way Stop records it.
func (e *Engine) Start(mode models.Mode, durationMs int64, pageID string) {
	e.mu.Lock()

	// RemainingTime is the authoritative figure while paused; the wall-clock
	// derivation only holds for a running segment.
	remaining := e.remainingLocked()
	if e.state.IsPaused {
		remaining = e.state.RemainingTime
	}
	if e.state.IsActive && remaining > 0 &&
		e.state.Duration > StopRecordThreshold.Milliseconds() {
		e.recorder.RecordSession(string(e.state.Mode)+"_stopped", e.state.Duration, e.state.SessionCount)
	}

	e.alarm.Cancel()
	e.stopTickingLocked()

	sessionCount := e.state.SessionCount
	if mode == models.ModeWork {
		sessionCount++
	}

	e.state = models.TimerState{
		Mode:          mode,
		StartTime:     e.opts.Now().UnixMilli(),
		Duration:      durationMs,
		RemainingTime: durationMs,
		IsActive:      true,
		IsPaused:      false,
		CurrentPage:   pageID,
		SessionCount:  sessionCount,
	}

	e.persistLocked()
	e.alarm.Schedule(time.Duration(durationMs)*time.Millisecond, e.onExpiry)
	e.startTickingLocked()
	e.mu.Unlock()

	logger.Info("%s timer started for %ds (session %d)", mode, durationMs/1000, sessionCount)
}

// Pause freezes a running segment. Redundant calls are no-ops.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.state.IsActive || e.state.IsPaused {
		e.mu.Unlock()
		return
	}

	e.state.RemainingTime = e.remainingLocked()
	e.state.IsPaused = true

	e.alarm.Cancel()
	e.stopTickingLocked()
	e.persistLocked()
	remaining := e.state.RemainingTime
	e.mu.Unlock()

	logger.Info("timer paused with %ds remaining", remaining/1000)
}

// Resume continues a paused segment; the remaining time becomes the new
// full segment length. Redundant calls are no-ops.
func (e *Engine) Resume() {
	e.mu.Lock()
	if !e.state.IsActive || !e.state.IsPaused {
		e.mu.Unlock()
		return
	}

	e.state.StartTime = e.opts.Now().UnixMilli()
	e.state.Duration = e.state.RemainingTime
	e.state.IsPaused = false

	e.alarm.Schedule(time.Duration(e.state.RemainingTime)*time.Millisecond, e.onExpiry)
	e.startTickingLocked()
	e.persistLocked()
	remaining := e.state.RemainingTime
	e.mu.Unlock()

	logger.Info("timer resumed with %ds remaining", remaining/1000)
}

// Stop ends the current segment. Segments over the record threshold get a
// "_stopped" history entry; short ones vanish without trace.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.alarm.Cancel()
	e.stopTickingLocked()

	if e.state.IsActive && e.state.Duration > StopRecordThreshold.Milliseconds() {
		e.recorder.RecordSession(string(e.state.Mode)+"_stopped", e.state.Duration, e.state.SessionCount)
	}

	e.state = e.state.Idle()
	e.persistLocked()
	e.mu.Unlock()

	logger.Info("timer stopped")
}

// ForceResume cuts a break short at the user's request: the break is
// recorded as interrupted and the bound page is told to resume playback.
func (e *Engine) ForceResume(pageID string) {
	e.mu.Lock()
	if !e.state.IsActive || e.state.Mode != models.ModeBreak {
		e.mu.Unlock()
		return
	}

	e.alarm.Cancel()
	e.stopTickingLocked()

	e.recorder.RecordSession("break_interrupted", e.state.Duration, e.state.SessionCount)
	e.state = e.state.Idle()
	e.persistLocked()
	e.mu.Unlock()

	if pageID != "" {
		e.notifier.Notify(pageID, protocol.Event{Type: protocol.EventForceResume})
	}
	logger.Info("break force-resumed")
}

// Restore loads the persisted snapshot at process start. A segment that ran
// out while the process was down collapses to idle without a retroactive
// completion notification; the page reconciles on its own.
func (e *Engine) Restore() {
	state, ok, err := e.store.TimerState()
	if err != nil {
		logger.Error("restore timer state: %v", err)
		return
	}
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state

	if !state.IsActive {
		return
	}
	if state.IsPaused {
		logger.Info("timer state restored (paused, %ds remaining)", state.RemainingTime/1000)
		return
	}

	elapsed := e.opts.Now().UnixMilli() - state.StartTime
	if elapsed < state.Duration {
		e.state.RemainingTime = state.Duration - elapsed
		e.alarm.Schedule(time.Duration(e.state.RemainingTime)*time.Millisecond, e.onExpiry)
		e.startTickingLocked()
		logger.Info("timer state restored and resumed (%ds remaining)", e.state.RemainingTime/1000)
	} else {
		e.state = e.state.Idle()
		e.persistLocked()
		logger.Info("timer had expired while the process was down")
	}
}

// onExpiry fires from the alarm when a segment runs its full length.
func (e *Engine) onExpiry() {
	e.mu.Lock()
	if !e.state.IsActive || e.state.IsPaused {
		// Stale alarm; a pause or stop won the race.
		e.mu.Unlock()
		return
	}

	mode := e.state.Mode
	pageID := e.state.CurrentPage
	e.stopTickingLocked()
	e.state.RemainingTime = 0

	e.recorder.RecordSession(string(mode), e.state.Duration, e.state.SessionCount)

	if mode == models.ModeBreak {
		e.state = e.state.Idle()
	}
	e.persistLocked()
	e.mu.Unlock()

	if pageID != "" {
		eventType := protocol.EventWorkTimerFinished
		if mode == models.ModeBreak {
			eventType = protocol.EventBreakTimerFinished
		}
		e.notifier.Notify(pageID, protocol.Event{Type: eventType})
	}
	logger.Info("%s timer finished", mode)
}

func (e *Engine) startTickingLocked() {
	e.stopTickingLocked()
	stop := make(chan struct{})
	e.tickStop = stop
	go e.tickLoop(stop)
}

func (e *Engine) stopTickingLocked() {
	if e.tickStop != nil {
		close(e.tickStop)
		e.tickStop = nil
	}
}

func (e *Engine) tickLoop(stop chan struct{}) {
	ticker := time.NewTicker(e.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !e.tick() {
				return
			}
		}
	}
}

// tick pushes one TIMER_TICK to the bound page and reports whether the loop
// should keep running.
func (e *Engine) tick() bool {
	e.mu.Lock()
	if !e.state.IsActive || e.state.IsPaused {
		e.mu.Unlock()
		return false
	}

	remaining := e.remainingLocked()
	e.state.RemainingTime = remaining
	ev := protocol.Event{
		Type:          protocol.EventTimerTick,
		RemainingTime: remaining,
		Mode:          e.state.Mode,
		SessionCount:  e.state.SessionCount,
		IsPaused:      false,
	}
	pageID := e.state.CurrentPage
	e.mu.Unlock()

	if pageID != "" {
		e.notifier.Notify(pageID, ev)
	}
	return remaining > 0
}

func (e *Engine) remainingLocked() int64 {
	elapsed := e.opts.Now().UnixMilli() - e.state.StartTime
	remaining := e.state.Duration - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (e *Engine) persistLocked() {
	if err := e.store.SaveTimerState(e.state); err != nil {
		logger.Error("save timer state: %v", err)
	}
}
