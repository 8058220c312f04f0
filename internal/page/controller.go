// Package page drives one video page: it classifies the content, wires the
// native play/pause events to timer commands, and reconciles its local
// assumptions against the authoritative state held by the coordinator.
package page

import (
	"sync"
	"time"

	"tubefocus/internal/classify"
	"tubefocus/internal/logger"
	"tubefocus/internal/models"
	"tubefocus/internal/protocol"
)

// Client sends commands to the coordinator.
type Client interface {
	Dispatch(protocol.Request) protocol.Response
}

// VideoPlayer controls native playback.
type VideoPlayer interface {
	Pause()
	Play()
}

// SignalSource extracts the scorer inputs from the page.
type SignalSource interface {
	Signals() classify.Signals
}

// OverrideStore is the per-video manual classification map.
type OverrideStore interface {
	Overrides() (map[string]bool, error)
	SetOverride(videoID string, isLecture bool) error
}

// Renderer is the page's visual surface. All methods are hints; rendering
// detail lives outside this package.
type Renderer interface {
	ShowOverlay(state models.TimerState)
	UpdateOverlay(remainingMs int64, mode models.Mode, sessionCount int, paused bool)
	HideOverlay()
	SetMinimized(minimized bool)
	ShowAutoStartPrompt(seconds int)
	HideAutoStartPrompt()
	ShowBreakEndChoice(seconds int)
	HideBreakEndChoice()
}

// Options tunes the controller's delays. The zero value gets the standard
// timings.
type Options struct {
	DetectAttempts     int
	DetectRetryDelay   time.Duration
	AutoStartDelay     time.Duration // play-event auto-start debounce
	PromptCountdown    time.Duration // detection prompt before auto-start
	BreakChoiceTimeout time.Duration // break-end choice before defaulting

	// After and Sleep exist so tests can collapse time.
	After func(time.Duration, func()) (cancel func())
	Sleep func(time.Duration)

	// Settings supplies the current preferences; defaults when nil.
	Settings func() models.Settings
}

func (o *Options) fill() {
	if o.DetectAttempts <= 0 {
		o.DetectAttempts = 3
	}
	if o.DetectRetryDelay <= 0 {
		o.DetectRetryDelay = 2 * time.Second
	}
	if o.AutoStartDelay <= 0 {
		o.AutoStartDelay = time.Second
	}
	if o.PromptCountdown <= 0 {
		o.PromptCountdown = 5 * time.Second
	}
	if o.BreakChoiceTimeout <= 0 {
		o.BreakChoiceTimeout = 15 * time.Second
	}
	if o.After == nil {
		o.After = func(d time.Duration, f func()) func() {
			t := time.AfterFunc(d, f)
			return func() { t.Stop() }
		}
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	if o.Settings == nil {
		o.Settings = models.DefaultSettings
	}
}

// Controller is the per-page agent. Local flags only ever widen toward the
// authoritative timer state; navigation resets them for the next page
// identity.
type Controller struct {
	mu        sync.Mutex
	pageID    string
	url       string
	client    Client
	video     VideoPlayer
	source    SignalSource
	render    Renderer
	overrides OverrideStore
	opts      Options

	isLecture              bool
	hasStartedInitialTimer bool
	userHasCancelled       bool
	userHasStopped         bool
	isMinimized            bool
	hasShownPrompt         bool
	selfInflictedPause     bool
	timerState             models.TimerState

	cancelAutoStart   func()
	cancelBreakChoice func()
}

func NewController(pageID, url string, client Client, video VideoPlayer, source SignalSource,
	render Renderer, overrides OverrideStore, opts Options) *Controller {
	opts.fill()
	return &Controller{
		pageID:    pageID,
		url:       url,
		client:    client,
		video:     video,
		source:    source,
		render:    render,
		overrides: overrides,
		opts:      opts,
	}
}

// SyncTimerState refetches the authoritative snapshot. A timer already
// running for this page marks the auto-start as spent.
func (c *Controller) SyncTimerState() {
	resp := c.client.Dispatch(protocol.Request{Type: protocol.GetTimerState, PageID: c.pageID})
	if resp.State == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.timerState = *resp.State
	if c.timerState.IsActive {
		c.render.ShowOverlay(c.timerState)
		if c.timerState.Mode == models.ModeWork {
			c.hasStartedInitialTimer = true
		}
	}
}

// RunDetection classifies the page, retrying while the page has not settled
// enough to yield any signal, and reports the verdict to the coordinator.
func (c *Controller) RunDetection() classify.Result {
	var result classify.Result
	for attempt := 0; attempt < c.opts.DetectAttempts; attempt++ {
		if attempt > 0 {
			c.opts.Sleep(c.opts.DetectRetryDelay)
		}
		result = classify.Score(c.currentSignals())
		if !result.Undetermined {
			break
		}
	}

	c.mu.Lock()
	c.isLecture = result.IsLecture
	timerActive := c.timerState.IsActive
	suppressed := c.userHasCancelled || c.userHasStopped
	shown := c.hasShownPrompt
	c.mu.Unlock()

	c.client.Dispatch(protocol.Request{
		Type:    protocol.LectureDetected,
		PageID:  c.pageID,
		PageURL: c.url,
		Detection: &protocol.Detection{
			IsLecture: result.IsLecture,
			Score:     result.Score,
			Title:     result.Title,
			Factors:   result.Factors,
		},
	})
	logger.Info("detection for page %s: lecture=%v score=%d", c.pageID, result.IsLecture, result.Score)

	if result.IsLecture && !shown && !timerActive && !suppressed && c.opts.Settings().AutoDetectLectures {
		c.showAutoStartPrompt()
	}
	return result
}

// currentSignals merges the DOM signals with any stored manual override for
// this video.
func (c *Controller) currentSignals() classify.Signals {
	sig := c.source.Signals()
	sig.InPlaylist = classify.InPlaylistURL(c.url)

	overrides, err := c.overrides.Overrides()
	if err != nil {
		logger.Warn("load overrides: %v", err)
		return sig
	}
	if value, ok := overrides[classify.VideoID(c.url)]; ok {
		sig.Override = &value
	}
	return sig
}

// OnVideoPlay reconciles a native play event against the authoritative
// timer.
func (c *Controller) OnVideoPlay() {
	c.SyncTimerState()

	c.mu.Lock()
	state := c.timerState
	resume := state.IsActive && state.IsPaused && !c.selfInflictedPause
	shouldAutoStart := !resume && c.isLecture && !state.IsActive && !c.hasStartedInitialTimer &&
		!c.userHasCancelled && !c.userHasStopped && c.opts.Settings().AutoDetectLectures
	if shouldAutoStart {
		// Claim the auto-start now so rapid repeated play events cannot
		// schedule it twice. Keeping the cancel lets navigation and an
		// explicit cancel reach the pending start.
		c.hasStartedInitialTimer = true
		c.cancelAutoStart = c.opts.After(c.opts.AutoStartDelay, c.startWorkTimer)
	}
	c.mu.Unlock()

	if resume {
		c.client.Dispatch(protocol.Request{Type: protocol.ResumeTimer, PageID: c.pageID})
	}
}

// OnVideoPause pauses the timer for a user-initiated pause. The
// self-inflicted latch is single shot: consumed here no matter which branch
// runs.
func (c *Controller) OnVideoPause() {
	c.SyncTimerState()

	c.mu.Lock()
	state := c.timerState
	selfInflicted := c.selfInflictedPause
	c.selfInflictedPause = false
	c.mu.Unlock()

	if !selfInflicted && state.IsActive && !state.IsPaused {
		c.client.Dispatch(protocol.Request{Type: protocol.PauseTimer, PageID: c.pageID})
	}
}

// OnNavigate starts a clean page identity: every local flag resets while the
// background timer is left untouched.
func (c *Controller) OnNavigate(url string) {
	c.mu.Lock()
	c.url = url
	c.isLecture = false
	c.hasStartedInitialTimer = false
	c.userHasCancelled = false
	c.userHasStopped = false
	c.isMinimized = false
	c.hasShownPrompt = false
	c.selfInflictedPause = false
	cancelAuto := c.cancelAutoStart
	cancelChoice := c.cancelBreakChoice
	c.cancelAutoStart = nil
	c.cancelBreakChoice = nil
	c.mu.Unlock()

	if cancelAuto != nil {
		cancelAuto()
	}
	if cancelChoice != nil {
		cancelChoice()
	}
	c.render.HideOverlay()
	c.render.HideAutoStartPrompt()
	c.render.HideBreakEndChoice()
	logger.Info("page %s navigated to new video", c.pageID)
}

// HandleEvent consumes one push from the coordinator.
func (c *Controller) HandleEvent(ev protocol.Event) {
	switch ev.Type {
	case protocol.EventTimerTick:
		c.mu.Lock()
		c.timerState = models.TimerState{
			Mode:          ev.Mode,
			RemainingTime: ev.RemainingTime,
			IsActive:      true,
			IsPaused:      ev.IsPaused,
			SessionCount:  ev.SessionCount,
			CurrentPage:   c.pageID,
		}
		c.mu.Unlock()
		c.render.UpdateOverlay(ev.RemainingTime, ev.Mode, ev.SessionCount, ev.IsPaused)

	case protocol.EventWorkTimerFinished:
		c.onWorkFinished()

	case protocol.EventBreakTimerFinished:
		c.onBreakFinished()

	case protocol.EventForceResume:
		c.video.Play()
		c.render.HideOverlay()
		c.mu.Lock()
		c.hasStartedInitialTimer = false
		c.mu.Unlock()

	case protocol.EventManualLectureToggle:
		c.OnManualLectureToggle(ev.IsLecture)
	}
}

// Pump feeds the controller from a bus inbox until it closes.
func (c *Controller) Pump(inbox <-chan protocol.Event) {
	for ev := range inbox {
		c.HandleEvent(ev)
	}
}

func (c *Controller) onWorkFinished() {
	c.mu.Lock()
	// Latch before touching the player so the resulting pause event is not
	// mistaken for a user pause.
	c.selfInflictedPause = true
	c.mu.Unlock()

	c.video.Pause()
	resp := c.client.Dispatch(protocol.Request{Type: protocol.StartBreakTimer, PageID: c.pageID})
	if resp.Failed() {
		logger.Error("start break timer: %s", resp.Error)
		return
	}
	c.SyncTimerState()
}

// onBreakFinished presents the continue-or-stop choice; silence defaults to
// a fresh work session once the countdown lapses.
func (c *Controller) onBreakFinished() {
	c.video.Play()
	c.render.HideOverlay()

	c.mu.Lock()
	c.hasStartedInitialTimer = false
	if c.cancelBreakChoice != nil {
		c.cancelBreakChoice()
	}
	seconds := int(c.opts.BreakChoiceTimeout / time.Second)
	c.cancelBreakChoice = c.opts.After(c.opts.BreakChoiceTimeout, c.ChooseNewSession)
	c.mu.Unlock()

	c.render.ShowBreakEndChoice(seconds)
}

// ChooseNewSession is the break-end choice to keep going.
func (c *Controller) ChooseNewSession() {
	c.mu.Lock()
	c.cancelBreakChoice = nil
	c.hasStartedInitialTimer = true
	c.mu.Unlock()

	c.render.HideBreakEndChoice()
	c.startWorkTimer()
}

// ChooseStop is the break-end choice to wind down; auto-start stays
// suppressed until navigation or a manual override.
func (c *Controller) ChooseStop() {
	c.mu.Lock()
	if c.cancelBreakChoice != nil {
		c.cancelBreakChoice()
		c.cancelBreakChoice = nil
	}
	c.userHasStopped = true
	c.mu.Unlock()

	c.render.HideBreakEndChoice()
}

func (c *Controller) showAutoStartPrompt() {
	c.mu.Lock()
	if c.hasShownPrompt {
		c.mu.Unlock()
		return
	}
	c.hasShownPrompt = true
	seconds := int(c.opts.PromptCountdown / time.Second)
	c.cancelAutoStart = c.opts.After(c.opts.PromptCountdown, c.AutoStartNow)
	c.mu.Unlock()

	c.render.ShowAutoStartPrompt(seconds)
}

// AutoStartNow accepts the auto-start prompt (or its countdown running
// out).
func (c *Controller) AutoStartNow() {
	c.mu.Lock()
	if c.cancelAutoStart != nil {
		c.cancelAutoStart()
		c.cancelAutoStart = nil
	}
	c.hasStartedInitialTimer = true
	c.mu.Unlock()

	c.render.HideAutoStartPrompt()
	c.startWorkTimer()
}

// DismissAutoStart hides the prompt without declining: a later play event
// can still auto-start a session.
func (c *Controller) DismissAutoStart() {
	c.mu.Lock()
	if c.cancelAutoStart != nil {
		c.cancelAutoStart()
		c.cancelAutoStart = nil
	}
	c.mu.Unlock()

	c.render.HideAutoStartPrompt()
}

// CancelAutoStart declines the prompt for the rest of this page's lifetime.
func (c *Controller) CancelAutoStart() {
	c.mu.Lock()
	if c.cancelAutoStart != nil {
		c.cancelAutoStart()
		c.cancelAutoStart = nil
	}
	c.userHasCancelled = true
	c.mu.Unlock()

	c.render.HideAutoStartPrompt()
}

// OnPauseResumeClicked toggles the timer from the overlay button.
func (c *Controller) OnPauseResumeClicked() {
	c.mu.Lock()
	paused := c.timerState.IsPaused
	c.mu.Unlock()

	if paused {
		c.client.Dispatch(protocol.Request{Type: protocol.ResumeTimer, PageID: c.pageID})
	} else {
		c.client.Dispatch(protocol.Request{Type: protocol.PauseTimer, PageID: c.pageID})
	}
	c.SyncTimerState()
}

// OnStopClicked ends the session from the overlay and suppresses further
// auto-starts on this page.
func (c *Controller) OnStopClicked() {
	c.client.Dispatch(protocol.Request{Type: protocol.StopTimer, PageID: c.pageID})

	c.mu.Lock()
	c.hasStartedInitialTimer = false
	c.userHasStopped = true
	c.mu.Unlock()

	c.render.HideOverlay()
}

// OnForceResumeClicked asks the coordinator to cut the break short.
func (c *Controller) OnForceResumeClicked() {
	c.client.Dispatch(protocol.Request{Type: protocol.ForceResumeClicked, PageID: c.pageID})
}

// ToggleMinimized flips the purely local display preference.
func (c *Controller) ToggleMinimized() {
	c.mu.Lock()
	c.isMinimized = !c.isMinimized
	minimized := c.isMinimized
	c.mu.Unlock()

	c.render.SetMinimized(minimized)
}

// OnManualLectureToggle records the user's classification for this video
// and, for a lecture, re-offers the auto-start prompt.
func (c *Controller) OnManualLectureToggle(isLecture bool) {
	videoID := classify.VideoID(c.url)
	if err := c.overrides.SetOverride(videoID, isLecture); err != nil {
		logger.Error("save override for %s: %v", videoID, err)
	}

	c.mu.Lock()
	c.isLecture = isLecture
	if isLecture {
		c.hasShownPrompt = false
		c.userHasCancelled = false
		c.userHasStopped = false
	}
	active := c.timerState.IsActive
	c.mu.Unlock()

	if isLecture && !active {
		c.showAutoStartPrompt()
	}
}

// startWorkTimer asks for a work session unless one is already running or
// the user has since opted out on this page.
func (c *Controller) startWorkTimer() {
	c.mu.Lock()
	c.cancelAutoStart = nil
	active := c.timerState.IsActive
	suppressed := c.userHasCancelled || c.userHasStopped
	c.mu.Unlock()
	if active || suppressed {
		return
	}

	resp := c.client.Dispatch(protocol.Request{Type: protocol.StartWorkTimer, PageID: c.pageID})
	if resp.Failed() {
		logger.Error("start work timer: %s", resp.Error)
		return
	}
	c.SyncTimerState()
}
