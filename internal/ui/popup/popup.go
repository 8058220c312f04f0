// Package popup is the control-panel TUI. It holds no timer state of its
// own: it polls the coordinator for a fresh snapshot twice a second and
// renders whatever comes back.
package popup

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tubefocus/internal/history"
	"tubefocus/internal/models"
	"tubefocus/internal/protocol"
)

const pollInterval = 500 * time.Millisecond

type pollMsg time.Time

// Client sends commands to the coordinator.
type Client interface {
	Dispatch(protocol.Request) protocol.Response
}

// Store is the slice of persistence the popup reads and writes directly:
// preferences and the session history for the stats line.
type Store interface {
	Settings() (models.Settings, error)
	SaveSettings(models.Settings) error
	Sessions() ([]models.SessionRecord, error)
	ResetStats() error
}

// PageNotifier pushes events to a page context, used for the manual
// lecture toggle.
type PageNotifier interface {
	Notify(pageID string, ev protocol.Event)
}

type Model struct {
	client    Client
	store     Store
	pages     PageNotifier
	state     models.TimerState
	settings  models.Settings
	stats     history.DayStats
	progress  progress.Model
	width     int
	height    int
	notice    string
	showStats bool
}

// ShowStats reports whether the user asked for the history screen.
func (m Model) ShowStats() bool {
	return m.showStats
}

func New(client Client, store Store, pages PageNotifier) Model {
	prog := progress.New(progress.WithScaledGradient("#FF7CCB", "#FDFF8C"))
	prog.Width = 40

	settings, err := store.Settings()
	if err != nil {
		settings = models.DefaultSettings()
	}

	m := Model{
		client:   client,
		store:    store,
		pages:    pages,
		settings: settings,
		progress: prog,
	}
	m.refresh()
	return m
}

func pollCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return pollCmd()
}

// refresh pulls a fresh snapshot and today's numbers.
func (m *Model) refresh() {
	if resp := m.client.Dispatch(protocol.Request{Type: protocol.GetTimerState}); resp.State != nil {
		m.state = *resp.State
	}
	if sessions, err := m.store.Sessions(); err == nil {
		m.stats = history.StatsForDay(sessions, time.Now())
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(msg.Width-20, 60)
		return m, nil

	case pollMsg:
		m.refresh()
		return m, pollCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Start) && !m.state.IsActive:
		m.client.Dispatch(protocol.Request{Type: protocol.StartWorkTimer})
		m.notice = ""
		m.refresh()

	case key.Matches(msg, keys.Break) && !m.state.IsActive:
		m.client.Dispatch(protocol.Request{Type: protocol.StartBreakTimer})
		m.notice = ""
		m.refresh()

	case key.Matches(msg, keys.Pause) && m.state.IsActive && !m.state.IsPaused:
		m.client.Dispatch(protocol.Request{Type: protocol.PauseTimer})
		m.refresh()

	case key.Matches(msg, keys.Resume) && m.state.IsActive && m.state.IsPaused:
		m.client.Dispatch(protocol.Request{Type: protocol.ResumeTimer})
		m.refresh()

	case key.Matches(msg, keys.Stop) && m.state.IsActive:
		m.client.Dispatch(protocol.Request{Type: protocol.StopTimer})
		m.refresh()

	case key.Matches(msg, keys.ForceResume) && m.state.IsActive && m.state.Mode == models.ModeBreak:
		m.client.Dispatch(protocol.Request{Type: protocol.ForceResumeClicked})
		m.refresh()

	case key.Matches(msg, keys.MarkLecture):
		m.toggleLecture(true)

	case key.Matches(msg, keys.MarkNotLecture):
		m.toggleLecture(false)

	case key.Matches(msg, keys.WorkUp):
		m.updateSettings(func(s *models.Settings) { s.WorkDuration = min(s.WorkDuration+5, 120) })

	case key.Matches(msg, keys.WorkDown):
		m.updateSettings(func(s *models.Settings) { s.WorkDuration = max(s.WorkDuration-5, 5) })

	case key.Matches(msg, keys.BreakUp):
		m.updateSettings(func(s *models.Settings) { s.BreakDuration = min(s.BreakDuration+1, 30) })

	case key.Matches(msg, keys.BreakDown):
		m.updateSettings(func(s *models.Settings) { s.BreakDuration = max(s.BreakDuration-1, 1) })

	case key.Matches(msg, keys.ResetStats):
		if err := m.store.ResetStats(); err != nil {
			m.notice = fmt.Sprintf("reset failed: %v", err)
		} else {
			m.notice = "Statistics cleared"
		}
		m.refresh()

	case key.Matches(msg, keys.Stats):
		m.showStats = true
		return m, tea.Quit

	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	}

	return m, nil
}

// toggleLecture reclassifies the video on the currently bound page.
func (m *Model) toggleLecture(isLecture bool) {
	pageID := m.state.CurrentPage
	if pageID == "" {
		m.notice = "No video page is bound to the timer"
		return
	}
	m.pages.Notify(pageID, protocol.Event{
		Type:      protocol.EventManualLectureToggle,
		IsLecture: isLecture,
	})
	if isLecture {
		m.notice = "Marked current video as a lecture"
	} else {
		m.notice = "Marked current video as not a lecture"
	}
}

func (m *Model) updateSettings(apply func(*models.Settings)) {
	apply(&m.settings)
	if err := m.store.SaveSettings(m.settings); err != nil {
		m.notice = fmt.Sprintf("save settings: %v", err)
		return
	}
	m.client.Dispatch(protocol.Request{Type: protocol.SettingsUpdated})
	m.notice = fmt.Sprintf("Durations set: %dm work / %dm break", m.settings.WorkDuration, m.settings.BreakDuration)
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	containerStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Padding(1)

	timerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(modeColor(m.state)).
		Padding(1, 4).
		MarginBottom(1)

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888")).
		MarginBottom(1)

	statsStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5FAFD7")).
		MarginBottom(1)

	remaining := m.state.RemainingTime
	display := fmt.Sprintf("%02d:%02d", remaining/60000, remaining%60000/1000)
	if !m.state.IsActive {
		display = fmt.Sprintf("%02d:00", m.settings.WorkDuration)
	}

	percent := 0.0
	if m.state.IsActive && m.state.Duration > 0 {
		percent = float64(m.state.Duration-remaining) / float64(m.state.Duration)
	}

	statsLine := fmt.Sprintf("Today: %d sessions · %d focus min · %d%% completed",
		m.stats.CompletedWork, m.stats.FocusMinutes, m.stats.CompletionRate)

	lines := []string{
		timerStyle.Render(display),
		m.progress.ViewAs(percent),
		statusStyle.Render(m.statusLine()),
		statsStyle.Render(statsLine),
	}
	if m.notice != "" {
		noticeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
		lines = append(lines, noticeStyle.Render(m.notice))
	}
	lines = append(lines, helpView(m.state))

	return containerStyle.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (m Model) statusLine() string {
	switch {
	case !m.state.IsActive:
		return "Press 's' to start a focus session"
	case m.state.IsPaused:
		return "PAUSED - Press 'r' to resume"
	case m.state.Mode == models.ModeBreak:
		return fmt.Sprintf("Break time (session %d done)", m.state.SessionCount)
	default:
		return fmt.Sprintf("Focus session %d - stay with the lecture", m.state.SessionCount)
	}
}

func modeColor(state models.TimerState) lipgloss.Color {
	if state.IsActive && state.Mode == models.ModeBreak {
		return lipgloss.Color("#2E8B57")
	}
	return lipgloss.Color("#7D56F4")
}

func helpView(state models.TimerState) string {
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666")).
		MarginTop(1)

	var helpText string
	if !state.IsActive {
		helpText = "s: focus • b: break • +/-: work mins • </>: break mins • l/n: mark video • t: history • R: reset stats • q: quit"
	} else if state.Mode == models.ModeBreak {
		helpText = "p: pause • r: resume • x: stop • f: skip break • q: quit"
	} else {
		helpText = "p: pause • r: resume • x: stop • l/n: mark video • q: quit"
	}

	return helpStyle.Render(helpText)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

type keyMap struct {
	Start          key.Binding
	Break          key.Binding
	Pause          key.Binding
	Resume         key.Binding
	Stop           key.Binding
	ForceResume    key.Binding
	MarkLecture    key.Binding
	MarkNotLecture key.Binding
	WorkUp         key.Binding
	WorkDown       key.Binding
	BreakUp        key.Binding
	BreakDown      key.Binding
	ResetStats     key.Binding
	Stats          key.Binding
	Quit           key.Binding
}

var keys = keyMap{
	Start: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "start focus"),
	),
	Break: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "start break"),
	),
	Pause: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "pause"),
	),
	Resume: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "resume"),
	),
	Stop: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "stop"),
	),
	ForceResume: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "skip break"),
	),
	MarkLecture: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "mark as lecture"),
	),
	MarkNotLecture: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "mark as not lecture"),
	),
	WorkUp: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "longer work"),
	),
	WorkDown: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "shorter work"),
	),
	BreakUp: key.NewBinding(
		key.WithKeys(">", "."),
		key.WithHelp(">", "longer break"),
	),
	BreakDown: key.NewBinding(
		key.WithKeys("<", ","),
		key.WithHelp("<", "shorter break"),
	),
	ResetStats: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "reset stats"),
	),
	Stats: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "history"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
