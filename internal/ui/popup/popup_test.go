package popup

import (
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"tubefocus/internal/models"
	"tubefocus/internal/protocol"
)

type fakeClient struct {
	mu       sync.Mutex
	state    models.TimerState
	requests []protocol.Request
}

func (c *fakeClient) Dispatch(req protocol.Request) protocol.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if req.Type == protocol.GetTimerState {
		state := c.state
		return protocol.Response{Success: true, State: &state}
	}
	return protocol.OK()
}

func (c *fakeClient) count(mt protocol.MessageType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, req := range c.requests {
		if req.Type == mt {
			n++
		}
	}
	return n
}

type fakeStore struct {
	settings models.Settings
	sessions []models.SessionRecord
	resets   int
}

func (s *fakeStore) Settings() (models.Settings, error)          { return s.settings, nil }
func (s *fakeStore) SaveSettings(settings models.Settings) error { s.settings = settings; return nil }
func (s *fakeStore) Sessions() ([]models.SessionRecord, error)   { return s.sessions, nil }
func (s *fakeStore) ResetStats() error                           { s.resets++; return nil }

type fakeNotifier struct {
	mu     sync.Mutex
	events []protocol.Event
	pages  []string
}

func (n *fakeNotifier) Notify(pageID string, ev protocol.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pages = append(n.pages, pageID)
	n.events = append(n.events, ev)
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newTestModel(client *fakeClient, store *fakeStore, pages *fakeNotifier) Model {
	if store.settings == (models.Settings{}) {
		store.settings = models.DefaultSettings()
	}
	return New(client, store, pages)
}

func TestStartKeyDispatchesWorkTimer(t *testing.T) {
	client := &fakeClient{}
	m := newTestModel(client, &fakeStore{}, &fakeNotifier{})

	updated, _ := m.Update(keyPress('s'))
	m = updated.(Model)

	if got := client.count(protocol.StartWorkTimer); got != 1 {
		t.Errorf("StartWorkTimer dispatched %d times, want 1", got)
	}
}

func TestStartKeyIgnoredWhileActive(t *testing.T) {
	client := &fakeClient{state: models.TimerState{
		Mode: models.ModeWork, IsActive: true, Duration: 1_200_000, RemainingTime: 600_000,
	}}
	m := newTestModel(client, &fakeStore{}, &fakeNotifier{})

	updated, _ := m.Update(keyPress('s'))
	m = updated.(Model)

	if got := client.count(protocol.StartWorkTimer); got != 0 {
		t.Errorf("StartWorkTimer dispatched %d times while active", got)
	}
}

func TestPauseAndStopKeys(t *testing.T) {
	client := &fakeClient{state: models.TimerState{
		Mode: models.ModeWork, IsActive: true, Duration: 1_200_000, RemainingTime: 600_000,
	}}
	m := newTestModel(client, &fakeStore{}, &fakeNotifier{})

	updated, _ := m.Update(keyPress('p'))
	m = updated.(Model)
	if got := client.count(protocol.PauseTimer); got != 1 {
		t.Errorf("PauseTimer dispatched %d times, want 1", got)
	}

	updated, _ = m.Update(keyPress('x'))
	m = updated.(Model)
	if got := client.count(protocol.StopTimer); got != 1 {
		t.Errorf("StopTimer dispatched %d times, want 1", got)
	}
}

func TestDurationKeysSaveAndAnnounceSettings(t *testing.T) {
	client := &fakeClient{}
	store := &fakeStore{settings: models.DefaultSettings()}
	m := newTestModel(client, store, &fakeNotifier{})

	updated, _ := m.Update(keyPress('+'))
	m = updated.(Model)

	if store.settings.WorkDuration != models.DefaultSettings().WorkDuration+5 {
		t.Errorf("WorkDuration = %d", store.settings.WorkDuration)
	}
	if got := client.count(protocol.SettingsUpdated); got != 1 {
		t.Errorf("SettingsUpdated dispatched %d times, want 1", got)
	}
}

func TestMarkLectureNotifiesBoundPage(t *testing.T) {
	client := &fakeClient{state: models.TimerState{
		Mode: models.ModeWork, IsActive: true, CurrentPage: "page-1",
		Duration: 1_200_000, RemainingTime: 600_000,
	}}
	pages := &fakeNotifier{}
	m := newTestModel(client, &fakeStore{}, pages)

	updated, _ := m.Update(keyPress('l'))
	m = updated.(Model)

	if len(pages.events) != 1 {
		t.Fatalf("notified %d times, want 1", len(pages.events))
	}
	if pages.pages[0] != "page-1" {
		t.Errorf("notified page %q", pages.pages[0])
	}
	ev := pages.events[0]
	if ev.Type != protocol.EventManualLectureToggle || !ev.IsLecture {
		t.Errorf("event = %+v", ev)
	}
}

func TestMarkLectureWithoutBoundPage(t *testing.T) {
	pages := &fakeNotifier{}
	m := newTestModel(&fakeClient{}, &fakeStore{}, pages)

	updated, _ := m.Update(keyPress('n'))
	m = updated.(Model)

	if len(pages.events) != 0 {
		t.Errorf("notified %d times with no bound page", len(pages.events))
	}
}

func TestResetStatsKey(t *testing.T) {
	store := &fakeStore{}
	m := newTestModel(&fakeClient{}, store, &fakeNotifier{})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'R'}})
	m = updated.(Model)

	if store.resets != 1 {
		t.Errorf("ResetStats called %d times, want 1", store.resets)
	}
}

func TestViewRendersTimerDisplay(t *testing.T) {
	client := &fakeClient{state: models.TimerState{
		Mode: models.ModeWork, IsActive: true, Duration: 1_200_000, RemainingTime: 754_000,
	}}
	m := newTestModel(client, &fakeStore{}, &fakeNotifier{})

	sized, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = sized.(Model)

	view := m.View()
	if !strings.Contains(view, "12:34") {
		t.Errorf("view does not show the remaining time:\n%s", view)
	}
}
