package storage

import (
	"path/filepath"
	"testing"

	"tubefocus/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewAt(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestTimerStateRoundTrip(t *testing.T) {
	store := newTestStorage(t)

	if _, ok, err := store.TimerState(); err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v, want no snapshot", ok, err)
	}

	state := models.TimerState{
		Mode:          models.ModeWork,
		StartTime:     1_700_000_000_000,
		Duration:      1_200_000,
		RemainingTime: 900_000,
		IsActive:      true,
		CurrentPage:   "page-1",
		SessionCount:  4,
	}
	if err := store.SaveTimerState(state); err != nil {
		t.Fatal(err)
	}

	got, ok, err := store.TimerState()
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if got != state {
		t.Errorf("round trip changed state:\ngot  %+v\nwant %+v", got, state)
	}
}

func TestSettingsDefaultsOnFirstRead(t *testing.T) {
	store := newTestStorage(t)

	settings, err := store.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if settings != models.DefaultSettings() {
		t.Errorf("first read = %+v, want defaults", settings)
	}

	// The defaults were written back; a second read still agrees.
	again, err := store.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if again != settings {
		t.Errorf("second read = %+v", again)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := newTestStorage(t)

	want := models.Settings{WorkDuration: 45, BreakDuration: 10, AutoDetectLectures: true}
	if err := store.SaveSettings(want); err != nil {
		t.Fatal(err)
	}

	got, err := store.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSessionsRoundTrip(t *testing.T) {
	store := newTestStorage(t)

	sessions, err := store.Sessions()
	if err != nil || len(sessions) != 0 {
		t.Fatalf("fresh store: sessions=%v err=%v", sessions, err)
	}

	want := []models.SessionRecord{
		{ID: "a", Mode: "work", DurationMs: 1_200_000, Completed: true, SessionNumber: 1},
		{ID: "b", Mode: "break_interrupted", DurationMs: 300_000, SessionNumber: 1},
	}
	if err := store.SaveSessions(want); err != nil {
		t.Fatal(err)
	}

	got, err := store.Sessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %+v", got)
	}
}

func TestOverrides(t *testing.T) {
	store := newTestStorage(t)

	if err := store.SetOverride("abc123", true); err != nil {
		t.Fatal(err)
	}
	if err := store.SetOverride("def456", false); err != nil {
		t.Fatal(err)
	}

	overrides, err := store.Overrides()
	if err != nil {
		t.Fatal(err)
	}
	if len(overrides) != 2 || !overrides["abc123"] || overrides["def456"] {
		t.Errorf("overrides = %v", overrides)
	}

	if err := store.ClearOverrides(); err != nil {
		t.Fatal(err)
	}
	overrides, err = store.Overrides()
	if err != nil || len(overrides) != 0 {
		t.Errorf("after clear: overrides=%v err=%v", overrides, err)
	}
}

func TestResetStats(t *testing.T) {
	store := newTestStorage(t)

	if err := store.SaveSessions([]models.SessionRecord{{ID: "a"}}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveDetections([]models.DetectionRecord{{Score: 9}}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveTimerState(models.TimerState{SessionCount: 2}); err != nil {
		t.Fatal(err)
	}

	if err := store.ResetStats(); err != nil {
		t.Fatal(err)
	}

	sessions, _ := store.Sessions()
	detections, _ := store.Detections()
	if len(sessions) != 0 || len(detections) != 0 {
		t.Errorf("history survived reset: %v %v", sessions, detections)
	}

	// The timer snapshot is not statistics and survives.
	if _, ok, _ := store.TimerState(); !ok {
		t.Error("timer snapshot lost on stats reset")
	}
}
