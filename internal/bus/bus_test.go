package bus

import (
	"sync"
	"testing"

	"tubefocus/internal/protocol"
)

func TestRegisterAndNotify(t *testing.T) {
	b := New()
	pageID, inbox := b.Register(4)
	if pageID == "" {
		t.Fatal("empty page ID")
	}

	b.Notify(pageID, protocol.Event{Type: protocol.EventTimerTick, RemainingTime: 5000})

	select {
	case ev := <-inbox:
		if ev.Type != protocol.EventTimerTick || ev.RemainingTime != 5000 {
			t.Errorf("received %+v", ev)
		}
	default:
		t.Fatal("event not delivered")
	}
}

func TestNotifyUnknownPageIsDropped(t *testing.T) {
	b := New()
	b.Notify("nobody", protocol.Event{Type: protocol.EventForceResume})
}

func TestNotifyFullInboxDrops(t *testing.T) {
	b := New()
	pageID, inbox := b.Register(1)

	b.Notify(pageID, protocol.Event{Type: protocol.EventTimerTick, RemainingTime: 1})
	b.Notify(pageID, protocol.Event{Type: protocol.EventTimerTick, RemainingTime: 2})

	ev := <-inbox
	if ev.RemainingTime != 1 {
		t.Errorf("first event = %+v", ev)
	}
	select {
	case ev := <-inbox:
		t.Errorf("overflow event delivered: %+v", ev)
	default:
	}
}

func TestUnregisterClosesInbox(t *testing.T) {
	b := New()
	pageID, inbox := b.Register(1)
	b.Unregister(pageID)

	if _, open := <-inbox; open {
		t.Error("inbox still open after unregister")
	}

	// A late notify must not panic on the closed channel.
	b.Notify(pageID, protocol.Event{Type: protocol.EventTimerTick})
}

func TestNotifyDuringUnregister(t *testing.T) {
	b := New()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		pageID, _ := b.Register(1)

		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Notify(pageID, protocol.Event{Type: protocol.EventTimerTick})
			}
		}()
		go func() {
			defer wg.Done()
			b.Unregister(pageID)
		}()
	}
	wg.Wait()
}

func TestPagesAreIsolated(t *testing.T) {
	b := New()
	page1, inbox1 := b.Register(2)
	_, inbox2 := b.Register(2)

	b.Notify(page1, protocol.Event{Type: protocol.EventWorkTimerFinished})

	if len(inbox1) != 1 {
		t.Errorf("page1 inbox has %d events, want 1", len(inbox1))
	}
	if len(inbox2) != 0 {
		t.Errorf("page2 inbox has %d events, want 0", len(inbox2))
	}
}
