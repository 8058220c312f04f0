// Package bus is the in-process transport between the coordinator and page
// contexts. Delivery is fire-and-forget: a page that is gone, or whose inbox
// is full, silently misses the event.
package bus

import (
	"sync"

	"github.com/google/uuid"

	"tubefocus/internal/logger"
	"tubefocus/internal/protocol"
)

type Bus struct {
	mu    sync.Mutex
	pages map[string]chan protocol.Event
}

func New() *Bus {
	return &Bus{pages: make(map[string]chan protocol.Event)}
}

// Register mints a page identity and returns its event inbox.
func (b *Bus) Register(buffer int) (string, <-chan protocol.Event) {
	if buffer <= 0 {
		buffer = 16
	}
	pageID := uuid.New().String()
	inbox := make(chan protocol.Event, buffer)

	b.mu.Lock()
	b.pages[pageID] = inbox
	b.mu.Unlock()
	return pageID, inbox
}

// Unregister drops the page and closes its inbox.
func (b *Bus) Unregister(pageID string) {
	b.mu.Lock()
	inbox, ok := b.pages[pageID]
	delete(b.pages, pageID)
	b.mu.Unlock()
	if ok {
		close(inbox)
	}
}

// Notify delivers one event without blocking. The send happens under the
// registry lock so it cannot race an Unregister closing the inbox.
func (b *Bus) Notify(pageID string, ev protocol.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	inbox, ok := b.pages[pageID]
	if !ok {
		logger.Debug("dropping %s for unknown page %s", ev.Type, pageID)
		return
	}
	select {
	case inbox <- ev:
	default:
		logger.Debug("inbox full, dropping %s for page %s", ev.Type, pageID)
	}
}
