package timer

import (
	"sync"
	"time"
)

// SingleAlarm is the process-local expiry alarm. It is exclusive: scheduling
// replaces whatever was pending, so at most one callback is ever armed.
type SingleAlarm struct {
	mu    sync.Mutex
	timer *time.Timer
}

func NewSingleAlarm() *SingleAlarm {
	return &SingleAlarm{}
}

func (a *SingleAlarm) Schedule(d time.Duration, fire func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(d, fire)
}

func (a *SingleAlarm) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
