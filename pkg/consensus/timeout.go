// file: pkg/consensus/timeout.go
package consensus

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abab/abab/pkg/util"
)

// TimeoutService is a single reschedulable callback timer: at most one
// pending firing exists at any time, and calling SetTimeout again before it
// fires cancels the old one. The engine uses it to step() on view timeout.
type TimeoutService struct {
	mu         sync.Mutex
	clock      util.Clock
	onTimeout  func()
	logger     *zap.SugaredLogger
	generation uint64
	stopped    bool
}

// NewTimeoutService returns a service with no timer scheduled; call
// SetTimeout to arm it.
func NewTimeoutService(clock util.Clock, onTimeout func(), logger *zap.SugaredLogger) *TimeoutService {
	return &TimeoutService{clock: clock, onTimeout: onTimeout, logger: logger}
}

// SetTimeout arms a new single-shot timer for d, invalidating whatever was
// previously scheduled. Safe to call concurrently with a timer firing.
func (t *TimeoutService) SetTimeout(d time.Duration) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.generation++
	gen := t.generation
	t.mu.Unlock()

	ch := t.clock.After(d)
	go func() {
		_, ok := <-ch
		if !ok {
			return
		}
		t.mu.Lock()
		current := gen == t.generation && !t.stopped
		t.mu.Unlock()
		if !current {
			return // superseded by a later SetTimeout, or Stop
		}
		t.fire()
	}()
}

func (t *TimeoutService) fire() {
	defer func() {
		if r := recover(); r != nil && t.logger != nil {
			t.logger.Warnw("timeout callback panicked", "recover", r)
		}
	}()
	if t.onTimeout != nil {
		t.onTimeout()
	}
}

// Stop disarms the service; no further callbacks will fire.
func (t *TimeoutService) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.generation++
}
