package consensus

import (
	"sync"
	"testing"
	"time"

	"github.com/abab/abab/pkg/util"
)

// fakeClock hands back a channel per After() call that the test controls
// directly, so timer firing is deterministic instead of racing real time.
type fakeClock struct {
	mu      sync.Mutex
	pending []chan time.Time
}

func (c *fakeClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	c.mu.Lock()
	c.pending = append(c.pending, ch)
	c.mu.Unlock()
	return ch
}

func (c *fakeClock) Now() time.Time { return time.Time{} }

// fire signals the most recently issued channel, as if its duration elapsed.
func (c *fakeClock) fire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return
	}
	last := c.pending[len(c.pending)-1]
	last <- time.Time{}
}

var _ util.Clock = (*fakeClock)(nil)

func TestTimeoutServiceFires(t *testing.T) {
	clock := &fakeClock{}
	fired := make(chan struct{}, 1)
	svc := NewTimeoutService(clock, func() { fired <- struct{}{} }, nil)

	svc.SetTimeout(time.Second)
	clock.fire()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timeout callback never fired")
	}
}

func TestTimeoutServiceRescheduleCancelsPrevious(t *testing.T) {
	clock := &fakeClock{}
	calls := make(chan struct{}, 2)
	svc := NewTimeoutService(clock, func() { calls <- struct{}{} }, nil)

	svc.SetTimeout(time.Second)
	first := clock.pending[0]

	svc.SetTimeout(time.Second)
	clock.fire() // fires the second (current) timer

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("rescheduled timer never fired")
	}

	// the superseded first timer firing late must not trigger a second call
	first <- time.Time{}
	select {
	case <-calls:
		t.Fatal("superseded timer fired its callback")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTimeoutServiceStopSuppressesFiring(t *testing.T) {
	clock := &fakeClock{}
	calls := make(chan struct{}, 1)
	svc := NewTimeoutService(clock, func() { calls <- struct{}{} }, nil)

	svc.SetTimeout(time.Second)
	svc.Stop()
	clock.fire()

	select {
	case <-calls:
		t.Fatal("stopped service should not fire")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTimeoutServiceSetTimeoutAfterStopIsNoop(t *testing.T) {
	clock := &fakeClock{}
	calls := make(chan struct{}, 1)
	svc := NewTimeoutService(clock, func() { calls <- struct{}{} }, nil)

	svc.Stop()
	svc.SetTimeout(time.Second)

	if len(clock.pending) != 0 {
		t.Fatal("SetTimeout after Stop should not arm a new timer")
	}
}
