// Package clock provides Scheduler implementations: a wall-clock one for hosts
// and a virtual one that tests advance by hand.
package clock

import (
	"sync"
	"time"

	"github.com/aretw0/cmdtree/pkg/ports"
)

// Real schedules callbacks with time.AfterFunc.
// Callbacks run on their own goroutine.
type Real struct {
	mu     sync.Mutex
	timers map[ports.TimerToken]*time.Timer
}

var _ ports.Scheduler = (*Real)(nil)

// NewReal creates a wall-clock scheduler.
func NewReal() *Real {
	return &Real{timers: make(map[ports.TimerToken]*time.Timer)}
}

// Arm implements ports.Scheduler.
func (r *Real) Arm(token ports.TimerToken, delay time.Duration, fire func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.timers[token]; ok {
		old.Stop()
	}
	r.timers[token] = time.AfterFunc(delay, func() {
		r.mu.Lock()
		_, live := r.timers[token]
		delete(r.timers, token)
		r.mu.Unlock()
		if live {
			fire()
		}
	})
}

// Cancel implements ports.Scheduler.
func (r *Real) Cancel(token ports.TimerToken) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[token]; ok {
		t.Stop()
		delete(r.timers, token)
	}
}

// Stop cancels every pending timer.
func (r *Real) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, t := range r.timers {
		t.Stop()
		delete(r.timers, token)
	}
}

// Pending returns the number of timers that have neither fired nor been cancelled.
func (r *Real) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}
