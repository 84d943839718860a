package clock

import (
	"sort"
	"sync"
	"time"

	"github.com/aretw0/cmdtree/pkg/ports"
)

type virtualTimer struct {
	token ports.TimerToken
	due   time.Duration
	fire  func()
}

// Virtual is a simulated clock. Nothing fires until Advance is called,
// and due callbacks then run synchronously on the caller's goroutine in due order.
type Virtual struct {
	mu     sync.Mutex
	now    time.Duration
	timers map[ports.TimerToken]virtualTimer
	armed  int
	fired  int
}

var _ ports.Scheduler = (*Virtual)(nil)

// NewVirtual creates a simulated clock at time zero.
func NewVirtual() *Virtual {
	return &Virtual{timers: make(map[ports.TimerToken]virtualTimer)}
}

// Arm implements ports.Scheduler.
func (v *Virtual) Arm(token ports.TimerToken, delay time.Duration, fire func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.timers[token] = virtualTimer{token: token, due: v.now + delay, fire: fire}
	v.armed++
}

// Cancel implements ports.Scheduler.
func (v *Virtual) Cancel(token ports.TimerToken) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.timers, token)
}

// Advance moves the clock forward by d, firing every timer that falls due.
// Timers armed by a firing callback are honoured if they fall due within d.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now + d
	v.mu.Unlock()

	for {
		v.mu.Lock()
		next, ok := v.nextDue(target)
		if !ok {
			v.now = target
			v.mu.Unlock()
			return
		}
		delete(v.timers, next.token)
		v.now = next.due
		v.fired++
		v.mu.Unlock()

		next.fire()
	}
}

// Now returns the elapsed virtual time.
func (v *Virtual) Now() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// Pending returns the number of armed timers.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.timers)
}

// Armed returns how many timers were ever armed.
func (v *Virtual) Armed() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.armed
}

// Fired returns how many timers have fired.
func (v *Virtual) Fired() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fired
}

// nextDue must be called with v.mu held.
func (v *Virtual) nextDue(limit time.Duration) (virtualTimer, bool) {
	due := make([]virtualTimer, 0, len(v.timers))
	for _, t := range v.timers {
		if t.due <= limit {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return virtualTimer{}, false
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].token < due[j].token
	})
	return due[0], true
}
