package ports

import "time"

// TimerToken identifies one armed timer. Tokens are never reused.
type TimerToken uint64

// Scheduler runs delayed callbacks.
// Implementations may fire on another goroutine; callers serialize their own state.
type Scheduler interface {
	// Arm schedules fire to run once after delay.
	Arm(token TimerToken, delay time.Duration, fire func())

	// Cancel prevents a pending timer from firing. Unknown or fired tokens are ignored.
	Cancel(token TimerToken)
}
