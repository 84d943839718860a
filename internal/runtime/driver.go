// Package runtime drives a Viewer from a snapshot source.
//
// The core never fetches data by itself: it is handed payloads. The Driver is
// the external loop that polls a source at a fixed cadence, or immediately when
// a trigger fires, and hands each payload to the Viewer.
package runtime

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/cmdtree"
	"github.com/aretw0/cmdtree/internal/logging"
	"github.com/aretw0/cmdtree/pkg/domain"
	"github.com/aretw0/cmdtree/pkg/ports"
)

// DefaultInterval matches the telemetry publish rate of a robot controller.
const DefaultInterval = 20 * time.Millisecond

// Poller applies one payload fetched from a source. *cmdtree.Viewer implements it.
type Poller interface {
	Poll(ctx context.Context, source ports.SnapshotSource) (cmdtree.Outcome, error)
}

// Driver polls a source and feeds a Poller.
type Driver struct {
	poller   Poller
	source   ports.SnapshotSource
	interval time.Duration
	trigger  <-chan struct{}
	onRender func(cmdtree.Outcome)
	logger   *slog.Logger

	lastFailure string
}

// DriverOption configures the Driver.
type DriverOption func(*Driver)

// WithInterval sets the poll cadence. Zero disables periodic polling, leaving
// only the trigger.
func WithInterval(d time.Duration) DriverOption {
	return func(dr *Driver) {
		dr.interval = d
	}
}

// WithTrigger polls immediately whenever ch receives. A closed channel is ignored
// from then on.
func WithTrigger(ch <-chan struct{}) DriverOption {
	return func(dr *Driver) {
		dr.trigger = ch
	}
}

// WithOnRender registers a callback invoked after every rebuild.
func WithOnRender(fn func(cmdtree.Outcome)) DriverOption {
	return func(dr *Driver) {
		dr.onRender = fn
	}
}

// WithLogger configures a logger for the Driver.
func WithLogger(logger *slog.Logger) DriverOption {
	return func(dr *Driver) {
		dr.logger = logger
	}
}

// NewDriver creates a Driver feeding poller from source.
func NewDriver(poller Poller, source ports.SnapshotSource, opts ...DriverOption) *Driver {
	d := &Driver{
		poller:   poller,
		source:   source,
		interval: DefaultInterval,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run polls until ctx is done. It returns nil on cancellation; fetch and decode
// failures are logged and never stop the loop.
func (d *Driver) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if d.interval > 0 {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	trigger := d.trigger

	d.logger.Info("Driver started", "interval", d.interval)
	d.Once(ctx)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Driver stopped")
			return nil
		case <-tick:
			d.Once(ctx)
		case _, ok := <-trigger:
			if !ok {
				trigger = nil
				continue
			}
			d.logger.Debug("Poll triggered")
			d.Once(ctx)
		}
	}
}

// Once performs a single poll.
func (d *Driver) Once(ctx context.Context) {
	out, err := d.poller.Poll(ctx, d.source)
	switch {
	case err == nil:
		d.recovered()
	case errors.Is(err, domain.ErrMalformedNode):
		d.recovered()
	case ctx.Err() != nil:
		return
	default:
		d.failed(err)
		return
	}
	if out.Rendered && d.onRender != nil {
		d.onRender(out)
	}
}

// failed logs a poll failure once per distinct message so a disconnected
// source does not flood the log at the poll rate.
func (d *Driver) failed(err error) {
	msg := err.Error()
	if msg == d.lastFailure {
		return
	}
	d.lastFailure = msg
	if errors.Is(err, domain.ErrDecode) {
		d.logger.Debug("No usable payload", "err", err)
		return
	}
	d.logger.Warn("Poll failed", "err", err)
}

func (d *Driver) recovered() {
	if d.lastFailure != "" {
		d.logger.Info("Source recovered")
		d.lastFailure = ""
	}
}
