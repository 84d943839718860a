package runtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/cmdtree"
	"github.com/aretw0/cmdtree/internal/runtime"
	"github.com/aretw0/cmdtree/pkg/adapters/clock"
	"github.com/aretw0/cmdtree/pkg/adapters/memory"
	"github.com/aretw0/cmdtree/pkg/adapters/outline"
	"github.com/aretw0/cmdtree/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `{"subsystems":[],"scheduled":[{"name":"Auto","active":true}]}`

type countingPoller struct {
	mu    sync.Mutex
	polls int
	err   error
}

func (p *countingPoller) Poll(ctx context.Context, source ports.SnapshotSource) (cmdtree.Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.polls++
	return cmdtree.Outcome{}, p.err
}

func (p *countingPoller) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polls
}

func TestDriver_RendersFromTrigger(t *testing.T) {
	sink := outline.New()
	viewer, err := cmdtree.New(sink, cmdtree.WithScheduler(clock.NewVirtual()))
	require.NoError(t, err)
	src := memory.NewSource()

	var mu sync.Mutex
	var renders []cmdtree.Outcome
	driver := runtime.NewDriver(viewer, src,
		runtime.WithInterval(0),
		runtime.WithTrigger(src.Updates()),
		runtime.WithOnRender(func(o cmdtree.Outcome) {
			mu.Lock()
			renders = append(renders, o)
			mu.Unlock()
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- driver.Run(ctx) }()

	src.Set(payload)
	assert.Eventually(t, func() bool {
		e := sink.Find("Scheduled Commands", "Auto")
		return e != nil && e.Active
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, renders, 1)
	assert.Equal(t, 1, renders[0].Stats.Nodes)
}

func TestDriver_PollsPeriodically(t *testing.T) {
	p := &countingPoller{}
	driver := runtime.NewDriver(p, memory.NewSource(), runtime.WithInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = driver.Run(ctx) }()

	assert.Eventually(t, func() bool { return p.count() >= 5 }, time.Second, time.Millisecond)
}

func TestDriver_FailuresDoNotStopTheLoop(t *testing.T) {
	p := &countingPoller{err: errors.New("connection refused")}
	driver := runtime.NewDriver(p, memory.NewSource(), runtime.WithInterval(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, driver.Run(ctx))
	assert.Greater(t, p.count(), 1)
}

func TestDriver_ClosedTriggerIsIgnored(t *testing.T) {
	p := &countingPoller{}
	trigger := make(chan struct{})
	close(trigger)
	driver := runtime.NewDriver(p, memory.NewSource(), runtime.WithInterval(0), runtime.WithTrigger(trigger))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, driver.Run(ctx))
	assert.Equal(t, 1, p.count(), "only the initial poll runs")
}
