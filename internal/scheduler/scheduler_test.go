package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pacific(t *testing.T) *time.Location {
	t.Helper()
	loc, err := LoadPacific()
	require.NoError(t, err)
	return loc
}

func noop(context.Context) error { return nil }

func TestNewDaily_RejectsOutOfRange(t *testing.T) {
	loc := pacific(t)

	_, err := NewDaily(24, 0, loc, noop)
	assert.Error(t, err)

	_, err = NewDaily(-1, 0, loc, noop)
	assert.Error(t, err)

	_, err = NewDaily(7, 60, loc, noop)
	assert.Error(t, err)

	_, err = NewDaily(7, 0, nil, noop)
	assert.Error(t, err)

	_, err = NewDaily(7, 0, loc, nil)
	assert.Error(t, err)
}

func TestDaily_Lifecycle(t *testing.T) {
	d, err := NewDaily(7, 0, pacific(t), noop)
	require.NoError(t, err)
	assert.Equal(t, Idle, d.State())

	_, ok := d.NextRun()
	assert.False(t, ok, "idle timer has no next run")

	require.NoError(t, d.Start())
	assert.Equal(t, Waiting, d.State())

	require.NoError(t, d.Start(), "second Start is a no-op")
	assert.Equal(t, Waiting, d.State())

	d.Stop()
	assert.Equal(t, Cancelled, d.State())

	d.Stop()
	assert.Equal(t, Cancelled, d.State())

	assert.ErrorIs(t, d.Start(), ErrCancelled)
}

func TestDaily_StopBeforeStart(t *testing.T) {
	d, err := NewDaily(7, 0, pacific(t), noop)
	require.NoError(t, err)

	d.Stop()
	assert.Equal(t, Cancelled, d.State())
	assert.ErrorIs(t, d.Start(), ErrCancelled)
}

func TestDaily_NextRun(t *testing.T) {
	loc := pacific(t)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2026, 10, 19, 6, 30, 0, 0, loc),
			want: time.Date(2026, 10, 19, 7, 0, 0, 0, loc),
		},
		{
			name: "exactly at trigger rolls to tomorrow",
			now:  time.Date(2026, 10, 19, 7, 0, 0, 0, loc),
			want: time.Date(2026, 10, 20, 7, 0, 0, 0, loc),
		},
		{
			name: "after trigger",
			now:  time.Date(2026, 10, 19, 23, 15, 0, 0, loc),
			want: time.Date(2026, 10, 20, 7, 0, 0, 0, loc),
		},
		{
			name: "clock in UTC",
			now:  time.Date(2026, 10, 19, 13, 0, 0, 0, time.UTC), // 06:00 PDT
			want: time.Date(2026, 10, 19, 7, 0, 0, 0, loc),
		},
		{
			name: "across DST end",
			now:  time.Date(2026, 10, 31, 8, 0, 0, 0, loc),
			want: time.Date(2026, 11, 1, 7, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := tt.now
			d, err := NewDaily(7, 0, loc, noop, WithClock(func() time.Time { return now }))
			require.NoError(t, err)
			require.NoError(t, d.Start())
			t.Cleanup(d.Stop)

			got, ok := d.NextRun()
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "NextRun() = %v, want %v", got, tt.want)
		})
	}
}

func TestDaily_TickErrorKeepsTimerArmed(t *testing.T) {
	boom := errors.New("transient network error")
	var reported []error

	d, err := NewDaily(7, 0, pacific(t),
		func(context.Context) error { return boom },
		WithErrorHandler(func(err error) { reported = append(reported, err) }),
	)
	require.NoError(t, err)
	require.NoError(t, d.Start())
	t.Cleanup(d.Stop)

	assert.NotPanics(t, d.tick)

	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], boom)
	assert.Equal(t, Waiting, d.State())

	_, ok := d.NextRun()
	assert.True(t, ok)

	// The next tick still runs.
	d.tick()
	assert.Len(t, reported, 2)
	assert.Equal(t, Waiting, d.State())
}

func TestDaily_TickPanicIsReported(t *testing.T) {
	var reported error

	d, err := NewDaily(7, 0, pacific(t),
		func(context.Context) error { panic("nil channel") },
		WithErrorHandler(func(err error) { reported = err }),
	)
	require.NoError(t, err)
	require.NoError(t, d.Start())
	t.Cleanup(d.Stop)

	assert.NotPanics(t, d.tick)
	require.Error(t, reported)
	assert.Contains(t, reported.Error(), "nil channel")
	assert.Equal(t, Waiting, d.State())
}

func TestDaily_TickRequiresArmedTimer(t *testing.T) {
	var runs atomic.Int32
	d, err := NewDaily(7, 0, pacific(t), func(context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	d.tick()
	assert.Equal(t, int32(0), runs.Load(), "idle timer must not run")

	d.Stop()
	d.tick()
	assert.Equal(t, int32(0), runs.Load(), "cancelled timer must not run")
}

func TestDaily_StopDoesNotInterruptRunningTick(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var ctxErr atomic.Value

	d, err := NewDaily(7, 0, pacific(t), func(ctx context.Context) error {
		close(started)
		<-release
		ctxErr.Store(ctx.Err() == nil)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, d.Start())

	done := make(chan struct{})
	go func() {
		d.tick()
		close(done)
	}()

	<-started
	assert.Equal(t, Running, d.State())

	d.Stop()
	assert.Equal(t, Cancelled, d.State())

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tick did not finish")
	}

	assert.Equal(t, true, ctxErr.Load(), "running tick keeps a live context")
	assert.Equal(t, Cancelled, d.State(), "a finishing tick must not re-arm a cancelled timer")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "waiting", Waiting.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "cancelled", Cancelled.String())
}
