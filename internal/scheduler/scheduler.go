package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/robfig/cron/v3"

	"github.com/i474232898/weather-friend/internal/common"
	"github.com/i474232898/weather-friend/internal/logging"
)

// PacificZone is the civil timezone the daily trigger is pinned to.
const PacificZone = "America/Los_Angeles"

// DefaultRunTimeout bounds a single scheduled run.
const DefaultRunTimeout = 2 * time.Minute

// ErrCancelled is returned by Start once the timer has been stopped.
var ErrCancelled = errors.New("scheduler: timer cancelled")

// State is the lifecycle state of a Daily timer.
type State int32

const (
	Idle State = iota
	Waiting
	Running
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Waiting:
		return "waiting"
	case Running:
		return "running"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Job is the work done on each tick.
type Job func(ctx context.Context) error

// Daily fires a job once a day at a fixed wall-clock time in a fixed location.
// A failing tick is reported to the error handler and the timer stays armed.
type Daily struct {
	mu    sync.Mutex
	state State

	hour, minute int
	loc          *time.Location
	spec         string
	schedule     cron.Schedule
	scheduler    *gocron.Scheduler

	job        Job
	onError    func(error)
	runTimeout time.Duration
	now        func() time.Time
	log        *slog.Logger

	stopOnce sync.Once
}

// Option configures a Daily timer.
type Option func(*Daily)

// WithErrorHandler sets the callback that receives tick failures (including panics).
func WithErrorHandler(fn func(error)) Option {
	return func(d *Daily) {
		d.onError = fn
	}
}

// WithRunTimeout bounds each tick's context.
func WithRunTimeout(t time.Duration) Option {
	return func(d *Daily) {
		if t > 0 {
			d.runTimeout = t
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Daily) {
		d.log = l
	}
}

// WithClock overrides the clock used for NextRun (for testing).
func WithClock(now func() time.Time) Option {
	return func(d *Daily) {
		d.now = now
	}
}

// LoadPacific loads the zone the bot schedules in.
func LoadPacific() (*time.Location, error) {
	return time.LoadLocation(PacificZone)
}

// NewDaily creates an idle timer. Nothing is scheduled until Start.
func NewDaily(hour, minute int, loc *time.Location, job Job, opts ...Option) (*Daily, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("scheduler: hour %d out of range 0-23", hour)
	}
	if minute < 0 || minute > 59 {
		return nil, fmt.Errorf("scheduler: minute %d out of range 0-59", minute)
	}
	if loc == nil {
		return nil, errors.New("scheduler: location is required")
	}
	if job == nil {
		return nil, errors.New("scheduler: job is required")
	}

	// Cron format: minute hour day month weekday
	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("scheduler: parse %q: %w", spec, err)
	}

	s := gocron.NewScheduler(loc)
	// First fire is the next future occurrence, never at Start.
	s.WaitForScheduleAll()
	// A slow tick is never overlapped by the next one.
	s.SingletonModeAll()

	d := &Daily{
		state:      Idle,
		hour:       hour,
		minute:     minute,
		loc:        loc,
		spec:       spec,
		schedule:   schedule,
		scheduler:  s,
		job:        job,
		runTimeout: DefaultRunTimeout,
		now:        time.Now,
		log:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With("component", "scheduler")
	if d.onError == nil {
		d.onError = func(err error) {
			d.log.Error("scheduled run failed; will retry at next trigger", "err", err)
		}
	}
	return d, nil
}

// Start arms the timer. It is a no-op if already armed and fails after Stop.
func (d *Daily) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case Waiting, Running:
		return nil
	case Cancelled:
		return ErrCancelled
	}

	if _, err := d.scheduler.Cron(d.spec).Do(d.tick); err != nil {
		return fmt.Errorf("scheduler: register job: %w", err)
	}
	d.scheduler.StartAsync()
	d.state = Waiting

	d.log.Info("daily timer armed",
		"at", fmt.Sprintf("%02d:%02d", d.hour, d.minute),
		"zone", d.loc.String(),
		"next_run", d.nextLocked(),
	)
	return nil
}

// Stop cancels future ticks. It is idempotent and does not interrupt a tick
// that is already running.
func (d *Daily) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		prev := d.state
		d.state = Cancelled
		d.mu.Unlock()

		if prev != Idle {
			d.scheduler.Stop()
		}
		d.log.Info("daily timer cancelled", "previous_state", prev.String())
	})
}

// State reports the current lifecycle state.
func (d *Daily) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// NextRun returns the next trigger instant. ok is false unless the timer is armed.
func (d *Daily) NextRun() (next time.Time, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != Waiting && d.state != Running {
		return time.Time{}, false
	}
	return d.nextLocked(), true
}

func (d *Daily) nextLocked() time.Time {
	return d.schedule.Next(d.now().In(d.loc))
}

// tick is what gocron invokes. Failures never escape it.
func (d *Daily) tick() {
	d.mu.Lock()
	if d.state != Waiting {
		d.mu.Unlock()
		return
	}
	d.state = Running
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		if d.state == Running {
			d.state = Waiting
		}
		d.mu.Unlock()
	}()

	// Not derived from Stop: cancelling the timer leaves a running tick alone.
	ctx, cancel := context.WithTimeout(context.Background(), d.runTimeout)
	defer cancel()

	started := time.Now()
	err := common.Guard(func() error { return d.job(ctx) })
	if err != nil {
		_ = common.Guard(func() error {
			d.onError(err)
			return nil
		})
		return
	}
	d.log.Info("scheduled run completed", "took", time.Since(started))
}
