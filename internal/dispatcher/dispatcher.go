// Package dispatcher runs the forecast pipeline (fetch, compose, build) from
// two entry points: the interactive /weather command and the daily timer.
// Failures on either path are contained at that path's boundary.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-friend/internal/common"
	"github.com/i474232898/weather-friend/internal/logging"
	"github.com/i474232898/weather-friend/internal/presentation"
	"github.com/i474232898/weather-friend/internal/scheduler"
	"github.com/i474232898/weather-friend/internal/store"
	"github.com/i474232898/weather-friend/internal/weather"
)

// FailureNotice is the only thing a user sees when a command fails.
const FailureNotice = "🌫️ The Oracle's vision is clouded. Try again shortly."

const (
	DefaultCommandTimeout = 2 * time.Minute
	noticeTimeout         = 10 * time.Second
)

// ErrChannelUnavailable marks a tick skipped because the target channel could
// not be resolved to a postable destination.
var ErrChannelUnavailable = errors.New("target channel missing or not messageable")

// WeatherFetcher returns current conditions for the configured location.
type WeatherFetcher interface {
	Fetch(ctx context.Context) (weather.Record, error)
}

// Composer turns conditions into forecast text.
type Composer interface {
	Compose(ctx context.Context, rec weather.Record) (string, error)
}

// Interaction is one slash-command invocation awaiting a response.
type Interaction interface {
	// Defer acknowledges the invocation; a reply follows later.
	Defer(ctx context.Context) error
	Followup(ctx context.Context, p presentation.Payload) error
	FollowupText(ctx context.Context, text string) error
	// RespondText is the initial response, used only when Defer did not succeed.
	RespondText(ctx context.Context, text string) error
}

// Destination is a resolved channel that accepts messages.
type Destination interface {
	Send(ctx context.Context, p presentation.Payload) error
}

// ChannelResolver looks up a stored channel id. ok is false when the channel
// is unknown or cannot receive messages.
type ChannelResolver interface {
	Resolve(ctx context.Context, id string) (dest Destination, ok bool)
}

// Recorder keeps run metadata.
type Recorder interface {
	Record(run store.Run)
}

// Config wires a Dispatcher.
type Config struct {
	Weather WeatherFetcher
	// ScheduledWeather serves ticks and must not share client state with
	// Weather. Defaults to Weather.
	ScheduledWeather WeatherFetcher
	Composer         Composer
	Channels  ChannelResolver
	ChannelID string

	// Daily trigger time and zone.
	Hour, Minute int
	Location     *time.Location

	Runs           Recorder // optional
	Logger         *slog.Logger
	CommandTimeout time.Duration
	RunTimeout     time.Duration
}

// Status is a point-in-time view for health reporting.
type Status struct {
	Ready    bool       `json:"ready"`
	Schedule string     `json:"schedule"`
	NextRun  *time.Time `json:"nextRun,omitempty"`
}

// Dispatcher composes the weather client, the composer and the chat boundary.
type Dispatcher struct {
	weather   WeatherFetcher
	scheduled WeatherFetcher
	composer  Composer
	channels  ChannelResolver
	channelID string
	runs      Recorder

	timer   *scheduler.Daily
	armOnce sync.Once
	ready   atomic.Bool

	commandTimeout time.Duration
	log            *slog.Logger
}

func New(cfg Config) (*Dispatcher, error) {
	if cfg.Weather == nil || cfg.Composer == nil || cfg.Channels == nil {
		return nil, errors.New("dispatcher: weather, composer and channels are required")
	}
	if cfg.ChannelID == "" {
		return nil, errors.New("dispatcher: channel id is required")
	}

	d := &Dispatcher{
		weather:        cfg.Weather,
		scheduled:      cfg.ScheduledWeather,
		composer:       cfg.Composer,
		channels:       cfg.Channels,
		channelID:      cfg.ChannelID,
		runs:           cfg.Runs,
		commandTimeout: cfg.CommandTimeout,
		log:            cfg.Logger,
	}
	if d.scheduled == nil {
		d.scheduled = d.weather
	}
	if d.log == nil {
		d.log = logging.Discard()
	}
	if d.commandTimeout <= 0 {
		d.commandTimeout = DefaultCommandTimeout
	}
	d.log = d.log.With("component", "dispatcher")

	timer, err := scheduler.NewDaily(cfg.Hour, cfg.Minute, cfg.Location, d.Tick,
		scheduler.WithErrorHandler(d.OnTickError),
		scheduler.WithRunTimeout(cfg.RunTimeout),
		scheduler.WithLogger(d.log),
	)
	if err != nil {
		return nil, fmt.Errorf("dispatcher: %w", err)
	}
	d.timer = timer
	return d, nil
}

// OnReady is called by the chat boundary when the connection is established.
// The first call arms the daily timer; later calls (reconnects) only refresh readiness.
func (d *Dispatcher) OnReady() {
	d.ready.Store(true)
	d.armOnce.Do(func() {
		if err := d.timer.Start(); err != nil {
			d.log.Error("could not arm daily timer", "err", err)
		}
	})
}

// Close cancels future scheduled runs. Safe to call more than once.
func (d *Dispatcher) Close() {
	d.timer.Stop()
}

// Status reports readiness and schedule state.
func (d *Dispatcher) Status() Status {
	st := Status{
		Ready:    d.ready.Load(),
		Schedule: d.timer.State().String(),
	}
	if next, ok := d.timer.NextRun(); ok {
		st.NextRun = &next
	}
	return st
}

// HandleCommand serves one /weather invocation. It acknowledges before doing
// any network I/O and never lets a failure escape.
func (d *Dispatcher) HandleCommand(ctx context.Context, in Interaction) {
	run := d.newRun(store.TriggerCommand)
	log := d.log.With("run_id", run.ID, "trigger", run.Trigger)

	ctx, cancel := context.WithTimeout(ctx, d.commandTimeout)
	defer cancel()

	acknowledged := false
	err := common.Guard(func() error {
		if err := in.Defer(ctx); err != nil {
			return fmt.Errorf("acknowledge interaction: %w", err)
		}
		acknowledged = true

		payload, err := d.pipeline(ctx, d.weather)
		if err != nil {
			return err
		}
		if err := in.Followup(ctx, payload); err != nil {
			return fmt.Errorf("send follow-up: %w", err)
		}
		return nil
	})
	if err == nil {
		d.finish(run, store.OutcomeDelivered, nil)
		log.Info("forecast delivered to command")
		return
	}

	d.finish(run, store.OutcomeFailed, err)
	log.Error("weather command failed", "err", err, "acknowledged", acknowledged)

	noticeCtx, cancelNotice := context.WithTimeout(context.WithoutCancel(ctx), noticeTimeout)
	defer cancelNotice()

	nerr := common.Guard(func() error {
		if acknowledged {
			return in.FollowupText(noticeCtx, FailureNotice)
		}
		return in.RespondText(noticeCtx, FailureNotice)
	})
	if nerr != nil {
		log.Error("failed to send error response", "err", nerr)
	}
}

// Tick is one scheduled run. An unresolvable channel is a skip, not an error.
// Pipeline and delivery errors are returned to the timer, which hands them to
// OnTickError and stays armed.
func (d *Dispatcher) Tick(ctx context.Context) error {
	run := d.newRun(store.TriggerSchedule)
	log := d.log.With("run_id", run.ID, "trigger", run.Trigger)

	dest, ok := d.channels.Resolve(ctx, d.channelID)
	if !ok || dest == nil {
		log.Warn("channel not found or not messageable; skipping", "channel_id", d.channelID)
		d.finish(run, store.OutcomeSkipped, ErrChannelUnavailable)
		return nil
	}

	payload, err := d.pipeline(ctx, d.scheduled)
	if err == nil {
		if err = dest.Send(ctx, payload); err != nil {
			err = fmt.Errorf("send to channel %s: %w", d.channelID, err)
		}
	}
	if err != nil {
		d.finish(run, store.OutcomeFailed, err)
		return fmt.Errorf("run %s: %w", run.ID, err)
	}

	d.finish(run, store.OutcomeDelivered, nil)
	log.Info("forecast posted", "channel_id", d.channelID)
	return nil
}

// OnTickError is the timer's error handler. Logging is the whole retry policy:
// the next attempt is the next trigger.
func (d *Dispatcher) OnTickError(err error) {
	d.log.Error("scheduled forecast failed; will retry at next trigger", "err", err)
}

func (d *Dispatcher) pipeline(ctx context.Context, w WeatherFetcher) (presentation.Payload, error) {
	rec, err := w.Fetch(ctx)
	if err != nil {
		return presentation.Payload{}, fmt.Errorf("fetch weather: %w", err)
	}

	msg, err := d.composer.Compose(ctx, rec)
	if err != nil {
		return presentation.Payload{}, fmt.Errorf("compose forecast: %w", err)
	}

	return presentation.Build(msg, rec), nil
}

func (d *Dispatcher) newRun(trigger store.Trigger) store.Run {
	return store.Run{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		StartedAt: time.Now().UTC(),
	}
}

func (d *Dispatcher) finish(run store.Run, outcome store.Outcome, err error) {
	if d.runs == nil {
		return
	}
	run.Duration = time.Since(run.StartedAt)
	run.Outcome = outcome
	if err != nil {
		run.Error = err.Error()
	}
	d.runs.Record(run)
}
