package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-friend/internal/dispatcher"
	"github.com/i474232898/weather-friend/internal/store"
	"github.com/i474232898/weather-friend/internal/weather"
)

const defaultRunsLimit = 20

var validate = validator.New()

// StatusReporter exposes bot readiness and schedule state.
type StatusReporter interface {
	Status() dispatcher.Status
}

// RunLister returns recent pipeline runs, newest first.
type RunLister interface {
	Recent(limit int) []store.Run
	Last(trigger store.Trigger) (store.Run, error)
}

// Deps are the read-only views the ops API serves.
type Deps struct {
	Service string
	Status  StatusReporter
	Weather weather.Provider
	Runs    RunLister
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		st := deps.Status.Status()

		lastRuns := fiber.Map{}
		for _, trigger := range []store.Trigger{store.TriggerSchedule, store.TriggerCommand} {
			run, err := deps.Runs.Last(trigger)
			switch {
			case errors.Is(err, store.ErrNotFound):
				lastRuns[string(trigger)] = nil
			case err != nil:
				return err
			default:
				lastRuns[string(trigger)] = run
			}
		}

		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  deps.Service,
			"ready":    st.Ready,
			"schedule": st.Schedule,
			"nextRun":  st.NextRun,
			"lastRuns": lastRuns,
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		rec, err := deps.Weather.Fetch(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "failed to fetch weather data")
		}

		return c.JSON(fiber.Map{
			"provider": deps.Weather.Name(),
			"location": deps.Weather.Location(),
			"record":   rec,
		})
	})

	v1.Get("/runs", func(c *fiber.Ctx) error {
		var q runsQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.JSON(fiber.Map{
			"limit": q.Limit,
			"runs":  deps.Runs.Recent(q.Limit),
		})
	})
}

// runsQuery holds query parameters for the runs endpoint.
type runsQuery struct {
	Limit int `validate:"min=1,max=100"`
}

func (q *runsQuery) bind(c *fiber.Ctx) error {
	raw := c.Query("limit")
	if raw == "" {
		q.Limit = defaultRunsLimit
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return errors.New("limit must be an integer")
	}
	q.Limit = n
	return nil
}

// ErrorHandler renders every handler error as a JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
