package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-friend/internal/logging"
	"github.com/i474232898/weather-friend/internal/weather"
)

const openWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherProvider fetches current conditions from OpenWeatherMap for one fixed location.
type OpenWeatherProvider struct {
	name     string
	apiKey   string
	baseURL  string
	location weather.Location
	client   *http.Client
	circuit  *gobreaker.CircuitBreaker
	log      *slog.Logger
}

// Option configures an OpenWeatherProvider.
type Option func(*OpenWeatherProvider)

// WithHTTPClient sets the client used for requests. Its Timeout must be finite.
func WithHTTPClient(c *http.Client) Option {
	return func(p *OpenWeatherProvider) {
		p.client = c
	}
}

// WithBaseURL points the provider at another endpoint (for testing).
func WithBaseURL(u string) Option {
	return func(p *OpenWeatherProvider) {
		p.baseURL = u
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *OpenWeatherProvider) {
		p.log = l
	}
}

func NewOpenWeatherProvider(apiKey string, loc weather.Location, opts ...Option) *OpenWeatherProvider {
	p := &OpenWeatherProvider{
		name:     "openweathermap",
		apiKey:   apiKey,
		baseURL:  openWeatherURL,
		location: loc,
		client:   &http.Client{Timeout: DefaultTimeout},
		circuit:  newBreaker("openweather"),
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With("component", "weather", "provider", p.name)
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// Location returns the place this provider reports on.
func (p *OpenWeatherProvider) Location() weather.Location {
	return p.location
}

// Fetch performs one live request and normalizes the answer. Every call goes to
// the network; results are never cached.
func (p *OpenWeatherProvider) Fetch(ctx context.Context) (weather.Record, error) {
	// The API key has to travel as a query parameter; HTTPS keeps it confidential.
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(p.location.Latitude, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(p.location.Longitude, 'f', -1, 64))
	values.Set("appid", p.apiKey)
	values.Set("units", "imperial")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return weather.Record{}, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := doRequest(p.client, p.circuit, req)
	if err != nil {
		var statusErr *weather.HTTPStatusError
		if errors.As(err, &statusErr) {
			p.log.Error("weather API HTTP error", "status", statusErr.StatusCode)
		} else {
			p.log.Error("weather API request failed", "err", err)
		}
		return weather.Record{}, err
	}
	defer resp.Body.Close()

	var payload owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return weather.Record{}, &weather.MalformedResponseError{Field: typeErr.Field, Err: err}
		}
		return weather.Record{}, &weather.MalformedResponseError{Err: err}
	}

	return payload.toRecord(p.location.City)
}

type owmResponse struct {
	Main struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *int     `json:"humidity"`
		TempMax   *float64 `json:"temp_max"`
		TempMin   *float64 `json:"temp_min"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description *string `json:"description"`
		Icon        *string `json:"icon"`
	} `json:"weather"`
}

// toRecord checks every required field before building the record so a
// partially populated Record can never escape.
func (r owmResponse) toRecord(city string) (weather.Record, error) {
	numbers := []struct {
		field string
		value *float64
	}{
		{"main.temp", r.Main.Temp},
		{"main.feels_like", r.Main.FeelsLike},
		{"main.temp_max", r.Main.TempMax},
		{"main.temp_min", r.Main.TempMin},
		{"wind.speed", r.Wind.Speed},
	}
	for _, n := range numbers {
		if n.value == nil {
			return weather.Record{}, &weather.MalformedResponseError{Field: n.field}
		}
	}

	if r.Main.Humidity == nil {
		return weather.Record{}, &weather.MalformedResponseError{Field: "main.humidity"}
	}

	if len(r.Weather) == 0 {
		return weather.Record{}, &weather.MalformedResponseError{Field: "weather[0]"}
	}
	cond := r.Weather[0]
	if cond.Description == nil {
		return weather.Record{}, &weather.MalformedResponseError{Field: "weather[0].description"}
	}
	if cond.Icon == nil {
		return weather.Record{}, &weather.MalformedResponseError{Field: "weather[0].icon"}
	}

	humidity := *r.Main.Humidity
	if humidity < 0 || humidity > 100 {
		return weather.Record{}, &weather.MalformedResponseError{
			Field: "main.humidity",
			Err:   fmt.Errorf("%d out of range 0-100", humidity),
		}
	}

	return weather.Record{
		City:         city,
		TemperatureF: *r.Main.Temp,
		FeelsLikeF:   *r.Main.FeelsLike,
		HumidityPct:  humidity,
		Description:  *cond.Description,
		WindSpeedMph: *r.Wind.Speed,
		HighF:        *r.Main.TempMax,
		LowF:         *r.Main.TempMin,
		IconCode:     *cond.Icon,
	}, nil
}
