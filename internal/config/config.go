package config

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Settings is the immutable configuration snapshot built once at startup.
type Settings struct {
	DiscordToken      string `validate:"required"`
	DiscordChannelID  int64  `validate:"required,gt=0"`
	DiscordGuildID    string // empty registers the command globally
	OpenWeatherAPIKey string `validate:"required"`
	AnthropicAPIKey   string `validate:"required"`

	// Location the forecast is about.
	Latitude  float64 `validate:"min=-90,max=90"`
	Longitude float64 `validate:"min=-180,max=180"`
	CityName  string  `validate:"required"`

	// Daily trigger time, Pacific.
	ForecastHour   int `validate:"min=0,max=23"`
	ForecastMinute int `validate:"min=0,max=59"`

	AnthropicModel     string `validate:"required"`
	AnthropicMaxTokens int    `validate:"min=1,max=4096"`

	// HTTPTimeout bounds every outbound weather request.
	HTTPTimeout time.Duration `validate:"gt=0"`

	// HTTPAddr is the ops server listen address; empty disables it.
	HTTPAddr string

	AppEnv   string `validate:"oneof=dev prod"`
	LogLevel slog.Level

	// Run log retention.
	RunHistory int           `validate:"min=0"` // 0 = unlimited
	RunMaxAge  time.Duration `validate:"min=0"` // 0 = unlimited
}

const (
	DefaultLatitude       = 37.3382
	DefaultLongitude      = -121.8863
	DefaultCityName       = "San Jose"
	DefaultForecastHour   = 7
	DefaultForecastMinute = 0
	DefaultModel          = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens      = 300
)

// Error reports a configuration problem tied to one environment key.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrMissing is wrapped by Error when a required key is unset.
var ErrMissing = errors.New("required value is not set")

var validate = validator.New()

// envKeys maps Settings fields to the variables they are read from.
var envKeys = map[string]string{
	"DiscordToken":       "DISCORD_TOKEN",
	"DiscordChannelID":   "DISCORD_CHANNEL_ID",
	"OpenWeatherAPIKey":  "OPENWEATHER_API_KEY",
	"AnthropicAPIKey":    "ANTHROPIC_API_KEY",
	"Latitude":           "WEATHER_LATITUDE",
	"Longitude":          "WEATHER_LONGITUDE",
	"CityName":           "WEATHER_CITY",
	"ForecastHour":       "FORECAST_HOUR",
	"ForecastMinute":     "FORECAST_MINUTE",
	"AnthropicModel":     "ANTHROPIC_MODEL",
	"AnthropicMaxTokens": "ANTHROPIC_MAX_TOKENS",
	"HTTPTimeout":        "HTTP_TIMEOUT",
	"AppEnv":             "APP_ENV",
	"RunHistory":         "RUN_HISTORY",
	"RunMaxAge":          "RUN_MAX_AGE",
}

// Validate checks field ranges. Out-of-range values are rejected, never clamped.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			key := fe.Field()
			if env, ok := envKeys[key]; ok {
				key = env
			}
			return &Error{
				Key: key,
				Err: fmt.Errorf("failed %q constraint (value %v)", fe.Tag(), fe.Value()),
			}
		}
		return err
	}
	return nil
}

// Load reads configuration from the environment (and .env if present).
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	s := &Settings{}
	var err error

	if s.DiscordToken, err = getenvRequired("DISCORD_TOKEN"); err != nil {
		return nil, err
	}
	channel, err := getenvRequired("DISCORD_CHANNEL_ID")
	if err != nil {
		return nil, err
	}
	if s.DiscordChannelID, err = strconv.ParseInt(channel, 10, 64); err != nil {
		return nil, &Error{Key: "DISCORD_CHANNEL_ID", Err: err}
	}
	if s.OpenWeatherAPIKey, err = getenvRequired("OPENWEATHER_API_KEY"); err != nil {
		return nil, err
	}
	if s.AnthropicAPIKey, err = getenvRequired("ANTHROPIC_API_KEY"); err != nil {
		return nil, err
	}
	s.DiscordGuildID = strings.TrimSpace(os.Getenv("DISCORD_GUILD_ID"))

	if s.Latitude, err = getenvFloat("WEATHER_LATITUDE", DefaultLatitude); err != nil {
		return nil, err
	}
	if s.Longitude, err = getenvFloat("WEATHER_LONGITUDE", DefaultLongitude); err != nil {
		return nil, err
	}
	s.CityName = getenvDefault("WEATHER_CITY", DefaultCityName)

	if s.ForecastHour, err = getenvInt("FORECAST_HOUR", DefaultForecastHour); err != nil {
		return nil, err
	}
	if s.ForecastMinute, err = getenvInt("FORECAST_MINUTE", DefaultForecastMinute); err != nil {
		return nil, err
	}

	s.AnthropicModel = getenvDefault("ANTHROPIC_MODEL", DefaultModel)
	if s.AnthropicMaxTokens, err = getenvInt("ANTHROPIC_MAX_TOKENS", DefaultMaxTokens); err != nil {
		return nil, err
	}

	if s.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	s.HTTPAddr = getenvDefault("HTTP_ADDR", ":8080")
	if strings.EqualFold(s.HTTPAddr, "off") {
		s.HTTPAddr = ""
	}

	s.AppEnv = getenvDefault("APP_ENV", "dev")
	if s.LogLevel, err = parseLogLevel(getenvDefault("LOG_LEVEL", "info")); err != nil {
		return nil, &Error{Key: "LOG_LEVEL", Err: err}
	}

	if s.RunHistory, err = getenvInt("RUN_HISTORY", 50); err != nil {
		return nil, err
	}
	if s.RunMaxAge, err = getenvDuration("RUN_MAX_AGE", 7*24*time.Hour); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ChannelID returns the target channel id in the string form Discord expects.
func (s Settings) ChannelID() string {
	return strconv.FormatInt(s.DiscordChannelID, 10)
}

func getenvRequired(key string) (string, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return "", &Error{Key: key, Err: ErrMissing}
	}
	return v, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &Error{Key: key, Err: err}
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &Error{Key: key, Err: err}
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, &Error{Key: key, Err: err}
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid level %q (allowed: debug, info, warn, error)", s)
	}
}
