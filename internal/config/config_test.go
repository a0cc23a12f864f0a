package config

import (
	"errors"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "fake-token")
	t.Setenv("DISCORD_CHANNEL_ID", "123456789")
	t.Setenv("OPENWEATHER_API_KEY", "fake-weather-key")
	t.Setenv("ANTHROPIC_API_KEY", "fake-anthropic-key")

	for _, key := range []string{
		"DISCORD_GUILD_ID", "WEATHER_LATITUDE", "WEATHER_LONGITUDE", "WEATHER_CITY",
		"FORECAST_HOUR", "FORECAST_MINUTE", "ANTHROPIC_MODEL", "ANTHROPIC_MAX_TOKENS",
		"HTTP_TIMEOUT", "HTTP_ADDR", "APP_ENV", "LOG_LEVEL", "RUN_HISTORY", "RUN_MAX_AGE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	got, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "fake-token", got.DiscordToken)
	assert.Equal(t, int64(123456789), got.DiscordChannelID)
	assert.Equal(t, "123456789", got.ChannelID())
	assert.Equal(t, "fake-weather-key", got.OpenWeatherAPIKey)
	assert.Equal(t, "fake-anthropic-key", got.AnthropicAPIKey)
	assert.Equal(t, DefaultLatitude, got.Latitude)
	assert.Equal(t, DefaultLongitude, got.Longitude)
	assert.Equal(t, "San Jose", got.CityName)
	assert.Equal(t, 7, got.ForecastHour)
	assert.Equal(t, 0, got.ForecastMinute)
	assert.Equal(t, DefaultModel, got.AnthropicModel)
	assert.Equal(t, 300, got.AnthropicMaxTokens)
	assert.Equal(t, 10*time.Second, got.HTTPTimeout)
	assert.Equal(t, ":8080", got.HTTPAddr)
	assert.Equal(t, "dev", got.AppEnv)
	assert.Equal(t, slog.LevelInfo, got.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("WEATHER_CITY", "Oakland")
	t.Setenv("WEATHER_LATITUDE", "37.8044")
	t.Setenv("FORECAST_HOUR", "23")
	t.Setenv("FORECAST_MINUTE", "59")
	t.Setenv("HTTP_ADDR", "off")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("APP_ENV", "prod")

	got, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Oakland", got.CityName)
	assert.Equal(t, 37.8044, got.Latitude)
	assert.Equal(t, 23, got.ForecastHour)
	assert.Equal(t, 59, got.ForecastMinute)
	assert.Empty(t, got.HTTPAddr)
	assert.Equal(t, slog.LevelDebug, got.LogLevel)
	assert.Equal(t, "prod", got.AppEnv)
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, key := range []string{"DISCORD_TOKEN", "DISCORD_CHANNEL_ID", "OPENWEATHER_API_KEY", "ANTHROPIC_API_KEY"} {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, "")

			_, err := Load()
			require.Error(t, err)

			var cfgErr *Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, key, cfgErr.Key)
			assert.True(t, errors.Is(err, ErrMissing))
		})
	}
}

func TestLoad_MalformedChannelID(t *testing.T) {
	setRequired(t)
	t.Setenv("DISCORD_CHANNEL_ID", "not-a-number")

	_, err := Load()
	require.Error(t, err)

	var numErr *strconv.NumError
	assert.ErrorAs(t, err, &numErr)
}

func TestLoad_OutOfRange(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"FORECAST_HOUR", "24"},
		{"FORECAST_HOUR", "-1"},
		{"FORECAST_MINUTE", "60"},
		{"WEATHER_LATITUDE", "91"},
		{"HTTP_TIMEOUT", "0s"},
		{"APP_ENV", "staging"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)

			var cfgErr *Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.key, cfgErr.Key)
		})
	}
}

func TestLoad_MalformedOptional(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"FORECAST_HOUR", "seven"},
		{"WEATHER_LONGITUDE", "west"},
		{"HTTP_TIMEOUT", "10"},
		{"LOG_LEVEL", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)

			var cfgErr *Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.key, cfgErr.Key)
		})
	}
}

func TestSettingsValidate(t *testing.T) {
	s := Settings{
		DiscordToken:       "t",
		DiscordChannelID:   1,
		OpenWeatherAPIKey:  "w",
		AnthropicAPIKey:    "a",
		CityName:           "San Jose",
		ForecastHour:       7,
		AnthropicModel:     DefaultModel,
		AnthropicMaxTokens: DefaultMaxTokens,
		HTTPTimeout:        time.Second,
		AppEnv:             "dev",
	}
	require.NoError(t, s.Validate())

	s.ForecastMinute = 75
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FORECAST_MINUTE")
}
