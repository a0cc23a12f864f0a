package weather

import (
	"fmt"

	"github.com/i474232898/weather-friend/internal/common"
)

// Location is the fixed place the bot reports on.
// City is a display name only; the provider is queried by coordinates.
type Location struct {
	City      string  `json:"city"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Record is the normalized current-conditions view produced by a single fetch.
// It is only ever built from a fully parsed provider response.
type Record struct {
	City         string  `json:"city"`
	TemperatureF float64 `json:"temperatureF"`
	FeelsLikeF   float64 `json:"feelsLikeF"`
	HumidityPct  int     `json:"humidityPercent"`
	Description  string  `json:"description"`
	WindSpeedMph float64 `json:"windSpeedMph"`
	HighF        float64 `json:"highF"`
	LowF         float64 `json:"lowF"`
	IconCode     string  `json:"icon"`
}

// RangeSummary formats the day's low/high, e.g. "58°F – 74°F".
func (r Record) RangeSummary() string {
	return fmt.Sprintf("%d°F – %d°F", common.Round(r.LowF), common.Round(r.HighF))
}
