// Package presentation renders a forecast into a channel-ready message.
package presentation

import (
	"fmt"

	"github.com/i474232898/weather-friend/internal/common"
	"github.com/i474232898/weather-friend/internal/weather"
)

const (
	Title       = "🔮 The Oracle Speaks"
	AccentColor = 0x9B59B6
	iconURL     = "https://openweathermap.org/img/wn/%s@2x.png"
	footerText  = "Weather for %s • Blessed be your day ✨"
)

// Field is one labeled summary value.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Payload is a platform-neutral rich message.
type Payload struct {
	Title        string
	Description  string
	Color        int
	ThumbnailURL string
	Fields       []Field
	Footer       string
}

// Build renders message and rec into a payload. It has no side effects and
// returns identical output for identical input.
func Build(message string, rec weather.Record) Payload {
	return Payload{
		Title:        Title,
		Description:  message,
		Color:        AccentColor,
		ThumbnailURL: fmt.Sprintf(iconURL, rec.IconCode),
		Fields: []Field{
			{Name: "🌡️ Temperature", Value: rec.RangeSummary(), Inline: true},
			{Name: "💧 Humidity", Value: fmt.Sprintf("%d%%", rec.HumidityPct), Inline: true},
			{Name: "💨 Wind", Value: fmt.Sprintf("%d mph", common.Round(rec.WindSpeedMph)), Inline: true},
		},
		Footer: fmt.Sprintf(footerText, rec.City),
	}
}
