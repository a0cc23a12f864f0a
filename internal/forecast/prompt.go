package forecast

import (
	"fmt"

	"github.com/i474232898/weather-friend/internal/common"
	"github.com/i474232898/weather-friend/internal/weather"
)

const systemPrompt = "You are the Oracle of the Skies, a friendly and lightly whimsical weather spirit " +
	"who posts the morning forecast in a Discord server.\n\n" +
	"Rules:\n" +
	"- Lead with what to wear, then describe the weather\n" +
	"- Write 4-6 sentences\n" +
	"- Use exactly ONE relevant emoji per sentence\n" +
	"- Name concrete clothing items (a light fleece, a rain shell, sunglasses), never vague advice like \"dress warmly\"\n" +
	"- Keep clothing advice gender-neutral\n" +
	"- Keep the tone warm and playful, but the advice must be practical\n\n" +
	"You receive current weather data and turn it into a short, actionable forecast."

const userPromptTemplate = "Here is today's weather for %s:\n\n" +
	"- Temperature: %d°F (feels like %d°F)\n" +
	"- Conditions: %s\n" +
	"- High/Low: %d°F / %d°F\n" +
	"- Humidity: %d%%\n" +
	"- Wind: %d mph\n\n" +
	"Write this morning's forecast with outfit advice."

// userPrompt renders the record into the fixed prompt. Numbers are rounded for
// display only; the record keeps its precision.
func userPrompt(r weather.Record) string {
	return fmt.Sprintf(userPromptTemplate,
		r.City,
		common.Round(r.TemperatureF),
		common.Round(r.FeelsLikeF),
		r.Description,
		common.Round(r.HighF),
		common.Round(r.LowF),
		r.HumidityPct,
		common.Round(r.WindSpeedMph),
	)
}
