package weather

// Current is the present weather at a city. Temp is nil when the upstream
// lookup failed; Error then says why.
type Current struct {
	City        string `json:"city"`
	Temp        *int   `json:"temp"`
	TempUnit    string `json:"tempUnit"`
	Condition   string `json:"condition"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	Emoji       string `json:"emoji"`
	Humidity    int    `json:"humidity,omitempty"`
	WindSpeed   int    `json:"windSpeed,omitempty"`
	FeelsLike   int    `json:"feelsLike,omitempty"`
	Pressure    int    `json:"pressure,omitempty"`
	Visibility  *int   `json:"visibility,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Day summarizes the three-hourly forecast entries of one local calendar day.
type Day struct {
	Date        string `json:"date"`
	Temp        int    `json:"temp"`
	TempMax     int    `json:"tempMax"`
	TempMin     int    `json:"tempMin"`
	Condition   string `json:"condition"`
	Icon        string `json:"icon"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
}

// Forecast is current weather plus the per-day forecast for a trip window.
type Forecast struct {
	City      string   `json:"city"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Current   *Current `json:"current"`
	Days      []Day    `json:"forecast"`
	Error     string   `json:"error,omitempty"`
}

// Coordinates locate a city for the weather API.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

const tempUnit = "°C"

var emojis = map[string]string{
	"01d": "☀️", "01n": "🌙",
	"02d": "🌤️", "02n": "☁️",
	"03d": "☁️", "03n": "☁️",
	"04d": "☁️", "04n": "☁️",
	"09d": "🌧️", "09n": "🌧️",
	"10d": "🌦️", "10n": "🌧️",
	"11d": "⛈️", "11n": "⛈️",
	"13d": "❄️", "13n": "❄️",
	"50d": "🌫️", "50n": "🌫️",
}

// Emoji maps an OpenWeatherMap icon code to an emoji.
func Emoji(icon string) string {
	if e, ok := emojis[icon]; ok {
		return e
	}
	return "🌡️"
}
