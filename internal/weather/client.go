package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	httpTimeout   = 10 * time.Second
	owmDefaultURL = "https://api.openweathermap.org/data/2.5"
	metersPerKm   = 1000
	msToKmPerHour = 3.6
)

// Client talks to the OpenWeatherMap current weather and 5-day forecast
// endpoints.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient constructs a Client with the given API key.
func NewClient(apiKey string) *Client {
	return NewClientWithURL(owmDefaultURL, apiKey)
}

// NewClientWithURL constructs a Client pointing at a custom base URL (for tests).
func NewClientWithURL(baseURL, apiKey string) *Client {
	return &Client{apiKey: apiKey, baseURL: baseURL, client: &http.Client{Timeout: httpTimeout}}
}

type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmCurrent struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Weather []owmCondition `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Visibility *float64 `json:"visibility"`
}

// Entry is one three-hourly forecast slot.
type Entry struct {
	Time        time.Time
	Temp        float64
	Condition   string
	Description string
	Icon        string
}

type owmForecast struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []owmCondition `json:"weather"`
	} `json:"list"`
	City struct {
		Timezone int `json:"timezone"`
	} `json:"city"`
}

func (c *Client) endpoint(path string, at Coordinates) string {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(at.Lon, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	return c.baseURL + path + "?" + q.Encode()
}

// Current fetches the present weather at the given coordinates.
func (c *Client) Current(ctx context.Context, at Coordinates) (*Current, error) {
	var raw owmCurrent
	if err := c.get(ctx, c.endpoint("/weather", at), &raw); err != nil {
		return nil, fmt.Errorf("openweathermap current: %w", err)
	}
	if len(raw.Weather) == 0 {
		return nil, fmt.Errorf("openweathermap current: no conditions in response")
	}

	cond := raw.Weather[0]
	temp := round(raw.Main.Temp)
	out := &Current{
		Temp:        &temp,
		TempUnit:    tempUnit,
		Condition:   cond.Main,
		Description: cond.Description,
		Icon:        cond.Icon,
		Emoji:       Emoji(cond.Icon),
		Humidity:    raw.Main.Humidity,
		WindSpeed:   round(raw.Wind.Speed * msToKmPerHour),
		FeelsLike:   round(raw.Main.FeelsLike),
		Pressure:    raw.Main.Pressure,
	}
	if raw.Visibility != nil {
		v := round(*raw.Visibility / metersPerKm)
		out.Visibility = &v
	}
	return out, nil
}

// Forecast fetches the three-hourly 5-day forecast. Entry times are shifted
// into the city's local time.
func (c *Client) Forecast(ctx context.Context, at Coordinates) ([]Entry, error) {
	var raw owmForecast
	if err := c.get(ctx, c.endpoint("/forecast", at), &raw); err != nil {
		return nil, fmt.Errorf("openweathermap forecast: %w", err)
	}

	loc := time.FixedZone("local", raw.City.Timezone)
	entries := make([]Entry, 0, len(raw.List))
	for _, item := range raw.List {
		if len(item.Weather) == 0 {
			continue
		}
		entries = append(entries, Entry{
			Time:        time.Unix(item.Dt, 0).In(loc),
			Temp:        item.Main.Temp,
			Condition:   item.Weather[0].Main,
			Description: item.Weather[0].Description,
			Icon:        item.Weather[0].Icon,
		})
	}
	return entries, nil
}

// get performs a GET request and decodes the JSON response into dst.
func (c *Client) get(ctx context.Context, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", req.URL.Path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", req.URL.Path, err)
	}
	return nil
}

func round(f float64) int {
	return int(math.Round(f))
}
