package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/getaway-planner/internal/weather"
)

const DefaultWeatherTTL = 10 * time.Minute

func normalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// WeatherCache keeps weather lookups for a fixed period. Each key expires on
// its own; there is no cross-key coordination.
type WeatherCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewWeatherCache constructs a WeatherCache. ttl ≤ 0 means DefaultWeatherTTL.
func NewWeatherCache(client *redis.Client, ttl time.Duration) *WeatherCache {
	if ttl <= 0 {
		ttl = DefaultWeatherTTL
	}
	return &WeatherCache{client: client, ttl: ttl}
}

func currentKey(city string) string {
	return "weather:current:" + normalizeCity(city)
}

func forecastKey(city, start, end string) string {
	return "weather:forecast:" + normalizeCity(city) + ":" + start + ":" + end
}

// GetCurrent returns nil, nil on a miss.
func (c *WeatherCache) GetCurrent(ctx context.Context, city string) (*weather.Current, error) {
	var cur weather.Current
	ok, err := getJSON(ctx, c.client, currentKey(city), &cur)
	if err != nil || !ok {
		return nil, err
	}
	return &cur, nil
}

func (c *WeatherCache) SetCurrent(ctx context.Context, city string, cur *weather.Current) error {
	if cur == nil {
		return nil
	}
	return setJSON(ctx, c.client, currentKey(city), cur, c.ttl)
}

// GetForecast returns nil, nil on a miss and a non-nil slice on a hit.
func (c *WeatherCache) GetForecast(ctx context.Context, city, start, end string) ([]weather.Day, error) {
	days := []weather.Day{}
	ok, err := getJSON(ctx, c.client, forecastKey(city, start, end), &days)
	if err != nil || !ok {
		return nil, err
	}
	return days, nil
}

func (c *WeatherCache) SetForecast(ctx context.Context, city, start, end string, days []weather.Day) error {
	if days == nil {
		days = []weather.Day{}
	}
	return setJSON(ctx, c.client, forecastKey(city, start, end), days, c.ttl)
}
