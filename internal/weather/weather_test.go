package weather_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/getaway-planner/internal/catalog"
	"github.com/neexbeast/getaway-planner/internal/weather"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const currentJSON = `{
	"main": {"temp": 28.6, "feels_like": 31.2, "humidity": 74, "pressure": 1009},
	"weather": [{"main": "Clouds", "description": "scattered clouds", "icon": "03d"}],
	"wind": {"speed": 5},
	"visibility": 8000
}`

// IST is UTC+5:30. 2026-11-06 00:00 IST is 2026-11-05 18:30 UTC.
func forecastJSON() string {
	base := time.Date(2026, 11, 5, 18, 30, 0, 0, time.UTC).Unix()
	slot := func(hours int, temp float64, main, icon string) string {
		return fmt.Sprintf(`{"dt": %d, "main": {"temp": %g}, "weather": [{"main": %q, "description": %q, "icon": %q}]}`,
			base+int64(hours*3600), temp, main, main+" desc", icon)
	}
	return `{"city": {"timezone": 19800}, "list": [` +
		slot(-3, 40, "Clear", "01d") + "," + // 2026-11-05 local, outside range
		slot(3, 24, "Rain", "10d") + "," +
		slot(9, 30, "Clear", "01d") + "," +
		slot(15, 27, "Clear", "01n") + "," +
		slot(27, 26, "Clouds", "04d") + "," + // 2026-11-07 local
		slot(51, 25, "Rain", "10n") + // 2026-11-08 local, outside range
		`]}`
}

type memCache struct {
	mu       sync.Mutex
	current  map[string]*weather.Current
	forecast map[string][]weather.Day
	getErr   error
}

func newMemCache() *memCache {
	return &memCache{current: map[string]*weather.Current{}, forecast: map[string][]weather.Day{}}
}

func (m *memCache) GetCurrent(_ context.Context, city string) (*weather.Current, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.current[city], nil
}

func (m *memCache) SetCurrent(_ context.Context, city string, c *weather.Current) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current[city] = c
	return nil
}

func (m *memCache) GetForecast(_ context.Context, city, start, end string) ([]weather.Day, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.forecast[city+start+end], nil
}

func (m *memCache) SetForecast(_ context.Context, city, start, end string, days []weather.Day) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forecast[city+start+end] = days
	return nil
}

type owmServer struct {
	*httptest.Server
	currentHits  atomic.Int32
	forecastHits atomic.Int32
}

func newOWMServer(t *testing.T, currentStatus, forecastStatus int) *owmServer {
	t.Helper()
	s := &owmServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		switch r.URL.Path {
		case "/weather":
			s.currentHits.Add(1)
			w.WriteHeader(currentStatus)
			_, _ = w.Write([]byte(currentJSON))
		case "/forecast":
			s.forecastHits.Add(1)
			w.WriteHeader(forecastStatus)
			_, _ = w.Write([]byte(forecastJSON()))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

var coords = map[string]weather.Coordinates{
	"Gokarna": {Lat: 14.55, Lon: 74.32},
}

func newService(srv *owmServer, cache weather.Cache) *weather.Service {
	return weather.NewService(weather.NewClientWithURL(srv.URL, "test-key"), coords, cache, discardLogger())
}

func TestClient_Current(t *testing.T) {
	srv := newOWMServer(t, http.StatusOK, http.StatusOK)

	cur, err := weather.NewClientWithURL(srv.URL, "test-key").Current(context.Background(), coords["Gokarna"])
	require.NoError(t, err)
	require.NotNil(t, cur.Temp)
	assert.Equal(t, 29, *cur.Temp)
	assert.Equal(t, 31, cur.FeelsLike)
	assert.Equal(t, 18, cur.WindSpeed, "5 m/s is 18 km/h")
	require.NotNil(t, cur.Visibility)
	assert.Equal(t, 8, *cur.Visibility)
	assert.Equal(t, "Clouds", cur.Condition)
	assert.Equal(t, "☁️", cur.Emoji)
}

func TestClient_ServerError(t *testing.T) {
	srv := newOWMServer(t, http.StatusUnauthorized, http.StatusOK)

	_, err := weather.NewClientWithURL(srv.URL, "test-key").Current(context.Background(), coords["Gokarna"])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestService_CurrentCachesResult(t *testing.T) {
	srv := newOWMServer(t, http.StatusOK, http.StatusOK)
	svc := newService(srv, newMemCache())

	first, err := svc.Current(context.Background(), "gokarna")
	require.NoError(t, err)
	assert.Equal(t, "Gokarna", first.City)

	_, err = svc.Current(context.Background(), "GOKARNA ")
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.currentHits.Load())
}

func TestService_CurrentUnknownCity(t *testing.T) {
	srv := newOWMServer(t, http.StatusOK, http.StatusOK)
	svc := newService(srv, newMemCache())

	_, err := svc.Current(context.Background(), "Atlantis")
	require.ErrorIs(t, err, weather.ErrUnknownCity)
	assert.Equal(t, int32(0), srv.currentHits.Load())
}

func TestService_CurrentDegradesOnUpstreamFailure(t *testing.T) {
	srv := newOWMServer(t, http.StatusInternalServerError, http.StatusOK)
	cache := newMemCache()
	svc := newService(srv, cache)

	cur, err := svc.Current(context.Background(), "Gokarna")
	require.NoError(t, err)
	assert.Equal(t, "Unavailable", cur.Condition)
	assert.Nil(t, cur.Temp)
	assert.NotEmpty(t, cur.Error)
	assert.Empty(t, cache.current, "degraded payloads are not cached")
}

func TestService_CacheErrorFallsThroughToAPI(t *testing.T) {
	srv := newOWMServer(t, http.StatusOK, http.StatusOK)
	cache := newMemCache()
	cache.getErr = errors.New("redis down")
	svc := newService(srv, cache)

	cur, err := svc.Current(context.Background(), "Gokarna")
	require.NoError(t, err)
	assert.Equal(t, "Clouds", cur.Condition)
}

func TestService_Forecast(t *testing.T) {
	srv := newOWMServer(t, http.StatusOK, http.StatusOK)
	svc := newService(srv, newMemCache())

	fc, err := svc.Forecast(context.Background(), "Gokarna", "2026-11-06", "2026-11-07")
	require.NoError(t, err)
	require.NotNil(t, fc.Current)
	assert.Equal(t, "Clouds", fc.Current.Condition)
	assert.Empty(t, fc.Error)

	require.Len(t, fc.Days, 2)
	day := fc.Days[0]
	assert.Equal(t, "2026-11-06", day.Date)
	assert.Equal(t, 27, day.Temp)
	assert.Equal(t, 30, day.TempMax)
	assert.Equal(t, 24, day.TempMin)
	assert.Equal(t, "Clear", day.Condition)
	assert.Equal(t, "01d", day.Icon)
	assert.Equal(t, "☀️", day.Emoji)
	assert.Equal(t, "2026-11-07", fc.Days[1].Date)

	_, err = svc.Forecast(context.Background(), "Gokarna", "2026-11-06", "2026-11-07")
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.forecastHits.Load())
}

func TestService_ForecastDegradesOnUpstreamFailure(t *testing.T) {
	srv := newOWMServer(t, http.StatusOK, http.StatusBadGateway)
	svc := newService(srv, newMemCache())

	fc, err := svc.Forecast(context.Background(), "Gokarna", "2026-11-06", "2026-11-07")
	require.NoError(t, err)
	assert.NotNil(t, fc.Days)
	assert.Empty(t, fc.Days)
	assert.NotEmpty(t, fc.Error)
	assert.Equal(t, "Clouds", fc.Current.Condition)
}

func TestService_ForecastInvalidRange(t *testing.T) {
	srv := newOWMServer(t, http.StatusOK, http.StatusOK)
	svc := newService(srv, newMemCache())

	_, err := svc.Forecast(context.Background(), "Gokarna", "2026-11-08", "2026-11-06")
	require.ErrorIs(t, err, weather.ErrInvalidRange)

	_, err = svc.Forecast(context.Background(), "Gokarna", "next friday", "2026-11-06")
	require.ErrorIs(t, err, weather.ErrInvalidRange)
}

func TestSummarize_TieGoesToFirstCondition(t *testing.T) {
	at := time.Date(2026, 11, 6, 9, 0, 0, 0, time.UTC)
	days := weather.Summarize([]weather.Entry{
		{Time: at, Temp: 20, Condition: "Rain", Icon: "10d"},
		{Time: at.Add(3 * time.Hour), Temp: 21, Condition: "Clear", Icon: "01d"},
	}, "2026-11-06", "2026-11-06")
	require.Len(t, days, 1)
	assert.Equal(t, "Rain", days[0].Condition)
	assert.Equal(t, 21, days[0].Temp)
}

func TestSummarize_NoEntriesInRange(t *testing.T) {
	days := weather.Summarize(nil, "2026-11-06", "2026-11-07")
	assert.NotNil(t, days)
	assert.Empty(t, days)
}

func TestEmoji(t *testing.T) {
	assert.Equal(t, "🌙", weather.Emoji("01n"))
	assert.Equal(t, "🌡️", weather.Emoji(""))
	assert.Equal(t, "🌡️", weather.Emoji("99x"))
}

func TestLoadCoordinates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coords.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Coorg": {"lat": 12.42, "lon": 75.74}}`), 0o644))

	got, err := weather.LoadCoordinates(path)
	require.NoError(t, err)
	assert.Equal(t, weather.Coordinates{Lat: 12.42, Lon: 75.74}, got["Coorg"])

	_, err = weather.LoadCoordinates(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadCoordinates_CoversShippedCatalog(t *testing.T) {
	coords, err := weather.LoadCoordinates(filepath.Join("..", "..", "data", "city-coordinates.json"))
	require.NoError(t, err)

	c, err := catalog.Load(filepath.Join("..", "..", "data", "destinations.json"))
	require.NoError(t, err)

	svc := weather.NewService(nil, coords, nil, discardLogger())
	for _, d := range c.All() {
		assert.Contains(t, svc.Cities(), d.Name)
	}
}
