package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/getaway-planner/internal/cache"
	"github.com/neexbeast/getaway-planner/internal/conversation"
	"github.com/neexbeast/getaway-planner/internal/preferences"
	"github.com/neexbeast/getaway-planner/internal/weather"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func sampleCurrent() *weather.Current {
	temp := 28
	return &weather.Current{City: "Gokarna", Temp: &temp, Condition: "Clear", Description: "clear sky"}
}

func TestWeatherCache_SetAndGetCurrent(t *testing.T) {
	client, _ := newTestClient(t)
	c := cache.NewWeatherCache(client, 0)
	ctx := context.Background()

	require.NoError(t, c.SetCurrent(ctx, "Gokarna", sampleCurrent()))

	got, err := c.GetCurrent(ctx, "Gokarna")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Temp)
	assert.Equal(t, 28, *got.Temp)
	assert.Equal(t, "clear sky", got.Description)
}

func TestWeatherCache_GetCurrent_Miss(t *testing.T) {
	client, _ := newTestClient(t)
	c := cache.NewWeatherCache(client, 0)

	got, err := c.GetCurrent(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got, "cache miss should return nil, nil")
}

func TestWeatherCache_CityKeyIsLowercased(t *testing.T) {
	client, mr := newTestClient(t)
	c := cache.NewWeatherCache(client, 0)
	ctx := context.Background()

	require.NoError(t, c.SetCurrent(ctx, "GOKARNA", sampleCurrent()))
	assert.True(t, mr.Exists("weather:current:gokarna"))

	got, err := c.GetCurrent(ctx, " gokarna ")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestWeatherCache_SetCurrent_Nil(t *testing.T) {
	client, mr := newTestClient(t)
	c := cache.NewWeatherCache(client, 0)

	require.NoError(t, c.SetCurrent(context.Background(), "Gokarna", nil))
	assert.Empty(t, mr.Keys())
}

func TestWeatherCache_TTL(t *testing.T) {
	client, mr := newTestClient(t)
	c := cache.NewWeatherCache(client, 0)
	ctx := context.Background()

	require.NoError(t, c.SetCurrent(ctx, "Gokarna", sampleCurrent()))
	assert.Equal(t, cache.DefaultWeatherTTL, mr.TTL("weather:current:gokarna"))

	mr.FastForward(cache.DefaultWeatherTTL + time.Second)

	got, err := c.GetCurrent(ctx, "Gokarna")
	require.NoError(t, err)
	assert.Nil(t, got, "entry should be expired after TTL")
}

func TestWeatherCache_Forecast(t *testing.T) {
	client, _ := newTestClient(t)
	c := cache.NewWeatherCache(client, time.Minute)
	ctx := context.Background()

	miss, err := c.GetForecast(ctx, "Coorg", "2026-11-06", "2026-11-08")
	require.NoError(t, err)
	assert.Nil(t, miss)

	days := []weather.Day{{Date: "2026-11-06", Temp: 22, Condition: "Rain"}}
	require.NoError(t, c.SetForecast(ctx, "Coorg", "2026-11-06", "2026-11-08", days))

	got, err := c.GetForecast(ctx, "coorg", "2026-11-06", "2026-11-08")
	require.NoError(t, err)
	assert.Equal(t, days, got)

	other, err := c.GetForecast(ctx, "Coorg", "2026-11-07", "2026-11-08")
	require.NoError(t, err)
	assert.Nil(t, other, "different window is a different key")
}

func TestWeatherCache_EmptyForecastIsAHit(t *testing.T) {
	client, _ := newTestClient(t)
	c := cache.NewWeatherCache(client, 0)
	ctx := context.Background()

	require.NoError(t, c.SetForecast(ctx, "Coorg", "2027-01-01", "2027-01-02", nil))

	got, err := c.GetForecast(ctx, "Coorg", "2027-01-01", "2027-01-02")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestWeatherCache_CorruptValue(t *testing.T) {
	client, mr := newTestClient(t)
	c := cache.NewWeatherCache(client, 0)
	require.NoError(t, mr.Set("weather:current:gokarna", "{not json"))

	_, err := c.GetCurrent(context.Background(), "Gokarna")
	require.Error(t, err)
}

func TestSessions_SaveGetDelete(t *testing.T) {
	client, mr := newTestClient(t)
	s := cache.NewSessions(client, 0)
	ctx := context.Background()

	cc := conversation.Context{
		UserPreferences:     preferences.UserPreferences{DepartureCity: "Mumbai", Budget: 30000},
		SelectedDestination: "Gokarna",
		HasSeenItinerary:    true,
	}
	require.NoError(t, s.Save(ctx, "abc", cc))
	assert.Equal(t, cache.DefaultSessionTTL, mr.TTL("session:abc"))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cc, *got)

	require.NoError(t, s.Delete(ctx, "abc"))
	got, err = s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessions_Expire(t *testing.T) {
	client, mr := newTestClient(t)
	s := cache.NewSessions(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "abc", conversation.Context{}))
	mr.FastForward(2 * time.Hour)

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessions_Delete_NonExistent(t *testing.T) {
	client, _ := newTestClient(t)
	require.NoError(t, cache.NewSessions(client, 0).Delete(context.Background(), "ghost"))
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := cache.Connect(context.Background(), "redis://localhost:19999")
	require.Error(t, err)
}

func TestConnect_OK(t *testing.T) {
	_, mr := newTestClient(t)

	client, err := cache.Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, 2*time.Second, client.Options().ReadTimeout)
	assert.Equal(t, "getaway-planner", client.Options().ClientName)
}

func TestConnect_KeepsTimeoutFromURL(t *testing.T) {
	_, mr := newTestClient(t)

	client, err := cache.Connect(context.Background(), "redis://"+mr.Addr()+"?read_timeout=5s")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, 5*time.Second, client.Options().ReadTimeout)
}
