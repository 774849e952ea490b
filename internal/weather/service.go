// Package weather serves current conditions and trip-window forecasts for
// destination cities from OpenWeatherMap, cached for a short period.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const dateLayout = "2006-01-02"

var (
	// ErrUnknownCity is returned for a city with no known coordinates.
	ErrUnknownCity = errors.New("city not found in coordinates database")
	// ErrInvalidRange is returned for malformed or reversed forecast dates.
	ErrInvalidRange = errors.New("invalid forecast date range")
)

// fetcher is the interface satisfied by Client.
type fetcher interface {
	Current(ctx context.Context, at Coordinates) (*Current, error)
	Forecast(ctx context.Context, at Coordinates) ([]Entry, error)
}

// Cache stores recent lookups. Get methods return nil, nil on a miss.
type Cache interface {
	GetCurrent(ctx context.Context, city string) (*Current, error)
	SetCurrent(ctx context.Context, city string, c *Current) error
	GetForecast(ctx context.Context, city, start, end string) ([]Day, error)
	SetForecast(ctx context.Context, city, start, end string, days []Day) error
}

// Service resolves city names to coordinates and answers weather lookups,
// falling back to a degraded payload when the upstream API fails.
type Service struct {
	fetcher fetcher
	coords  map[string]Coordinates
	names   map[string]string
	cache   Cache
	log     *slog.Logger
}

// NewService constructs a Service. coords is keyed by display city name.
func NewService(f fetcher, coords map[string]Coordinates, cache Cache, log *slog.Logger) *Service {
	s := &Service{
		fetcher: f,
		coords:  make(map[string]Coordinates, len(coords)),
		names:   make(map[string]string, len(coords)),
		cache:   cache,
		log:     log,
	}
	for name, c := range coords {
		k := strings.ToLower(strings.TrimSpace(name))
		s.coords[k] = c
		s.names[k] = name
	}
	return s
}

// LoadCoordinates reads a JSON object mapping city names to coordinates.
func LoadCoordinates(path string) (map[string]Coordinates, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading city coordinates: %w", err)
	}
	var out map[string]Coordinates
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parsing city coordinates: %w", err)
	}
	return out, nil
}

// Cities lists the known city names, sorted.
func (s *Service) Cities() []string {
	out := make([]string, 0, len(s.names))
	for _, n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (s *Service) resolve(city string) (string, Coordinates, error) {
	k := strings.ToLower(strings.TrimSpace(city))
	at, ok := s.coords[k]
	if !ok {
		return "", Coordinates{}, fmt.Errorf("%w: %s", ErrUnknownCity, city)
	}
	return s.names[k], at, nil
}

// Current returns the present weather for city. Only an unknown city is an
// error; upstream failures produce a payload with Condition "Unavailable".
func (s *Service) Current(ctx context.Context, city string) (*Current, error) {
	name, at, err := s.resolve(city)
	if err != nil {
		return nil, err
	}

	if cached, err := s.cache.GetCurrent(ctx, name); err != nil {
		s.log.Warn("weather cache get failed", "city", name, "err", err)
	} else if cached != nil {
		return cached, nil
	}

	cur, err := s.fetcher.Current(ctx, at)
	if err != nil {
		s.log.Error("fetching current weather", "city", name, "err", err)
		return unavailable(name, err), nil
	}
	cur.City = name

	if err := s.cache.SetCurrent(ctx, name, cur); err != nil {
		s.log.Warn("weather cache set failed", "city", name, "err", err)
	}
	return cur, nil
}

// Forecast returns current weather plus one Day per local date in
// [start, end] that the 5-day forecast covers. Current and forecast are
// fetched in parallel.
func (s *Service) Forecast(ctx context.Context, city, start, end string) (*Forecast, error) {
	name, at, err := s.resolve(city)
	if err != nil {
		return nil, err
	}
	if err := validRange(start, end); err != nil {
		return nil, err
	}

	out := &Forecast{City: name, StartDate: start, EndDate: end}
	var forecastErr error

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("current weather panicked: %v", r)
			}
		}()
		out.Current, err = s.Current(gCtx, name)
		return err
	})

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("forecast panicked: %v", r)
			}
		}()
		out.Days, forecastErr = s.days(gCtx, name, at, start, end)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching forecast for %s: %w", name, err)
	}

	if forecastErr != nil {
		s.log.Error("fetching forecast", "city", name, "err", forecastErr)
		out.Days = []Day{}
		out.Error = forecastErr.Error()
	}
	return out, nil
}

func (s *Service) days(ctx context.Context, name string, at Coordinates, start, end string) ([]Day, error) {
	if cached, err := s.cache.GetForecast(ctx, name, start, end); err != nil {
		s.log.Warn("forecast cache get failed", "city", name, "err", err)
	} else if cached != nil {
		return cached, nil
	}

	entries, err := s.fetcher.Forecast(ctx, at)
	if err != nil {
		return nil, err
	}
	days := Summarize(entries, start, end)

	if err := s.cache.SetForecast(ctx, name, start, end, days); err != nil {
		s.log.Warn("forecast cache set failed", "city", name, "err", err)
	}
	return days, nil
}

// Summarize groups entries by local date, keeps dates within [start, end]
// and reduces each group to average, max and min temperature plus its most
// common condition. Days are returned in date order and never nil.
func Summarize(entries []Entry, start, end string) []Day {
	groups := make(map[string][]Entry)
	var dates []string
	for _, e := range entries {
		d := e.Time.Format(dateLayout)
		if d < start || d > end {
			continue
		}
		if _, ok := groups[d]; !ok {
			dates = append(dates, d)
		}
		groups[d] = append(groups[d], e)
	}
	sort.Strings(dates)

	out := make([]Day, 0, len(dates))
	for _, d := range dates {
		out = append(out, summarizeDay(d, groups[d]))
	}
	return out
}

func summarizeDay(date string, entries []Entry) Day {
	sum, lo, hi := 0.0, entries[0].Temp, entries[0].Temp
	counts := make(map[string]int)
	var order []string
	for _, e := range entries {
		sum += e.Temp
		lo = min(lo, e.Temp)
		hi = max(hi, e.Temp)
		if counts[e.Condition] == 0 {
			order = append(order, e.Condition)
		}
		counts[e.Condition]++
	}

	// ties go to the condition seen first
	common := order[0]
	for _, c := range order[1:] {
		if counts[c] > counts[common] {
			common = c
		}
	}

	icon := entries[0].Icon
	for _, e := range entries {
		if e.Condition == common {
			icon = e.Icon
			break
		}
	}

	return Day{
		Date:        date,
		Temp:        round(sum / float64(len(entries))),
		TempMax:     round(hi),
		TempMin:     round(lo),
		Condition:   common,
		Icon:        icon,
		Emoji:       Emoji(icon),
		Description: entries[0].Description,
	}
}

func validRange(start, end string) error {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return fmt.Errorf("%w: start %q", ErrInvalidRange, start)
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return fmt.Errorf("%w: end %q", ErrInvalidRange, end)
	}
	if e.Before(s) {
		return fmt.Errorf("%w: %s is before %s", ErrInvalidRange, end, start)
	}
	return nil
}

func unavailable(city string, err error) *Current {
	return &Current{
		City:        city,
		TempUnit:    tempUnit,
		Condition:   "Unavailable",
		Description: "Weather data unavailable",
		Emoji:       Emoji(""),
		Error:       err.Error(),
	}
}
