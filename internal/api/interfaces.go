package api

import (
	"context"

	"github.com/neexbeast/getaway-planner/internal/catalog"
	"github.com/neexbeast/getaway-planner/internal/conversation"
	"github.com/neexbeast/getaway-planner/internal/weather"
)

// MessageRouter decides how to answer one chat message.
type MessageRouter interface {
	HandleMessage(ctx context.Context, message string, cc conversation.Context) (*conversation.Response, error)
}

// SessionStore keeps each session's conversation context between requests.
type SessionStore interface {
	Get(ctx context.Context, id string) (*conversation.Context, error)
	Save(ctx context.Context, id string, cc conversation.Context) error
	Delete(ctx context.Context, id string) error
}

// ExchangeLog records routed messages. Optional: nil when no database is
// configured.
type ExchangeLog interface {
	LogExchange(ctx context.Context, sessionID, message, mode string) error
	CountExchanges(ctx context.Context, sessionID string) (int, error)
}

// WeatherService answers weather lookups. Optional: nil disables the
// weather routes.
type WeatherService interface {
	Current(ctx context.Context, city string) (*weather.Current, error)
	Forecast(ctx context.Context, city, start, end string) (*weather.Forecast, error)
	Cities() []string
}

// Catalog lists and looks up destinations.
type Catalog interface {
	All() []catalog.Destination
	Get(name string) (catalog.Destination, bool)
}

// Pinger reports whether a dependency is usable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthCheck is one named dependency checked by the health endpoint.
type HealthCheck struct {
	Name   string
	Pinger Pinger
}
