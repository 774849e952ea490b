package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/neexbeast/getaway-planner/internal/conversation"
	"github.com/neexbeast/getaway-planner/internal/preferences"
	"github.com/neexbeast/getaway-planner/internal/retrieval"
	"github.com/neexbeast/getaway-planner/internal/weather"
)

const (
	msgRequired     = "Message is required"
	msgTryAgain     = "Failed to process your request. Please try again."
	msgIndexLoading = "Destination search is still warming up. Please try again in a moment."
)

// maxBodyBytes bounds a chat request body.
const maxBodyBytes = 1 << 16

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	router    MessageRouter
	catalog   Catalog
	sessions  SessionStore
	exchanges ExchangeLog
	weather   WeatherService
	log       *slog.Logger
	now       func() time.Time
}

// NewHandlers constructs Handlers. exchanges and weather may be nil.
func NewHandlers(router MessageRouter, c Catalog, sessions SessionStore, exchanges ExchangeLog, w WeatherService, log *slog.Logger) *Handlers {
	return &Handlers{
		router:    router,
		catalog:   c,
		sessions:  sessions,
		exchanges: exchanges,
		weather:   w,
		log:       log,
		now:       time.Now,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type chatRequest struct {
	Message         string                       `json:"message"`
	SessionID       string                       `json:"sessionId"`
	UserPreferences *preferences.UserPreferences `json:"userPreferences"`
	Context         *struct {
		SelectedDestination string `json:"selectedDestination"`
		HasSeenItinerary    bool   `json:"hasSeenItinerary"`
	} `json:"context"`
}

// Chat handles POST /api/v1/chat.
// A stored session context takes precedence over the one in the body;
// preferences in the body only fill slots the context lacks.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, msgRequired)
		return
	}

	if req.UserPreferences != nil {
		if err := req.UserPreferences.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	cc := h.resolveContext(r.Context(), sessionID, req)

	resp, err := h.router.HandleMessage(r.Context(), req.Message, cc)
	switch {
	case errors.Is(err, conversation.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, msgRequired)
		return
	case errors.Is(err, retrieval.ErrIndexNotReady):
		writeError(w, http.StatusServiceUnavailable, msgIndexLoading)
		return
	case err != nil:
		h.log.Error("handling chat message", "session", sessionID, "err", err)
		writeError(w, http.StatusInternalServerError, msgTryAgain)
		return
	}

	if err := h.sessions.Save(r.Context(), sessionID, resp.Context); err != nil {
		h.log.Warn("saving session failed", "session", sessionID, "err", err)
	}
	if h.exchanges != nil {
		if err := h.exchanges.LogExchange(r.Context(), sessionID, req.Message, string(resp.Mode)); err != nil {
			h.log.Warn("logging exchange failed", "session", sessionID, "err", err)
		}
	}

	body := resp.Fields()
	body["sessionId"] = sessionID
	body["timestamp"] = h.now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, body)
}

func (h *Handlers) resolveContext(ctx context.Context, sessionID string, req chatRequest) conversation.Context {
	var cc conversation.Context

	stored, err := h.sessions.Get(ctx, sessionID)
	if err != nil {
		h.log.Warn("loading session failed", "session", sessionID, "err", err)
	}
	switch {
	case stored != nil:
		cc = *stored
	case req.Context != nil:
		cc.SelectedDestination = req.Context.SelectedDestination
		cc.HasSeenItinerary = req.Context.HasSeenItinerary
	}

	if req.UserPreferences != nil {
		cc.UserPreferences = preferences.Merge(cc.UserPreferences, *req.UserPreferences)
	}
	return cc
}

// GetSession handles GET /api/v1/sessions/{id}.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cc, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		h.log.Error("session get failed", "session", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if cc == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	body := map[string]any{"sessionId": id, "context": cc}
	if h.exchanges != nil {
		n, err := h.exchanges.CountExchanges(r.Context(), id)
		if err != nil {
			h.log.Warn("counting exchanges failed", "session", id, "err", err)
		} else {
			body["messages"] = n
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// DeleteSession handles DELETE /api/v1/sessions/{id}, forgetting the
// conversation so the next message starts fresh.
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		h.log.Error("session delete failed", "session", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDestinations handles GET /api/v1/destinations.
func (h *Handlers) ListDestinations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"destinations": h.catalog.All()})
}

// GetDestination handles GET /api/v1/destinations/{name}.
func (h *Handlers) GetDestination(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	d, ok := h.catalog.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "destination not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ListWeatherCities handles GET /api/v1/weather.
func (h *Handlers) ListWeatherCities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cities": h.weather.Cities()})
}

// GetWeather handles GET /api/v1/weather/{city}.
// Upstream failures still answer 200 with a degraded payload.
func (h *Handlers) GetWeather(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")

	cur, err := h.weather.Current(r.Context(), city)
	if err != nil {
		h.weatherError(w, city, err)
		return
	}
	writeJSON(w, http.StatusOK, cur)
}

// GetForecast handles GET /api/v1/weather/{city}/forecast?start=&end=.
func (h *Handlers) GetForecast(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	start, end := r.URL.Query().Get("start"), r.URL.Query().Get("end")
	if start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "start and end dates are required")
		return
	}

	fc, err := h.weather.Forecast(r.Context(), city, start, end)
	if err != nil {
		h.weatherError(w, city, err)
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

func (h *Handlers) weatherError(w http.ResponseWriter, city string, err error) {
	switch {
	case errors.Is(err, weather.ErrUnknownCity):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, weather.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("weather lookup failed", "city", city, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// HealthHandlerFunc returns an http.HandlerFunc that pings every check and
// answers 200 when all pass, 503 otherwise.
func HealthHandlerFunc(checks []HealthCheck, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}

		for _, c := range checks {
			body[c.Name] = "ok"
			if err := c.Pinger.Ping(ctx); err != nil {
				log.Error("health check failed", "check", c.Name, "err", err)
				body[c.Name] = "error"
				status = http.StatusServiceUnavailable
			}
		}

		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		writeJSON(w, status, body)
	}
}
