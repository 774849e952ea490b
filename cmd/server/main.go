package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/getaway-planner/internal/api"
	"github.com/neexbeast/getaway-planner/internal/cache"
	"github.com/neexbeast/getaway-planner/internal/catalog"
	"github.com/neexbeast/getaway-planner/internal/config"
	"github.com/neexbeast/getaway-planner/internal/conversation"
	"github.com/neexbeast/getaway-planner/internal/itinerary"
	"github.com/neexbeast/getaway-planner/internal/llm"
	"github.com/neexbeast/getaway-planner/internal/match"
	"github.com/neexbeast/getaway-planner/internal/preferences"
	"github.com/neexbeast/getaway-planner/internal/retrieval"
	"github.com/neexbeast/getaway-planner/internal/storage"
	"github.com/neexbeast/getaway-planner/internal/weather"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

// languageModel is what the chosen provider offers to the rest of the app.
type languageModel interface {
	llm.Generator
	llm.Embedder
	// Structured generates without the planner persona, for JSON extraction.
	Structured() llm.Generator
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	weights := match.DefaultWeights()
	if cfg.ScoringWeightsFile != "" {
		if weights, err = match.LoadWeights(cfg.ScoringWeightsFile); err != nil {
			return err
		}
	}

	destinations, err := catalog.Load(cfg.DestinationsFile())
	if err != nil {
		return err
	}

	var checks []api.HealthCheck
	var exchanges api.ExchangeLog

	// PostgreSQL is optional; when present it owns the catalog.
	if cfg.DatabaseURL != "" {
		pool, err := storage.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		applied, err := storage.RunMigrations(ctx, pool, cfg.MigrationsDir)
		if err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		log.Info("migrations applied", "files", applied)

		repo := storage.NewRepository(pool)
		if destinations, err = catalogFromDatabase(ctx, repo, destinations); err != nil {
			return err
		}
		exchanges = repo
		checks = append(checks, api.HealthCheck{Name: "database", Pinger: &pgxPoolPinger{pool: pool}})
	}
	log.Info("catalog loaded", "destinations", destinations.Len())

	model, closeModel, err := newLanguageModel(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	defer closeModel()

	docs, err := retrieval.LoadCorpus(cfg.CorpusDir())
	if err != nil {
		return err
	}
	index := retrieval.NewIndex(model, log)
	go buildIndex(ctx, index, docs, log)

	router := conversation.NewRouter(
		destinations,
		match.NewScorer(weights),
		preferences.NewExtractor(model.Structured(), log),
		itinerary.New(index, model, cfg.RetrievalK),
		log,
	)

	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	var weatherSvc api.WeatherService
	if cfg.WeatherKey != "" {
		coords, err := weather.LoadCoordinates(cfg.CoordinatesFile())
		if err != nil {
			return err
		}
		weatherSvc = weather.NewService(
			weather.NewClient(cfg.WeatherKey),
			coords,
			cache.NewWeatherCache(redisClient, cfg.WeatherCacheTTL),
			log,
		)
	} else {
		log.Warn("OPENWEATHER_API_KEY not set; weather routes disabled")
	}

	checks = append(checks,
		api.HealthCheck{Name: "redis", Pinger: &redisPingerAdapter{client: redisClient}},
		api.HealthCheck{Name: "index", Pinger: api.PingerFunc(func(context.Context) error {
			if !index.Ready() {
				return retrieval.ErrIndexNotReady
			}
			return nil
		})},
	)

	handlers := api.NewHandlers(
		router,
		destinations,
		cache.NewSessions(redisClient, cfg.SessionTTL),
		exchanges,
		weatherSvc,
		log,
	)
	if cfg.BearerToken == "" {
		log.Warn("BEARER_TOKEN not set; API is unauthenticated")
	}
	mux := api.NewRouter(handlers, api.RouterConfig{
		BearerToken: cfg.BearerToken,
		CORSOrigins: cfg.CORSOrigins,
	}, checks, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// catalogFromDatabase seeds the destinations table from the JSON file and
// reads the catalog back in stored order.
func catalogFromDatabase(ctx context.Context, repo *storage.Repository, seed *catalog.Catalog) (*catalog.Catalog, error) {
	if err := repo.SeedCatalog(ctx, seed.All()); err != nil {
		return nil, fmt.Errorf("seeding catalog: %w", err)
	}
	rows, err := repo.ListDestinations(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing destinations: %w", err)
	}
	c, err := catalog.New(rows)
	if err != nil {
		return nil, fmt.Errorf("building catalog from database: %w", err)
	}
	return c, nil
}

func newLanguageModel(ctx context.Context, cfg config.LLMConfig) (languageModel, func(), error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		opts := llm.Options{Model: cfg.OpenAIModel, Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}
		return llm.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIKey, opts, cfg.OpenAIEmbeddingModel), func() {}, nil
	default:
		opts := llm.Options{Model: cfg.GeminiModel, Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiKey, opts, cfg.GeminiEmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil
	}
}

// buildIndex embeds the corpus in the background; requests that need
// retrieval answer 503 until it finishes.
func buildIndex(ctx context.Context, index *retrieval.Index, docs []retrieval.Document, log *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("index build panicked", "recover", r)
		}
	}()
	start := time.Now()
	if err := index.Build(ctx, docs); err != nil {
		log.Error("building retrieval index failed", "err", err)
		return
	}
	log.Info("retrieval index ready", "documents", len(docs), "duration_ms", time.Since(start).Milliseconds())
}

// pgxPoolPinger adapts pgxpool.Pool to api.Pinger.
type pgxPoolPinger struct {
	pool *pgxpool.Pool
}

func (p *pgxPoolPinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// redisPingerAdapter adapts redis.Client to api.Pinger.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
