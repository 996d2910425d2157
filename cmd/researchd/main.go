// Command researchd is the web research / claim-verification service.
// Adapted from the teacher's cmd/goresearch/main.go structure (flag/env
// config load, zerolog console writer setup, build collaborators, run) —
// generalized from one synchronous report-building run to a long-lived
// HTTP service backed by a worker pool.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/goresearch-verify/internal/capability"
	"github.com/hyperifyio/goresearch-verify/internal/claims"
	"github.com/hyperifyio/goresearch-verify/internal/config"
	"github.com/hyperifyio/goresearch-verify/internal/httpapi"
	"github.com/hyperifyio/goresearch-verify/internal/llmclient"
	"github.com/hyperifyio/goresearch-verify/internal/planner"
	"github.com/hyperifyio/goresearch-verify/internal/research"
	"github.com/hyperifyio/goresearch-verify/internal/searchclient"
	"github.com/hyperifyio/goresearch-verify/internal/store"
	"github.com/hyperifyio/goresearch-verify/internal/synthesize"
	"github.com/hyperifyio/goresearch-verify/internal/webenv"
	"github.com/hyperifyio/goresearch-verify/internal/worker"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("researchd exited")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	st, err := store.Open(ctx, store.Config{DatabaseURL: cfg.DatabaseURL})
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("researchd: invalid REDIS_URL, running without cache front")
		} else {
			st = st.WithRedis(&store.RedisCache{Client: redis.NewClient(opts)})
		}
	}

	llmClient, err := newLLMClient(cfg)
	if err != nil {
		return err
	}

	searchProvider := newSearchProvider(cfg)

	var searchLimiter *rate.Limiter
	if cfg.SearchRatePerSecond > 0 {
		searchLimiter = rate.NewLimiter(rate.Limit(cfg.SearchRatePerSecond), 1)
	}

	environment := &webenv.Environment{
		Search:        searchProvider,
		Fetch:         webenv.NewHTTPFetcher("goresearch-verify/1.0", 8*time.Second),
		Robots:        &webenv.RobotsManager{UserAgent: "goresearch-verify"},
		Blocked:       webenv.NewBlocklist(webenv.DefaultBlocklist),
		SearchLimiter: searchLimiter,
	}

	researchAgent := &research.Agent{
		Environment: environment,
		Extractor:   &claims.Extractor{Client: llmClient, Model: cfg.LLMModel},
		Reframer:    research.NewReframer(llmClient, cfg.LLMModel),
		MaxAttempts: cfg.MaxAttempts,
	}

	plannerAgent := &planner.Agent{
		Repos:    st,
		Research: researchAgent,
		Synth:    &synthesize.Synthesizer{Client: llmClient, Model: cfg.LLMModel},
		Budgets: planner.Budgets{
			MaxAttempts:    cfg.MaxAttempts,
			MaxSearches:    cfg.MaxSearches,
			BaseDocs:       cfg.BaseDocs,
			DocsStep:       cfg.DocsStep,
			SessionTimeout: cfg.SessionTimeout(),
		},
		CacheTTL: cfg.CacheTTL(),
	}

	pool, err := worker.NewPool(cfg.WorkerPoolSize, plannerAgent)
	if err != nil {
		return err
	}
	defer pool.Release()

	server := httpapi.New(st, pool, cfg.InternalTraceToken)
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: server.Handler()}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("researchd: listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("researchd: http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("researchd: shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newSearchProvider selects the SearchProvider backend per SEARCH_PROVIDER
// ("google", the default, or "searxng"), mirroring newLLMClient's
// env-knob-selects-an-implementation pattern.
func newSearchProvider(cfg config.Config) capability.SearchProvider {
	switch cfg.SearchProvider {
	case "searxng":
		return &webenv.SearxNGProvider{
			BaseURL:   cfg.SearchEndpoint,
			APIKey:    cfg.SearchAPIKey,
			UserAgent: "goresearch-verify/1.0",
		}
	default:
		return &searchclient.Google{
			APIKey:   cfg.SearchAPIKey,
			EngineID: cfg.SearchEngineID,
			Endpoint: cfg.SearchEndpoint,
		}
	}
}

func newLLMClient(cfg config.Config) (capability.LLMClient, error) {
	switch cfg.LLMProvider {
	case "anthropic":
		return llmclient.NewAnthropic(cfg.LLMAPIKey, 1024)
	default:
		return llmclient.NewOpenAI(cfg.LLMAPIKey, "")
	}
}
