package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/revdoll6/reddit-niche-finder/internal/api/handlers"
	"github.com/revdoll6/reddit-niche-finder/internal/cache"
	"github.com/revdoll6/reddit-niche-finder/internal/config"
	"github.com/revdoll6/reddit-niche-finder/internal/db"
	"github.com/revdoll6/reddit-niche-finder/internal/jobs"
	"github.com/revdoll6/reddit-niche-finder/internal/logging"
	"github.com/revdoll6/reddit-niche-finder/internal/reddit"
	"github.com/revdoll6/reddit-niche-finder/internal/search"
	"github.com/revdoll6/reddit-niche-finder/internal/telemetry"
	"github.com/revdoll6/reddit-niche-finder/internal/version"
)

func main() {
	configPath := flag.String("config", "nichefinder.yaml", "path to config file")
	flag.Parse()

	// .env is optional; environment variables win over the YAML file.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.InitDB(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// One store backs tokens and rate limit windows, another the search and
	// passthrough caches. Splitting them keeps a cache purge from dropping
	// live tokens.
	apiStore := cache.New()
	resultStore := cache.New()
	sessionStore := cache.New()

	tokens := reddit.NewTokenManager(apiStore)
	clients := reddit.NewFactory(database, tokens, apiStore, cfg.Reddit)
	orchestrator := search.New(sessionStore, resultStore)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := jobs.NewRunner(database, func(ownerID string) (jobs.Fetcher, error) {
		client, err := clients.ClientFor(ownerID)
		if err != nil {
			return nil, err
		}
		// The job paces itself; the shared window stays free for
		// interactive traffic.
		client.EnforceRateLimit(false)
		return client, nil
	}, cfg.Jobs.Workers)
	runner.Start(ctx)
	runner.Resume()

	r := chi.NewRouter()
	r.Use(logging.Middleware)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","version":"` + version.Version + `"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/reddit", func(r chi.Router) {
			r.Get("/search", handlers.SearchHandler(orchestrator, clients))
			r.Post("/search/session", handlers.StoreSessionHandler(orchestrator))
			r.Get("/search/session", handlers.SessionResultsHandler(orchestrator))
			r.Get("/subreddit/{name}", handlers.SubredditInfoHandler(clients, resultStore))
			r.Get("/subreddit/{name}/posts", handlers.SubredditPostsHandler(clients, resultStore))
			r.Get("/rate-limit", handlers.RateLimitStatusHandler(clients))
		})

		r.Route("/audiences", func(r chi.Router) {
			r.Get("/", handlers.ListAudiencesHandler(database))
			r.Post("/", handlers.CreateAudienceHandler(database, runner))
			r.Get("/{id}", handlers.GetAudienceHandler(database))
			r.Delete("/{id}", handlers.DeleteAudienceHandler(database))
			r.Get("/{id}/fetch-status", handlers.FetchStatusHandler(database))
			r.Get("/{id}/posts", handlers.AudiencePostsHandler(database))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/reddit", handlers.GetSettingsHandler(database))
			r.Post("/reddit", handlers.SaveSettingsHandler(database))
			r.Post("/reddit/test", handlers.TestConnectionHandler(database, clients))
		})
	})

	// Metrics stay on the main listener unless a dedicated address is set.
	if cfg.Server.MetricsAddr != "" {
		go func() {
			log.Printf("Metrics listening on %s", cfg.Server.MetricsAddr)
			if err := http.ListenAndServe(cfg.Server.MetricsAddr, telemetry.Handler()); err != nil {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	} else {
		r.Handle("/metrics", telemetry.Handler())
	}

	server := &http.Server{Addr: cfg.Server.Addr, Handler: r}
	go func() {
		<-ctx.Done()
		log.Println("Shutting down")
		_ = server.Shutdown(context.Background())
	}()

	log.Printf("Niche finder %s listening on %s", version.Version, cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
}
