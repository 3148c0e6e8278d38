package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/yudswin/nettube/internal/api"
	"github.com/yudswin/nettube/internal/cache"
	"github.com/yudswin/nettube/internal/config"
	"github.com/yudswin/nettube/internal/embedding"
	"github.com/yudswin/nettube/internal/server"
	"github.com/yudswin/nettube/internal/service"
	"github.com/yudswin/nettube/internal/session"
	"github.com/yudswin/nettube/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Optional config file path (YAML); else use env NETTUBE_UPSTREAM_URL")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	sess, err := session.New(cfg.TokenFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "session: %v\n", err)
		os.Exit(1)
	}
	upstream := api.New(cfg.UpstreamURL, sess, cfg.UserAgent, cfg.Timeout)

	// The Postgres mirror is optional; without it every read is proxied
	// to the upstream.
	var appStore store.Store
	var pg *store.Postgres
	if cfg.DatabaseURL != "" {
		absMigrations, err := filepath.Abs("migrations")
		if err != nil {
			absMigrations = "migrations"
		}
		if _, err := os.Stat(absMigrations); err != nil {
			if exe, e := os.Executable(); e == nil {
				absMigrations = filepath.Join(filepath.Dir(exe), "migrations")
			}
		}
		// Ensure pgvector extension exists before running migrations.
		if err := store.EnsurePgvector(cfg.DatabaseURL); err != nil {
			fmt.Fprintf(os.Stderr, "pgvector: %v\n", err)
			os.Exit(1)
		}
		if err := store.RunMigrations(cfg.DatabaseURL, "file://"+absMigrations); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}

		pg, err = store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "db: %v\n", err)
			os.Exit(1)
		}
		defer pg.Close()
		appStore = pg
		fmt.Fprintln(os.Stderr, "catalog mirror enabled (Postgres)")
	} else {
		fmt.Fprintln(os.Stderr, "catalog mirror disabled (DATABASE_URL not set)")
	}

	// Create embedding client if VOYAGE_API_KEY is configured.
	var embedder service.Embedder
	if cfg.VoyageAPIKey != "" && appStore != nil {
		embedder = embedding.NewClient(cfg.VoyageAPIKey, cfg.VoyageModel)
		fmt.Fprintln(os.Stderr, "semantic search enabled (VoyageAI)")
	} else {
		fmt.Fprintln(os.Stderr, "semantic search disabled (needs VOYAGE_API_KEY and DATABASE_URL)")
	}

	// Connect to Redis if REDIS_URL is configured.
	var rds *cache.Redis
	if cfg.RedisURL != "" {
		rds, err = cache.New(cfg.RedisURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			os.Exit(1)
		}
		defer rds.Close()

		if err := rds.Ping(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "redis ping: %v\n", err)
			os.Exit(1)
		}

		if appStore != nil {
			appStore = store.NewCachedStore(pg, rds)
		}
		fmt.Fprintln(os.Stderr, "redis connected (caching enabled)")
	} else {
		fmt.Fprintln(os.Stderr, "redis disabled (REDIS_URL not set)")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background embedding job worker needs Redis, the mirror and the embedder.
	if rds != nil && embedder != nil {
		go service.EmbedWorker(ctx, rds, appStore, embedder)
	}

	srv := server.New(upstream, sess, cfg, appStore, rds, embedder)
	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}
