package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"medtriage/internal/core"
	"medtriage/internal/db"
	httpserver "medtriage/internal/http"
	"medtriage/internal/llm"

	_ "github.com/lib/pq"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Generative backend timeout, default 20s
	timeout := 20 * time.Second
	if v := os.Getenv("TRIAGE_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}

	// Red-flag override policy: embedded default unless a file is given
	policy := core.DefaultPolicy()
	if path := os.Getenv("TRIAGE_POLICY_FILE"); path != "" {
		policy, err = core.LoadPolicy(path)
		if err != nil {
			logger.Fatal("failed to load override policy", zap.String("path", path), zap.Error(err))
		}
		logger.Info("loaded override policy", zap.String("path", path), zap.Int("red_flags", len(policy.RedFlags)))
	}

	// Postgres is optional: without DATABASE_URL the service runs on the
	// in-memory store and the collaborator endpoints answer 503.
	var (
		store    core.ReportStore
		profiles core.ProfileSource
		repo     *db.Repository
	)
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL != "" {
		dbConn, err := sql.Open("postgres", dbURL)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := dbConn.PingContext(ctx); err != nil {
			cancel()
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		cancel()
		if err := db.Migrate(context.Background(), dbConn); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}

		channel := os.Getenv("POSTGRES_NOTIFY_CHANNEL")
		if channel == "" {
			channel = "urgent_reports"
		}
		notifier := db.NewNotifier(dbConn, dbURL, channel)
		repo = db.NewRepository(dbConn, notifier, logger)
		store = repo
		profiles = repo
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory report store")
		store = core.NewMemStore()
	}

	// Generative classifier is optional too: without an API key the engine
	// is rule-only.
	var backend core.Backend
	if os.Getenv("OPENAI_API_KEY") != "" {
		backend = llm.NewOpenAIClient()
	} else {
		logger.Warn("OPENAI_API_KEY not set, running rule-based classification only")
	}

	engine := core.NewEngine(backend, store, profiles, policy, timeout, logger)
	srv := httpserver.NewServer(engine, repo, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port
	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, srv.Router()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
