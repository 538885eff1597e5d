package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // Postgres driver

	"github.com/aida/autonomy/internal/attribution"
	"github.com/aida/autonomy/internal/audit"
	"github.com/aida/autonomy/internal/autonomy"
	"github.com/aida/autonomy/internal/config"
	"github.com/aida/autonomy/internal/decision"
	"github.com/aida/autonomy/internal/engine"
	"github.com/aida/autonomy/internal/events"
	"github.com/aida/autonomy/internal/handlers"
	"github.com/aida/autonomy/internal/history"
	"github.com/aida/autonomy/internal/oracle"
	"github.com/aida/autonomy/internal/scoring"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("config load failed", "path", configPath, "error", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}
	if port == "" {
		port = "8080"
	}

	// Postgres backs the audit log, autonomy configs, and historical
	// patterns. The engine runs on in-memory stores when no URL is set.
	var db *sql.DB
	if env := cfg.Postgres.URLEnv; env != "" {
		if dbURL := os.Getenv(env); dbURL != "" {
			db, err = sql.Open("postgres", dbURL)
			if err != nil {
				slog.Error("postgres open failed", "error", err)
				os.Exit(1)
			}
			defer db.Close()
			if _, err := db.Exec(audit.Schema); err != nil {
				slog.Error("schema apply failed", "error", err)
				os.Exit(1)
			}
		}
	}

	var auditStore audit.Store
	var configStore autonomy.Store
	var patterns history.PatternStore
	var records history.RecordCounter
	if db != nil {
		auditStore = audit.NewPostgresStore(db)
		configStore = autonomy.NewPostgresStore(db)
		pg := history.NewPostgresStore(db)
		patterns = pg
		records = pg
		slog.Info("using postgres stores")
	} else {
		auditStore = audit.NewMemoryStore()
		configStore = autonomy.NewMemoryStore()
		mem := history.NewMemoryStore()
		patterns = mem
		records = mem
		slog.Warn("no postgres configured, using in-memory stores")
	}

	if cfg.Redis.Enabled {
		redisStore, err := autonomy.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, configStore)
		if err != nil {
			slog.Warn("redis unavailable, continuing without cache layer", "error", err)
		} else {
			configStore = redisStore
			defer redisStore.Close()
		}
	}

	var emitter events.EventEmitter
	if cfg.PubSub.Enabled {
		bus, err := events.NewPubSubBus(cfg.PubSub.ProjectID, cfg.PubSub.Topic)
		if err != nil {
			slog.Error("pubsub init failed", "error", err)
			os.Exit(1)
		}
		defer bus.Close()
		emitter = bus
	} else {
		emitter = events.NewBus()
	}

	var scoringOracle oracle.Oracle
	if cfg.Oracle.BaseURL != "" {
		scoringOracle = oracle.NewHTTPOracle(oracle.HTTPConfig{
			BaseURL: cfg.Oracle.BaseURL,
			APIKey:  os.Getenv(cfg.Oracle.APIKeyEnv),
			Model:   cfg.Oracle.Model,
			Timeout: cfg.Oracle.Timeout(),
		})
	}

	tables := scoring.DefaultTables()
	applyScoringConfig(tables, cfg.Scoring)

	scorers := scoring.NewSet(
		tables,
		attribution.NewService(attribution.DefaultTables()),
		scoringOracle,
		patterns,
		records,
		time.Now,
	)

	opts := []engine.Option{engine.WithMetrics(engine.NewMetrics())}
	if t, ok := riskFromConfig(cfg.Risk); ok {
		opts = append(opts, engine.WithRiskThresholds(t))
	}
	if p, ok := progressionFromConfig(cfg.Progression); ok {
		opts = append(opts, engine.WithProgressionPolicy(p))
	}

	eng := engine.New(scorers, autonomy.NewConfigCache(configStore), auditStore, emitter, opts...)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handlers.NewRouter(eng),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("autonomy engine listening", "port", port, "env", cfg.Server.Env)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// applyScoringConfig overlays configured weight tables onto the defaults.
func applyScoringConfig(tables *scoring.Tables, sc config.ScoringConfig) {
	for dt, weights := range sc.Weights {
		if len(weights) == 0 {
			continue
		}
		tables.Weights[decision.Type(dt)] = weights
	}
	if sc.HistoricalBlend > 0 {
		tables.HistoricalBlend = sc.HistoricalBlend
	}
}

func riskFromConfig(rc config.RiskConfig) (engine.RiskThresholds, bool) {
	if rc.HighValue == 0 && rc.StaleDays == 0 && rc.BulkRecipients == 0 {
		return engine.RiskThresholds{}, false
	}
	t := engine.DefaultRiskThresholds()
	if rc.HighValue > 0 {
		t.HighValue = rc.HighValue
	}
	if rc.StaleDays > 0 {
		t.StaleDays = rc.StaleDays
	}
	if rc.BulkRecipients > 0 {
		t.BulkRecipients = rc.BulkRecipients
	}
	return t, true
}

func progressionFromConfig(pc config.ProgressionConfig) (engine.ProgressionPolicy, bool) {
	if len(pc.Levels) == 0 {
		return nil, false
	}
	policy := engine.DefaultProgressionPolicy()
	for level, bar := range pc.Levels {
		policy[decision.AutonomyLevel(level)] = engine.LevelThreshold{
			Readiness:  bar.Readiness,
			Confidence: bar.Confidence,
		}
	}
	return policy, true
}
