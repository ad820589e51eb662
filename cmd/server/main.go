// Package main - Entry point for the fleet-admin tier engine server
package main

import (
	"database/sql"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fleet-admin/api"
	"fleet-admin/core/audit"
	"fleet-admin/core/directory"
	"fleet-admin/core/events"
	"fleet-admin/core/tier"
	"fleet-admin/core/transition"
	"fleet-admin/internal/config"
	"fleet-admin/internal/logging"
)

const version = "1.0.0"

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	flag.Parse()

	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			logging.Fatal("loading config", zap.String("path", *cfgPath), zap.Error(err))
		}
		cfg = loaded
		config.Set(cfg)
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		logging.Fatal("initializing logging", zap.Error(err))
	}
	defer logging.Sync()

	policy, err := loadPolicy(cfg)
	if err != nil {
		logging.Fatal("loading tier policy", zap.Error(err))
	}

	dir, sink, db := buildStores(cfg)
	if db != nil {
		defer db.Close()
	}

	opts := []transition.Option{}
	if locker := buildLocker(cfg); locker != nil {
		opts = append(opts, transition.WithLocker(locker))
	}
	if url := natsURL(cfg); url != "" {
		publisher, err := events.NewPublisher(url, cfg.Events.SubjectPrefix)
		if err != nil {
			logging.Fatal("connecting to NATS", zap.String("url", url), zap.Error(err))
		}
		defer publisher.Close()
		opts = append(opts, transition.WithNotifier(publisher))
	}

	orch := transition.NewOrchestrator(policy, dir, sink, opts...)
	server := api.NewServer(version, orch, dir, policy)

	listen := cfg.Server.Addr
	if *addr != "" {
		listen = *addr
	}
	httpServer := &http.Server{
		Addr:         listen,
		Handler:      server,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	logging.Info("fleet-admin tier engine listening",
		zap.String("addr", listen),
		zap.String("version", version),
		zap.String("policy_version", policy.Version))
	if err := httpServer.ListenAndServe(); err != nil {
		logging.Fatal("server exited", zap.Error(err))
	}
}

func loadPolicy(cfg *config.Config) (*tier.Policy, error) {
	if cfg.Policy.Path != "" {
		return tier.LoadFile(cfg.Policy.Path)
	}
	policy := tier.Default()
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}

// buildStores returns the operator directory and audit sink, Postgres-backed
// when a DSN is configured and in-memory otherwise
func buildStores(cfg *config.Config) (directory.Directory, audit.Sink, *sql.DB) {
	dsn := cfg.Database.DSN
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		logging.Warn("no database configured, using in-memory stores")
		return directory.NewMemoryDirectory(), audit.NewMultiSink(audit.NewMemorySink(), audit.NewLogSink()), nil
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logging.Fatal("opening database", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	if err := db.Ping(); err != nil {
		logging.Fatal("pinging database", zap.Error(err))
	}

	sink := audit.NewMultiSink(audit.NewPostgresSink(db), audit.NewLogSink())
	return directory.NewPostgresDirectory(db), sink, db
}

func buildLocker(cfg *config.Config) transition.Locker {
	if cfg.Locks.Backend != "redis" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Locks.RedisAddr})
	wait := time.Duration(cfg.Locks.WaitMS) * time.Millisecond
	ttl := time.Duration(cfg.Locks.TTLSeconds) * time.Second
	return transition.NewRedisLocker(client, wait, ttl)
}

func natsURL(cfg *config.Config) string {
	if cfg.Events.NATSURL != "" {
		return cfg.Events.NATSURL
	}
	return os.Getenv("NATS_URL")
}
