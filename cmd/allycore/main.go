// Student Ally Core - alumni relations API
//
// This is the main entry point for the Student Ally backend. It serves the
// user and administrator authentication flows and the alumni, job, event,
// donation, mentorship and success story resources over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	_ "github.com/student-ally/ally-core/migrations"

	"github.com/student-ally/ally-core/internal/alumni"
	"github.com/student-ally/ally-core/internal/api"
	"github.com/student-ally/ally-core/internal/audit"
	"github.com/student-ally/ally-core/internal/auth"
	"github.com/student-ally/ally-core/internal/donations"
	"github.com/student-ally/ally-core/internal/events"
	"github.com/student-ally/ally-core/internal/infrastructure/config"
	"github.com/student-ally/ally-core/internal/infrastructure/database"
	"github.com/student-ally/ally-core/internal/infrastructure/influxdb"
	"github.com/student-ally/ally-core/internal/infrastructure/logging"
	"github.com/student-ally/ally-core/internal/infrastructure/mqtt"
	"github.com/student-ally/ally-core/internal/infrastructure/redis"
	"github.com/student-ally/ally-core/internal/jobs"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// rateLimitWindow is the fixed window behind requests_per_minute.
const rateLimitWindow = time.Minute

func main() {
	// Cancel on Ctrl+C or SIGTERM so deferred cleanup runs.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Student Ally Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(ctx, database.Config{
		Driver:       cfg.Database.Driver,
		Path:         cfg.Database.Path,
		DSN:          cfg.Database.DSN,
		WALMode:      cfg.Database.WALMode,
		BusyTimeout:  cfg.Database.BusyTimeout,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "driver", db.Driver())

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	tokens, err := auth.NewTokenService(
		auth.TokenConfig{Secret: cfg.Security.JWT.AccessSecret, TTL: cfg.Security.AccessTokenTTL()},
		auth.TokenConfig{Secret: cfg.Security.JWT.RefreshSecret, TTL: cfg.Security.RefreshTokenTTL()},
	)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	hasher := auth.NewBcryptHasher(cfg.Security.BcryptCost)

	users := auth.NewUserRepository(db.DB)
	admins := auth.NewAdminRepository(db.DB)
	if _, seedErr := auth.SeedSuperadmin(ctx, admins, hasher, cfg.Bootstrap.Superadmin, log); seedErr != nil {
		return fmt.Errorf("seeding superadmin: %w", seedErr)
	}

	deps := api.Deps{
		Server:    cfg.Server,
		Security:  cfg.Security,
		Metrics:   cfg.Metrics,
		Logger:    log,
		Version:   version,
		Tokens:    tokens,
		Hasher:    hasher,
		Users:     users,
		Admins:    admins,
		Alumni:    alumni.NewRepository(db.DB),
		Stories:   alumni.NewStoryRepository(db.DB),
		Jobs:      jobs.NewRepository(db.DB),
		Events:    events.NewRepository(db.DB),
		Donations: donations.NewRepository(db.DB),
		DB:        db,
		AuditRepo: audit.NewRepository(db.DB),
	}

	// Redis backs the credential endpoint rate limiter (optional)
	if cfg.Security.RateLimit.Enabled {
		redisClient, redisErr := redis.Connect(ctx, cfg.Redis)
		if redisErr != nil {
			return fmt.Errorf("connecting to Redis: %w", redisErr)
		}
		defer closeRedis(redisClient, log)
		deps.Limiter = redis.NewLimiter(redisClient, cfg.Security.RateLimit.RequestsPerMinute, rateLimitWindow)
		log.Info("rate limiting enabled",
			"redis", cfg.Redis.Addr,
			"requests_per_minute", cfg.Security.RateLimit.RequestsPerMinute,
		)
	} else {
		log.Info("rate limiting disabled")
	}

	// MQTT carries domain events (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		mqttClient.SetLogger(log)
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		deps.Publisher = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB records engagement metrics (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		deps.Engagement = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	srv, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case err := <-srv.Errors():
			return fmt.Errorf("API server: %w", err)
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, cleaning up")
		return srv.Close()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("Student Ally Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ALLY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ALLY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

func closeRedis(client *goredis.Client, log *logging.Logger) {
	log.Info("closing Redis connection")
	if err := client.Close(); err != nil {
		log.Error("error closing Redis", "error", err)
	}
}
