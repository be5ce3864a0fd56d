package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Mylifeforrent/react-management-backend/pkg/api"
	"github.com/Mylifeforrent/react-management-backend/pkg/auth"
	"github.com/Mylifeforrent/react-management-backend/pkg/config"
	"github.com/Mylifeforrent/react-management-backend/pkg/models"
	"github.com/Mylifeforrent/react-management-backend/pkg/observability"
	"github.com/Mylifeforrent/react-management-backend/pkg/store"
)

var seed = flag.Bool("seed", false, "Seed demo accounts and exit")

// demo accounts created by --seed; passwords line up with the pre-hash
// candidate list
var demoAccounts = []struct {
	username string
	password string
	role     models.Role
}{
	{"admin", "admin123", models.RoleAdmin},
	{"testuser", "test123", models.RoleUser},
	{"editor", "editor123", models.RoleEditor},
}

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := newLogger(cfg.Log)

	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.WithError(err).Fatal("failed to ping database")
	}

	users := store.NewSQLStore(db, store.Dialect(cfg.Database.Driver))
	if err := users.EnsureSchema(context.Background()); err != nil {
		log.WithError(err).Fatal("failed to ensure database schema")
	}

	if *seed {
		seedDemoAccounts(log, users)
		return
	}

	tokens := auth.NewTokenService([]byte(cfg.Auth.JWTSecret), users)
	tokens.SetTTLs(time.Duration(cfg.Auth.SessionTTL), time.Duration(cfg.Auth.ResetTTL))

	guard, err := newReplayGuard(cfg.Auth)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize replay guard")
	}

	server := api.NewServer(api.Options{
		Users:   users,
		Tokens:  tokens,
		PreHash: auth.NewPreHashVerifier(cfg.Auth.PasswordCandidates),
		Replay:  guard,
		Metrics: observability.NewMetrics(),
		Log:     log,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout),
	}

	go func() {
		log.WithField("addr", httpServer.Addr).Info("server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("server stopped")
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func newReplayGuard(cfg config.AuthConfig) (auth.ReplayGuard, error) {
	if cfg.ReplayBackend != "redis" {
		return auth.NewMemoryReplayGuard(), nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return auth.NewRedisReplayGuard(client), nil
}

func seedDemoAccounts(log logrus.FieldLogger, users store.UserStore) {
	ctx := context.Background()
	for _, account := range demoAccounts {
		if _, err := users.FindByUsername(ctx, account.username); err == nil {
			log.WithField("username", account.username).Info("demo account already exists")
			continue
		}
		hash, err := auth.HashPassword(account.password)
		if err != nil {
			log.WithError(err).Fatal("failed to hash demo password")
		}
		user := &models.User{
			Username:     account.username,
			Email:        account.username + "@example.com",
			PasswordHash: hash,
			Role:         account.role,
			Status:       models.StatusActive,
		}
		if err := users.Create(ctx, user); err != nil {
			log.WithError(err).WithField("username", account.username).Fatal("failed to seed demo account")
		}
		log.WithFields(logrus.Fields{"username": account.username, "role": account.role}).
			Info("demo account created")
	}
}
