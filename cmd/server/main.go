package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tasterr/tasterr/internal/api"
	"github.com/tasterr/tasterr/internal/cache"
	"github.com/tasterr/tasterr/internal/config"
	"github.com/tasterr/tasterr/internal/db"
	"github.com/tasterr/tasterr/internal/middleware"
	"github.com/tasterr/tasterr/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	store, cleanup, err := openStore(cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer cleanup()

	var summaryCache cache.SummaryCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		summaryCache = cache.NewRedisSummaryCache(client)
		log.Printf("summary cache enabled at %s", cfg.RedisAddr)
	}

	signer := func(userID, role, email string, signedUp time.Time) (string, error) {
		return middleware.SignToken(cfg.JWTSecret, userID, role, email, signedUp, cfg.TokenTTL)
	}

	handler := api.NewRouter(api.Deps{
		Auth:           services.NewAuthService(store, signer),
		Surveys:        services.NewSurveyService(store),
		Responses:      services.NewResponseService(store),
		Summaries:      services.NewSummaryService(store),
		Exports:        services.NewExportService(store),
		SummaryCache:   summaryCache,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s (store: %s)", cfg.Addr, cfg.Store)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func openStore(cfg *config.Config) (services.Store, func(), error) {
	switch cfg.Store {
	case config.StoreMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(ctx, nil); err != nil {
			return nil, nil, err
		}
		store := db.NewMongoStore(client, cfg.MongoDB)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
		return store, cleanup, nil
	default:
		store, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(store.DB(), cfg.MigrationsDir); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
}
