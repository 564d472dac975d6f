package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"equipmarket/internal/config"
	"equipmarket/internal/database"
	"equipmarket/internal/database/migrate"
	"equipmarket/internal/domain/catalog"
	"equipmarket/internal/events"
	"equipmarket/internal/server"
)

func main() {
	cfgPath := flag.String("config", "", "Configuration file (toml format)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if config.IsProdLike(cfg.AppEnv) {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.Database.URL, database.Options{LogQueries: cfg.Database.LogQueries})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := migrate.Run(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	opts := server.Options{}

	if rdb := catalog.DialRedis(cfg.Redis.URL); rdb != nil {
		defer rdb.Close()
		opts.Cache = catalog.NewRedisCache(rdb, catalog.CachePrefix, cfg.Redis.CacheTTL)
		log.Printf("catalog cache enabled ttl=%s", cfg.Redis.CacheTTL)
	}

	if cfg.AMQP.URL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Printf("Warning: event publisher disabled: %v", err)
		} else {
			defer pub.Close()
			opts.Publisher = pub
			log.Printf("event publisher enabled exchange=%s", cfg.AMQP.Exchange)
		}
	}

	app := server.New(cfg, db, opts)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("Server stopped")
}
