package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/lebelle-app/agenda-api/internal/config"
	dbpkg "github.com/lebelle-app/agenda-api/internal/db"
	"github.com/lebelle-app/agenda-api/internal/logger"
	"github.com/lebelle-app/agenda-api/internal/metrics"
	"github.com/lebelle-app/agenda-api/internal/routes"
)

func main() {

	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel, cfg.Environment, cfg.ServiceName)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	db := dbpkg.NewDB(cfg)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zlog.Fatal("failed to connect redis", zap.Error(err))
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Register()

	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, db, rdb, cfg, zlog)

	zlog.Info("server running", zap.String("addr", cfg.Addr()))
	if err := r.Run(cfg.Addr()); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}
