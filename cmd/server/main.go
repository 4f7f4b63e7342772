package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/engdata/equipsync/api/handlers"
	"github.com/engdata/equipsync/api/routes"
	"github.com/engdata/equipsync/config"
	"github.com/engdata/equipsync/internal/store"
	"github.com/engdata/equipsync/pkg/logger"
	"github.com/engdata/equipsync/pkg/queue"
)

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/server.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal("Failed to load config", logger.Error(err))
	}

	db, err := store.Open(&store.Config{
		Dialect: cfg.Store.Dialect,
		DSN:     cfg.Store.DSN,
	}, log)
	if err != nil {
		log.Fatal("Failed to open store", logger.Error(err))
	}

	q, err := queue.NewAsynqQueue(&queue.Config{
		RedisAddr: cfg.Redis.Addr,
		RedisDB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Failed to connect queue", logger.Error(err))
	}
	defer q.Close()

	h := handlers.NewHandlers(
		q,
		store.NewCatalogRepo(db, log),
		store.NewVersionRepo(db, log),
		log,
	)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h)

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		log.Info("Server starting on port 8080")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}
