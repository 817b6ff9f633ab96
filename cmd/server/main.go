// Package main runs the live Q&A HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/liveq-app/backend/config"
	"github.com/liveq-app/backend/internal/events"
	"github.com/liveq-app/backend/internal/middleware"
	"github.com/liveq-app/backend/internal/questions"
	"github.com/liveq-app/backend/internal/store"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	var st store.Store
	switch cfg.Store.Backend {
	case "dynamodb":
		st, err = store.NewDynamo(ctx, store.DynamoConfig{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			EventsTable:     cfg.Store.EventsTable,
			QuestionsTable:  cfg.Store.QuestionsTable,
			TopIndex:        cfg.Store.TopIndex,
		}, logger)
		if err != nil {
			logger.Fatal("dynamodb", zap.Error(err))
		}
	case "memory":
		st = store.NewMemory()
		logger.Warn("using in-memory store; data will not survive a restart")
	default:
		logger.Fatal("unknown store backend", zap.String("backend", cfg.Store.Backend))
	}

	eventHandler := events.NewHandler(st, cfg.Ranking.TopN, logger)
	questionHandler := questions.NewHandler(st, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.POST("/event", eventHandler.Create)
	router.GET("/event/:eid", eventHandler.Get)
	router.POST("/event/:eid", questionHandler.Ask)
	router.GET("/event/:eid/questions", eventHandler.List)
	router.GET("/event/:eid/questions/:secret", eventHandler.ListAll)
	router.POST("/event/:eid/questions/:secret/:qid/toggle/:property", questionHandler.Toggle)
	router.POST("/vote/:qid/:updown", questionHandler.Vote)
	router.GET("/question/:qid", questionHandler.Get)
	router.GET("/questions/:qids", questionHandler.BatchGet)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
