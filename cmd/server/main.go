package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/douanenc/backend/internal/audit"
	"github.com/douanenc/backend/internal/config"
	"github.com/douanenc/backend/internal/database"
	"github.com/douanenc/backend/internal/handlers"
	"github.com/douanenc/backend/internal/jobs"
	"github.com/douanenc/backend/internal/middleware"
	"github.com/douanenc/backend/internal/queue"
	"github.com/douanenc/backend/internal/routes"
	"github.com/douanenc/backend/internal/services/control"
	"github.com/douanenc/backend/internal/services/document"
	"github.com/douanenc/backend/internal/services/pdf"
	"github.com/douanenc/backend/internal/services/schema"
	"github.com/douanenc/backend/internal/services/stats"
	"github.com/douanenc/backend/internal/services/sydonia"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.URL,
		DB:   cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	renderer, err := pdf.NewRenderer(cfg.PDF.StorageDir)
	if err != nil {
		log.Fatalf("Failed to initialize PDF storage: %v", err)
	}

	jobQueue := queue.NewQueue(db, queue.NewRedisQueue(redisClient))
	jobs.RegisterRenderJobHandlers(jobQueue, db, renderer)

	worker := queue.NewWorker(jobQueue, 2)
	worker.Start()

	scheduler := jobs.StartReconciliation(db, jobQueue)

	auditor := audit.NewLogger(db)
	sydoniaClient := sydonia.NewClient(cfg.Sydonia)

	documentService := document.NewService(db, auditor, jobQueue)
	controlService := control.NewService(db, auditor, renderer, sydoniaClient, jobQueue)
	schemaService := schema.NewService(db, auditor)
	statsService := stats.NewService(db)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	rateLimiter := middleware.NewRateLimiter(20, 10, 40, 10)
	defer rateLimiter.Stop()

	tokenDuration := time.Duration(cfg.JWT.Expiration) * time.Minute
	routes.Register(router, routes.Handlers{
		Auth:         handlers.NewAuthHandler(db, auditor, tokenDuration),
		MFA:          handlers.NewMFAHandler(db, auditor),
		Document:     handlers.NewDocumentHandler(documentService, renderer),
		Control:      handlers.NewControlHandler(controlService),
		Fine:         handlers.NewFineHandler(controlService),
		Template:     handlers.NewTemplateHandler(schemaService),
		DocumentType: handlers.NewDocumentTypeHandler(schemaService),
		Stats:        handlers.NewStatsHandler(statsService),
		Sydonia:      handlers.NewSydoniaHandler(sydoniaClient),
	}, rateLimiter, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	scheduler.Stop()
	worker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
