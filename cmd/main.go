// cmd/main.go
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
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/haqnow/archive/internal/catalog"
	"github.com/haqnow/archive/internal/config"
	"github.com/haqnow/archive/internal/embedding"
	"github.com/haqnow/archive/internal/llm"
	"github.com/haqnow/archive/internal/logger"
	"github.com/haqnow/archive/internal/moderation"
	"github.com/haqnow/archive/internal/objectstore"
	"github.com/haqnow/archive/internal/queue"
	"github.com/haqnow/archive/internal/rag"
	"github.com/haqnow/archive/internal/ratelimit"
	"github.com/haqnow/archive/internal/sanitiser"
	"github.com/haqnow/archive/internal/search"
	"github.com/haqnow/archive/internal/telemetry"
	"github.com/haqnow/archive/internal/vectorstore"
	"github.com/haqnow/archive/middleware"
	"github.com/haqnow/archive/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)
	logger.Info("Application starting", "gin_mode", cfg.GinMode, "port", cfg.Port)

	ctx := context.Background()

	store, err := catalog.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to Postgres:", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatal("Failed to apply schema:", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable at startup; rate limits fail open until it returns", "error", err)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	queueClient := asynq.NewClient(redisOpt)
	defer queueClient.Close()

	objects, err := objectstore.New(ctx, objectstore.Config{
		Endpoint:      cfg.S3Endpoint,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		UseSSL:        cfg.S3UseSSL,
		PublicURLBase: cfg.S3PublicURLBase,
	})
	if err != nil {
		log.Fatal("Failed to connect to object store:", err)
	}

	llmClient, err := llm.NewClient(ctx, llm.Config{
		APIKey:            cfg.GeminiAPIKey,
		Model:             cfg.GeminiModel,
		RequestsPerMinute: cfg.GeminiRPM,
	})
	if err != nil {
		log.Fatal("Failed to initialize LLM client:", err)
	}
	defer llmClient.Close()

	embedder, err := embedding.NewClient(ctx, cfg.GeminiAPIKey, cfg.EmbeddingsModel)
	if err != nil {
		log.Fatal("Failed to initialize embedding client:", err)
	}
	defer embedder.Close()

	shutdownTracer, err := telemetry.InitTracer("haqnow-archive", cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("Failed to initialize tracing", "error", err)
	} else {
		defer shutdownTracer()
		logger.Info("OpenTelemetry tracing initialized")
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Failed to initialize metrics", "error", err)
	}

	limiter := ratelimit.New(rdb)
	san := sanitiser.New(sanitiser.NewSignatureScanner(sanitiser.EICARSignatures()))
	vectors := vectorstore.New(store.Pool())
	q := queue.New(store, queueClient, cfg.QueueMaxActiveJobs, cfg.JobMaxRetries)
	reconciler := queue.NewReconciler(store, vectors)
	searchEngine := search.New(store, embedder)
	answerer := rag.New(store, vectors, embedder, llmClient)
	mod := moderation.New(store, time.Duration(cfg.CommentRateLimitWindow)*time.Second, cfg.CommentsPerDocumentCap)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered", "error", recovered, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error_code": "internal",
			"message":    "an unexpected error occurred",
		})
		c.Abort()
	}))
	router.MaxMultipartMemory = cfg.MaxFileSize

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware("haqnow-archive"))
	router.Use(middleware.EnrichTrace())
	if metrics != nil {
		router.Use(middleware.MetricsMiddleware(metrics))
	}
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RequestSizeLimit(cfg.MaxFileSize + (10 << 20)))
	router.Use(middleware.APIKeyMiddleware(store))

	router.GET("/health", func(c *gin.Context) {
		health := gin.H{"status": "healthy", "timestamp": time.Now()}

		checkCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Pool().Ping(checkCtx); err != nil {
			health["status"] = "unhealthy"
			health["postgres"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, health)
			return
		}
		health["postgres"] = "healthy"

		if err := rdb.Ping(checkCtx).Err(); err != nil {
			health["redis"] = "degraded"
		} else {
			health["redis"] = "healthy"
		}
		c.JSON(http.StatusOK, health)
	})

	// Public write surface
	router.POST("/upload", routes.HandleUpload(cfg, store, objects, san, limiter))
	router.POST("/upload-multiple", routes.HandleUploadMultiple(cfg, store, objects, san, limiter))

	// Public read surface
	router.GET("/search", routes.HandleSearch(store, searchEngine))
	router.GET("/document/:id", routes.HandleGetDocument(cfg, store, limiter))
	router.GET("/download/:id", routes.HandleDownload(cfg, store, objects, limiter))
	router.GET("/jobs/:id", routes.HandleJobStatus(store, q))

	// Anonymous moderation overlay
	router.POST("/documents/:id/comments", routes.HandleCreateComment(mod))
	router.GET("/documents/:id/comments", routes.HandleListComments(mod))
	router.DELETE("/comments/:id", routes.HandleDeleteComment(mod, false))
	router.POST("/comments/:id/flag", routes.HandleFlagComment(mod))
	router.POST("/documents/:id/annotations", routes.HandleCreateAnnotation(mod))
	router.GET("/documents/:id/annotations", routes.HandleListAnnotations(mod))
	router.DELETE("/annotations/:id", routes.HandleDeleteAnnotation(mod, false))

	// RAG
	router.POST("/rag/question", routes.HandleRAGQuestion(answerer))
	router.POST("/rag/document-question", routes.HandleRAGDocumentQuestion(answerer))

	// Admin surface (auth itself is an external collaborator; the token
	// gate only separates planes)
	admin := router.Group("/admin", middleware.AdminAuthMiddleware(cfg.AdminToken))
	{
		admin.GET("/queue/stats", routes.HandleQueueStats(store))
		admin.GET("/queue/failed", routes.HandleFailedJobs(store))
		admin.POST("/documents/:id/approve", routes.HandleApproveDocument(store, q))
		admin.POST("/documents/:id/reject", routes.HandleRejectDocument(store, reconciler))
		admin.DELETE("/documents/:id", routes.HandleDeleteDocument(store, objects, reconciler))
		admin.DELETE("/comments/:id", routes.HandleDeleteComment(mod, true))
		admin.DELETE("/annotations/:id", routes.HandleDeleteAnnotation(mod, true))
		admin.GET("/banned-words", routes.HandleListBannedWords(store))
		admin.POST("/banned-words", routes.HandleBanWord(store, mod))
		admin.DELETE("/banned-words/:word", routes.HandleUnbanWord(store, mod))
		admin.POST("/banned-tags", routes.HandleBanTag(store))
		admin.DELETE("/banned-tags/:tag", routes.HandleUnbanTag(store))
		admin.POST("/api-keys", routes.HandleCreateAPIKey(store))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
	logger.Info("Server exited")
}
