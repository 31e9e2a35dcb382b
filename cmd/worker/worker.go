package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/haqnow/archive/internal/catalog"
	"github.com/haqnow/archive/internal/config"
	"github.com/haqnow/archive/internal/embedding"
	"github.com/haqnow/archive/internal/llm"
	"github.com/haqnow/archive/internal/logger"
	"github.com/haqnow/archive/internal/objectstore"
	"github.com/haqnow/archive/internal/ocr"
	"github.com/haqnow/archive/internal/queue"
	"github.com/haqnow/archive/internal/summariser"
	"github.com/haqnow/archive/internal/telemetry"
	"github.com/haqnow/archive/internal/vectorstore"
)

const (
	pollInterval      = 15 * time.Second
	reconcileInterval = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)
	logger.Info("Worker starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := catalog.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to Postgres:", err)
	}
	defer store.Close()

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

	shutdownTracer, err := telemetry.InitTracer("haqnow-archive-worker", cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("Failed to initialize tracing", "error", err)
	} else {
		defer shutdownTracer()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Failed to initialize metrics", "error", err)
	}

	translatorURL := ""
	if cfg.TranslatorEnabled {
		translatorURL = cfg.TranslatorURL
	}
	engine := ocr.NewEngine(llmClient, translatorURL)
	engine.CheckTranslatorHealth(ctx)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	queueClient := asynq.NewClient(redisOpt)
	defer queueClient.Close()

	vectors := vectorstore.New(store.Pool())
	q := queue.New(store, queueClient, cfg.QueueMaxActiveJobs, cfg.JobMaxRetries)
	summ := summariser.New(llmClient)
	processor := queue.NewProcessor(q, store, vectors, objects, engine, summ, embedder, metrics)
	reconciler := queue.NewReconciler(store, vectors)

	// Backstop loops: the poller re-claims jobs whose asynq wakeup was
	// lost (Redis outage, retry-after-fail), and the reconciler enforces
	// the "no chunks for non-approved documents" invariant.
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				processor.Poll(ctx)
			}
		}
	}()
	go reconciler.Run(ctx, reconcileInterval)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskProcessDocument, processor.HandleTask)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Worker shutting down")
		cancel()
		server.Shutdown()
	}()

	logger.Info("Starting asynq worker", "redis", redisOpt.Addr)
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
