package main

// @title           cat-core API
// @version         1.0
// @description     Translation editor core: sessions over TM-matched segments, translation memories, termbase, QA and TMX/XLIFF exchange.

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/catforge/cat-core/internal/adapters/driven/exchange"
	"github.com/catforge/cat-core/internal/adapters/driven/memory"
	"github.com/catforge/cat-core/internal/adapters/driven/postgres"
	postgresqueue "github.com/catforge/cat-core/internal/adapters/driven/queue/postgres"
	redisqueue "github.com/catforge/cat-core/internal/adapters/driven/queue/redis"
	redisadapter "github.com/catforge/cat-core/internal/adapters/driven/redis"
	"github.com/catforge/cat-core/internal/adapters/driving/http"
	"github.com/catforge/cat-core/internal/config"
	"github.com/catforge/cat-core/internal/core/matching"
	"github.com/catforge/cat-core/internal/core/ports/driven"
	"github.com/catforge/cat-core/internal/core/services"
	"github.com/catforge/cat-core/internal/metrics"
	"github.com/catforge/cat-core/internal/runtime"
	"github.com/catforge/cat-core/internal/worker"
)

var version = "dev"

// pingFunc adapts a health probe to runtime.Pinger
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	// a command line argument overrides RUN_MODE
	if len(os.Args) > 1 {
		cfg.RunMode = os.Args[1]
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
	}

	log.Printf("cat-core %s starting in %s mode", version, cfg.RunMode)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutdown signal received, stopping...")
		cancel()
	}()

	// ===== Initialize PostgreSQL =====
	log.Println("Connecting to PostgreSQL...")
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.DB.ConnMaxIdleTime,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Println("PostgreSQL connected and schema initialized")

	rt := runtime.NewServices(cfg.Editor)
	rt.RegisterBackend("postgres", db)

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := rt.ValidateAndRegister(ctx, "redis", pingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	// ===== Task queue, snapshots and lock (Redis if available, otherwise PostgreSQL) =====
	var (
		taskQueue driven.TaskQueue
		snapshots driven.SessionSnapshotStore
		lock      driven.DistributedLock
	)
	if redisClient != nil {
		queue, err := redisqueue.NewQueue(ctx, redisClient, fmt.Sprintf("worker-%d", os.Getpid()))
		if err != nil {
			log.Fatalf("Failed to create Redis task queue: %v", err)
		}
		taskQueue = queue
		snapshots = redisadapter.NewSnapshotStore(redisClient, cfg.SnapshotTTL)
		lock = redisadapter.NewLock(redisClient)
		log.Println("Using Redis task queue and snapshot store")
	} else {
		taskQueue = postgresqueue.NewQueue(db.DB)
		store, err := memory.NewSnapshotStore(cfg.SnapshotCapacity)
		if err != nil {
			log.Fatalf("Failed to create snapshot store: %v", err)
		}
		snapshots = store
		lock = postgres.NewLeaseLock(db)
		log.Println("Using PostgreSQL task queue and in-memory snapshot store")
	}
	defer taskQueue.Close()
	rt.RegisterBackend("queue", taskQueue)

	// ===== PostgreSQL Stores =====
	tmStore := postgres.NewTMStore(db)
	termbaseStore := postgres.NewTermbaseStore(db)
	clientStore := postgres.NewClientStore(db)

	var wg sync.WaitGroup

	switch cfg.RunMode {
	case config.ModeAPI:
		runAPI(ctx, cfg, taskQueue, snapshots, tmStore, termbaseStore, clientStore, rt)

	case config.ModeWorker:
		runWorkerMode(ctx, cfg, taskQueue, lock, tmStore)

	case config.ModeAll:
		wg.Add(1)
		go func() {
			defer wg.Done()
			runWorkerMode(ctx, cfg, taskQueue, lock, tmStore)
		}()
		runAPI(ctx, cfg, taskQueue, snapshots, tmStore, termbaseStore, clientStore, rt)
	}

	// the API may return on a listen error before any signal arrives
	cancel()
	wg.Wait()
	log.Println("cat-core stopped")
}

func runAPI(
	ctx context.Context,
	cfg *config.Config,
	taskQueue driven.TaskQueue,
	snapshots driven.SessionSnapshotStore,
	tmStore driven.TMStore,
	termbaseStore driven.TermbaseStore,
	clientStore driven.ClientStore,
	rt *runtime.Services,
) {
	logger := slog.Default()

	// Intents are buffered in memory and drained to the task queue
	dispatcher := services.NewIntentDispatcher(services.IntentDispatcherConfig{
		Queue:      taskQueue,
		Logger:     logger,
		BufferSize: cfg.IntentBufferSize,
	})
	dispatcher.Start()
	defer dispatcher.Stop()
	metrics.RegisterIntentBuffer(dispatcher.Pending, dispatcher.Dropped)

	scorer, err := matching.NewCachedScorer(cfg.MatchCacheSize)
	if err != nil {
		log.Fatalf("Failed to create match cache: %v", err)
	}

	sessionService := services.NewSessionService(services.SessionServiceConfig{
		TMStore:       tmStore,
		TermbaseStore: termbaseStore,
		Snapshots:     snapshots,
		Segmenter:     exchange.NewSegmenter(),
		Sink:          dispatcher,
		Matcher:       matching.NewMatcher(scorer),
		Runtime:       rt,
		Logger:        logger,
	})
	tmService := services.NewTMService(tmStore, dispatcher, logger)
	termbaseService := services.NewTermbaseService(termbaseStore)
	clientService := services.NewClientService(clientStore, tmStore, termbaseStore)

	server := http.NewServer(
		http.Config{
			Host:           cfg.Host,
			Port:           cfg.Port,
			Version:        version,
			AllowedOrigins: cfg.AllowedOrigins,
			Logger:         logger,
		},
		sessionService,
		tmService,
		termbaseService,
		clientService,
		rt,
	)

	log.Printf("API server starting on %s", cfg.Addr())
	if err := server.Start(ctx); err != nil {
		log.Printf("Server error: %v", err)
	}
}

// runWorkerMode drains persistence intents until ctx is cancelled.
func runWorkerMode(
	ctx context.Context,
	cfg *config.Config,
	taskQueue driven.TaskQueue,
	lock driven.DistributedLock,
	tmStore driven.TMStore,
) {
	log.Println("Starting worker mode...")

	w := worker.NewWorker(worker.WorkerConfig{
		TaskQueue:      taskQueue,
		Handler:        services.NewPersistenceHandler(tmStore, slog.Default()),
		Logger:         slog.Default(),
		Concurrency:    cfg.WorkerConcurrency,
		DequeueTimeout: cfg.WorkerDequeueTimeout,
		PurgeInterval:  cfg.PurgeInterval,
		Retention:      cfg.TaskRetention,
		Lock:           lock,
	})

	if err := w.Start(ctx); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}
	log.Println("Worker started, persisting TM intents")

	<-ctx.Done()

	log.Println("Stopping worker...")
	w.Stop()
	log.Println("Worker stopped")
}
