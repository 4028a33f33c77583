package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/davicafu/hexatask/internal/config"
	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
	sharedEvents "github.com/davicafu/hexatask/internal/shared/domain/events"
	infraEvents "github.com/davicafu/hexatask/internal/shared/infra/events"
	sharedBus "github.com/davicafu/hexatask/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/hexatask/internal/shared/infra/platform/cache"
	sharedMongo "github.com/davicafu/hexatask/internal/shared/infra/platform/db/mongodb"
	sharedPostgres "github.com/davicafu/hexatask/internal/shared/infra/platform/db/postgres"
	sharedSQLite "github.com/davicafu/hexatask/internal/shared/infra/platform/db/sqlite"
	"github.com/davicafu/hexatask/internal/shared/infra/platform/httpx"
	"github.com/davicafu/hexatask/internal/shared/infra/relayer"
	taskApp "github.com/davicafu/hexatask/internal/task/application"
	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
	taskEvents "github.com/davicafu/hexatask/internal/task/infra/inbound/events"
	taskGrpc "github.com/davicafu/hexatask/internal/task/infra/inbound/grpc"
	taskHttp "github.com/davicafu/hexatask/internal/task/infra/inbound/http"
	"github.com/davicafu/hexatask/internal/task/infra/outbound/analytics/clickhouse"
	taskMongo "github.com/davicafu/hexatask/internal/task/infra/outbound/db/mongodb"
	taskPostgres "github.com/davicafu/hexatask/internal/task/infra/outbound/db/postgre"
	taskSQLite "github.com/davicafu/hexatask/internal/task/infra/outbound/db/sqlite"
	"github.com/davicafu/hexatask/internal/task/infra/outbound/filesystem"
	"github.com/davicafu/hexatask/internal/task/infra/outbound/users"
	userApp "github.com/davicafu/hexatask/internal/user/application"
	userDomain "github.com/davicafu/hexatask/internal/user/domain"
	userHttp "github.com/davicafu/hexatask/internal/user/infra/inbound/http"
	userPostgres "github.com/davicafu/hexatask/internal/user/infra/outbound/db/postgre"
	userSQLite "github.com/davicafu/hexatask/internal/user/infra/outbound/db/sqlite"
	"github.com/davicafu/hexatask/pkg/logger"
)

// stores agrupa los repositorios elegidos por TASK_STORE.
type stores struct {
	tasks   taskDomain.TaskRepository
	users   userDomain.UserRepository
	outbox  []sharedDomain.OutboxRepository
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// ---------------- Main ----------------
func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.LogLevel)
	log := logger.Logger()
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------- DB ----------------
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open storage", zap.String("store", cfg.TaskStore), zap.Error(err))
	}
	defer st.close()

	// ---------------- Cache ----------------
	var cache sharedCache.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis unavailable, using in-memory cache", zap.Error(err))
		mem := sharedCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
		defer mem.Stop()
		cache = mem
	} else {
		defer rdb.Close()
		cache = sharedCache.NewRedisCache(rdb, "hexatask:", cfg.CacheTTL)
		log.Info("✅ Redis connected, cache enabled")
	}

	// --------------- Servicios --------------
	userService := userApp.NewUserService(st.users, cache, log)

	opts := []taskApp.Option{taskApp.WithCacheTTL(int(cfg.CacheTTL.Seconds()))}
	if cfg.ClickHouseAddr != "" {
		analytics, err := clickhouse.NewTaskAnalyticsRepo(ctx, cfg.ClickHouseAddr, cfg.ClickHouseDB)
		if err == nil {
			err = analytics.InitSchema(ctx)
		}
		if err != nil {
			log.Warn("⚠️ ClickHouse unavailable, analytics disabled", zap.Error(err))
		} else {
			opts = append(opts, taskApp.WithAnalytics(analytics))
		}
	}
	if cfg.ArchivePath != "" {
		opts = append(opts, taskApp.WithArchive(filesystem.NewJSONTaskArchive(cfg.ArchivePath)))
	}
	taskService := taskApp.NewTaskService(st.tasks, users.NewUserDirectory(userService), cache, log, opts...)

	// ---------------- Events ---------------
	taskConsumer := taskEvents.NewTaskConsumer(taskService, log)
	var bus sharedBus.EventBus
	if cfg.UseKafka {
		log.Info("🚀 Using Kafka as event bus", zap.Strings("brokers", cfg.KafkaBrokers))

		// Sin topic fijo: cada mensaje lleva el suyo.
		writer := &kafka.Writer{
			Addr:     kafka.TCP(cfg.KafkaBrokers...),
			Balancer: &kafka.Hash{},
		}
		publisher := infraEvents.NewKafkaPublisher(writer, log)
		defer publisher.Close()
		bus = publisher

		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    userDomain.UserTopic,
			GroupID:  "hexatask-task-service",
			MinBytes: 10e3, // 10KB
			MaxBytes: 10e6, // 10MB
		})
		consumer := infraEvents.NewConsumerAdapter(reader, taskConsumer, log)
		defer consumer.Close()
		consumer.Start(ctx)
	} else {
		log.Info("⚡️ Using in-memory event bus")
		memBus := infraEvents.NewInMemoryEventBus(taskDomain.TaskTopic, log)
		defer memBus.Close()
		memBus.Subscribe(ctx, userDomain.UserTopic, taskConsumer, 100)
		bus = memBus
	}

	// ------------ Outbox Worker ------------
	registry := make(map[string]sharedEvents.EventMetadata)
	for k, v := range userDomain.NewEventRegistry() {
		registry[k] = v
	}
	for k, v := range taskDomain.NewEventRegistry() {
		registry[k] = v
	}
	for _, repo := range st.outbox {
		worker := relayer.NewOutboxWorker(repo, bus, registry, cfg.OutboxPeriod, cfg.OutboxLimit, log)
		go worker.Start(ctx)
	}

	// ---------------- HTTP ----------------
	router := httpx.NewEngine(log, cfg.CORSOrigins, cfg.RateLimitRPS, cfg.RateLimitBurst)
	userHttp.RegisterUserRoutes(router, userHttp.NewUserHandler(userService, log))
	taskHttp.RegisterTaskRoutes(router, taskHttp.NewTaskHandler(taskService, log))

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("🚀 HTTP server running", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	// ---------------- gRPC ----------------
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal("failed to listen for gRPC", zap.Error(err))
	}
	grpcServer := grpc.NewServer()
	taskGrpc.Register(grpcServer, taskGrpc.NewGrpcTaskServer(taskService, log))
	go func() {
		log.Info("🚀 gRPC server running", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("🛑 Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
}

// openStores abre el backend elegido. Con mongodb los usuarios siguen en SQLite.
func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	st := &stores{}

	openSQLite := func() (*sql.DB, error) {
		db, err := sharedSQLite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = db.Close() })
		if err := userSQLite.InitSchema(ctx, db); err != nil {
			return nil, err
		}
		st.users = userSQLite.NewUserRepoSQLite(db)
		st.outbox = append(st.outbox, sharedSQLite.NewOutboxRepoSQLite(db))
		return db, nil
	}

	switch cfg.TaskStore {
	case config.StorePostgres:
		db, err := sharedPostgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = db.Close() })
		if err := taskPostgres.InitSchema(ctx, db); err != nil {
			return nil, err
		}
		if err := userPostgres.InitSchema(ctx, db); err != nil {
			return nil, err
		}
		st.tasks = taskPostgres.NewTaskRepoPostgres(db)
		st.users = userPostgres.NewUserRepoPostgres(db)
		st.outbox = append(st.outbox, sharedPostgres.NewOutboxRepoPostgres(db))

	case config.StoreMongoDB:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = client.Disconnect(context.Background()) })
		repo, err := taskMongo.NewTaskRepoMongoDB(ctx, client, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		st.tasks = repo
		st.outbox = append(st.outbox, sharedMongo.NewOutboxRepoMongoDB(client.Database(cfg.MongoDB)))
		if _, err := openSQLite(); err != nil {
			return nil, err
		}

	default:
		db, err := openSQLite()
		if err != nil {
			return nil, err
		}
		if err := taskSQLite.InitSchema(ctx, db); err != nil {
			return nil, err
		}
		st.tasks = taskSQLite.NewTaskRepoSQLite(db)
	}

	log.Info("✅ Storage ready", zap.String("store", cfg.TaskStore), zap.Int("outboxes", len(st.outbox)))
	return st, nil
}
