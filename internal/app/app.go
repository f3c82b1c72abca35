package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/planet-nine-app/linkitylink/internal/backup"
	"github.com/planet-nine-app/linkitylink/internal/bdo"
	"github.com/planet-nine-app/linkitylink/internal/config"
	"github.com/planet-nine-app/linkitylink/internal/handoff"
	"github.com/planet-nine-app/linkitylink/internal/httpserver"
	"github.com/planet-nine-app/linkitylink/internal/httpserver/deps"
	"github.com/planet-nine-app/linkitylink/internal/index"
	"github.com/planet-nine-app/linkitylink/internal/logger"
	"github.com/planet-nine-app/linkitylink/internal/payment"
	"github.com/planet-nine-app/linkitylink/internal/publish"
	"github.com/planet-nine-app/linkitylink/internal/redis"
	"github.com/planet-nine-app/linkitylink/internal/resolver"
	"github.com/planet-nine-app/linkitylink/internal/scheduler"
	"github.com/planet-nine-app/linkitylink/internal/sessionless"
	"github.com/planet-nine-app/linkitylink/internal/sources/catalog"
	"github.com/planet-nine-app/linkitylink/internal/sources/linkimport"
	redisstore "github.com/planet-nine-app/linkitylink/internal/store/redis"
	"github.com/planet-nine-app/linkitylink/internal/version"
)

// memoryBackendURL selects the in-process storage backend.
const memoryBackendURL = "memory://"

// upstreamTimeout bounds each storage or payment backend call.
const upstreamTimeout = 10 * time.Second

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	index       *index.ReverseIndex
	flusher     *scheduler.IndexFlusher
	backup      *scheduler.IndexBackup
	sweeper     *scheduler.HandoffSweeper
}

// New loads configuration and wires every component. The reverse index is
// loaded before New returns, so no request is served from an empty index.
func New(ctx context.Context) (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	backend := newBackend(cfg, loggerClient)

	idx := index.NewReverseIndex(cfg.IndexFlushEvery)
	_, statErr := os.Stat(cfg.IndexFile)
	indexFileMissing := errors.Is(statErr, os.ErrNotExist)
	loaded, err := idx.Load(cfg.IndexFile)
	if err != nil {
		return nil, err
	}
	loggerClient.Info("reverse index loaded",
		logger.String("path", cfg.IndexFile),
		logger.Int("entries", loaded))

	var (
		redisClient  *goredis.Client
		handoffStore handoff.Store = handoff.NewMemoryStore()
		mirror       publish.Mirror
	)
	if cfg.RedisEnabled() {
		redisClient, err = redis.Connect(ctx, redis.OptionsFromConfig(cfg), loggerClient)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		loggerClient.Info("Redis initialized successfully")

		store := redisstore.NewStore(redisClient)
		handoffStore = redisstore.NewHandoffStore(store)
		indexMirror := redisstore.NewIndexMirror(store)
		mirror = indexMirror

		syncer := scheduler.NewIndexSyncer(indexMirror, idx, loggerClient)
		if indexFileMissing {
			if _, err := syncer.Pull(ctx); err != nil {
				loggerClient.Warn("failed to seed index from redis, starting empty",
					logger.Error(err))
			}
		} else if err := syncer.Push(ctx); err != nil {
			loggerClient.Warn("failed to mirror index to redis",
				logger.Error(err))
		}
	} else {
		loggerClient.Info("redis not configured, handoffs are kept in memory")
	}

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load product catalog: %w", err)
	}
	loggerClient.Info("product catalog loaded",
		logger.Strings("products", cat.Kinds()))

	publisher := publish.NewService(backend, idx, mirror, loggerClient)

	handoffs := handoff.NewService(handoffStore, publisher, handoff.Config{
		TTL:            cfg.HandoffTTL,
		Grace:          cfg.HandoffGrace,
		SequenceLength: cfg.SequenceLength,
		MaxAttempts:    cfg.HandoffMaxAttempts,
	}, loggerClient)

	var intents payment.IntentCreator
	if cfg.PaymentURL != "" {
		intents = payment.NewClient(cfg.PaymentURL, upstreamTimeout, loggerClient)
	} else {
		loggerClient.Info("payment backend not configured, direct purchases disabled")
	}
	payments := payment.NewService(payment.NewCollector(backend, loggerClient), intents, cat, loggerClient)

	backupSvc, err := newBackup(cfg, backend, idx, loggerClient)
	if err != nil {
		return nil, err
	}

	flushTrigger := make(chan struct{}, 1)

	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Catalog:         cat,
		Index:           idx,
		Publisher:       publisher,
		Resolver:        resolver.New(backend, idx, cat, cfg.PrefixMinLength, loggerClient),
		Handoffs:        handoffs,
		Payments:        payments,
		Importer:        linkimport.New(cfg.ImportTimeout, loggerClient),
		Backup:          backupSvc,
		RedisClient:     redisClient,
		FlushTrigger:    flushTrigger,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		index:       idx,
		flusher:     scheduler.NewIndexFlusher(idx, cfg.IndexFile, loggerClient, cfg.IndexFlushInterval, flushTrigger),
		backup:      scheduler.NewIndexBackup(backupSvc, loggerClient, cfg.BackupInterval),
		sweeper:     scheduler.NewHandoffSweeper(handoffs, loggerClient, cfg.HandoffSweepInterval),
	}, nil
}

func newBackend(cfg *config.Config, log logger.Logger) bdo.Backend {
	if cfg.BDOURL == memoryBackendURL {
		log.Warn("using in-process storage backend, documents are lost on restart")
		return bdo.NewMemoryBackend()
	}
	log.Info("storage backend configured", logger.String("url", cfg.BDOURL))
	return bdo.NewClient(cfg.BDOURL, cfg.AppHash, upstreamTimeout, log)
}

// newBackup always backs up to the storage backend and adds the S3 bucket
// when one is configured.
func newBackup(cfg *config.Config, backend bdo.Backend, idx *index.ReverseIndex, log logger.Logger) (*backup.Service, error) {
	keys, err := sessionless.LoadOrCreateKeys(cfg.BackupKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load backup identity: %w", err)
	}
	sinks := []backup.Sink{backup.NewBDOSink(backend, keys)}

	if cfg.MinioEnabled() {
		sink, err := backup.NewMinioSink(backup.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure minio backup: %w", err)
		}
		sinks = append(sinks, sink)
	}

	svc := backup.NewService(idx, log, sinks...)
	log.Info("index backup configured", logger.Strings("sinks", svc.Sinks()))
	return svc, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting Linkitylink v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Linkitylink %s", version.String())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Schedulers outlive ctx so the final flush runs after the server drains.
	bg := context.WithoutCancel(ctx)

	if err := a.flusher.Start(bg); err != nil {
		return fmt.Errorf("failed to start index flusher: %w", err)
	}
	if err := a.sweeper.Start(bg); err != nil {
		return fmt.Errorf("failed to start handoff sweeper: %w", err)
	}
	a.logger.Info("handoff sweeper started",
		logger.Duration("interval", a.cfg.HandoffSweepInterval))
	if err := a.backup.Start(bg); err != nil {
		return fmt.Errorf("failed to start index backup: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		a.logger.Warn("failed to stop server cleanly", logger.Error(err))
	}

	a.sweeper.Stop()
	a.backup.Stop()
	a.flusher.Stop()
	a.logger.Info("✅ Reverse index flushed",
		logger.Int("entries", a.index.Count()))

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ Linkitylink stopped cleanly")
	return nil
}
