// Package platform opens the backends the API runs on. Backends left
// unconfigured fall back to in-process versions: memory store, local disk,
// memory counters and local analytics.
package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ariefcatur/sellmate/internal/analytics"
	"github.com/ariefcatur/sellmate/internal/auth"
	"github.com/ariefcatur/sellmate/internal/config"
	"github.com/ariefcatur/sellmate/internal/forms"
	kafkax "github.com/ariefcatur/sellmate/internal/kafka"
	"github.com/ariefcatur/sellmate/internal/orders"
	"github.com/ariefcatur/sellmate/internal/postgres"
	"github.com/ariefcatur/sellmate/internal/redisx"
	"github.com/ariefcatur/sellmate/internal/storage"
)

type Platform struct {
	cfg config.Config
	log *zap.Logger

	issuer   *auth.Issuer
	pool     *pgxpool.Pool
	store    *orders.Feed
	apps     forms.ApplicationStore
	disk     storage.Disk
	rdb      *redis.Client
	idem     redisx.Idempotency
	producer *kafkax.Producer
	metrics  *analytics.Metrics
	tracker  *analytics.Tracker
	reports  *analytics.Service
	started  bool
}

func Initialize(ctx context.Context, cfg config.Config, log *zap.Logger) (*Platform, error) {
	p := &Platform{cfg: cfg, log: log, issuer: auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)}
	if err := p.open(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *Platform) open(ctx context.Context) (err error) {
	cfg, log := p.cfg, p.log

	var base orders.Store
	switch cfg.StoreDriver {
	case "postgres":
		if p.pool, err = postgres.Connect(ctx, cfg.PostgresDSN); err != nil {
			return fmt.Errorf("platform: db: %w", err)
		}
		if err = postgres.Migrate(ctx, p.pool); err != nil {
			return fmt.Errorf("platform: %w", err)
		}
		repo := &orders.Repo{DB: p.pool}
		if err = repo.SeedIfEmpty(ctx, orders.BuyerSeedOrders()); err != nil {
			return fmt.Errorf("platform: seed: %w", err)
		}
		base = repo
		p.apps = &forms.ApplicationRepo{DB: p.pool}
		log.Info("shared store on postgres")
	default:
		base = orders.NewMemoryStore(nil, orders.BuyerSeedOrders())
		p.apps = forms.NewMemoryApplications()
		log.Info("shared store in memory")
	}
	p.store = orders.NewFeed(base, 256)

	p.disk, err = storage.Open(ctx, storage.Config{
		Driver:     cfg.StorageDisk,
		Root:       cfg.StorageRoot,
		S3Bucket:   cfg.S3Bucket,
		S3Region:   cfg.S3Region,
		S3Key:      cfg.S3Key,
		S3Secret:   cfg.S3Secret,
		S3Endpoint: cfg.S3Endpoint,
		S3URL:      cfg.S3URL,
	})
	if err != nil {
		return fmt.Errorf("platform: storage: %w", err)
	}

	var (
		counters redisx.Counters = redisx.NewMemoryCounters()
		dedup    redisx.Dedup    = redisx.NewMemoryDedup()
	)
	p.idem = redisx.NewMemoryIdempotency()
	if cfg.RedisAddr != "" {
		if p.rdb, err = redisx.Connect(ctx, cfg.RedisAddr); err != nil {
			return fmt.Errorf("platform: %w", err)
		}
		counters = redisx.NewCounters(p.rdb)
		dedup = redisx.NewDedup(p.rdb)
		p.idem = redisx.NewIdempotency(p.rdb)
		log.Info("redis connected", zap.String("addr", cfg.RedisAddr))
	}

	p.metrics = analytics.NewMetrics("sellmate")
	p.reports = &analytics.Service{
		Counters:    counters,
		Dedup:       dedup,
		ServiceName: cfg.ServiceName,
		Log:         log.Named("analytics"),
	}
	var em analytics.Emitter = p.reports
	if len(cfg.KafkaBrokers) > 0 {
		p.producer = kafkax.NewProducer(cfg.KafkaBrokers, 1024, log.Named("kafka"))
		em = analytics.KafkaEmitter{Producer: p.producer}
		log.Info("analytics events to kafka", zap.Strings("brokers", cfg.KafkaBrokers))
	}
	p.tracker = analytics.NewTracker(em, p.metrics, cfg.ServiceName, log.Named("tracker"))
	return nil
}

// Start runs the background workers until ctx is done.
func (p *Platform) Start(ctx context.Context) {
	p.started = true
	if p.producer != nil {
		p.producer.Start(ctx)
	}
	follow := p.tracker.Attach(p.store)
	go follow(ctx)
}

func (p *Platform) Auth() *auth.Issuer { return p.issuer }

// DB is the shared entity store.
func (p *Platform) DB() *orders.Feed { return p.store }

func (p *Platform) Applications() forms.ApplicationStore { return p.apps }

func (p *Platform) Storage() storage.Disk { return p.disk }

func (p *Platform) Analytics() *analytics.Tracker { return p.tracker }

func (p *Platform) Metrics() *analytics.Metrics { return p.metrics }

func (p *Platform) Reports() *analytics.Service { return p.reports }

func (p *Platform) Idempotency() redisx.Idempotency { return p.idem }

// Ping checks the remote backends that are configured.
func (p *Platform) Ping(ctx context.Context) error {
	var errs []error
	if p.pool != nil {
		if err := p.pool.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if p.rdb != nil {
		if err := p.rdb.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close flushes the producer and releases connections.
func (p *Platform) Close() {
	if p.producer != nil {
		p.producer.Close()
		if p.started {
			p.producer.WaitClosed()
		}
	}
	if p.rdb != nil {
		_ = p.rdb.Close()
	}
	if p.pool != nil {
		p.pool.Close()
	}
}
