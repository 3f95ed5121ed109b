package routes

import (
	"context"
	"fmt"
	"io"

	"homequote/internal/adapter/persistence/repository"
	"homequote/internal/infrastructure/config"
	"homequote/internal/infrastructure/database"
	"homequote/internal/infrastructure/events"
	"homequote/internal/infrastructure/pricing"
	"homequote/internal/usecase"
	"homequote/internal/usecase/interfaces"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// dependencies holds the wired use cases plus everything that must be closed
// on shutdown, in reverse order of creation.
type dependencies struct {
	requests usecase.IServiceRequestUseCase
	quotes   usecase.IQuoteUseCase
	closers  []io.Closer
}

func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			log.Warnf("[routes][shutdown] close failed err=%v", err)
		}
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func buildDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	deps := &dependencies{}

	requestRepo, quoteRepo, err := buildRepositories(ctx, cfg, deps)
	if err != nil {
		deps.Close()
		return nil, err
	}

	oracle := buildOracle(ctx, cfg, deps)

	publisher, err := buildPublisher(cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.closers = append(deps.closers, publisher)

	deps.requests = usecase.NewServiceRequestUseCase(requestRepo, quoteRepo, publisher)
	deps.quotes = usecase.NewQuoteUseCase(quoteRepo, requestRepo, oracle, publisher)
	return deps, nil
}

func buildRepositories(ctx context.Context, cfg *config.Config, deps *dependencies) (interfaces.IServiceRequestRepository, interfaces.IQuoteRepository, error) {
	switch cfg.StorageDriver {
	case config.StorageDynamoDB:
		ddb, err := database.ConnectDynamoDB(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, nil, err
		}
		if cfg.DynamoDB.Endpoint != "" {
			if err := database.EnsureDynamoDBTables(ctx, ddb, cfg.DynamoDB.ServiceRequestsTable, cfg.DynamoDB.QuotesTable); err != nil {
				return nil, nil, err
			}
		}
		return repository.NewServiceRequestDynamoRepository(ddb, cfg.DynamoDB.ServiceRequestsTable, cfg.DynamoDB.QuotesTable),
			repository.NewQuoteDynamoRepository(ddb, cfg.DynamoDB.QuotesTable, cfg.DynamoDB.ServiceRequestsTable), nil

	case config.StoragePostgres:
		pool, err := database.ConnectPostgres(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		deps.closers = append(deps.closers, closerFunc(func() error { pool.Close(); return nil }))
		return repository.NewServiceRequestPostgresRepository(pool), repository.NewQuotePostgresRepository(pool), nil

	case config.StorageMemory:
		log.Warn("[routes][storage] using in-memory store; data is lost on restart")
		requests, quotes := repository.NewMemoryRepositories()
		return requests, quotes, nil
	}
	return nil, nil, fmt.Errorf("routes: unknown storage driver %q", cfg.StorageDriver)
}

func buildOracle(ctx context.Context, cfg *config.Config, deps *dependencies) interfaces.IPricingOracle {
	var oracle interfaces.IPricingOracle
	if cfg.Pricing.Mode == config.OracleHTTP {
		oracle = pricing.NewHTTPOracle(cfg.Pricing.URL, cfg.Pricing.Timeout)
		log.Infof("[routes][pricing] http oracle url=%s", cfg.Pricing.URL)
	} else {
		oracle = pricing.NewHeuristicOracle(pricing.DefaultPriceRules)
		log.Info("[routes][pricing] heuristic oracle")
	}

	if cfg.Redis.Addr == "" {
		return oracle
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warnf("[routes][pricing] redis unavailable addr=%s err=%v; estimates will not be cached", cfg.Redis.Addr, err)
		_ = rdb.Close()
		return oracle
	}
	deps.closers = append(deps.closers, rdb)
	log.Infof("[routes][pricing] caching estimates in redis addr=%s ttl=%s", cfg.Redis.Addr, cfg.Pricing.CacheTTL)
	return pricing.NewCachedOracle(oracle, rdb, cfg.Pricing.CacheTTL)
}

// publisherCloser is what every event publisher implementation satisfies.
type publisherCloser interface {
	interfaces.IEventPublisher
	io.Closer
}

func buildPublisher(cfg *config.Config) (publisherCloser, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("[routes][events] no KAFKA_BROKERS; lifecycle events are only logged")
		return events.LogPublisher{}, nil
	}
	if cfg.Kafka.Client == config.KafkaClientKafkaGo {
		log.Infof("[routes][events] kafka-go publisher brokers=%v topic=%s", cfg.Kafka.Brokers, cfg.Kafka.Topic)
		return events.NewKafkaGoPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic), nil
	}
	publisher, err := events.NewSaramaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		return nil, err
	}
	return publisher, nil
}
