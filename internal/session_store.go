package internal

import (
	"context"
	"fmt"
	"io"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymreps/internal/config"
	"github.com/2beens/gymreps/internal/db"
	"github.com/2beens/gymreps/internal/sessions"
	"github.com/2beens/gymreps/internal/sessions/disk"
	"github.com/2beens/gymreps/internal/sessions/psql"
	"github.com/2beens/gymreps/internal/sessions/redisstore"
	"github.com/2beens/gymreps/internal/sessions/sqlite"
)

type sessionStoreParams struct {
	Config         *config.Config
	RedisClient    *redis.Client
	PromRegistry   prometheus.Registerer
	DBPassword     string
	TracingEnabled bool
}

// sessionStore is the selected backend, plus whatever has to be released on shutdown.
type sessionStore struct {
	sessions.Store
	dbPool *pgxpool.Pool
	closer io.Closer
}

func (s *sessionStore) Close() {
	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			log.Errorf("close sessions store: %s", err)
		}
	}
}

func newSessionStore(ctx context.Context, params sessionStoreParams) (*sessionStore, error) {
	cfg := params.Config
	result := &sessionStore{}

	switch cfg.StoreBackend {
	case config.StoreMemory:
		result.Store = sessions.NewMemoryStore()
	case config.StoreDisk:
		store, err := disk.NewStore(cfg.SessionsFilePath)
		if err != nil {
			return nil, fmt.Errorf("new disk store: %w", err)
		}
		result.Store = store
	case config.StoreSqlite:
		store, err := sqlite.Open(cfg.SqlitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		result.Store = store
		result.closer = store
	case config.StorePostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBPassword:     params.DBPassword,
			TracingEnabled: params.TracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		if params.PromRegistry != nil {
			if err := db.RegisterPoolCollector(params.PromRegistry, dbPool, cfg.PostgresDBName); err != nil {
				log.Errorf("db pool metrics: %s", err)
			}
		}

		repo := psql.NewRepo(dbPool)
		if err := repo.EnsureSchema(ctx); err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("ensure sessions schema: %w", err)
		}
		result.Store = repo
		result.dbPool = dbPool
	case config.StoreRedis:
		if params.RedisClient == nil {
			return nil, fmt.Errorf("store backend [%s] needs a redis client", cfg.StoreBackend)
		}
		result.Store = redisstore.NewStore(params.RedisClient)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}

	if cfg.CacheTTL > 0 {
		log.Debugf("sessions read cache enabled: %d MB, ttl %s", cfg.CacheSizeMB, cfg.CacheTTL)
		result.Store = sessions.NewCachedStore(result.Store, cfg.CacheSizeMB*1024*1024, cfg.CacheTTL)
	}

	log.Infof("sessions store backend: %s", cfg.StoreBackend)
	return result, nil
}
