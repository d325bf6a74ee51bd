package persist

import (
	"context"
	"time"

	"github.com/ViewableGravy/better-ecs-sub001/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// DB is the connection to the scene catalog. Scenes are read once at start
// and written by imports, so the pool stays small.
type DB struct {
	Pool    *pgxpool.Pool
	Version int64 // catalog schema version, 0 when migrations were skipped
}

// NewDB connects to the catalog and, when cfg.Migrate is set, migrates its
// schema before returning.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, eris.Wrap(err, "parse catalog dsn")
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "ecsrt"

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "open catalog pool")
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, eris.Wrapf(err, "reach catalog at %s", poolCfg.ConnConfig.Host)
	}

	db := &DB{Pool: pool}
	if cfg.Migrate {
		if db.Version, err = MigrateCatalog(ctx, pool, log); err != nil {
			pool.Close()
			return nil, err
		}
	}
	log.Info("scene catalog ready",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int64("schema", db.Version))
	return db, nil
}

func (db *DB) Close() { db.Pool.Close() }
