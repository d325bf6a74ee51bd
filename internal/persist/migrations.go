package persist

import (
	"context"
	"embed"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrateCatalog brings the scene catalog schema up to date and returns the
// resulting schema version. Each applied migration is logged.
func MigrateCatalog(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) (int64, error) {
	if log == nil {
		log = zap.NewNop()
	}
	sqlFS, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return 0, eris.Wrap(err, "catalog migrations")
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	p, err := goose.NewProvider(goose.DialectPostgres, db, sqlFS)
	if err != nil {
		return 0, eris.Wrap(err, "catalog migration provider")
	}
	results, err := p.Up(ctx)
	for _, r := range results {
		log.Info("catalog migration applied",
			zap.String("file", r.Source.Path),
			zap.Int64("version", r.Source.Version),
			zap.Duration("took", r.Duration))
	}
	if err != nil {
		return 0, eris.Wrap(err, "migrate scene catalog")
	}
	v, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "catalog schema version")
	}
	return v, nil
}
