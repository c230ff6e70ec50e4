package db

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"emperror.dev/errors"
	"github.com/Masterminds/squirrel"
	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/mediocregopher/radix/v4"
	"github.com/xf8b/xf8bot/common/log"
	"github.com/xf8b/xf8bot/db/stats"

	migrate "github.com/rubenv/sql-migrate"

	// pgx driver for migrations
	_ "github.com/jackc/pgx/v4/stdlib"
)

// sq is a squirrel builder for postgres
var sq = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// DB is the bot's database: a postgres pool, an optional redis cache,
// and the error and usage reporting that goes along with it.
type DB struct {
	Pool *pgxpool.Pool

	// Redis caches guild prefixes. It is nil if no redis URL is configured.
	Redis radix.Client

	Stats *stats.Client
	Hub   *sentry.Hub

	// PrefixTTL is how long prefixes stay in redis.
	PrefixTTL time.Duration
}

// DefaultPrefixTTL is the default DB.PrefixTTL.
const DefaultPrefixTTL = time.Hour

// New connects to postgres and, if redisURL isn't empty, redis.
// If migrate is true, pending migrations are run first.
func New(ctx context.Context, postgres, redisURL string, migrate bool) (*DB, error) {
	if migrate {
		if _, err := RunMigrations(postgres); err != nil {
			return nil, errors.Wrap(err, "running migrations")
		}
	}

	pool, err := pgxpool.Connect(ctx, postgres)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to postgres")
	}

	db := &DB{
		Pool:      pool,
		PrefixTTL: DefaultPrefixTTL,
	}

	if redisURL != "" {
		db.Redis, err = (&radix.PoolConfig{}).New(ctx, "tcp", redisURL)
		if err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "connecting to redis")
		}
	} else {
		log.Warn("No redis URL set, prefixes won't be cached")
	}

	return db, nil
}

// Close closes all connections.
func (db *DB) Close() error {
	db.Pool.Close()
	if db.Redis != nil {
		return errors.Wrap(db.Redis.Close(), "closing redis")
	}
	return nil
}

//go:embed migrations
var fs embed.FS

// RunMigrations runs all of the migrations in migrations/ and returns how many were applied.
func RunMigrations(postgres string) (n int, err error) {
	db, err := sql.Open("pgx", postgres)
	if err != nil {
		return 0, errors.Wrap(err, "opening database")
	}

	// only used for migrations, everything else goes through pgxpool
	defer db.Close()

	err = db.Ping()
	if err != nil {
		return 0, errors.Wrap(err, "pinging database")
	}

	migrations := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: fs,
		Root:       "migrations",
	}

	migrate.SetTable("migration_history")

	n, err = migrate.Exec(db, "postgres", migrations, migrate.Up)
	if err != nil {
		return n, errors.Wrap(err, "executing migrations")
	}

	if n != 0 {
		log.Infof("Performed %v migrations!", n)
	}
	return n, nil
}
