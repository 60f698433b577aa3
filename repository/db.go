package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	credentials "github.com/goliatone/go-credentials"
	goerrors "github.com/goliatone/go-errors"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Supported dialects.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
)

// Open connects to the configured database and wraps it with the matching
// Bun dialect. MySQL DSNs need parseTime=true.
func Open(cfg credentials.PersistenceConfig) (*bun.DB, error) {
	switch cfg.Dialect {
	case DialectSQLite, "":
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open sqlite database")
		}
		// sqlite allows a single writer
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case DialectPostgres:
		sqldb, err := sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open postgres database")
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	case DialectMySQL:
		sqldb, err := sql.Open("mysql", cfg.DSN)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open mysql database")
		}
		return bun.NewDB(sqldb, mysqldialect.New()), nil
	}
	return nil, fmt.Errorf("%w: unsupported dialect %q", credentials.ErrInvalidConfig, cfg.Dialect)
}

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded migrations for dialect.
func Migrate(ctx context.Context, db *bun.DB, dialect string, logger credentials.Logger) error {
	if dialect == "" {
		dialect = DialectSQLite
	}

	fsys, err := credentials.MigrationsFor(dialect)
	if err != nil {
		return err
	}

	gooseDialect := dialect
	if dialect == DialectSQLite {
		gooseDialect = "sqlite3"
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(gooseLogger{logger: logger})

	if err := goose.SetDialect(gooseDialect); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to set migration dialect")
	}
	if err := gooseUpContext(ctx, db.DB, "."); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to run migrations")
	}
	return nil
}

// OpenAndMigrate opens the database and, when cfg.Migrate is set, applies
// the migrations.
func OpenAndMigrate(ctx context.Context, cfg credentials.PersistenceConfig, logger credentials.Logger) (*bun.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Migrate {
		if err := Migrate(ctx, db, cfg.Dialect, logger); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

type gooseLogger struct {
	logger credentials.Logger
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	if g.logger == nil {
		return
	}
	g.logger.Error(format, v...)
}

func (g gooseLogger) Printf(format string, v ...any) {
	if g.logger == nil {
		return
	}
	g.logger.Debug(format, v...)
}
