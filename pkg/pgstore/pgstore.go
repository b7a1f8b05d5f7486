package pgstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"

	"github.com/pershin-daniil/LabLoans/pkg/metrics"
	"github.com/pershin-daniil/LabLoans/pkg/models"
)

//go:embed migrations
var migrations embed.FS

const (
	retries = 3

	uniqueViolation = "23505"
)

var (
	ErrUserNotFound     = fmt.Errorf("user %w", models.ErrNotFound)
	ErrRequestNotFound  = fmt.Errorf("request %w", models.ErrNotFound)
	ErrEmailTaken       = fmt.Errorf("%w: email already registered", models.ErrConflict)
	ErrAlreadyProcessed = fmt.Errorf("%w: request already processed", models.ErrConflict)
	ErrNotPending       = fmt.Errorf("%w: only pending requests can be deleted", models.ErrConflict)
)

type Store struct {
	log *logrus.Entry
	db  *sqlx.DB
}

func NewStore(ctx context.Context, log *logrus.Logger, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("err connecting to postgres: %w", err)
	}
	return NewFromDB(log, db.DB), nil
}

// NewFromDB wraps an already opened connection pool.
func NewFromDB(log *logrus.Logger, db *sql.DB) *Store {
	return &Store{
		log: log.WithField("component", "pgstore"),
		db:  sqlx.NewDb(db, "pgx"),
	}
}

func (s *Store) SetMaxOpenConns(n int) {
	if n > 0 {
		s.db.SetMaxOpenConns(n)
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Migrate(direction migrate.MigrationDirection) error {
	source := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrations,
		Root:       "migrations",
	}
	n, err := migrate.Exec(s.db.DB, "postgres", source, direction)
	if err != nil {
		return fmt.Errorf("err applying migrations: %w", err)
	}
	s.log.Infof("applied %d migrations", n)
	return nil
}

func (s *Store) ResetTables(ctx context.Context, tables []string) error {
	_, err := s.db.ExecContext(ctx, `TRUNCATE TABLE `+strings.Join(tables, `, `)+` CASCADE`)
	return err
}

// retry repeats read-only fn while it fails for reasons other than the query
// itself (broken connections, pool exhaustion).
func (s *Store) retry(ctx context.Context, method string, fn func() error) error {
	var err error
	for i := 0; i < retries; i++ {
		if err = fn(); err == nil || !transient(err) || ctx.Err() != nil {
			return err
		}
		s.log.Debugf("%s attempt %d failed: %v", method, i+1, err)
	}
	return err
}

func transient(err error) bool {
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pgErr *pgconn.PgError
	return !errors.As(err, &pgErr)
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("err starting transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.log.Warnf("err during rollback: %v", rbErr)
			}
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// observe records duration and unexpected failures of a store method.
func observe(method string, started time.Time, err *error) {
	metrics.PgDuration.WithLabelValues(method).Observe(time.Since(started).Seconds())
	if *err != nil && !errors.Is(*err, models.ErrNotFound) && !errors.Is(*err, models.ErrConflict) {
		metrics.PgErrCount.WithLabelValues(method).Inc()
	}
}
