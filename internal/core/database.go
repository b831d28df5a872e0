// AngelaMos | 2026
// database.go

package core

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/crm-backend/internal/config"
)

const (
	connectAttempts = 4
	connectBackoff  = 250 * time.Millisecond
	pingTimeout     = 5 * time.Second
)

// DBTX is what repositories run their queries against: the pool or an
// open transaction.
type DBTX interface {
	sqlx.ExtContext
	sqlx.ExecerContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Transactor is satisfied by *Database and by in-memory test stores.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx DBTX) error) error
}

type Database struct {
	DB *sqlx.DB
}

// NewDatabase opens the pool and pings it, retrying with exponential
// backoff before giving up.
func NewDatabase(ctx context.Context, cfg config.DatabaseConfig) (*Database, error) {
	db, err := sqlx.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(withJitter(cfg.ConnMaxLifetime))
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	d := &Database{DB: db}

	backoff := connectBackoff
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = d.Ping(ctx); err == nil {
			return d, nil
		}
		if attempt == connectAttempts {
			break
		}

		slog.WarnContext(ctx, "database not reachable, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		timer := time.NewTimer(withJitter(backoff))
		select {
		case <-ctx.Done():
			timer.Stop()
			err = ctx.Err()
			attempt = connectAttempts
		case <-timer.C:
			backoff *= 2
		}
	}

	_ = db.Close() //nolint:errcheck // connection never became usable
	return nil, fmt.Errorf("connect to database: %w", err)
}

func (d *Database) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}

func (d *Database) Stats() sql.DBStats {
	return d.DB.Stats()
}

// WithinTx runs fn in one transaction, traced as a single span.
// Repositories rebind to the transaction through WithTx.
func (d *Database) WithinTx(ctx context.Context, fn func(tx DBTX) error) (err error) {
	ctx, span := StartSpan(ctx, "db.tx")
	defer func() { EndSpan(span, err) }()

	return InTx(ctx, d.DB, func(tx *sqlx.Tx) error {
		return fn(tx)
	})
}

// InTx commits when fn returns nil and rolls back otherwise, including on
// panic.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		rbErr := tx.Rollback()
		if p := recover(); p != nil {
			panic(p)
		}
		if rbErr != nil && err != nil {
			AddSpanEvent(ctx, "rollback failed", attribute.String("error", rbErr.Error()))
			err = fmt.Errorf("rollback failed: %w (original: %w)", rbErr, err)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	committed = true
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// withJitter adds up to ~14% so pooled connections do not all recycle at
// the same moment.
func withJitter(base time.Duration) time.Duration {
	if base <= 0 {
		return base
	}
	//nolint:gosec // G404: jitter is not security sensitive
	return base + time.Duration(rand.Int64N(int64(base/7)+1))
}
