package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Queryer is the query surface shared by *sql.DB and *sql.Tx. Write methods
// accept it so a service can thread one transaction through a multi-entity
// aggregate write; nil falls back to the repository's own pool.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxRunner provides the shared transaction boundary for aggregate writes:
// either everything fn persisted is visible afterward, or none of it is.
type TxRunner interface {
	InTx(ctx context.Context, fn func(q Queryer) error) error
}

type sqlTxRunner struct {
	db *sql.DB
}

func NewSQLTxRunner(db *sql.DB) TxRunner {
	return &sqlTxRunner{db: db}
}

func (r *sqlTxRunner) InTx(ctx context.Context, fn func(q Queryer) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // No-op after a successful commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
