package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "capledger/pkg/domain-errors"
	txcontext "capledger/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// postgresTxRunner opens a transaction and carries it through the context, so
// every store write inside fn joins the same transaction.
type postgresTxRunner struct {
	db      *sql.DB
	timeout time.Duration
}

func newPostgresTxRunner(db *sql.DB) *postgresTxRunner {
	return &postgresTxRunner{db: db}
}

func (t *postgresTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	return tx.Commit()
}
