package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxScope names a unit of work so that begin and commit failures say which one failed.
type TxScope string

const (
	scopeDecision TxScope = "verification decision"
	scopeSeed     TxScope = "reference seed"
)

// WithTx runs fn in a read-committed transaction. Row locks taken by fn are
// held until commit; any error from fn rolls the whole scope back.
func WithTx(ctx context.Context, pool *pgxpool.Pool, scope TxScope, fn func(context.Context, pgx.Tx) error) (err error) {
	if pool == nil {
		return errors.New("postgres pool is nil")
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin %s: %w", scope, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", scope, err)
	}
	return nil
}
