package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Tx is a single batch's database transaction context, grounded on the
// teacher's dbaccess.Context accessor/commit/rollback-unless-closed
// pattern (dbaccess/fee_data.go, dbaccess/reachability.go), adapted
// from a bucketed key-value accessor to a gorm.DB transaction.
type Tx struct {
	ctx    context.Context
	gormTx *gorm.DB
	closed bool
}

// Begin starts a new transaction. The processor applies exactly one
// batch per transaction (spec.md §4.3, §5).
func (db *DB) Begin(ctx context.Context) *Tx {
	return &Tx{ctx: ctx, gormTx: db.DB.WithContext(ctx).Begin()}
}

// DB returns the underlying *gorm.DB bound to this transaction and its
// context, for use by package-level query helpers.
func (t *Tx) DB() *gorm.DB { return t.gormTx }

// Commit commits the transaction. Only on success should the caller
// advance its in-memory BlockProcessingContext (spec.md §4.3 step 6).
func (t *Tx) Commit() error {
	if t.closed {
		return errors.New("store: tx already closed")
	}
	t.closed = true
	return t.gormTx.Commit().Error
}

// RollbackUnlessClosed rolls back the transaction unless it has
// already been committed or rolled back; safe to defer unconditionally.
func (t *Tx) RollbackUnlessClosed() {
	if t.closed {
		return
	}
	t.closed = true
	t.gormTx.Rollback()
}

// nextIndex computes COALESCE(MAX(column)+1, 0) scoped by the given
// where clause, the indexing rule used throughout spec.md §4.3 for
// accounts, transactions, tokens, contract events, module-link
// sequences, and rejected-module/contract sequences.
func nextIndex(tx *gorm.DB, table, column, whereSQL string, whereArgs ...interface{}) (uint64, error) {
	var next uint64
	q := tx.Table(table).Select("COALESCE(MAX(" + column + ")+1, 0)")
	if whereSQL != "" {
		q = q.Where(whereSQL, whereArgs...)
	}
	if err := q.Row().Scan(&next); err != nil {
		return 0, errors.Wrapf(err, "next index for %s.%s", table, column)
	}
	return next, nil
}
