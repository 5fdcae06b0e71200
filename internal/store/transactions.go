package store

import "github.com/pkg/errors"

// NextTransactionIndex computes the next global transaction index
// (spec.md §4.3's COALESCE(MAX(index)+1,0) rule, scoped globally).
func NextTransactionIndex(tx *Tx) (uint64, error) {
	return nextIndex(tx.DB(), "transactions", "index", "")
}

// InsertTransaction inserts one transaction row.
func InsertTransaction(tx *Tx, t *Transaction) error {
	if err := tx.DB().Create(t).Error; err != nil {
		return errors.Wrap(err, "store: insert transaction")
	}
	return nil
}

// InsertAffectedAccounts inserts one affected_accounts row per account
// index and increments accounts.num_txs for each (spec.md §4.3.b),
// asserting the affected row count equals len(accountIndices) exactly
// once per account (duplicates within one call are the caller's bug).
func InsertAffectedAccounts(tx *Tx, txIndex uint64, accountIndices []uint64) error {
	if len(accountIndices) == 0 {
		return nil
	}
	rows := make([]AffectedAccount, 0, len(accountIndices))
	for _, a := range accountIndices {
		rows = append(rows, AffectedAccount{TransactionIndex: txIndex, AccountIndex: a})
	}
	if err := tx.DB().Create(&rows).Error; err != nil {
		return errors.Wrap(err, "store: insert affected_accounts")
	}

	res := tx.DB().Model(&Account{}).
		Where("index IN ?", accountIndices).
		Update("num_txs", gormExprNumTxsPlusOne())
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: increment accounts.num_txs")
	}
	return EnsureAffectedRows(res.RowsAffected, int64(len(accountIndices)), "increment accounts.num_txs")
}
