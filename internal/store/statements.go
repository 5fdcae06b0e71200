package store

import "github.com/pkg/errors"

// NextAccountStatementIndex computes the next global account_statements
// index.
func NextAccountStatementIndex(tx *Tx) (uint64, error) {
	return nextIndex(tx.DB(), "account_statements", "index", "")
}

// InsertAccountStatement inserts one account_statements row. Callers
// compute AccountBalanceAfter from the return value of
// AdjustAccountAmount so the statement always reflects the balance
// immediately after this entry's effect (spec.md §3, §4.3.1/§4.3.4).
func InsertAccountStatement(tx *Tx, s *AccountStatement) error {
	if err := tx.DB().Create(s).Error; err != nil {
		return errors.Wrap(err, "store: insert account_statement")
	}
	return nil
}
