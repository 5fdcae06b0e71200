package store

import (
	"github.com/pkg/errors"
)

// NextAccountIndex computes the next global account index.
func NextAccountIndex(tx *Tx) (uint64, error) {
	return nextIndex(tx.DB(), "accounts", "index", "")
}

// InsertAccount inserts one account row (used both for genesis
// bootstrap and for AccountCreation events, spec.md §4.3.b).
func InsertAccount(tx *Tx, a *Account) error {
	if err := tx.DB().Create(a).Error; err != nil {
		return errors.Wrap(err, "store: insert account")
	}
	return nil
}

// InsertAffectedAccountOnly inserts a single affected_accounts row
// without touching num_txs, used for the AccountCreation transaction
// itself since the account's num_txs is set to 1 directly at
// insertion time (spec.md §4.3.b).
func InsertAffectedAccountOnly(tx *Tx, txIndex, accountIndex uint64) error {
	row := AffectedAccount{TransactionIndex: txIndex, AccountIndex: accountIndex}
	if err := tx.DB().Create(&row).Error; err != nil {
		return errors.Wrap(err, "store: insert affected_accounts (creation)")
	}
	return nil
}

// GetAccountByIndex loads one account row by index.
func GetAccountByIndex(tx *Tx, index uint64) (*Account, error) {
	var a Account
	if err := tx.DB().Where("index = ?", index).Take(&a).Error; err != nil {
		return nil, errors.Wrapf(err, "store: load account %d", index)
	}
	return &a, nil
}

// GetAccountAddressesByIndices resolves account indices to addresses,
// used by the processor to publish account_updated notifications
// (spec.md §5) by address rather than internal index.
func GetAccountAddressesByIndices(tx *Tx, indices []uint64) ([]string, error) {
	if len(indices) == 0 {
		return nil, nil
	}
	var addrs []string
	if err := tx.DB().Model(&Account{}).Where("index IN ?", indices).Pluck("address", &addrs).Error; err != nil {
		return nil, errors.Wrap(err, "store: resolve account addresses")
	}
	return addrs, nil
}

// AdjustAccountAmount applies delta (positive or negative) to an
// account's amount and returns the resulting balance, for use as
// account_balance_after on the paired account_statements row. Asserts
// exactly one row affected.
func AdjustAccountAmount(tx *Tx, accountIndex uint64, delta int64) (uint64, error) {
	res := tx.DB().Model(&Account{}).Where("index = ?", accountIndex).
		Update("amount", gormExprAdd("amount", delta))
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "store: adjust account %d amount", accountIndex)
	}
	if err := EnsureAffectedOneRow(res.RowsAffected, "adjust account amount"); err != nil {
		return 0, err
	}
	a, err := GetAccountByIndex(tx, accountIndex)
	if err != nil {
		return 0, err
	}
	return a.Amount, nil
}

// SetAccountDelegationAdded initializes an account's delegation fields
// for a DelegationAdded event: stake 0, restake false, target null
// (passive), per spec.md §4.3.1.
func SetAccountDelegationAdded(tx *Tx, accountIndex uint64) error {
	res := tx.DB().Model(&Account{}).Where("index = ?", accountIndex).Updates(map[string]interface{}{
		"delegated_stake":            0,
		"delegated_restake_earnings": false,
		"delegated_target_baker_id":  nil,
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: set delegation added")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "set delegation added")
}

// SetAccountDelegatedStake sets delegated_stake directly (used by
// StakeIncrease/StakeDecrease after the pool total has been adjusted).
func SetAccountDelegatedStake(tx *Tx, accountIndex, newStake uint64) error {
	res := tx.DB().Model(&Account{}).Where("index = ?", accountIndex).Update("delegated_stake", newStake)
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: set delegated_stake")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "set delegated_stake")
}

// ClearAccountDelegation clears every delegation field, setting
// delegated_restake_earnings to null (distinguishing "not delegating"
// from "delegating with restake off", spec.md §4.3.1 Removed).
func ClearAccountDelegation(tx *Tx, accountIndex uint64) error {
	res := tx.DB().Model(&Account{}).Where("index = ?", accountIndex).Updates(map[string]interface{}{
		"delegated_stake":            0,
		"delegated_restake_earnings": nil,
		"delegated_target_baker_id":  nil,
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: clear delegation")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "clear delegation")
}

// SetAccountDelegationTarget updates only the target baker id.
func SetAccountDelegationTarget(tx *Tx, accountIndex uint64, target *uint64) error {
	res := tx.DB().Model(&Account{}).Where("index = ?", accountIndex).Update("delegated_target_baker_id", target)
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: set delegation target")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "set delegation target")
}

// SetAccountRestakeEarnings updates only the restake-earnings flag.
func SetAccountRestakeEarnings(tx *Tx, accountIndex uint64, restake bool) error {
	res := tx.DB().Model(&Account{}).Where("index = ?", accountIndex).Update("delegated_restake_earnings", restake)
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: set restake earnings")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "set restake earnings")
}

// AccountsTargetingBaker returns the indices and stakes of every
// active account currently delegating to the given baker, used when a
// baker is removed or closes its pool (spec.md §4.3.1).
func AccountsTargetingBaker(tx *Tx, bakerID uint64) ([]Account, error) {
	var accounts []Account
	if err := tx.DB().Where("delegated_target_baker_id = ?", bakerID).Find(&accounts).Error; err != nil {
		return nil, errors.Wrap(err, "store: load accounts targeting baker")
	}
	return accounts, nil
}

// ClearDelegationTargetForPool sets delegated_target_baker_id to null
// for every account currently targeting bakerID, returning the number
// of rows affected (the new delegator count for the passive pool is
// the caller's concern).
func ClearDelegationTargetForPool(tx *Tx, bakerID uint64) (int64, error) {
	res := tx.DB().Model(&Account{}).Where("delegated_target_baker_id = ?", bakerID).
		Update("delegated_target_baker_id", nil)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "store: clear delegation target for pool")
	}
	return res.RowsAffected, nil
}
