package store

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// InsertBaker adds a new row to bakers for a BakerAdded event. The
// caller is responsible for asserting the XOR invariant against
// bakers_removed (spec.md §8) before calling this.
func InsertBaker(tx *Tx, b *Baker) error {
	if err := tx.DB().Create(b).Error; err != nil {
		return errors.Wrap(err, "store: insert baker")
	}
	return nil
}

// GetBaker loads one baker row by id.
func GetBaker(tx *Tx, id uint64) (*Baker, error) {
	var b Baker
	if err := tx.DB().Where("id = ?", id).Take(&b).Error; err != nil {
		return nil, errors.Wrapf(err, "store: load baker %d", id)
	}
	return &b, nil
}

// IsRemovedBaker reports whether id currently has a bakers_removed row,
// used to enforce the mutually-exclusive bakers / bakers_removed
// invariant (spec.md §8).
func IsRemovedBaker(tx *Tx, id uint64) (bool, error) {
	var count int64
	if err := tx.DB().Model(&RemovedBaker{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "store: check bakers_removed")
	}
	return count > 0, nil
}

// DeleteRemovedBakerRecord deletes a bakers_removed row on
// re-activation (BakerAdded for a previously-removed id), maintaining
// the XOR invariant (spec.md §4.3.1 Added, §8).
func DeleteRemovedBakerRecord(tx *Tx, id uint64) error {
	if err := tx.DB().Where("id = ?", id).Delete(&RemovedBaker{}).Error; err != nil {
		return errors.Wrapf(err, "store: delete bakers_removed %d", id)
	}
	return nil
}

// RemoveBaker deletes the active baker row and inserts a bakers_removed
// row, maintaining the XOR invariant in one transaction step (spec.md
// §4.3.1 BakerRemoved, §8).
func RemoveBaker(tx *Tx, id uint64, removedByTxIndex uint64) error {
	res := tx.DB().Where("id = ?", id).Delete(&Baker{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: delete baker")
	}
	if err := EnsureAffectedOneRow(res.RowsAffected, "delete baker on removal"); err != nil {
		return err
	}
	row := RemovedBaker{ID: id, RemovedByTxIndex: removedByTxIndex}
	if err := tx.DB().Create(&row).Error; err != nil {
		return errors.Wrap(err, "store: insert bakers_removed")
	}
	return nil
}

// SetBakerStaked sets a baker's own staked amount directly (used by
// BakerStakeIncreased/Decreased).
func SetBakerStaked(tx *Tx, id, staked uint64) error {
	res := tx.DB().Model(&Baker{}).Where("id = ?", id).Update("staked", staked)
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: set baker staked")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "set baker staked")
}

// SetBakerRestakeEarnings updates the restake-earnings flag.
func SetBakerRestakeEarnings(tx *Tx, id uint64, restake bool) error {
	res := tx.DB().Model(&Baker{}).Where("id = ?", id).Update("restake_earnings", restake)
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: set baker restake earnings")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "set baker restake earnings")
}

// SetBakerOpenStatus updates open_status ("OpenForAll" | "ClosedForNew"
// | "ClosedForAll"). Closing a pool does not by itself move its
// delegators; that happens separately via ClearDelegationTargetForPool
// when open_status transitions to ClosedForAll (spec.md §4.3.1).
func SetBakerOpenStatus(tx *Tx, id uint64, status string) error {
	res := tx.DB().Model(&Baker{}).Where("id = ?", id).Update("open_status", status)
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: set baker open status")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "set baker open status")
}

// SetBakerMetadataURL updates metadata_url.
func SetBakerMetadataURL(tx *Tx, id uint64, url string) error {
	res := tx.DB().Model(&Baker{}).Where("id = ?", id).Update("metadata_url", url)
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: set baker metadata url")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "set baker metadata url")
}

// SetBakerCommissionRates updates all three commission rates at once
// (BakerSetTransactionFeeCommission / BakingRewardCommission /
// FinalizationRewardCommission events all funnel through this, each
// leaving the other two unchanged via the caller passing the existing
// baker's current values for the untouched fields).
func SetBakerCommissionRates(tx *Tx, id uint64, txFee, baking, finalization uint32) error {
	res := tx.DB().Model(&Baker{}).Where("id = ?", id).Updates(map[string]interface{}{
		"commission_transaction":  txFee,
		"commission_baking":       baking,
		"commission_finalization": finalization,
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: set baker commission rates")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "set baker commission rates")
}

// SetBakerSuspended records the height at which a baker self-suspended
// or was inactive-suspended by the protocol; pass nil for the other to
// leave it unchanged is not supported here, callers set both
// consciously per the event that fired.
func SetBakerSuspended(tx *Tx, id uint64, selfSuspended, inactiveSuspended *uint64) error {
	res := tx.DB().Model(&Baker{}).Where("id = ?", id).Updates(map[string]interface{}{
		"self_suspended":     selfSuspended,
		"inactive_suspended": inactiveSuspended,
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: set baker suspended")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "set baker suspended")
}

// SetBakerResumed clears both suspension markers on BakerResumed.
func SetBakerResumed(tx *Tx, id uint64) error {
	return SetBakerSuspended(tx, id, nil, nil)
}

// SetBakerPrimedForSuspension records the height at which a baker was
// primed for suspension due to poor performance, or clears it (nil).
func SetBakerPrimedForSuspension(tx *Tx, id uint64, height *uint64) error {
	res := tx.DB().Model(&Baker{}).Where("id = ?", id).Update("primed_for_suspension", height)
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: set baker primed for suspension")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "set baker primed for suspension")
}

// AdjustPoolTotalStaked applies delta to a baker's pool_total_staked,
// used whenever a delegator's stake to this pool changes (spec.md
// §4.3.1). Asserts exactly one row affected.
func AdjustPoolTotalStaked(tx *Tx, bakerID uint64, delta int64) error {
	res := tx.DB().Model(&Baker{}).Where("id = ?", bakerID).
		Update("pool_total_staked", gormExprAdd("pool_total_staked", delta))
	if res.Error != nil {
		return errors.Wrapf(res.Error, "store: adjust pool_total_staked for baker %d", bakerID)
	}
	return EnsureAffectedOneRow(res.RowsAffected, "adjust pool_total_staked")
}

// AdjustPoolDelegatorCount applies delta (+1/-1) to pool_delegator_count.
func AdjustPoolDelegatorCount(tx *Tx, bakerID uint64, delta int64) error {
	res := tx.DB().Model(&Baker{}).Where("id = ?", bakerID).
		Update("pool_delegator_count", gormExprAdd("pool_delegator_count", delta))
	if res.Error != nil {
		return errors.Wrapf(res.Error, "store: adjust pool_delegator_count for baker %d", bakerID)
	}
	return EnsureAffectedOneRow(res.RowsAffected, "adjust pool_delegator_count")
}

// CountActiveBakers returns the number of rows currently in bakers,
// used by the metrics rollup (spec.md §4.3.5) and API summary fields.
func CountActiveBakers(tx *Tx) (uint64, error) {
	var count int64
	if err := tx.DB().Model(&Baker{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "store: count active bakers")
	}
	return uint64(count), nil
}

// BakerExists reports whether an active (non-removed) baker row exists.
func BakerExists(tx *Tx, id uint64) (bool, error) {
	var b Baker
	err := tx.DB().Where("id = ?", id).Take(&b).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, errors.Wrapf(err, "store: check baker %d exists", id)
}
