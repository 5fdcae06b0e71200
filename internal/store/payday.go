package store

import "github.com/pkg/errors"

// NextPaydayPoolRewardIndex computes the next global index for
// bakers_payday_pool_rewards.
func NextPaydayPoolRewardIndex(tx *Tx) (uint64, error) {
	return nextIndex(tx.DB(), "bakers_payday_pool_rewards", "index", "")
}

// InsertPaydayPoolReward inserts one payday pool-reward row (one per
// baker pool plus one with PoolOwner == nil for the passive pool,
// spec.md §4.3.3).
func InsertPaydayPoolReward(tx *Tx, r *PaydayPoolReward) error {
	if err := tx.DB().Create(r).Error; err != nil {
		return errors.Wrap(err, "store: insert payday pool reward")
	}
	return nil
}

// ReplacePaydayCommissionRates deletes all existing
// bakers_payday_commission_rates rows and inserts the fresh snapshot,
// since this table is replaced wholesale on every payday (spec.md
// §4.3.3).
func ReplacePaydayCommissionRates(tx *Tx, rows []PaydayCommissionRate) error {
	if err := tx.DB().Exec("DELETE FROM bakers_payday_commission_rates").Error; err != nil {
		return errors.Wrap(err, "store: clear payday commission rates")
	}
	if len(rows) == 0 {
		return nil
	}
	if err := tx.DB().Create(&rows).Error; err != nil {
		return errors.Wrap(err, "store: insert payday commission rates")
	}
	return nil
}

// ReplacePaydayLotteryPowers deletes all existing
// bakers_payday_lottery_powers rows and inserts the fresh snapshot.
func ReplacePaydayLotteryPowers(tx *Tx, rows []PaydayLotteryPower) error {
	if err := tx.DB().Exec("DELETE FROM bakers_payday_lottery_powers").Error; err != nil {
		return errors.Wrap(err, "store: clear payday lottery powers")
	}
	if len(rows) == 0 {
		return nil
	}
	if err := tx.DB().Create(&rows).Error; err != nil {
		return errors.Wrap(err, "store: insert payday lottery powers")
	}
	return nil
}

// ReplacePaydayStakeSnapshots deletes all existing
// bakers_payday_stake_snapshots rows and inserts the fresh snapshot
// (one row with BakerID == nil for the passive pool).
func ReplacePaydayStakeSnapshots(tx *Tx, rows []PaydayStakeSnapshot) error {
	if err := tx.DB().Exec("DELETE FROM bakers_payday_stake_snapshots").Error; err != nil {
		return errors.Wrap(err, "store: clear payday stake snapshots")
	}
	if len(rows) == 0 {
		return nil
	}
	if err := tx.DB().Create(&rows).Error; err != nil {
		return errors.Wrap(err, "store: insert payday stake snapshots")
	}
	return nil
}

// SetLastPaydayBlockHeight updates the singleton chain-parameters row's
// marker of the most recently settled payday.
func SetLastPaydayBlockHeight(tx *Tx, height uint64) error {
	res := tx.DB().Model(&CurrentChainParameters{}).Where("id = 1").Update("last_payday_block_height", height)
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: set last payday block height")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "set last payday block height")
}

// RefreshPaydayMaterializedViews refreshes the APY-related materialized
// views concurrently so long-running API reads are not blocked (spec.md
// §3 Design Notes on bakers_apy_30_days / bakers_apy_7_days).
func RefreshPaydayMaterializedViews(tx *Tx) error {
	if err := tx.DB().Exec("REFRESH MATERIALIZED VIEW CONCURRENTLY latest_baker_apy_7_days").Error; err != nil {
		return errors.Wrap(err, "store: refresh latest_baker_apy_7_days")
	}
	if err := tx.DB().Exec("REFRESH MATERIALIZED VIEW CONCURRENTLY latest_baker_apy_30_days").Error; err != nil {
		return errors.Wrap(err, "store: refresh latest_baker_apy_30_days")
	}
	return nil
}
