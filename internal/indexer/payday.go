package indexer

import (
	"github.com/ccdscan/backend/internal/store"
)

// applyPayday implements spec.md §4.3.3 steps 2-6: per-pool reward
// rows, wholesale snapshot replacement, and the payday cursor/view
// refresh. Step 1 (parsing pool/account reward outcomes) and §4.3.4
// (per-account credit/restake) already ran via applyRewards.
func applyPayday(tx *store.Tx, pb *PreparedBlock) error {
	type poolAgg struct {
		owner                                                        *uint64
		totalTxn, totalBaking, totalFinal                             uint64
		delegatorsTxn, delegatorsBaking, delegatorsFinal              uint64
	}
	var pools []*poolAgg
	var current *poolAgg

	for _, o := range pb.Payday.Outcomes {
		switch o.Kind {
		case "PoolReward":
			current = &poolAgg{owner: o.PoolOwner, totalTxn: o.TransactionRewards, totalBaking: o.BakingRewards, totalFinal: o.FinalizationRewards}
			pools = append(pools, current)
		case "AccountReward":
			if current == nil {
				continue
			}
			isOwner := current.owner != nil && *current.owner == o.AccountIndex
			if !isOwner {
				current.delegatorsTxn += o.TransactionRewards
				current.delegatorsBaking += o.BakingRewards
				current.delegatorsFinal += o.FinalizationRewards
			}
		}
	}

	for _, p := range pools {
		idx, err := store.NextPaydayPoolRewardIndex(tx)
		if err != nil {
			return err
		}
		if err := store.InsertPaydayPoolReward(tx, &store.PaydayPoolReward{
			Index: idx, BlockHeight: pb.Height, PoolOwner: p.owner,
			TotalTransactionRewards: p.totalTxn, TotalBakingRewards: p.totalBaking, TotalFinalizationRewards: p.totalFinal,
			DelegatorsTransactionRewards: p.delegatorsTxn, DelegatorsBakingRewards: p.delegatorsBaking, DelegatorsFinalizationRewards: p.delegatorsFinal,
		}); err != nil {
			return err
		}
	}

	commissions := make([]store.PaydayCommissionRate, 0, len(pb.Payday.CommissionRates))
	for _, c := range pb.Payday.CommissionRates {
		commissions = append(commissions, store.PaydayCommissionRate{
			BlockHeight: pb.Height, BakerID: c.BakerID,
			CommissionTransaction: c.CommissionTransaction, CommissionBaking: c.CommissionBaking, CommissionFinalization: c.CommissionFinalization,
		})
	}
	if err := store.ReplacePaydayCommissionRates(tx, commissions); err != nil {
		return err
	}

	powers := make([]store.PaydayLotteryPower, 0, len(pb.Payday.LotteryPowers))
	for _, l := range pb.Payday.LotteryPowers {
		powers = append(powers, store.PaydayLotteryPower{
			BlockHeight: pb.Height, BakerID: l.BakerID, LotteryPower: l.LotteryPower, Ranking: l.Ranking,
		})
	}
	if err := store.ReplacePaydayLotteryPowers(tx, powers); err != nil {
		return err
	}

	snapshots := make([]store.PaydayStakeSnapshot, 0, len(pb.Payday.StakeSnapshots))
	for _, s := range pb.Payday.StakeSnapshots {
		snapshots = append(snapshots, store.PaydayStakeSnapshot{
			BlockHeight: pb.Height, BakerID: s.BakerID, Staked: s.Staked,
		})
	}
	if err := store.ReplacePaydayStakeSnapshots(tx, snapshots); err != nil {
		return err
	}

	if err := store.SetLastPaydayBlockHeight(tx, pb.Height); err != nil {
		return err
	}
	return store.RefreshPaydayMaterializedViews(tx)
}
