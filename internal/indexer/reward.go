package indexer

import (
	"github.com/ccdscan/backend/internal/store"
)

// applyRewards implements spec.md §4.3.4: for every account-reward
// outcome in a payday block, credit the balance and statement rows,
// then apply the restake-earnings rule.
func applyRewards(tx *store.Tx, pb *PreparedBlock) error {
	if !pb.Payday.IsPayday {
		return nil
	}
	for _, o := range pb.Payday.Outcomes {
		if o.Kind != "AccountReward" {
			continue
		}
		if err := applyAccountReward(tx, pb.Height, &o); err != nil {
			return err
		}
	}
	return nil
}

func applyAccountReward(tx *store.Tx, height uint64, o *PaydayOutcome) error {
	components := []struct {
		amount uint64
		entry  store.AccountStatementEntryType
	}{
		{o.TransactionRewards, store.EntryTransactionFeeReward},
		{o.BakingRewards, store.EntryBakerReward},
		{o.FinalizationRewards, store.EntryFinalizationReward},
	}

	var total uint64
	for _, c := range components {
		if c.amount == 0 {
			continue
		}
		total += c.amount
		bal, err := store.AdjustAccountAmount(tx, o.AccountIndex, int64(c.amount))
		if err != nil {
			return err
		}
		if err := insertStatementTx(tx, o.AccountIndex, c.entry, int64(c.amount), height, nil, bal); err != nil {
			return err
		}
	}
	if total == 0 {
		return nil
	}

	acc, err := store.GetAccountByIndex(tx, o.AccountIndex)
	if err != nil {
		return err
	}

	if acc.DelegatedRestakeEarnings != nil && *acc.DelegatedRestakeEarnings && acc.DelegatedTargetBakerID != nil {
		if err := store.SetAccountDelegatedStake(tx, o.AccountIndex, acc.DelegatedStake+total); err != nil {
			return err
		}
		return store.AdjustPoolTotalStaked(tx, *acc.DelegatedTargetBakerID, int64(total))
	}

	baker, err := store.GetBaker(tx, o.AccountIndex)
	if err == nil && baker.RestakeEarnings {
		if err := store.SetBakerStaked(tx, o.AccountIndex, baker.Staked+total); err != nil {
			return err
		}
		return store.AdjustPoolTotalStaked(tx, o.AccountIndex, int64(total))
	}
	return nil
}
