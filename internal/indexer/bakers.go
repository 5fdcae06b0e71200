package indexer

import (
	"github.com/pkg/errors"

	"github.com/ccdscan/backend/internal/store"
)

// applyBakerEvent implements the BakerXxx branch of spec.md §4.3.1.
// Every store update made here asserts exactly one affected row at
// every protocol version; e.ProtocolVersion is not consulted, so an
// update that touches no row aborts the batch at any version.
func applyBakerEvent(tx *store.Tx, e *BakerEvent, txIndex uint64) error {
	switch e.SubKind {
	case "Added":
		if err := store.DeleteRemovedBakerRecord(tx, e.BakerID); err != nil {
			return err
		}
		return store.InsertBaker(tx, &store.Baker{
			ID: e.BakerID, Staked: e.StakedAmount, PoolTotalStaked: e.StakedAmount, RestakeEarnings: e.RestakeEarnings, OpenStatus: "OpenForAll",
		})

	case "Removed":
		delegators, err := store.AccountsTargetingBaker(tx, e.BakerID)
		if err != nil {
			return err
		}
		if _, err := store.ClearDelegationTargetForPool(tx, e.BakerID); err != nil {
			return err
		}
		for _, d := range delegators {
			if err := store.ClearAccountDelegation(tx, d.Index); err != nil {
				return err
			}
		}
		return store.RemoveBaker(tx, e.BakerID, txIndex)

	case "StakeIncrease", "StakeDecrease":
		baker, err := store.GetBaker(tx, e.BakerID)
		if err != nil {
			return err
		}
		if err := store.SetBakerStaked(tx, e.BakerID, uint64(int64(baker.Staked)+e.StakeDelta)); err != nil {
			return err
		}
		return store.AdjustPoolTotalStaked(tx, e.BakerID, e.StakeDelta)

	case "SetRestakeEarnings":
		return store.SetBakerRestakeEarnings(tx, e.BakerID, e.RestakeEarnings)

	case "SetMetadataUrl":
		return store.SetBakerMetadataURL(tx, e.BakerID, e.MetadataURL)

	case "SetCommissionTransaction":
		baker, err := store.GetBaker(tx, e.BakerID)
		if err != nil {
			return err
		}
		return store.SetBakerCommissionRates(tx, e.BakerID, e.CommissionRate, baker.CommissionBaking, baker.CommissionFinalization)

	case "SetCommissionBaking":
		baker, err := store.GetBaker(tx, e.BakerID)
		if err != nil {
			return err
		}
		return store.SetBakerCommissionRates(tx, e.BakerID, baker.CommissionTransaction, e.CommissionRate, baker.CommissionFinalization)

	case "SetCommissionFinalization":
		baker, err := store.GetBaker(tx, e.BakerID)
		if err != nil {
			return err
		}
		return store.SetBakerCommissionRates(tx, e.BakerID, baker.CommissionTransaction, baker.CommissionBaking, e.CommissionRate)

	case "SetOpenStatus":
		if err := store.SetBakerOpenStatus(tx, e.BakerID, e.OpenStatus); err != nil {
			return err
		}
		if e.OpenStatus != "ClosedForAll" {
			return nil
		}
		delegators, err := store.AccountsTargetingBaker(tx, e.BakerID)
		if err != nil {
			return err
		}
		if _, err := store.ClearDelegationTargetForPool(tx, e.BakerID); err != nil {
			return err
		}
		for _, d := range delegators {
			if err := store.SetAccountDelegationTarget(tx, d.Index, nil); err != nil {
				return err
			}
		}
		return nil

	case "Suspended":
		height := e.SuspendedAtHeight
		return store.SetBakerSuspended(tx, e.BakerID, &height, nil)

	case "Resumed":
		return store.SetBakerResumed(tx, e.BakerID)

	default:
		return errors.Errorf("unknown baker event sub-kind %q", e.SubKind)
	}
}
