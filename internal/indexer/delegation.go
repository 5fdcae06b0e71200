package indexer

import (
	"github.com/pkg/errors"

	"github.com/ccdscan/backend/internal/store"
)

// applyDelegationEvent implements the DelegationXxx branch of spec.md
// §4.3.1.
func applyDelegationEvent(tx *store.Tx, e *DelegationEvent) error {
	switch e.SubKind {
	case "Added":
		return store.SetAccountDelegationAdded(tx, e.AccountIndex)

	case "StakeIncrease", "StakeDecrease":
		if e.NewTargetBakerID != nil {
			delta := int64(e.NewStake) - int64(e.OldStake)
			if err := store.AdjustPoolTotalStaked(tx, *e.NewTargetBakerID, delta); err != nil {
				return err
			}
		}
		return store.SetAccountDelegatedStake(tx, e.AccountIndex, e.NewStake)

	case "Removed", "BakerRemoved":
		if e.OldTargetBakerID != nil {
			if err := store.AdjustPoolTotalStaked(tx, *e.OldTargetBakerID, -int64(e.OldStake)); err != nil {
				return err
			}
			if err := store.AdjustPoolDelegatorCount(tx, *e.OldTargetBakerID, -1); err != nil {
				return err
			}
		}
		return store.ClearAccountDelegation(tx, e.AccountIndex)

	case "SetDelegationTarget":
		if e.OldTargetBakerID != nil {
			if err := store.AdjustPoolTotalStaked(tx, *e.OldTargetBakerID, -int64(e.OldStake)); err != nil {
				return err
			}
			if err := store.AdjustPoolDelegatorCount(tx, *e.OldTargetBakerID, -1); err != nil {
				return err
			}
		}
		newTarget := e.NewTargetBakerID
		if newTarget != nil {
			exists, err := store.BakerExists(tx, *newTarget)
			if err != nil {
				return err
			}
			if !exists {
				newTarget = nil
			} else {
				if err := store.AdjustPoolTotalStaked(tx, *newTarget, int64(e.NewStake)); err != nil {
					return err
				}
				if err := store.AdjustPoolDelegatorCount(tx, *newTarget, 1); err != nil {
					return err
				}
			}
		}
		return store.SetAccountDelegationTarget(tx, e.AccountIndex, newTarget)

	default:
		return errors.Errorf("unknown delegation event sub-kind %q", e.SubKind)
	}
}
