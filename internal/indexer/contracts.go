package indexer

import (
	"github.com/pkg/errors"

	"github.com/ccdscan/backend/internal/store"
)

// applyContractInit implements spec.md §4.3.1's ContractInitialized
// handling: debit the sender, create the contract row, link it to its
// module, then apply any CIS-2 logs it emitted.
func applyContractInit(tx *store.Tx, height, txIndex uint64, e *ContractInitEvent) error {
	bal, err := store.AdjustAccountAmount(tx, e.SenderAccountIndex, -int64(e.AmountMicroCCD))
	if err != nil {
		return err
	}
	if err := insertStatement(tx, e.SenderAccountIndex, store.EntryTransferOut, -int64(e.AmountMicroCCD), height, txIndex, bal); err != nil {
		return err
	}

	if err := store.InsertContract(tx, &store.Contract{
		Index: e.ContractIndex, SubIndex: e.ContractSubIndex, ModuleReference: e.ModuleReference,
		InitName: e.InitName, Amount: e.AmountMicroCCD, TransactionIndex: txIndex,
	}); err != nil {
		return err
	}

	linkIdx, err := store.NextModuleLinkIndex(tx, e.ModuleReference)
	if err != nil {
		return err
	}
	if err := store.InsertModuleLinkEvent(tx, &store.ModuleLinkEvent{
		ModuleReference: e.ModuleReference, IndexPerModule: linkIdx, LinkAction: "Added",
		ContractIndex: e.ContractIndex, ContractSubIndex: e.ContractSubIndex, TransactionIndex: txIndex,
	}); err != nil {
		return err
	}

	return applyCis2Logs(tx, txIndex, e.Cis2Events)
}

// applyContractTrace implements spec.md §4.3.1's per-trace-element
// handling for Updated/Transferred/Interrupted/Resumed/Upgraded.
func applyContractTrace(tx *store.Tx, height, txIndex uint64, e *ContractTraceEvent) error {
	evIdx, err := store.NextContractEventIndex(tx, e.ContractIndex, e.ContractSubIndex)
	if err != nil {
		return err
	}
	if err := store.InsertContractEvent(tx, &store.ContractEvent{
		ContractIndex: e.ContractIndex, ContractSubIndex: e.ContractSubIndex, EventIndexPerContract: evIdx,
		TransactionIndex: txIndex, TraceElementIndex: e.TraceElementIndex, BlockHeight: height,
		Kind: e.SubKind, Payload: e.Payload,
	}); err != nil {
		return err
	}

	switch e.SubKind {
	case "Upgraded":
		removeIdx, err := store.NextModuleLinkIndex(tx, e.OldModuleReference)
		if err != nil {
			return err
		}
		if err := store.InsertModuleLinkEvent(tx, &store.ModuleLinkEvent{
			ModuleReference: e.OldModuleReference, IndexPerModule: removeIdx, LinkAction: "Removed",
			ContractIndex: e.ContractIndex, ContractSubIndex: e.ContractSubIndex, TransactionIndex: txIndex,
		}); err != nil {
			return err
		}
		addIdx, err := store.NextModuleLinkIndex(tx, e.NewModuleReference)
		if err != nil {
			return err
		}
		if err := store.InsertModuleLinkEvent(tx, &store.ModuleLinkEvent{
			ModuleReference: e.NewModuleReference, IndexPerModule: addIdx, LinkAction: "Added",
			ContractIndex: e.ContractIndex, ContractSubIndex: e.ContractSubIndex, TransactionIndex: txIndex,
		}); err != nil {
			return err
		}
		if err := store.SetContractModuleReference(tx, e.ContractIndex, e.ContractSubIndex, e.NewModuleReference, txIndex); err != nil {
			return err
		}

	case "Transferred", "Updated":
		if e.AmountMicroCCD > 0 {
			if e.FromIsAccount {
				bal, err := store.AdjustAccountAmount(tx, e.FromAccountIndex, -int64(e.AmountMicroCCD))
				if err != nil {
					return err
				}
				if err := insertStatement(tx, e.FromAccountIndex, store.EntryTransferOut, -int64(e.AmountMicroCCD), height, txIndex, bal); err != nil {
					return err
				}
			} else {
				if err := store.AdjustContractAmount(tx, e.FromContractIndex, e.FromContractSub, -int64(e.AmountMicroCCD)); err != nil {
					return err
				}
			}
			if e.ToIsAccount {
				bal, err := store.AdjustAccountAmount(tx, e.ToAccountIndex, int64(e.AmountMicroCCD))
				if err != nil {
					return err
				}
				if err := insertStatement(tx, e.ToAccountIndex, store.EntryTransferIn, int64(e.AmountMicroCCD), height, txIndex, bal); err != nil {
					return err
				}
			} else {
				if err := store.AdjustContractAmount(tx, e.ToContractIndex, e.ToContractSub, int64(e.AmountMicroCCD)); err != nil {
					return err
				}
			}
		}

	case "Interrupted", "Resumed":
		// No balance movement; the event row above is the full effect.

	default:
		return errors.Errorf("unknown contract trace sub-kind %q", e.SubKind)
	}

	return applyCis2Logs(tx, txIndex, e.Cis2Events)
}
