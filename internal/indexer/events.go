package indexer

import (
	"github.com/pkg/errors"

	"github.com/ccdscan/backend/internal/store"
)

// applyItem implements spec.md §4.3 step 4.b "save": insert the
// transaction, bookkeep affected accounts, then dispatch to the typed
// event.
func applyItem(tx *store.Tx, pb *PreparedBlock, item *PreparedBlockItem) error {
	idx, err := store.NextTransactionIndex(tx)
	if err != nil {
		return err
	}
	item.Index = idx

	t := &store.Transaction{
		Index: idx, BlockHeight: pb.Height, Hash: item.Hash,
		CostMicroCCD: item.CostMicroCCD, EnergyCost: item.EnergyCost,
		SenderAccount: item.SenderAccountIndex, Kind: item.Kind, SubKind: item.SubKind,
		Success: item.Success, Events: item.EventsJSON, RejectReason: item.RejectReasonJSON,
	}
	if err := store.InsertTransaction(tx, t); err != nil {
		return err
	}

	switch item.Event.Kind {
	case EventAccountCreation:
		return applyAccountCreation(tx, idx, item)
	case EventAccountTransaction:
		if err := store.InsertAffectedAccounts(tx, idx, item.AffectedAccounts); err != nil {
			return err
		}
		return applyAccountTransaction(tx, pb, idx, item)
	case EventChainUpdate:
		return nil
	default:
		return errors.Errorf("unknown event kind %q", item.Event.Kind)
	}
}

func applyAccountCreation(tx *store.Tx, txIndex uint64, item *PreparedBlockItem) error {
	accIdx, err := store.NextAccountIndex(tx)
	if err != nil {
		return err
	}
	acc := &store.Account{
		Index: accIdx, Address: item.Event.NewAccountAddress,
		CanonicalAddress: item.Event.NewAccountCanonicalAddress, NumTxs: 1, TransactionIndex: &txIndex,
	}
	if err := store.InsertAccount(tx, acc); err != nil {
		return err
	}
	return store.InsertAffectedAccountOnly(tx, txIndex, accIdx)
}

// applyAccountTransaction dispatches every effect carried by an
// AccountTransaction event, in the order spec.md §4.3.1 lists them.
func applyAccountTransaction(tx *store.Tx, pb *PreparedBlock, txIndex uint64, item *PreparedBlockItem) error {
	ev := item.Event

	if item.SenderAccountIndex != nil {
		bal, err := store.AdjustAccountAmount(tx, *item.SenderAccountIndex, -int64(item.CostMicroCCD))
		if err != nil {
			return err
		}
		if err := insertStatement(tx, *item.SenderAccountIndex, store.EntryTransactionFee,
			-int64(item.CostMicroCCD), pb.Height, txIndex, bal); err != nil {
			return err
		}
	}
	if !item.Success {
		return applyRejected(tx, txIndex, ev)
	}

	if ev.CCDTransfer != nil {
		if err := applyCCDTransfer(tx, pb.Height, txIndex, ev.CCDTransfer); err != nil {
			return err
		}
	}
	if ev.EncryptedBalance != nil {
		if err := applyEncryptedBalance(tx, pb.Height, txIndex, ev.EncryptedBalance); err != nil {
			return err
		}
	}
	for i := range ev.BakerEvents {
		if err := applyBakerEvent(tx, &ev.BakerEvents[i], txIndex); err != nil {
			return err
		}
	}
	for i := range ev.DelegationEvents {
		if err := applyDelegationEvent(tx, &ev.DelegationEvents[i]); err != nil {
			return err
		}
	}
	if ev.ModuleDeployed != nil {
		if err := store.InsertSmartContractModule(tx, &store.SmartContractModule{
			ModuleReference: ev.ModuleDeployed.ModuleReference, TransactionIndex: txIndex, Schema: ev.ModuleDeployed.Schema,
		}); err != nil {
			return err
		}
	}
	if ev.ContractInit != nil {
		if err := applyContractInit(tx, pb.Height, txIndex, ev.ContractInit); err != nil {
			return err
		}
	}
	for i := range ev.ContractTraces {
		if err := applyContractTrace(tx, pb.Height, txIndex, &ev.ContractTraces[i]); err != nil {
			return err
		}
	}
	if ev.ScheduledTransfer != nil {
		if err := applyScheduledTransfer(tx, pb.Height, txIndex, ev.ScheduledTransfer); err != nil {
			return err
		}
	}
	return nil
}

func applyRejected(tx *store.Tx, txIndex uint64, ev PreparedBlockItemEvent) error {
	if ev.RejectedModule != nil {
		idx, err := store.NextRejectedModuleTxIndex(tx, ev.RejectedModule.ModuleReference)
		if err != nil {
			return err
		}
		return store.InsertRejectedModuleTransaction(tx, &store.RejectedModuleTransaction{
			ModuleReference: ev.RejectedModule.ModuleReference, IndexPerModule: idx, TransactionIndex: txIndex,
		})
	}
	if ev.RejectedContract != nil {
		idx, err := store.NextRejectedContractUpdateIndex(tx, ev.RejectedContract.ContractIndex, ev.RejectedContract.ContractSubIndex)
		if err != nil {
			return err
		}
		return store.InsertRejectedContractUpdate(tx, &store.RejectedContractUpdate{
			ContractIndex: ev.RejectedContract.ContractIndex, ContractSubIndex: ev.RejectedContract.ContractSubIndex,
			IndexPerContract: idx, TransactionIndex: txIndex,
		})
	}
	return nil
}

func insertStatement(tx *store.Tx, accountIndex uint64, entryType store.AccountStatementEntryType, amount int64, blockHeight, txIndex uint64, balanceAfter uint64) error {
	return insertStatementTx(tx, accountIndex, entryType, amount, blockHeight, &txIndex, balanceAfter)
}

// insertStatementTx is the general form: txIndex is nil for statements
// not attributable to a transaction (payday/reward credits).
func insertStatementTx(tx *store.Tx, accountIndex uint64, entryType store.AccountStatementEntryType, amount int64, blockHeight uint64, txIndex *uint64, balanceAfter uint64) error {
	idx, err := store.NextAccountStatementIndex(tx)
	if err != nil {
		return err
	}
	return store.InsertAccountStatement(tx, &store.AccountStatement{
		Index: idx, AccountIndex: accountIndex, EntryType: entryType, Amount: amount,
		BlockHeight: blockHeight, TransactionIndex: txIndex, AccountBalanceAfter: balanceAfter,
	})
}

func applyCCDTransfer(tx *store.Tx, height, txIndex uint64, e *CCDTransferEvent) error {
	fromBal, err := store.AdjustAccountAmount(tx, e.FromAccountIndex, -int64(e.AmountMicroCCD))
	if err != nil {
		return err
	}
	if err := insertStatement(tx, e.FromAccountIndex, store.EntryTransferOut, -int64(e.AmountMicroCCD), height, txIndex, fromBal); err != nil {
		return err
	}
	toBal, err := store.AdjustAccountAmount(tx, e.ToAccountIndex, int64(e.AmountMicroCCD))
	if err != nil {
		return err
	}
	return insertStatement(tx, e.ToAccountIndex, store.EntryTransferIn, int64(e.AmountMicroCCD), height, txIndex, toBal)
}

func applyEncryptedBalance(tx *store.Tx, height, txIndex uint64, e *EncryptedBalanceEvent) error {
	bal, err := store.AdjustAccountAmount(tx, e.AccountIndex, e.SignedAmount)
	if err != nil {
		return err
	}
	entry := store.EntryAmountEncrypted
	if e.Decrypted {
		entry = store.EntryAmountDecrypted
	}
	return insertStatement(tx, e.AccountIndex, entry, e.SignedAmount, height, txIndex, bal)
}

func applyScheduledTransfer(tx *store.Tx, height, txIndex uint64, e *ScheduledTransferEvent) error {
	var total uint64
	for _, r := range e.Releases {
		idx, err := store.NextScheduledReleaseIndex(tx)
		if err != nil {
			return err
		}
		if err := store.InsertScheduledRelease(tx, &store.ScheduledRelease{
			Index: idx, AccountIndex: e.ToAccountIndex, TransactionIndex: txIndex,
			ReleaseTime: r.ReleaseTime, Amount: r.AmountMicroCCD,
		}); err != nil {
			return err
		}
		total += r.AmountMicroCCD
	}
	toBal, err := store.AdjustAccountAmount(tx, e.ToAccountIndex, int64(total))
	if err != nil {
		return err
	}
	if err := insertStatement(tx, e.ToAccountIndex, store.EntryTransferIn, int64(total), height, txIndex, toBal); err != nil {
		return err
	}
	fromBal, err := store.AdjustAccountAmount(tx, e.FromAccountIndex, -int64(total))
	if err != nil {
		return err
	}
	return insertStatement(tx, e.FromAccountIndex, store.EntryTransferOut, -int64(total), height, txIndex, fromBal)
}
