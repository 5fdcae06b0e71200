package store

import "github.com/pkg/errors"

// InsertSmartContractModule inserts one row of smart_contract_modules
// for a ModuleDeployed event.
func InsertSmartContractModule(tx *Tx, m *SmartContractModule) error {
	if err := tx.DB().Create(m).Error; err != nil {
		return errors.Wrap(err, "store: insert smart_contract_module")
	}
	return nil
}

// InsertContract inserts one row of contracts for a ContractInitialized
// event.
func InsertContract(tx *Tx, c *Contract) error {
	if err := tx.DB().Create(c).Error; err != nil {
		return errors.Wrap(err, "store: insert contract")
	}
	return nil
}

// GetContract loads one contract row by (index, subIndex).
func GetContract(tx *Tx, index, subIndex uint64) (*Contract, error) {
	var c Contract
	if err := tx.DB().Where("index = ? AND sub_index = ?", index, subIndex).Take(&c).Error; err != nil {
		return nil, errors.Wrapf(err, "store: load contract %d.%d", index, subIndex)
	}
	return &c, nil
}

// AdjustContractAmount applies delta to a contract's balance on
// Updated/Interrupted/Resumed events carrying an amount.
func AdjustContractAmount(tx *Tx, index, subIndex uint64, delta int64) error {
	res := tx.DB().Model(&Contract{}).Where("index = ? AND sub_index = ?", index, subIndex).
		Update("amount", gormExprAdd("amount", delta))
	if res.Error != nil {
		return errors.Wrapf(res.Error, "store: adjust contract %d.%d amount", index, subIndex)
	}
	return EnsureAffectedOneRow(res.RowsAffected, "adjust contract amount")
}

// SetContractModuleReference updates module_reference and the
// last-upgrade transaction index for a contract's Upgraded event.
func SetContractModuleReference(tx *Tx, index, subIndex uint64, moduleRef string, txIndex uint64) error {
	res := tx.DB().Model(&Contract{}).Where("index = ? AND sub_index = ?", index, subIndex).
		Updates(map[string]interface{}{
			"module_reference":               moduleRef,
			"last_upgrade_transaction_index": txIndex,
		})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "store: set contract %d.%d module reference", index, subIndex)
	}
	return EnsureAffectedOneRow(res.RowsAffected, "set contract module reference")
}

// NextContractEventIndex computes the next event_index_per_contract for
// the given contract.
func NextContractEventIndex(tx *Tx, index, subIndex uint64) (uint64, error) {
	return nextIndex(tx.DB(), "contract_events", "event_index_per_contract",
		"contract_index = ? AND contract_sub_index = ?", index, subIndex)
}

// InsertContractEvent inserts one contract_events row.
func InsertContractEvent(tx *Tx, e *ContractEvent) error {
	if err := tx.DB().Create(e).Error; err != nil {
		return errors.Wrap(err, "store: insert contract_event")
	}
	return nil
}

// NextModuleLinkIndex computes the next index_per_module for the given
// module reference.
func NextModuleLinkIndex(tx *Tx, moduleRef string) (uint64, error) {
	return nextIndex(tx.DB(), "module_link_events", "index_per_module", "module_reference = ?", moduleRef)
}

// InsertModuleLinkEvent inserts one module_link_events row (LinkAction
// is "Added" on ContractInitialized, "Removed" on contract removal via
// self-destruct/upgrade-away, spec.md §4.3.1).
func InsertModuleLinkEvent(tx *Tx, e *ModuleLinkEvent) error {
	if err := tx.DB().Create(e).Error; err != nil {
		return errors.Wrap(err, "store: insert module_link_event")
	}
	return nil
}

// NextRejectedModuleTxIndex computes the next index_per_module for
// rejected_module_transactions.
func NextRejectedModuleTxIndex(tx *Tx, moduleRef string) (uint64, error) {
	return nextIndex(tx.DB(), "rejected_module_transactions", "index_per_module", "module_reference = ?", moduleRef)
}

// InsertRejectedModuleTransaction records a transaction that referenced
// a module reference but was rejected (spec.md §4.3.1).
func InsertRejectedModuleTransaction(tx *Tx, r *RejectedModuleTransaction) error {
	if err := tx.DB().Create(r).Error; err != nil {
		return errors.Wrap(err, "store: insert rejected_module_transaction")
	}
	return nil
}

// NextRejectedContractUpdateIndex computes the next
// index_per_contract for rejected_contract_updates.
func NextRejectedContractUpdateIndex(tx *Tx, index, subIndex uint64) (uint64, error) {
	return nextIndex(tx.DB(), "rejected_contract_updates", "index_per_contract",
		"contract_index = ? AND contract_sub_index = ?", index, subIndex)
}

// InsertRejectedContractUpdate records a rejected contract-update
// transaction.
func InsertRejectedContractUpdate(tx *Tx, r *RejectedContractUpdate) error {
	if err := tx.DB().Create(r).Error; err != nil {
		return errors.Wrap(err, "store: insert rejected_contract_update")
	}
	return nil
}
