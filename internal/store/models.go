// Package store is the append-mostly relational schema and query layer
// described in spec.md §3, backed by gorm.io/gorm over Postgres. Rows
// are keyed by strictly-increasing indices computed with
// COALESCE(MAX(index)+1, 0) scoped per spec.md §4.3; the guard helpers
// in guards.go enforce the per-statement affected-row invariants the
// processor relies on.
package store

import "time"

// Numeric is an arbitrary-precision decimal stored as Postgres NUMERIC,
// used for CIS-2 token supplies and balances which may exceed 64 bits
// or go negative for buggy contracts (spec.md §3, §4.3.2).
type Numeric string

// Block is one row of the blocks table (spec.md §3).
type Block struct {
	Height                    uint64 `gorm:"primaryKey"`
	Hash                      string `gorm:"uniqueIndex:idx_blocks_height_hash"`
	SlotTime                  time.Time
	BlockTimeMs               int64
	BakerID                   *uint64
	TotalAmount               uint64
	TotalStaked               uint64
	CumulativeNumTxs          uint64
	FinalizationTimeMs        *int64
	FinalizedBy               *uint64
	CumulativeFinalizationTime int64
	BlockLastFinalized        string
	ProtocolVersion           uint32
}

func (Block) TableName() string { return "blocks" }

// Transaction is one row of the transactions table.
type Transaction struct {
	Index           uint64 `gorm:"primaryKey"`
	BlockHeight     uint64 `gorm:"index"`
	Hash            string `gorm:"index"`
	CostMicroCCD    uint64
	EnergyCost      uint64
	SenderAccount   *uint64 `gorm:"index"`
	Kind            string
	SubKind         string
	Success         bool
	Events          []byte // opaque JSON, decoded only at the API boundary
	RejectReason    []byte
}

func (Transaction) TableName() string { return "transactions" }

// AffectedAccount is one row of the affected_accounts many-to-many table.
type AffectedAccount struct {
	TransactionIndex uint64 `gorm:"primaryKey"`
	AccountIndex     uint64 `gorm:"primaryKey;index"`
}

func (AffectedAccount) TableName() string { return "affected_accounts" }

// Account is one row of the accounts table.
type Account struct {
	Index                     uint64 `gorm:"primaryKey"`
	Address                   string `gorm:"uniqueIndex"`
	CanonicalAddress          string `gorm:"index"`
	Amount                    uint64
	DelegatedStake            uint64
	NumTxs                    uint64
	DelegatedRestakeEarnings  *bool
	DelegatedTargetBakerID    *uint64 `gorm:"index"`
	TransactionIndex          *uint64
}

func (Account) TableName() string { return "accounts" }

// Baker is one row of the bakers (active validators) table.
type Baker struct {
	ID                     uint64 `gorm:"primaryKey"` // == account index
	Staked                 uint64
	RestakeEarnings        bool
	OpenStatus             string
	MetadataURL            string
	CommissionTransaction  uint32
	CommissionBaking       uint32
	CommissionFinalization uint32
	PaydayCommissionTransaction  *uint32
	PaydayCommissionBaking       *uint32
	PaydayCommissionFinalization *uint32
	PoolTotalStaked        uint64
	PoolDelegatorCount     uint64
	SelfSuspended          *uint64 // triggering block height
	InactiveSuspended      *uint64
	PrimedForSuspension    *uint64
}

func (Baker) TableName() string { return "bakers" }

// RemovedBaker is one row of bakers_removed.
type RemovedBaker struct {
	ID                uint64 `gorm:"primaryKey"`
	RemovedByTxIndex  uint64
}

func (RemovedBaker) TableName() string { return "bakers_removed" }

// SmartContractModule is one row of smart_contract_modules.
type SmartContractModule struct {
	ModuleReference  string `gorm:"primaryKey"`
	TransactionIndex uint64
	Schema           []byte
}

func (SmartContractModule) TableName() string { return "smart_contract_modules" }

// Contract is one row of contracts, keyed by (index, sub_index).
type Contract struct {
	Index                    uint64 `gorm:"primaryKey"`
	SubIndex                 uint64 `gorm:"primaryKey"`
	ModuleReference          string
	InitName                 string
	Amount                   uint64
	TransactionIndex         uint64
	LastUpgradeTransactionIndex *uint64
}

func (Contract) TableName() string { return "contracts" }

// ContractEvent is one row of contract_events.
type ContractEvent struct {
	ContractIndex        uint64 `gorm:"primaryKey"`
	ContractSubIndex     uint64 `gorm:"primaryKey"`
	EventIndexPerContract uint64 `gorm:"primaryKey"`
	TransactionIndex     uint64
	TraceElementIndex    uint64
	BlockHeight          uint64
	Kind                 string
	Payload              []byte
}

func (ContractEvent) TableName() string { return "contract_events" }

// ModuleLinkEvent is one row of module_link_events.
type ModuleLinkEvent struct {
	ModuleReference      string `gorm:"primaryKey"`
	IndexPerModule       uint64 `gorm:"primaryKey"`
	LinkAction           string // "Added" | "Removed"
	ContractIndex        uint64
	ContractSubIndex     uint64
	TransactionIndex     uint64
}

func (ModuleLinkEvent) TableName() string { return "module_link_events" }

// RejectedModuleTransaction is one row of rejected_module_transactions.
type RejectedModuleTransaction struct {
	ModuleReference  string `gorm:"primaryKey"`
	IndexPerModule   uint64 `gorm:"primaryKey"`
	TransactionIndex uint64
}

func (RejectedModuleTransaction) TableName() string { return "rejected_module_transactions" }

// RejectedContractUpdate is one row of rejected_contract_updates.
type RejectedContractUpdate struct {
	ContractIndex     uint64 `gorm:"primaryKey"`
	ContractSubIndex  uint64 `gorm:"primaryKey"`
	IndexPerContract  uint64 `gorm:"primaryKey"`
	TransactionIndex  uint64
}

func (RejectedContractUpdate) TableName() string { return "rejected_contract_updates" }

// Token is one row of tokens, keyed by (contract_index, contract_sub_index, token_id).
type Token struct {
	Index                uint64 `gorm:"primaryKey"`
	ContractIndex        uint64 `gorm:"index:idx_tokens_contract_token,unique"`
	ContractSubIndex     uint64 `gorm:"index:idx_tokens_contract_token,unique"`
	TokenID              string `gorm:"index:idx_tokens_contract_token,unique"`
	TokenIndexPerContract uint64
	TotalSupply          Numeric `gorm:"type:numeric"`
	MetadataURL          string
	InitTransactionIndex uint64
}

func (Token) TableName() string { return "tokens" }

// AccountTokenBalance is one row of account_tokens, keyed by (account_index, token_index).
type AccountTokenBalance struct {
	AccountIndex uint64  `gorm:"primaryKey"`
	TokenIndex   uint64  `gorm:"primaryKey"`
	Balance      Numeric `gorm:"type:numeric"`
}

func (AccountTokenBalance) TableName() string { return "account_tokens" }

// Cis2TokenEvent is one row of cis2_token_events.
type Cis2TokenEvent struct {
	TokenIndex     uint64 `gorm:"primaryKey"`
	IndexPerToken  uint64 `gorm:"primaryKey"`
	Kind           string // Mint | Burn | Transfer | TokenMetadata
	TransactionIndex uint64
	Payload        []byte
}

func (Cis2TokenEvent) TableName() string { return "cis2_token_events" }

// ScheduledRelease is one row of scheduled_releases, deleted once
// ReleaseTime <= the processor's last observed slot time.
type ScheduledRelease struct {
	Index            uint64 `gorm:"primaryKey"`
	AccountIndex     uint64 `gorm:"index"`
	TransactionIndex uint64
	ReleaseTime      time.Time `gorm:"index"`
	Amount           uint64
}

func (ScheduledRelease) TableName() string { return "scheduled_releases" }

// AccountStatementEntryType enumerates account_statements.entry_type.
type AccountStatementEntryType string

const (
	EntryTransferIn          AccountStatementEntryType = "TransferIn"
	EntryTransferOut         AccountStatementEntryType = "TransferOut"
	EntryAmountDecrypted     AccountStatementEntryType = "AmountDecrypted"
	EntryAmountEncrypted     AccountStatementEntryType = "AmountEncrypted"
	EntryTransactionFee      AccountStatementEntryType = "TransactionFee"
	EntryFinalizationReward  AccountStatementEntryType = "FinalizationReward"
	EntryFoundationReward    AccountStatementEntryType = "FoundationReward"
	EntryBakerReward         AccountStatementEntryType = "BakerReward"
	EntryTransactionFeeReward AccountStatementEntryType = "TransactionFeeReward"
)

// AccountStatement is one row of account_statements.
type AccountStatement struct {
	Index             uint64 `gorm:"primaryKey"`
	AccountIndex      uint64 `gorm:"index"`
	EntryType         AccountStatementEntryType
	Amount            int64 // signed: debits negative, credits positive
	BlockHeight        uint64
	TransactionIndex  *uint64
	AccountBalanceAfter uint64
}

func (AccountStatement) TableName() string { return "account_statements" }

// PaydayPoolReward is one row of bakers_payday_pool_rewards. PoolOwner
// is nil for the passive pool (spec.md's pool_owner = -1).
type PaydayPoolReward struct {
	Index                      uint64 `gorm:"primaryKey"`
	BlockHeight                uint64 `gorm:"index"`
	PoolOwner                  *uint64 `gorm:"index"`
	TotalTransactionRewards    uint64
	TotalBakingRewards         uint64
	TotalFinalizationRewards   uint64
	DelegatorsTransactionRewards  uint64
	DelegatorsBakingRewards       uint64
	DelegatorsFinalizationRewards uint64
}

func (PaydayPoolReward) TableName() string { return "bakers_payday_pool_rewards" }

// PaydayCommissionRate is one row of bakers_payday_commission_rates,
// replaced wholesale on every payday.
type PaydayCommissionRate struct {
	BlockHeight            uint64 `gorm:"primaryKey"`
	BakerID                uint64 `gorm:"primaryKey"`
	CommissionTransaction  uint32
	CommissionBaking       uint32
	CommissionFinalization uint32
}

func (PaydayCommissionRate) TableName() string { return "bakers_payday_commission_rates" }

// PaydayLotteryPower is one row of bakers_payday_lottery_powers.
type PaydayLotteryPower struct {
	BlockHeight  uint64 `gorm:"primaryKey"`
	BakerID      uint64 `gorm:"primaryKey"`
	LotteryPower float64
	Ranking      uint64
}

func (PaydayLotteryPower) TableName() string { return "bakers_payday_lottery_powers" }

// PaydayStakeSnapshot is one row of bakers_payday_stake_snapshots.
// BakerID is nil for the passive pool snapshot.
type PaydayStakeSnapshot struct {
	BlockHeight uint64  `gorm:"primaryKey"`
	BakerID     *uint64 `gorm:"primaryKey"`
	Staked      uint64
}

func (PaydayStakeSnapshot) TableName() string { return "bakers_payday_stake_snapshots" }

// MetricsBaker is one row of metrics_bakers: running rollups of
// bakers added/removed/suspended/resumed keyed by block height.
type MetricsBaker struct {
	BlockHeight        uint64 `gorm:"primaryKey"`
	TotalBakersAdded   uint64
	TotalBakersRemoved uint64
	TotalBakersSuspended uint64
	TotalBakersResumed   uint64
}

func (MetricsBaker) TableName() string { return "metrics_bakers" }

// CurrentChainParameters is the singleton chain-parameters row.
type CurrentChainParameters struct {
	ID                       uint8 `gorm:"primaryKey"` // always 1
	LeverageBoundNumerator   uint64
	LeverageBoundDenominator uint64
	CapitalBoundPerHundredThousand uint64
	EpochDurationMs          int64
	RewardPeriodLength       uint64
	LastPaydayBlockHeight    uint64
}

func (CurrentChainParameters) TableName() string { return "current_chain_parameters" }
