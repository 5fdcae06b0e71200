// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package indexer is the block preprocessor / processor pipeline: the
// preprocessor turns a finalized height into a PreparedBlock using
// concurrent node RPCs, a reorder buffer delivers PreparedBlocks to the
// single-threaded processor in strict height order, and the processor
// applies each batch to Postgres in one transaction.
package indexer

import "time"

// PreparedBlockItemEvent is the typed outcome of one block item
// (transaction), discriminated by Kind. Only the fields relevant to
// Kind are populated; this mirrors the teacher's tagged-message shape
// (domainmessage) adapted from wire commands to execution outcomes.
type PreparedBlockItemEvent struct {
	Kind string

	// AccountCreation
	NewAccountAddress          string
	NewAccountCanonicalAddress string

	// AccountTransaction: the typed effects. A single transaction may
	// carry more than one of these (e.g. a contract update produces a
	// sequence of ContractTrace elements); whichever slices/pointers are
	// non-empty are applied in the order listed in spec.md §4.3.1.
	CCDTransfer       *CCDTransferEvent
	EncryptedBalance  *EncryptedBalanceEvent
	BakerEvents       []BakerEvent
	DelegationEvents  []DelegationEvent
	ModuleDeployed    *ModuleDeployedEvent
	ContractInit      *ContractInitEvent
	ContractTraces    []ContractTraceEvent
	ScheduledTransfer *ScheduledTransferEvent
	RejectedModule    *RejectedModuleEvent
	RejectedContract  *RejectedContractEvent
}

const (
	EventAccountCreation   = "AccountCreation"
	EventAccountTransaction = "AccountTransaction"
	EventChainUpdate       = "ChainUpdate"
)

// CCDTransferEvent moves CCD between two accounts.
type CCDTransferEvent struct {
	FromAccountIndex uint64
	ToAccountIndex   uint64
	AmountMicroCCD   uint64
}

// EncryptedBalanceEvent models AmountEncrypted/AmountDecrypted public
// balance moves. SignedAmount is positive for decrypt (public balance
// increases), negative for encrypt.
type EncryptedBalanceEvent struct {
	AccountIndex uint64
	SignedAmount int64
	Decrypted    bool
}

// BakerEvent covers every BakerXxx sub-event kind (spec.md §4.3.1).
type BakerEvent struct {
	SubKind string // Added | Removed | StakeIncrease | StakeDecrease | SetRestakeEarnings |
	// SetMetadataUrl | SetCommissionTransaction | SetCommissionBaking | SetCommissionFinalization |
	// SetOpenStatus | Suspended | Resumed
	BakerID uint64

	StakedAmount      uint64 // Added: initial stake
	StakeDelta        int64  // StakeIncrease/Decrease: signed delta
	RestakeEarnings   bool
	MetadataURL       string
	CommissionRate    uint32
	OpenStatus        string
	SuspendedAtHeight uint64

	// ProtocolVersion is decoded from the event payload. applyBakerEvent
	// does not read it: baker updates assert exactly one affected row at
	// every protocol version.
	ProtocolVersion uint32
}

// DelegationEvent covers every DelegationXxx sub-event kind.
type DelegationEvent struct {
	SubKind string // Added | Removed | StakeIncrease | StakeDecrease | SetDelegationTarget | BakerRemoved
	AccountIndex uint64

	OldTargetBakerID *uint64 // nil = passive
	NewTargetBakerID *uint64 // nil = passive

	OldStake uint64
	NewStake uint64
}

// ModuleDeployedEvent records a deployed smart-contract module.
type ModuleDeployedEvent struct {
	ModuleReference string
	Schema          []byte
}

// ContractInitEvent records a contract-init transaction's effects.
type ContractInitEvent struct {
	ContractIndex    uint64
	ContractSubIndex uint64
	ModuleReference  string
	InitName         string
	SenderAccountIndex uint64
	AmountMicroCCD   uint64
	Cis2Events       []Cis2LogEvent
}

// ContractTraceEvent records one per-contract trace element
// (Updated/Transferred/Interrupted/Resumed/Upgraded).
type ContractTraceEvent struct {
	SubKind          string
	ContractIndex    uint64
	ContractSubIndex uint64
	TraceElementIndex uint64
	Payload          []byte

	// Transferred/Updated money movement. FromIsAccount/ToIsAccount
	// distinguish account vs contract endpoints; only account balances
	// are persisted as statements, contract balances are adjusted via
	// their own `amount` column (FromContract*/ToContract* identify
	// which contract when an endpoint isn't an account).
	FromIsAccount     bool
	FromAccountIndex  uint64
	FromContractIndex uint64
	FromContractSub   uint64
	ToIsAccount       bool
	ToAccountIndex    uint64
	ToContractIndex   uint64
	ToContractSub     uint64
	AmountMicroCCD    uint64

	// Upgraded
	OldModuleReference string
	NewModuleReference string

	Cis2Events []Cis2LogEvent
}

// Cis2LogEvent is one decoded CIS-2 log entry, already gated by the
// preprocessor's supports(CIS2) check (spec.md §4.2, §4.3.2).
type Cis2LogEvent struct {
	Kind             string // Mint | Burn | Transfer | TokenMetadata
	ContractIndex    uint64
	ContractSubIndex uint64
	TokenID          string
	Amount           string // arbitrary-precision decimal string
	MetadataURL      string
	FromIsAccount    bool
	FromAccountIndex uint64
	ToIsAccount      bool
	ToAccountIndex   uint64
	Payload          []byte
}

// ScheduledTransferEvent records a TransferredWithSchedule transaction.
type ScheduledTransferEvent struct {
	FromAccountIndex uint64
	ToAccountIndex   uint64
	Releases         []ScheduledRelease
}

// ScheduledRelease is one (release_time, amount) pair.
type ScheduledRelease struct {
	ReleaseTime time.Time
	AmountMicroCCD uint64
}

// RejectedModuleEvent records an Init/Deploy reject attributable to a
// module reference.
type RejectedModuleEvent struct {
	ModuleReference string
}

// RejectedContractEvent records an Update reject attributable to a
// contract address.
type RejectedContractEvent struct {
	ContractIndex    uint64
	ContractSubIndex uint64
}

// PreparedBlockItem is one transaction's fully-decoded effects.
type PreparedBlockItem struct {
	Index              uint64
	Hash               string
	CostMicroCCD       uint64
	EnergyCost         uint64
	SenderAccountIndex *uint64 // nil for CredentialDeployment/ChainUpdate
	Kind               string
	SubKind            string
	Success            bool
	EventsJSON         []byte
	RejectReasonJSON   []byte
	AffectedAccounts   []uint64 // account indices, excluding the creation target
	Event              PreparedBlockItemEvent
}

// ProtocolMigrationData carries the additional data collected when a
// block is the first of a new protocol version (spec.md §4.2).
type ProtocolMigrationData struct {
	IsMigration bool
	PoolUpdates []BakerPoolUpdate
}

// BakerPoolUpdate is one baker's commission/metadata snapshot collected
// during a protocol migration that introduces pool parameters.
type BakerPoolUpdate struct {
	BakerID          uint64
	OpenStatus       string
	MetadataURL      string
	CommissionTxn    uint32
	CommissionBaking uint32
	CommissionFinal  uint32
}

// PaydayData carries the per-payday-block snapshot collected by the
// preprocessor (spec.md §4.2, §4.3.3).
type PaydayData struct {
	IsPayday bool

	// PoolRewards and AccountRewards are interleaved in emission order;
	// every account reward attributes to the most recently seen pool
	// reward (nil PoolOwner means the passive pool), spec.md §4.3.3.1.
	Outcomes []PaydayOutcome

	CommissionRates []PaydayCommissionSnapshot
	LotteryPowers   []PaydayLotteryPowerSnapshot
	StakeSnapshots  []PaydayStakeSnapshotEntry
}

// PaydayOutcome is one PaydayPoolReward or PaydayAccountReward special
// event in emission order.
type PaydayOutcome struct {
	Kind       string // PoolReward | AccountReward
	PoolOwner  *uint64
	AccountIndex uint64 // AccountReward only

	TransactionRewards  uint64
	BakingRewards       uint64
	FinalizationRewards uint64
}

// PaydayCommissionSnapshot is one baker's commission rates as of the
// payday, for the wholesale bakers_payday_commission_rates replace.
type PaydayCommissionSnapshot struct {
	BakerID                uint64
	CommissionTransaction  uint32
	CommissionBaking       uint32
	CommissionFinalization uint32
}

// PaydayLotteryPowerSnapshot is one baker's lottery power and rank
// (1 = highest) as of the payday.
type PaydayLotteryPowerSnapshot struct {
	BakerID      uint64
	LotteryPower float64
	Ranking      uint64
}

// PaydayStakeSnapshotEntry is one pool's staked amount as of the
// payday; BakerID nil denotes the passive pool.
type PaydayStakeSnapshotEntry struct {
	BakerID *uint64
	Staked  uint64
}

// Statistics accumulates block-scoped counters for the rollup tables
// (spec.md §4.2).
type Statistics struct {
	BakersAdded     uint64
	BakersRemoved   uint64
	BakersSuspended uint64
	BakersResumed   uint64
}

// SpecialOutcome is one block special event row to persist verbatim
// alongside the payday/statistics interpretation above.
type SpecialOutcome struct {
	Kind    string
	Payload []byte
}

// PreparedBlock is everything the processor needs to commit one block,
// produced by the preprocessor from 6-7 concurrent node queries
// (spec.md §4.2).
type PreparedBlock struct {
	Height             uint64
	Hash               string
	SlotTime           time.Time
	BakerID            *uint64
	TotalAmount        uint64
	TotalStaked        uint64
	BlockLastFinalized string
	ProtocolVersion    uint32

	QuorumCertificateSigners []uint64 // P8+, for primed-for-suspension clearing

	Items      []PreparedBlockItem
	Migration  ProtocolMigrationData
	Payday     PaydayData
	Stats      Statistics
	Specials   []SpecialOutcome
}
