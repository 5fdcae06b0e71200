package nodeclient

import "time"

// BigInt is an arbitrary-precision decimal amount, wire-encoded as a
// plain decimal string so it round-trips through the JSON-over-gRPC
// codec (see codec.go) without precision loss — CIS-2 token supplies
// and balances are not bounded to 64 bits.
type BigInt struct {
	Decimal string
}

// ConsensusInfo mirrors the subset of get_consensus_info used by the
// node client pool to judge a connection's liveness.
type ConsensusInfo struct {
	LastFinalizedBlockHeight uint64
	LastFinalizedBlock       string
	GenesisBlock             string
	ProtocolVersion          uint32
}

// BlockInfo mirrors get_block_info.
type BlockInfo struct {
	Height             uint64
	Hash               string
	SlotTime           time.Time
	BlockLastFinalized string
	BakerID            *uint64
	ProtocolVersion    uint32
}

// QuorumCertificate is present from protocol version 8 onward; empty
// for earlier protocol versions.
type QuorumCertificate struct {
	SignerBakerIDs []uint64
}

// BlockCertificates mirrors get_block_certificates.
type BlockCertificates struct {
	QuorumCertificate *QuorumCertificate
}

// BlockItemEvent is one decoded effect of executing a block item
// (transaction), tagged by Kind. Payload carries the kind-specific
// decoded fields as an opaque JSON document; the processor interprets
// it according to Kind (see internal/indexer/events.go).
type BlockItemEvent struct {
	Kind    string
	Payload []byte
}

// BlockItemSummary mirrors one entry of get_block_transaction_events:
// the decoded execution outcome of a single block item.
type BlockItemSummary struct {
	Index              uint64
	Hash               string
	SenderAccount      *string // canonical address, used only for the CredentialDeployment case
	SenderAccountIndex *uint64 // resolved account index, nil for CredentialDeployment/Update
	CostMicroCCD       uint64
	EnergyCost         uint64
	Kind               string // "Account" | "CredentialDeployment" | "Update"
	Success            bool
	Events             []BlockItemEvent
	RejectReason       []byte   // opaque, non-nil only when !Success
	AffectedAccounts   []uint64 // account indices touched by this item
}

// BlockItem mirrors one entry of get_block_items: the raw transaction,
// used to recover fields (e.g. module reference on a reject) that
// aren't present in the decoded execution summary.
type BlockItem struct {
	Index   uint64
	Hash    string
	RawKind string
	Payload []byte
}

// TokenomicsInfo mirrors get_tokenomics_info.
type TokenomicsInfo struct {
	TotalAmount         uint64
	TotalStakedCapital  *uint64 // nil for protocol versions < 4
	ProtocolVersion     uint32
}

// ChainParameters mirrors the subset of get_block_chain_parameters the
// preprocessor and processor need.
type ChainParameters struct {
	EpochDuration             time.Duration
	RewardPeriodLength        uint64
	LeverageBoundNumerator    uint64
	LeverageBoundDenominator  uint64
	CapitalBoundPerHundredThousand uint64
}

// SpecialEvent is one entry of get_block_special_events, tagged by
// Kind (e.g. "BakingRewards", "PaydayFoundationReward",
// "PaydayAccountReward", "PaydayPoolReward", "BlockAccrueReward", ...).
type SpecialEvent struct {
	Kind    string
	Payload []byte
}

// BakerInfo mirrors one entry of get_baker_list plus get_pool_info.
type BakerInfo struct {
	BakerID            uint64
	StakedAmount       uint64
	RestakeEarnings    bool
	OpenStatus         string
	MetadataURL        string
	CommissionTxn      uint32
	CommissionBaking   uint32
	CommissionFinal    uint32
	SelfSuspended      bool
	InactiveSuspended  bool
	PrimedForSuspension bool
}

// PoolInfo mirrors get_pool_info for a single baker.
type PoolInfo struct {
	BakerID          uint64
	OpenStatus       string
	MetadataURL      string
	CommissionTxn    uint32
	CommissionBaking uint32
	CommissionFinal  uint32
}

// RewardPeriodBakerInfo mirrors one entry of get_bakers_reward_period.
type RewardPeriodBakerInfo struct {
	BakerID          uint64
	EffectiveStake   uint64
	CommissionTxn    uint32
	CommissionBaking uint32
	CommissionFinal  uint32
	LotteryPower     float64
}

// PassiveDelegatorsRewardPeriod mirrors get_passive_delegators_reward_period.
type PassiveDelegatorsRewardPeriod struct {
	TotalStake uint64
}

// PassiveDelegationInfo mirrors get_passive_delegation_info.
type PassiveDelegationInfo struct {
	CommissionTxn    uint32
	CommissionBaking uint32
	CommissionFinal  uint32
}

// ElectionInfo mirrors get_election_info: per-baker election/lottery
// data at a given block, ordered by node-reported rank.
type ElectionInfo struct {
	Bakers []RewardPeriodBakerInfo
}

// InstanceInfo mirrors get_instance_info for a smart contract instance.
type InstanceInfo struct {
	Owner        string
	AmountMicroCCD uint64
	ModuleRef    string
	MethodsInitName string
}

// ModuleSource mirrors get_module_source.
type ModuleSource struct {
	ModuleRef string
	WasmBytes []byte
	Version   uint8 // 0 or 1
}

// AccountInfo mirrors the subset of get_account_info used during
// protocol-migration backfills and genesis bootstrap.
type AccountInfo struct {
	Index            uint64
	Address          string
	CanonicalAddress string
	AmountMicroCCD   uint64
	DelegationTarget *uint64 // nil = not delegating or passive, per flag below
	DelegationPassive bool
	DelegatedStake   uint64
	RestakeEarnings  *bool
}
