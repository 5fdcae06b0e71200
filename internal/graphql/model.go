package graphql

import "github.com/ccdscan/backend/internal/store"

// Edge pairs a node with its opaque cursor, the Relay-style wrapper
// every Connection field in schema.graphql returns edges as.
type Edge[T any] struct {
	Cursor string `json:"cursor"`
	Node   T      `json:"node"`
}

// Connection is the uniform paginated-list shape every plural query
// root field returns (spec.md §6).
type Connection[T any] struct {
	Edges    []Edge[T] `json:"edges"`
	PageInfo PageInfo  `json:"pageInfo"`
	// TotalCount is the unfiltered-by-cursor row count of the filtered
	// table, exposed alongside PageInfo for clients that want it
	// without walking every page.
	TotalCount uint64 `json:"totalCount"`
}

func newConnection[T any](rows []T, info PageInfo, keyOf func(T) uint64) Connection[T] {
	edges := make([]Edge[T], len(rows))
	for i, r := range rows {
		edges[i] = Edge[T]{Cursor: encodeCursor(keyOf(r)), Node: r}
	}
	return Connection[T]{Edges: edges, PageInfo: info}
}

// The following mirror schema.graphql's object types with json tags
// matching the schema's camelCase field names; resolvers convert store
// rows to these before returning so the HTTP/WS JSON response shape
// matches what GraphQL clients expect without coupling the storage
// layer's column-cased Go fields to the wire format.

type blockModel struct {
	Height             uint64  `json:"height"`
	Hash               string  `json:"hash"`
	SlotTime           string  `json:"slotTime"`
	BakerID            *uint64 `json:"bakerId"`
	TotalAmount        uint64  `json:"totalAmount"`
	TotalStaked        uint64  `json:"totalStaked"`
	CumulativeNumTxs   uint64  `json:"cumulativeNumTxs"`
	FinalizationTimeMs *int64  `json:"finalizationTimeMs"`
	BlockLastFinalized string  `json:"blockLastFinalized"`
	ProtocolVersion    uint32  `json:"protocolVersion"`
}

func toBlockModel(b store.Block) blockModel {
	return blockModel{
		Height: b.Height, Hash: b.Hash, SlotTime: b.SlotTime.Format(rfc3339Milli), BakerID: b.BakerID,
		TotalAmount: b.TotalAmount, TotalStaked: b.TotalStaked, CumulativeNumTxs: b.CumulativeNumTxs,
		FinalizationTimeMs: b.FinalizationTimeMs, BlockLastFinalized: b.BlockLastFinalized, ProtocolVersion: b.ProtocolVersion,
	}
}

const rfc3339Milli = "2006-01-02T15:04:05.000Z07:00"

type transactionModel struct {
	Index         uint64  `json:"index"`
	BlockHeight   uint64  `json:"blockHeight"`
	Hash          string  `json:"hash"`
	CostMicroCCD  uint64  `json:"costMicroCcd"`
	EnergyCost    uint64  `json:"energyCost"`
	SenderAccount *uint64 `json:"senderAccount"`
	Kind          string  `json:"kind"`
	SubKind       string  `json:"subKind"`
	Success       bool    `json:"success"`
}

func toTransactionModel(t store.Transaction) transactionModel {
	return transactionModel{
		Index: t.Index, BlockHeight: t.BlockHeight, Hash: t.Hash, CostMicroCCD: t.CostMicroCCD,
		EnergyCost: t.EnergyCost, SenderAccount: t.SenderAccount, Kind: t.Kind, SubKind: t.SubKind, Success: t.Success,
	}
}

type accountModel struct {
	Index            uint64 `json:"index"`
	Address          string `json:"address"`
	CanonicalAddress string `json:"canonicalAddress"`
	Amount           uint64 `json:"amount"`
	DelegatedStake   uint64 `json:"delegatedStake"`
	NumTxs           uint64 `json:"numTxs"`
}

func toAccountModel(a store.Account) accountModel {
	return accountModel{
		Index: a.Index, Address: a.Address, CanonicalAddress: a.CanonicalAddress,
		Amount: a.Amount, DelegatedStake: a.DelegatedStake, NumTxs: a.NumTxs,
	}
}

type bakerModel struct {
	ID                 uint64 `json:"id"`
	Staked             uint64 `json:"staked"`
	RestakeEarnings    bool   `json:"restakeEarnings"`
	OpenStatus         string `json:"openStatus"`
	PoolTotalStaked    uint64 `json:"poolTotalStaked"`
	PoolDelegatorCount uint64 `json:"poolDelegatorCount"`
}

func toBakerModel(b store.Baker) bakerModel {
	return bakerModel{
		ID: b.ID, Staked: b.Staked, RestakeEarnings: b.RestakeEarnings, OpenStatus: b.OpenStatus,
		PoolTotalStaked: b.PoolTotalStaked, PoolDelegatorCount: b.PoolDelegatorCount,
	}
}

type contractModel struct {
	Index           uint64 `json:"index"`
	SubIndex        uint64 `json:"subIndex"`
	ModuleReference string `json:"moduleReference"`
	InitName        string `json:"initName"`
	Amount          uint64 `json:"amount"`
}

func toContractModel(c store.Contract) contractModel {
	return contractModel{
		Index: c.Index, SubIndex: c.SubIndex, ModuleReference: c.ModuleReference,
		InitName: c.InitName, Amount: c.Amount,
	}
}

type tokenModel struct {
	Index            uint64 `json:"index"`
	ContractIndex    uint64 `json:"contractIndex"`
	ContractSubIndex uint64 `json:"contractSubIndex"`
	TokenID          string `json:"tokenId"`
	TotalSupply      string `json:"totalSupply"`
	MetadataURL      string `json:"metadataUrl"`
}

func toTokenModel(t store.Token) tokenModel {
	return tokenModel{
		Index: t.Index, ContractIndex: t.ContractIndex, ContractSubIndex: t.ContractSubIndex,
		TokenID: t.TokenID, TotalSupply: string(t.TotalSupply), MetadataURL: t.MetadataURL,
	}
}

type smartContractModuleModel struct {
	ModuleReference  string `json:"moduleReference"`
	TransactionIndex uint64 `json:"transactionIndex"`
}

func toSmartContractModuleModel(m store.SmartContractModule) smartContractModuleModel {
	return smartContractModuleModel{ModuleReference: m.ModuleReference, TransactionIndex: m.TransactionIndex}
}

type metricsBakerModel struct {
	BlockHeight          uint64 `json:"blockHeight"`
	TotalBakersAdded     uint64 `json:"totalBakersAdded"`
	TotalBakersRemoved   uint64 `json:"totalBakersRemoved"`
	TotalBakersSuspended uint64 `json:"totalBakersSuspended"`
	TotalBakersResumed   uint64 `json:"totalBakersResumed"`
}

func toMetricsBakerModel(m store.MetricsBaker) metricsBakerModel {
	return metricsBakerModel{
		BlockHeight: m.BlockHeight, TotalBakersAdded: m.TotalBakersAdded, TotalBakersRemoved: m.TotalBakersRemoved,
		TotalBakersSuspended: m.TotalBakersSuspended, TotalBakersResumed: m.TotalBakersResumed,
	}
}
