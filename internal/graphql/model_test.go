package graphql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ccdscan/backend/internal/store"
)

func TestToBlockModel_MapsAllFields(t *testing.T) {
	bakerID := uint64(7)
	finMs := int64(1500)
	slot := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b := store.Block{
		Height: 10, Hash: "h", SlotTime: slot, BakerID: &bakerID,
		TotalAmount: 100, TotalStaked: 50, CumulativeNumTxs: 3,
		FinalizationTimeMs: &finMs, BlockLastFinalized: "prev", ProtocolVersion: 6,
	}
	m := toBlockModel(b)
	require.Equal(t, uint64(10), m.Height)
	require.Equal(t, "h", m.Hash)
	require.Equal(t, "2026-01-02T03:04:05.000Z", m.SlotTime)
	require.Equal(t, &bakerID, m.BakerID)
	require.Equal(t, uint64(100), m.TotalAmount)
	require.Equal(t, &finMs, m.FinalizationTimeMs)
}

func TestToTokenModel_PreservesNumericAsString(t *testing.T) {
	tok := store.Token{Index: 1, ContractIndex: 2, ContractSubIndex: 0, TokenID: "01", TotalSupply: store.Numeric("123456789012345678901234567890"), MetadataURL: "http://x"}
	m := toTokenModel(tok)
	require.Equal(t, "123456789012345678901234567890", m.TotalSupply)
}

func TestToAccountModel_MapsAllFields(t *testing.T) {
	a := store.Account{Index: 5, Address: "addr", CanonicalAddress: "canon", Amount: 42, DelegatedStake: 1, NumTxs: 9}
	m := toAccountModel(a)
	require.Equal(t, accountModel{Index: 5, Address: "addr", CanonicalAddress: "canon", Amount: 42, DelegatedStake: 1, NumTxs: 9}, m)
}

func TestToBakerModel_MapsAllFields(t *testing.T) {
	b := store.Baker{ID: 3, Staked: 1000, RestakeEarnings: true, OpenStatus: "OpenForAll", PoolTotalStaked: 5000, PoolDelegatorCount: 2}
	m := toBakerModel(b)
	require.Equal(t, bakerModel{ID: 3, Staked: 1000, RestakeEarnings: true, OpenStatus: "OpenForAll", PoolTotalStaked: 5000, PoolDelegatorCount: 2}, m)
}

func TestToMetricsBakerModel_MapsAllFields(t *testing.T) {
	row := store.MetricsBaker{BlockHeight: 99, TotalBakersAdded: 1, TotalBakersRemoved: 2, TotalBakersSuspended: 3, TotalBakersResumed: 4}
	m := toMetricsBakerModel(row)
	require.Equal(t, metricsBakerModel{BlockHeight: 99, TotalBakersAdded: 1, TotalBakersRemoved: 2, TotalBakersSuspended: 3, TotalBakersResumed: 4}, m)
}
