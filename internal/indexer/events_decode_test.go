package indexer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccdscan/backend/internal/nodeclient"
)

func TestDecodeBakerEvent_MapsKindToSubKind(t *testing.T) {
	payload, err := json.Marshal(map[string]interface{}{
		"BakerID": 3, "StakedAmount": 1000, "RestakeEarnings": true,
	})
	require.NoError(t, err)

	be, err := decodeBakerEvent(nodeclient.BlockItemEvent{Kind: "BakerAdded", Payload: payload})
	require.NoError(t, err)
	require.Equal(t, "Added", be.SubKind)
	require.Equal(t, uint64(3), be.BakerID)
	require.Equal(t, uint64(1000), be.StakedAmount)
	require.True(t, be.RestakeEarnings)
}

func TestDecodeBakerEvent_SuspendedCarriesHeight(t *testing.T) {
	payload, err := json.Marshal(map[string]interface{}{"BakerID": 9, "Height": 12345})
	require.NoError(t, err)

	be, err := decodeBakerEvent(nodeclient.BlockItemEvent{Kind: "BakerSuspended", Payload: payload})
	require.NoError(t, err)
	require.Equal(t, "Suspended", be.SubKind)
	require.Equal(t, uint64(12345), be.SuspendedAtHeight)
}

func TestDecodeDelegationEvent_SetDelegationTargetCarriesBothTargets(t *testing.T) {
	oldTarget, newTarget := uint64(1), uint64(2)
	payload, err := json.Marshal(struct {
		AccountIndex     uint64
		OldTargetBakerID *uint64
		NewTargetBakerID *uint64
		OldStake         uint64
		NewStake         uint64
	}{AccountIndex: 100, OldTargetBakerID: &oldTarget, NewTargetBakerID: &newTarget, OldStake: 5, NewStake: 10})
	require.NoError(t, err)

	de, err := decodeDelegationEvent(nodeclient.BlockItemEvent{Kind: "DelegationSetDelegationTarget", Payload: payload})
	require.NoError(t, err)
	require.Equal(t, "SetDelegationTarget", de.SubKind)
	require.Equal(t, uint64(100), de.AccountIndex)
	require.Equal(t, &oldTarget, de.OldTargetBakerID)
	require.Equal(t, &newTarget, de.NewTargetBakerID)
}

func TestDecodeDelegationEvent_PassiveTargetIsNil(t *testing.T) {
	payload, err := json.Marshal(struct {
		AccountIndex uint64
	}{AccountIndex: 7})
	require.NoError(t, err)

	de, err := decodeDelegationEvent(nodeclient.BlockItemEvent{Kind: "DelegationAdded", Payload: payload})
	require.NoError(t, err)
	require.Nil(t, de.NewTargetBakerID)
}

func TestDecodeScheduledTransfer_CarriesReleases(t *testing.T) {
	payload, err := json.Marshal(struct {
		From     uint64
		To       uint64
		Releases []ScheduledRelease
	}{From: 1, To: 2, Releases: []ScheduledRelease{{AmountMicroCCD: 500}}})
	require.NoError(t, err)

	st, err := decodeScheduledTransfer(nodeclient.BlockItemEvent{Kind: "TransferredWithSchedule", Payload: payload})
	require.NoError(t, err)
	require.Equal(t, uint64(1), st.FromAccountIndex)
	require.Len(t, st.Releases, 1)
	require.Equal(t, uint64(500), st.Releases[0].AmountMicroCCD)
}

func TestDerefOr_ReturnsDefaultForNil(t *testing.T) {
	require.Equal(t, uint64(9), derefOr(nil, 9))
	v := uint64(3)
	require.Equal(t, uint64(3), derefOr(&v, 9))
}

func TestDecodeRejectEvent_PrefersModuleReference(t *testing.T) {
	p := &Preprocessor{}
	rejectReason, err := json.Marshal(map[string]interface{}{"ModuleReference": "modref1"})
	require.NoError(t, err)

	ev, err := p.decodeRejectEvent(nodeclient.BlockItemSummary{Index: 1, RejectReason: rejectReason}, nodeclient.BlockItem{})
	require.NoError(t, err)
	require.NotNil(t, ev.RejectedModule)
	require.Equal(t, "modref1", ev.RejectedModule.ModuleReference)
}

func TestDecodeRejectEvent_FallsBackToContractIndex(t *testing.T) {
	p := &Preprocessor{}
	idx := uint64(42)
	rejectReason, err := json.Marshal(struct {
		ContractIndex *uint64
	}{ContractIndex: &idx})
	require.NoError(t, err)

	ev, err := p.decodeRejectEvent(nodeclient.BlockItemSummary{Index: 1, RejectReason: rejectReason}, nodeclient.BlockItem{})
	require.NoError(t, err)
	require.NotNil(t, ev.RejectedContract)
	require.Equal(t, uint64(42), ev.RejectedContract.ContractIndex)
}

func TestDecodeRejectEvent_MalformedYieldsBareEvent(t *testing.T) {
	p := &Preprocessor{}
	rejectReason, err := json.Marshal(map[string]interface{}{"ModuleReference": "modref1", "Malformed": true})
	require.NoError(t, err)

	ev, err := p.decodeRejectEvent(nodeclient.BlockItemSummary{Index: 1, RejectReason: rejectReason}, nodeclient.BlockItem{})
	require.NoError(t, err)
	require.Nil(t, ev.RejectedModule)
	require.Nil(t, ev.RejectedContract)
	require.Equal(t, EventAccountTransaction, ev.Kind)
}
