package indexer

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/ccdscan/backend/internal/nodeclient"
)

// decodeItems turns the node's raw per-height summaries into typed
// PreparedBlockItems, gating CIS-2 log events behind a live
// supports(CIS2) check per spec.md §4.2.
func (p *Preprocessor) decodeItems(ctx context.Context, c *nodeclient.Client, height uint64, summaries []nodeclient.BlockItemSummary, raw []nodeclient.BlockItem) ([]PreparedBlockItem, Statistics, error) {
	rawByIndex := make(map[uint64]nodeclient.BlockItem, len(raw))
	for _, r := range raw {
		rawByIndex[r.Index] = r
	}

	items := make([]PreparedBlockItem, 0, len(summaries))
	var stats Statistics

	for _, s := range summaries {
		item := PreparedBlockItem{
			Index:              s.Index,
			Hash:               s.Hash,
			CostMicroCCD:       s.CostMicroCCD,
			EnergyCost:         s.EnergyCost,
			SenderAccountIndex: s.SenderAccountIndex,
			Kind:               s.Kind,
			Success:            s.Success,
		}
		if s.AffectedAccounts != nil {
			item.AffectedAccounts = append([]uint64(nil), s.AffectedAccounts...)
		}

		eventsJSON, err := json.Marshal(s.Events)
		if err != nil {
			return nil, stats, errors.Wrapf(err, "marshal events for item %d", s.Index)
		}
		item.EventsJSON = eventsJSON
		item.RejectReasonJSON = s.RejectReason

		if !s.Success {
			event, err := p.decodeRejectEvent(s, rawByIndex[s.Index])
			if err != nil {
				return nil, stats, err
			}
			item.Event = event
			item.SubKind = event.Kind
			items = append(items, item)
			continue
		}

		switch s.Kind {
		case "CredentialDeployment":
			addr := ""
			if s.SenderAccount != nil {
				addr = *s.SenderAccount
			}
			item.Event = PreparedBlockItemEvent{
				Kind:                       EventAccountCreation,
				NewAccountAddress:          addr,
				NewAccountCanonicalAddress: addr,
			}
		case "Update":
			item.Event = PreparedBlockItemEvent{Kind: EventChainUpdate}
		default: // "Account"
			event, blockStats, err := p.decodeAccountTransaction(ctx, c, height, s)
			if err != nil {
				return nil, stats, err
			}
			item.Event = event
			stats.BakersAdded += blockStats.BakersAdded
			stats.BakersRemoved += blockStats.BakersRemoved
			stats.BakersSuspended += blockStats.BakersSuspended
			stats.BakersResumed += blockStats.BakersResumed
		}
		item.SubKind = item.Event.Kind
		items = append(items, item)
	}
	return items, stats, nil
}

func (p *Preprocessor) decodeRejectEvent(s nodeclient.BlockItemSummary, raw nodeclient.BlockItem) (PreparedBlockItemEvent, error) {
	var payload struct {
		ModuleReference  string  `json:"ModuleReference"`
		ContractIndex    *uint64 `json:"ContractIndex"`
		ContractSubIndex *uint64 `json:"ContractSubIndex"`
		Malformed        bool    `json:"Malformed"`
		InvalidAddress   bool    `json:"InvalidContractAddress"`
	}
	if len(s.RejectReason) > 0 {
		if err := json.Unmarshal(s.RejectReason, &payload); err != nil {
			return PreparedBlockItemEvent{}, errors.Wrapf(err, "decode reject reason for item %d", s.Index)
		}
	}
	if payload.ModuleReference == "" && payload.ContractIndex == nil && len(raw.Payload) > 0 {
		// Fall back to the raw transaction payload, which still carries
		// the target module/contract even when the reject reason itself
		// doesn't (spec.md §4.2).
		_ = json.Unmarshal(raw.Payload, &payload)
	}
	if payload.ModuleReference != "" && !payload.Malformed {
		return PreparedBlockItemEvent{
			Kind:           EventAccountTransaction,
			RejectedModule: &RejectedModuleEvent{ModuleReference: payload.ModuleReference},
		}, nil
	}
	if payload.ContractIndex != nil && !payload.InvalidAddress {
		return PreparedBlockItemEvent{
			Kind: EventAccountTransaction,
			RejectedContract: &RejectedContractEvent{
				ContractIndex:    *payload.ContractIndex,
				ContractSubIndex: derefOr(payload.ContractSubIndex, 0),
			},
		}, nil
	}
	return PreparedBlockItemEvent{Kind: EventAccountTransaction}, nil
}

func derefOr(p *uint64, def uint64) uint64 {
	if p == nil {
		return def
	}
	return *p
}

// decodeAccountTransaction walks the node-reported event list for one
// successful account transaction and builds the typed effect set. CIS-2
// logs are kept only if a live supports(CIS2) check against the
// emitting contract at this height succeeds (spec.md §4.2).
func (p *Preprocessor) decodeAccountTransaction(ctx context.Context, c *nodeclient.Client, height uint64, s nodeclient.BlockItemSummary) (PreparedBlockItemEvent, Statistics, error) {
	out := PreparedBlockItemEvent{Kind: EventAccountTransaction}
	var stats Statistics

	for _, ev := range s.Events {
		switch ev.Kind {
		case "Transferred":
			var payload struct {
				From   uint64
				To     uint64
				Amount uint64
			}
			if err := json.Unmarshal(ev.Payload, &payload); err != nil {
				return out, stats, errors.Wrapf(err, "decode Transferred for item %d", s.Index)
			}
			out.CCDTransfer = &CCDTransferEvent{FromAccountIndex: payload.From, ToAccountIndex: payload.To, AmountMicroCCD: payload.Amount}

		case "EncryptedAmountsRemoved", "AmountAddedByDecryption":
			var payload struct {
				AccountIndex uint64
				Amount       int64
			}
			if err := json.Unmarshal(ev.Payload, &payload); err != nil {
				return out, stats, errors.Wrapf(err, "decode encrypted balance event for item %d", s.Index)
			}
			out.EncryptedBalance = &EncryptedBalanceEvent{
				AccountIndex: payload.AccountIndex,
				SignedAmount: payload.Amount,
				Decrypted:    ev.Kind == "AmountAddedByDecryption",
			}

		case "BakerAdded", "BakerRemoved", "BakerStakeIncreased", "BakerStakeDecreased",
			"BakerSetRestakeEarnings", "BakerSetMetadataURL", "BakerSetTransactionFeeCommission",
			"BakerSetBakingRewardCommission", "BakerSetFinalizationRewardCommission",
			"BakerSetOpenStatus", "BakerSuspended", "BakerResumed":
			be, err := decodeBakerEvent(ev)
			if err != nil {
				return out, stats, errors.Wrapf(err, "decode %s for item %d", ev.Kind, s.Index)
			}
			out.BakerEvents = append(out.BakerEvents, be)
			switch be.SubKind {
			case "Added":
				stats.BakersAdded++
			case "Removed":
				stats.BakersRemoved++
			case "Suspended":
				stats.BakersSuspended++
			case "Resumed":
				stats.BakersResumed++
			}

		case "DelegationAdded", "DelegationRemoved", "DelegationStakeIncreased",
			"DelegationStakeDecreased", "DelegationSetDelegationTarget", "DelegationBakerRemoved":
			de, err := decodeDelegationEvent(ev)
			if err != nil {
				return out, stats, errors.Wrapf(err, "decode %s for item %d", ev.Kind, s.Index)
			}
			out.DelegationEvents = append(out.DelegationEvents, de)

		case "ModuleDeployed":
			var payload struct {
				ModuleReference string
				Schema          []byte
			}
			if err := json.Unmarshal(ev.Payload, &payload); err != nil {
				return out, stats, errors.Wrapf(err, "decode ModuleDeployed for item %d", s.Index)
			}
			out.ModuleDeployed = &ModuleDeployedEvent{ModuleReference: payload.ModuleReference, Schema: payload.Schema}

		case "ContractInitialized":
			ci, err := p.decodeContractInit(ctx, c, height, ev)
			if err != nil {
				return out, stats, errors.Wrapf(err, "decode ContractInitialized for item %d", s.Index)
			}
			out.ContractInit = ci

		case "Updated", "Transferred-Contract", "Interrupted", "Resumed", "Upgraded":
			ct, err := p.decodeContractTrace(ctx, c, height, ev)
			if err != nil {
				return out, stats, errors.Wrapf(err, "decode %s for item %d", ev.Kind, s.Index)
			}
			out.ContractTraces = append(out.ContractTraces, *ct)

		case "TransferredWithSchedule":
			st, err := decodeScheduledTransfer(ev)
			if err != nil {
				return out, stats, errors.Wrapf(err, "decode TransferredWithSchedule for item %d", s.Index)
			}
			out.ScheduledTransfer = st
		}
	}
	return out, stats, nil
}

func decodeBakerEvent(ev nodeclient.BlockItemEvent) (BakerEvent, error) {
	var payload struct {
		BakerID         uint64
		StakedAmount    uint64
		StakeDelta      int64
		RestakeEarnings bool
		MetadataURL     string
		CommissionRate  uint32
		OpenStatus      string
		Height          uint64
		ProtocolVersion uint32
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return BakerEvent{}, err
	}
	subKind := map[string]string{
		"BakerAdded": "Added", "BakerRemoved": "Removed",
		"BakerStakeIncreased": "StakeIncrease", "BakerStakeDecreased": "StakeDecrease",
		"BakerSetRestakeEarnings": "SetRestakeEarnings", "BakerSetMetadataURL": "SetMetadataUrl",
		"BakerSetTransactionFeeCommission":    "SetCommissionTransaction",
		"BakerSetBakingRewardCommission":      "SetCommissionBaking",
		"BakerSetFinalizationRewardCommission": "SetCommissionFinalization",
		"BakerSetOpenStatus": "SetOpenStatus", "BakerSuspended": "Suspended", "BakerResumed": "Resumed",
	}[ev.Kind]
	return BakerEvent{
		SubKind: subKind, BakerID: payload.BakerID, StakedAmount: payload.StakedAmount,
		StakeDelta: payload.StakeDelta, RestakeEarnings: payload.RestakeEarnings,
		MetadataURL: payload.MetadataURL, CommissionRate: payload.CommissionRate,
		OpenStatus: payload.OpenStatus, SuspendedAtHeight: payload.Height, ProtocolVersion: payload.ProtocolVersion,
	}, nil
}

func decodeDelegationEvent(ev nodeclient.BlockItemEvent) (DelegationEvent, error) {
	var payload struct {
		AccountIndex     uint64
		OldTargetBakerID *uint64
		NewTargetBakerID *uint64
		OldStake         uint64
		NewStake         uint64
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return DelegationEvent{}, err
	}
	subKind := map[string]string{
		"DelegationAdded": "Added", "DelegationRemoved": "Removed",
		"DelegationStakeIncreased": "StakeIncrease", "DelegationStakeDecreased": "StakeDecrease",
		"DelegationSetDelegationTarget": "SetDelegationTarget", "DelegationBakerRemoved": "BakerRemoved",
	}[ev.Kind]
	return DelegationEvent{
		SubKind: subKind, AccountIndex: payload.AccountIndex,
		OldTargetBakerID: payload.OldTargetBakerID, NewTargetBakerID: payload.NewTargetBakerID,
		OldStake: payload.OldStake, NewStake: payload.NewStake,
	}, nil
}

func decodeScheduledTransfer(ev nodeclient.BlockItemEvent) (*ScheduledTransferEvent, error) {
	var payload struct {
		From     uint64
		To       uint64
		Releases []ScheduledRelease
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return nil, err
	}
	return &ScheduledTransferEvent{FromAccountIndex: payload.From, ToAccountIndex: payload.To, Releases: payload.Releases}, nil
}

// decodeContractInit decodes a ContractInitialized event and gates its
// CIS-2 logs behind a live supports(CIS2) check at this height.
func (p *Preprocessor) decodeContractInit(ctx context.Context, c *nodeclient.Client, height uint64, ev nodeclient.BlockItemEvent) (*ContractInitEvent, error) {
	var payload struct {
		ContractIndex    uint64
		ContractSubIndex uint64
		ModuleReference  string
		InitName         string
		SenderAccount    uint64
		Amount           uint64
		Logs             []Cis2LogEvent
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return nil, err
	}
	ci := &ContractInitEvent{
		ContractIndex: payload.ContractIndex, ContractSubIndex: payload.ContractSubIndex,
		ModuleReference: payload.ModuleReference, InitName: payload.InitName,
		SenderAccountIndex: payload.SenderAccount, AmountMicroCCD: payload.Amount,
	}
	if len(payload.Logs) == 0 {
		return ci, nil
	}
	supports, err := p.cis2Supports(ctx, c, height, payload.ContractIndex, payload.ContractSubIndex)
	if err != nil {
		return nil, err
	}
	if supports {
		ci.Cis2Events = payload.Logs
	}
	return ci, nil
}

func (p *Preprocessor) decodeContractTrace(ctx context.Context, c *nodeclient.Client, height uint64, ev nodeclient.BlockItemEvent) (*ContractTraceEvent, error) {
	var payload struct {
		ContractIndex     uint64
		ContractSubIndex  uint64
		TraceElementIndex uint64
		FromIsAccount     bool
		FromAccountIndex  uint64
		FromContractIndex *uint64
		FromContractSub   uint64
		ToIsAccount       bool
		ToAccountIndex    uint64
		ToContractIndex   *uint64
		ToContractSub     uint64
		Amount            uint64
		OldModuleReference string
		NewModuleReference string
		Logs              []Cis2LogEvent
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return nil, err
	}
	// The non-account endpoint defaults to the owning contract unless the
	// node explicitly names a different one (a cross-contract call).
	fromContractIdx, fromContractSub := payload.ContractIndex, payload.ContractSubIndex
	if payload.FromContractIndex != nil {
		fromContractIdx, fromContractSub = *payload.FromContractIndex, payload.FromContractSub
	}
	toContractIdx, toContractSub := payload.ContractIndex, payload.ContractSubIndex
	if payload.ToContractIndex != nil {
		toContractIdx, toContractSub = *payload.ToContractIndex, payload.ToContractSub
	}
	// The node tags a contract-originated transfer "Transferred-Contract";
	// applyContractTrace expects the plain "Transferred" sub-kind.
	subKind := ev.Kind
	if subKind == "Transferred-Contract" {
		subKind = "Transferred"
	}
	ct := &ContractTraceEvent{
		SubKind: subKind, ContractIndex: payload.ContractIndex, ContractSubIndex: payload.ContractSubIndex,
		TraceElementIndex: payload.TraceElementIndex, Payload: ev.Payload,
		FromIsAccount: payload.FromIsAccount, FromAccountIndex: payload.FromAccountIndex,
		FromContractIndex: fromContractIdx, FromContractSub: fromContractSub,
		ToIsAccount: payload.ToIsAccount, ToAccountIndex: payload.ToAccountIndex,
		ToContractIndex: toContractIdx, ToContractSub: toContractSub, AmountMicroCCD: payload.Amount,
		OldModuleReference: payload.OldModuleReference, NewModuleReference: payload.NewModuleReference,
	}
	if len(payload.Logs) == 0 {
		return ct, nil
	}
	supports, err := p.cis2Supports(ctx, c, height, payload.ContractIndex, payload.ContractSubIndex)
	if err != nil {
		return nil, err
	}
	if supports {
		ct.Cis2Events = payload.Logs
	}
	return ct, nil
}

func (p *Preprocessor) cis2Supports(ctx context.Context, c *nodeclient.Client, height, index, subIndex uint64) (bool, error) {
	var supports bool
	err := c.Do(ctx, "CIS0Supports", func(q nodeclient.QueriesClient) (err error) {
		supports, err = q.CIS0Supports(ctx, height, index, subIndex, "CIS-2")
		return err
	})
	return supports, err
}
