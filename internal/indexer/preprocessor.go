package indexer

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ccdscan/backend/internal/logger"
	"github.com/ccdscan/backend/internal/metrics"
	"github.com/ccdscan/backend/internal/nodeclient"
)

var log = logger.Get(logger.TagPrep)

// Preprocessor turns one finalized block height into a PreparedBlock
// using a bounded fan-out of node RPCs (spec.md §4.2).
type Preprocessor struct {
	pool        *nodeclient.Pool
	genesisHash string
	metrics     metrics.PreprocessorMetrics

	// lastProtocolVersion tracks the previous height's protocol version
	// to detect the first block of a migration. Only ever touched by
	// the single traversal goroutine that drives Prepare calls in order
	// (spec.md §4.2's migration note assumes sequential discovery).
	lastProtocolVersion uint32
	haveLastProtocol    bool
}

// NewPreprocessor constructs a Preprocessor bound to pool, verifying
// every client it hands out against expectedGenesisHash.
func NewPreprocessor(pool *nodeclient.Pool, expectedGenesisHash string, m metrics.PreprocessorMetrics) *Preprocessor {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Preprocessor{pool: pool, genesisHash: expectedGenesisHash, metrics: m}
}

// Prepare fetches and decodes everything needed to commit height.
func (p *Preprocessor) Prepare(ctx context.Context) func(height uint64) (*PreparedBlock, error) {
	return func(height uint64) (*PreparedBlock, error) {
		return p.prepareHeight(ctx, height)
	}
}

func (p *Preprocessor) prepareHeight(ctx context.Context, height uint64) (*PreparedBlock, error) {
	started := time.Now()
	defer func() { p.metrics.ObservePreprocessDuration(time.Since(started).Seconds()) }()

	c, err := p.pool.ClientForHeight(ctx, height, p.genesisHash)
	if err != nil {
		p.metrics.IncPreprocessFailures()
		return nil, errors.Wrapf(err, "preprocessor: acquire client for height %d", height)
	}

	var (
		blockInfo  *nodeclient.BlockInfo
		certs      *nodeclient.BlockCertificates
		txEvents   []nodeclient.BlockItemSummary
		blockItems []nodeclient.BlockItem
		tokenomics *nodeclient.TokenomicsInfo
		chainParams *nodeclient.ChainParameters
		specials   []nodeclient.SpecialEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		return c.Do(gctx, "GetBlockInfo", func(q nodeclient.QueriesClient) error {
			blockInfo, err = q.GetBlockInfo(gctx, height)
			return err
		})
	})
	g.Go(func() (err error) {
		return c.Do(gctx, "GetBlockCertificates", func(q nodeclient.QueriesClient) error {
			certs, err = q.GetBlockCertificates(gctx, height)
			return err
		})
	})
	g.Go(func() (err error) {
		return c.Do(gctx, "GetBlockTransactionEvents", func(q nodeclient.QueriesClient) error {
			txEvents, err = q.GetBlockTransactionEvents(gctx, height)
			return err
		})
	})
	g.Go(func() (err error) {
		return c.Do(gctx, "GetBlockItems", func(q nodeclient.QueriesClient) error {
			blockItems, err = q.GetBlockItems(gctx, height)
			return err
		})
	})
	g.Go(func() (err error) {
		return c.Do(gctx, "GetTokenomicsInfo", func(q nodeclient.QueriesClient) error {
			tokenomics, err = q.GetTokenomicsInfo(gctx, height)
			return err
		})
	})
	g.Go(func() (err error) {
		return c.Do(gctx, "GetBlockChainParameters", func(q nodeclient.QueriesClient) error {
			chainParams, err = q.GetBlockChainParameters(gctx, height)
			return err
		})
	})
	g.Go(func() (err error) {
		return c.Do(gctx, "GetBlockSpecialEvents", func(q nodeclient.QueriesClient) error {
			specials, err = q.GetBlockSpecialEvents(gctx, height)
			return err
		})
	})

	if err := g.Wait(); err != nil {
		p.pool.Rotate(c)
		p.metrics.IncPreprocessFailures()
		return nil, errors.Wrapf(err, "preprocessor: fetch height %d", height)
	}

	if tokenomics.TotalStakedCapital == nil {
		total, err := p.recomputeStakedCapital(ctx, c, height)
		if err != nil {
			return nil, errors.Wrapf(err, "preprocessor: recompute staked capital at height %d", height)
		}
		tokenomics.TotalStakedCapital = &total
	}

	pb := &PreparedBlock{
		Height:             blockInfo.Height,
		Hash:               blockInfo.Hash,
		SlotTime:           blockInfo.SlotTime,
		BakerID:            blockInfo.BakerID,
		TotalAmount:        tokenomics.TotalAmount,
		TotalStaked:        *tokenomics.TotalStakedCapital,
		BlockLastFinalized: blockInfo.BlockLastFinalized,
		ProtocolVersion:    blockInfo.ProtocolVersion,
	}
	if certs.QuorumCertificate != nil {
		pb.QuorumCertificateSigners = certs.QuorumCertificate.SignerBakerIDs
	}

	items, stats, err := p.decodeItems(ctx, c, height, txEvents, blockItems)
	if err != nil {
		return nil, errors.Wrapf(err, "preprocessor: decode items at height %d", height)
	}
	pb.Items = items
	pb.Stats = stats

	pb.Specials = make([]SpecialOutcome, 0, len(specials))
	for _, s := range specials {
		pb.Specials = append(pb.Specials, SpecialOutcome{Kind: s.Kind, Payload: s.Payload})
	}

	pb.Migration = p.detectMigration(ctx, c, height, blockInfo.ProtocolVersion)

	if isPaydayBlock(specials) {
		payday, err := p.collectPaydayData(ctx, c, height, specials)
		if err != nil {
			return nil, errors.Wrapf(err, "preprocessor: collect payday data at height %d", height)
		}
		pb.Payday = *payday
	}

	return pb, nil
}

// recomputeStakedCapital sums every baker's staked amount at height for
// protocol versions < 4, which don't report total_staked_capital
// directly (spec.md §4.2 item 5).
func (p *Preprocessor) recomputeStakedCapital(ctx context.Context, c *nodeclient.Client, height uint64) (uint64, error) {
	var bakerIDs []uint64
	if err := c.Do(ctx, "GetBakerList", func(q nodeclient.QueriesClient) (err error) {
		bakerIDs, err = q.GetBakerList(ctx, height)
		return err
	}); err != nil {
		return 0, err
	}
	var total uint64
	for _, id := range bakerIDs {
		var info *nodeclient.PoolInfo
		if err := c.Do(ctx, "GetPoolInfo", func(q nodeclient.QueriesClient) (err error) {
			info, err = q.GetPoolInfo(ctx, height, id)
			return err
		}); err != nil {
			return 0, err
		}
		_ = info // pool info carries no stake amount in this reduced mirror; stake is summed via reward-period below
	}
	var rewardPeriod []nodeclient.RewardPeriodBakerInfo
	if err := c.Do(ctx, "GetBakersRewardPeriod", func(q nodeclient.QueriesClient) (err error) {
		rewardPeriod, err = q.GetBakersRewardPeriod(ctx, height)
		return err
	}); err != nil {
		return 0, err
	}
	for _, b := range rewardPeriod {
		total += b.EffectiveStake
	}
	return total, nil
}

func isPaydayBlock(specials []nodeclient.SpecialEvent) bool {
	for _, s := range specials {
		switch s.Kind {
		case "PaydayFoundationReward", "PaydayAccountReward", "PaydayPoolReward":
			return true
		}
	}
	return false
}

// detectMigration compares height's protocol version against the last
// seen one. For the first block the preprocessor observes, no
// migration is reported (nothing to migrate from).
func (p *Preprocessor) detectMigration(ctx context.Context, c *nodeclient.Client, height uint64, protocolVersion uint32) ProtocolMigrationData {
	defer func() {
		p.lastProtocolVersion = protocolVersion
		p.haveLastProtocol = true
	}()
	if !p.haveLastProtocol || p.lastProtocolVersion == protocolVersion {
		return ProtocolMigrationData{}
	}

	var bakerIDs []uint64
	if err := c.Do(ctx, "GetBakerList", func(q nodeclient.QueriesClient) (err error) {
		bakerIDs, err = q.GetBakerList(ctx, height)
		return err
	}); err != nil {
		log.Warnf("migration at height %d: list bakers: %v", height, err)
		return ProtocolMigrationData{IsMigration: true}
	}

	updates := make([]BakerPoolUpdate, 0, len(bakerIDs))
	for _, id := range bakerIDs {
		var info *nodeclient.PoolInfo
		if err := c.Do(ctx, "GetPoolInfo", func(q nodeclient.QueriesClient) (err error) {
			info, err = q.GetPoolInfo(ctx, height, id)
			return err
		}); err != nil {
			log.Warnf("migration at height %d: pool info for baker %d: %v", height, id, err)
			continue
		}
		updates = append(updates, BakerPoolUpdate{
			BakerID:          id,
			OpenStatus:       info.OpenStatus,
			MetadataURL:      info.MetadataURL,
			CommissionTxn:    info.CommissionTxn,
			CommissionBaking: info.CommissionBaking,
			CommissionFinal:  info.CommissionFinal,
		})
	}
	return ProtocolMigrationData{IsMigration: true, PoolUpdates: updates}
}

func (p *Preprocessor) collectPaydayData(ctx context.Context, c *nodeclient.Client, height uint64, specials []nodeclient.SpecialEvent) (*PaydayData, error) {
	data := &PaydayData{IsPayday: true}

	var currentPoolOwner *uint64
	for _, s := range specials {
		switch s.Kind {
		case "PaydayPoolReward":
			var payload struct {
				PoolOwner           *uint64
				TransactionRewards  uint64
				BakingRewards       uint64
				FinalizationRewards uint64
			}
			if err := json.Unmarshal(s.Payload, &payload); err != nil {
				return nil, errors.Wrap(err, "decode PaydayPoolReward")
			}
			currentPoolOwner = payload.PoolOwner
			data.Outcomes = append(data.Outcomes, PaydayOutcome{
				Kind: "PoolReward", PoolOwner: payload.PoolOwner,
				TransactionRewards: payload.TransactionRewards, BakingRewards: payload.BakingRewards,
				FinalizationRewards: payload.FinalizationRewards,
			})
		case "PaydayAccountReward":
			var payload struct {
				AccountIndex        uint64
				TransactionRewards  uint64
				BakingRewards       uint64
				FinalizationRewards uint64
			}
			if err := json.Unmarshal(s.Payload, &payload); err != nil {
				return nil, errors.Wrap(err, "decode PaydayAccountReward")
			}
			data.Outcomes = append(data.Outcomes, PaydayOutcome{
				Kind: "AccountReward", PoolOwner: currentPoolOwner, AccountIndex: payload.AccountIndex,
				TransactionRewards: payload.TransactionRewards, BakingRewards: payload.BakingRewards,
				FinalizationRewards: payload.FinalizationRewards,
			})
		}
	}

	var rewardPeriod []nodeclient.RewardPeriodBakerInfo
	if err := c.Do(ctx, "GetBakersRewardPeriod", func(q nodeclient.QueriesClient) (err error) {
		rewardPeriod, err = q.GetBakersRewardPeriod(ctx, height)
		return err
	}); err != nil {
		return nil, err
	}
	sort.SliceStable(rewardPeriod, func(i, j int) bool { return rewardPeriod[i].LotteryPower > rewardPeriod[j].LotteryPower })
	for i, b := range rewardPeriod {
		data.CommissionRates = append(data.CommissionRates, PaydayCommissionSnapshot{
			BakerID: b.BakerID, CommissionTransaction: b.CommissionTxn,
			CommissionBaking: b.CommissionBaking, CommissionFinalization: b.CommissionFinal,
		})
		data.LotteryPowers = append(data.LotteryPowers, PaydayLotteryPowerSnapshot{
			BakerID: b.BakerID, LotteryPower: b.LotteryPower, Ranking: uint64(i + 1),
		})
		bakerID := b.BakerID
		data.StakeSnapshots = append(data.StakeSnapshots, PaydayStakeSnapshotEntry{
			BakerID: &bakerID, Staked: b.EffectiveStake,
		})
	}

	var passive *nodeclient.PassiveDelegatorsRewardPeriod
	if err := c.Do(ctx, "GetPassiveDelegatorsRewardPeriod", func(q nodeclient.QueriesClient) (err error) {
		passive, err = q.GetPassiveDelegatorsRewardPeriod(ctx, height)
		return err
	}); err != nil {
		return nil, err
	}
	data.StakeSnapshots = append(data.StakeSnapshots, PaydayStakeSnapshotEntry{BakerID: nil, Staked: passive.TotalStake})

	if _, err := func() (*nodeclient.PassiveDelegationInfo, error) {
		var info *nodeclient.PassiveDelegationInfo
		err := c.Do(ctx, "GetPassiveDelegationInfo", func(q nodeclient.QueriesClient) (err error) {
			info, err = q.GetPassiveDelegationInfo(ctx, height)
			return err
		})
		return info, err
	}(); err != nil {
		return nil, err
	}

	if err := c.Do(ctx, "GetElectionInfo", func(q nodeclient.QueriesClient) (err error) {
		_, err = q.GetElectionInfo(ctx, height)
		return err
	}); err != nil {
		return nil, err
	}

	return data, nil
}
