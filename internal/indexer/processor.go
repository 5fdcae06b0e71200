package indexer

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ccdscan/backend/internal/logger"
	"github.com/ccdscan/backend/internal/metrics"
	"github.com/ccdscan/backend/internal/notify"
	"github.com/ccdscan/backend/internal/store"
)

var procLog = logger.Get(logger.TagProc)

// BlockProcessingContext is the in-memory cursor the Processor owns
// exclusively, only advanced after a batch commits successfully
// (spec.md §4.3, §5).
type BlockProcessingContext struct {
	LastFinalizedHash              string
	LastCumulativeFinalizationTime int64
	LastBlockSlotTime              time.Time
	LastCumulativeNumTxs           uint64
}

// Processor consumes PreparedBlocks in height order and commits them in
// batches of up to MaxBatch (spec.md §4.3).
type Processor struct {
	db                    *store.DB
	maxBatch              int
	maxSuccessiveFailures int
	metrics               metrics.ProcessorMetrics
	notifier              *notify.Publisher

	ctx BlockProcessingContext
}

// NewProcessor constructs a Processor bound to db. notifier may be nil,
// in which case block_added/account_updated notifications are skipped
// (spec.md §5 treats the LISTEN/NOTIFY bridge as best-effort, not part
// of commit durability).
func NewProcessor(db *store.DB, maxBatch, maxSuccessiveFailures int, m metrics.ProcessorMetrics, notifier *notify.Publisher) *Processor {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Processor{db: db, maxBatch: maxBatch, maxSuccessiveFailures: maxSuccessiveFailures, metrics: m, notifier: notifier}
}

// Start loads the initial context from the database (spec.md §4.3
// "Startup").
func (pr *Processor) Start(ctx context.Context) error {
	tx := pr.db.Begin(ctx)
	defer tx.RollbackUnlessClosed()

	cur, err := store.LoadStartupCursor(tx)
	if err != nil {
		return err
	}
	pr.ctx = BlockProcessingContext{
		LastFinalizedHash:              cur.LastFinalizedHash,
		LastCumulativeFinalizationTime: cur.LastCumulativeFinalizationTime,
		LastBlockSlotTime:              cur.LastBlockSlotTime,
		LastCumulativeNumTxs:           cur.LastCumulativeNumTxs,
	}
	return tx.Commit()
}

// Run consumes in from the pipeline until it closes or ctx is
// cancelled, committing a database transaction per batch. A batch whose
// transaction fails is retried with the same blocks.
func (pr *Processor) Run(ctx context.Context, in <-chan *PreparedBlock) error {
	var failures int
	var batch []*PreparedBlock
	ok := true
	for {
		if len(batch) == 0 {
			batch, ok = pr.collectBatch(ctx, in)
			if len(batch) == 0 {
				if !ok {
					return nil
				}
				continue
			}
		}

		started := time.Now()
		if err := pr.processBatch(ctx, batch); err != nil {
			failures++
			procLog.Errorf("process batch heights %d-%d: %v", batch[0].Height, batch[len(batch)-1].Height, err)
			if failures >= pr.maxSuccessiveFailures {
				return errors.Wrap(err, "processor: exceeded max successive failures")
			}
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		failures = 0
		pr.metrics.IncBlocksProcessed(len(batch))
		pr.metrics.ObserveBatchDuration(time.Since(started).Seconds())
		batch = nil

		if !ok {
			return nil
		}
	}
}

// collectBatch blocks for at least one block, then drains up to
// maxBatch-1 more without blocking, bounding per-commit latency while
// still batching under load.
func (pr *Processor) collectBatch(ctx context.Context, in <-chan *PreparedBlock) ([]*PreparedBlock, bool) {
	var batch []*PreparedBlock
	select {
	case pb, ok := <-in:
		if !ok {
			return nil, false
		}
		batch = append(batch, pb)
	case <-ctx.Done():
		return nil, false
	}
	for len(batch) < pr.maxBatch {
		select {
		case pb, ok := <-in:
			if !ok {
				return batch, false
			}
			batch = append(batch, pb)
		default:
			return batch, true
		}
	}
	return batch, true
}

// processBatch applies spec.md §4.3 steps 1-6 atomically.
func (pr *Processor) processBatch(ctx context.Context, batch []*PreparedBlock) error {
	tx := pr.db.Begin(ctx)
	defer tx.RollbackUnlessClosed()

	newCtx := pr.ctx

	blocks := make([]*store.Block, 0, len(batch))
	for _, pb := range batch {
		blocks = append(blocks, &store.Block{
			Height: pb.Height, Hash: pb.Hash, SlotTime: pb.SlotTime, BakerID: pb.BakerID,
			TotalAmount: pb.TotalAmount, TotalStaked: pb.TotalStaked,
			CumulativeNumTxs:   newCtx.LastCumulativeNumTxs + uint64(len(pb.Items)),
			BlockLastFinalized: pb.BlockLastFinalized, ProtocolVersion: pb.ProtocolVersion,
		})
		newCtx.LastCumulativeNumTxs = blocks[len(blocks)-1].CumulativeNumTxs
		newCtx.LastBlockSlotTime = pb.SlotTime
	}
	if err := store.InsertBlocks(tx, blocks, pr.previousSlotTime()); err != nil {
		return err
	}

	for _, pb := range batch {
		if pb.BlockLastFinalized != "" && pb.BlockLastFinalized != newCtx.LastFinalizedHash {
			heights, err := store.BackfillFinalization(tx, pb.Height, pb.SlotTime)
			if err != nil {
				return err
			}
			running, err := store.BackfillCumulativeFinalizationTime(tx, heights, newCtx.LastCumulativeFinalizationTime)
			if err != nil {
				return err
			}
			newCtx.LastCumulativeFinalizationTime = running
			newCtx.LastFinalizedHash = pb.BlockLastFinalized
		}
	}

	affectedIndices := map[uint64]struct{}{}
	var affectedAddresses []string
	for _, pb := range batch {
		if err := pr.applyBlock(tx, pb); err != nil {
			return errors.Wrapf(err, "apply block %d", pb.Height)
		}
		for i := range pb.Items {
			item := &pb.Items[i]
			if item.SenderAccountIndex != nil {
				affectedIndices[*item.SenderAccountIndex] = struct{}{}
			}
			for _, idx := range item.AffectedAccounts {
				affectedIndices[idx] = struct{}{}
			}
			if item.Event.Kind == EventAccountCreation {
				affectedAddresses = append(affectedAddresses, item.Event.NewAccountAddress)
			}
		}
	}

	if err := store.DeleteExpiredScheduledReleases(tx, newCtx.LastBlockSlotTime); err != nil {
		return err
	}

	indices := make([]uint64, 0, len(affectedIndices))
	for idx := range affectedIndices {
		indices = append(indices, idx)
	}
	resolved, err := store.GetAccountAddressesByIndices(tx, indices)
	if err != nil {
		return err
	}
	affectedAddresses = append(affectedAddresses, resolved...)

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit batch")
	}
	pr.ctx = newCtx
	pr.publishNotifications(ctx, batch, affectedAddresses)
	return nil
}

// publishNotifications fans out block_added/account_updated after a
// batch has durably committed. Failures are logged, never fatal: the
// notify channel is a convenience for subscribers, not part of commit
// durability (spec.md §5).
func (pr *Processor) publishNotifications(ctx context.Context, batch []*PreparedBlock, addresses []string) {
	if pr.notifier == nil {
		return
	}
	for _, pb := range batch {
		if err := pr.notifier.PublishBlockAdded(ctx, pb.Height); err != nil {
			procLog.Warnf("publish block_added %d: %v", pb.Height, err)
		}
	}
	seen := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		if err := pr.notifier.PublishAccountUpdated(ctx, addr); err != nil {
			procLog.Warnf("publish account_updated %s: %v", addr, err)
		}
	}
}

func (pr *Processor) previousSlotTime() time.Time {
	return pr.ctx.LastBlockSlotTime
}

// applyBlock applies spec.md §4.3 step 4 for one block: protocol
// migration, per-item save, statistics, special outcomes, and
// primed-for-suspension clearing.
func (pr *Processor) applyBlock(tx *store.Tx, pb *PreparedBlock) error {
	if pb.Migration.IsMigration {
		if err := applyProtocolMigration(tx, pb); err != nil {
			return errors.Wrap(err, "apply protocol migration")
		}
	}

	for i := range pb.Items {
		if err := applyItem(tx, pb, &pb.Items[i]); err != nil {
			return errors.Wrapf(err, "save item %d", pb.Items[i].Index)
		}
	}

	if err := store.UpsertMetricsBaker(tx, pb.Height, pb.Stats.BakersAdded, pb.Stats.BakersRemoved,
		pb.Stats.BakersSuspended, pb.Stats.BakersResumed); err != nil {
		return err
	}

	if err := applyRewards(tx, pb); err != nil {
		return errors.Wrap(err, "apply rewards")
	}

	if pb.Payday.IsPayday {
		if err := applyPayday(tx, pb); err != nil {
			return errors.Wrap(err, "apply payday")
		}
	}

	if err := clearPrimedForSuspension(tx, pb); err != nil {
		return err
	}
	return nil
}

// applyProtocolMigration writes the pool-parameter snapshot collected
// for the first block of a new protocol version (spec.md §4.2).
func applyProtocolMigration(tx *store.Tx, pb *PreparedBlock) error {
	for _, u := range pb.Migration.PoolUpdates {
		exists, err := store.BakerExists(tx, u.BakerID)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		if err := store.SetBakerOpenStatus(tx, u.BakerID, u.OpenStatus); err != nil {
			return err
		}
		if err := store.SetBakerMetadataURL(tx, u.BakerID, u.MetadataURL); err != nil {
			return err
		}
		if err := store.SetBakerCommissionRates(tx, u.BakerID, u.CommissionTxn, u.CommissionBaking, u.CommissionFinal); err != nil {
			return err
		}
	}
	return nil
}

// clearPrimedForSuspension unmarks the block baker and, for P8+, every
// quorum-certificate signer (spec.md §4.3 step 4.e).
func clearPrimedForSuspension(tx *store.Tx, pb *PreparedBlock) error {
	ids := map[uint64]struct{}{}
	if pb.BakerID != nil {
		ids[*pb.BakerID] = struct{}{}
	}
	for _, id := range pb.QuorumCertificateSigners {
		ids[id] = struct{}{}
	}
	for id := range ids {
		exists, err := store.BakerExists(tx, id)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		if err := store.SetBakerPrimedForSuspension(tx, id, nil); err != nil {
			return err
		}
	}
	return nil
}
