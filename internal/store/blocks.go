package store

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// StartupCursor is the durable state the processor reloads at startup
// (spec.md §4.3 "Startup").
type StartupCursor struct {
	LastFinalizedHash               string
	LastCumulativeFinalizationTime  int64
	LastBlockSlotTime               time.Time
	LastCumulativeNumTxs            uint64
}

// LoadStartupCursor reads the four values the processor needs to
// resume: the most recently finalized block's hash and cumulative
// finalization time, and the most recent block's slot time and
// cumulative transaction count.
func LoadStartupCursor(tx *Tx) (*StartupCursor, error) {
	g := tx.DB()
	cur := &StartupCursor{}

	var finalized Block
	err := g.Where("finalization_time_ms IS NOT NULL").Order("height DESC").Limit(1).Take(&finalized).Error
	if err == nil {
		cur.LastFinalizedHash = finalized.Hash
		cur.LastCumulativeFinalizationTime = finalized.CumulativeFinalizationTime
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "store: load last finalized block")
	}

	var latest Block
	err = g.Order("height DESC").Limit(1).Take(&latest).Error
	if err == nil {
		cur.LastBlockSlotTime = latest.SlotTime
		cur.LastCumulativeNumTxs = latest.CumulativeNumTxs
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "store: load latest block")
	}

	return cur, nil
}

// LatestBlockHeight returns the highest committed block height and
// whether the blocks table is non-empty, used by the indexer's
// entrypoint to compute the preprocessing pipeline's resume height.
func LatestBlockHeight(tx *Tx) (uint64, bool, error) {
	var latest Block
	err := tx.DB().Order("height DESC").Limit(1).Take(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "store: load latest block height")
	}
	return latest.Height, true, nil
}

// GenesisHash returns the recorded height-0 block hash, or "" if the
// database hasn't bootstrapped from genesis yet — the pool treats ""
// as "skip the check" (spec.md §4.1).
func GenesisHash(tx *Tx) (string, error) {
	var genesis Block
	err := tx.DB().Where("height = 0").Take(&genesis).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "store: load genesis block")
	}
	return genesis.Hash, nil
}

// InsertBlocks bulk-inserts the batch's blocks, computing block_time_ms
// as the gap to the previous block's slot time (spec.md §4.3 step 1).
// previousSlotTime is the slot time of the block immediately preceding
// the first block in the batch (zero value for genesis).
func InsertBlocks(tx *Tx, blocks []*Block, previousSlotTime time.Time) error {
	prev := previousSlotTime
	for _, b := range blocks {
		if b.Height == 0 {
			b.BlockTimeMs = 0
		} else if !prev.IsZero() {
			b.BlockTimeMs = b.SlotTime.Sub(prev).Milliseconds()
		}
		prev = b.SlotTime
	}
	if len(blocks) == 0 {
		return nil
	}
	if err := tx.DB().Create(blocks).Error; err != nil {
		return errors.Wrap(err, "store: insert blocks")
	}
	return nil
}

// BackfillFinalization marks finalizerHeight as the finalizer for
// every earlier block with a null finalization_time_ms whose height is
// <= finalizerHeight, per spec.md §4.3 step 2. It returns the heights
// of blocks that were newly finalized, in ascending height order, for
// use by BackfillCumulativeFinalizationTime.
func BackfillFinalization(tx *Tx, finalizerHeight uint64, finalizerSlotTime time.Time) ([]uint64, error) {
	g := tx.DB()

	var heights []uint64
	if err := g.Model(&Block{}).
		Where("finalization_time_ms IS NULL AND height <= ?", finalizerHeight).
		Order("height ASC").
		Pluck("height", &heights).Error; err != nil {
		return nil, errors.Wrap(err, "store: select blocks to finalize")
	}
	if len(heights) == 0 {
		return nil, nil
	}

	res := g.Exec(`
		UPDATE blocks
		SET finalization_time_ms = EXTRACT(EPOCH FROM (? - slot_time)) * 1000,
		    finalized_by = ?
		WHERE finalization_time_ms IS NULL AND height <= ?`,
		finalizerSlotTime, finalizerHeight, finalizerHeight)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "store: backfill finalization_time_ms")
	}
	if err := EnsureAffectedRows(res.RowsAffected, int64(len(heights)), "backfill finalization_time_ms"); err != nil {
		return nil, err
	}
	return heights, nil
}

// BackfillCumulativeFinalizationTime extends the running
// cumulative_finalization_time over the newly finalized heights
// (ascending order), starting from startValue, and returns the final
// cumulative value to persist into the in-memory context (spec.md
// §4.3 step 3).
func BackfillCumulativeFinalizationTime(tx *Tx, newlyFinalized []uint64, startValue int64) (int64, error) {
	g := tx.DB()
	running := startValue
	for _, h := range newlyFinalized {
		var ftMs int64
		if err := g.Model(&Block{}).Where("height = ?", h).Pluck("finalization_time_ms", &ftMs).Error; err != nil {
			return 0, errors.Wrapf(err, "store: read finalization_time_ms for height %d", h)
		}
		running += ftMs
		res := g.Model(&Block{}).Where("height = ?", h).Update("cumulative_finalization_time", running)
		if res.Error != nil {
			return 0, errors.Wrap(res.Error, "store: update cumulative_finalization_time")
		}
		if err := EnsureAffectedOneRow(res.RowsAffected, "update cumulative_finalization_time"); err != nil {
			return 0, err
		}
	}
	return running, nil
}

// DeleteExpiredScheduledReleases deletes every scheduled_releases row
// whose release_time <= asOf (spec.md §4.3 step 5, invariant §8.9).
func DeleteExpiredScheduledReleases(tx *Tx, asOf time.Time) error {
	res := tx.DB().Where("release_time <= ?", asOf).Delete(&ScheduledRelease{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: delete expired scheduled releases")
	}
	return nil
}
