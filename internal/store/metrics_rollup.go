package store

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// UpsertMetricsBaker increments the per-block rollup counters in
// metrics_bakers, creating the row for blockHeight on first touch
// (spec.md §4.3.5). Each delta is typically 0 or 1 within a single
// block.
func UpsertMetricsBaker(tx *Tx, blockHeight uint64, addedDelta, removedDelta, suspendedDelta, resumedDelta uint64) error {
	var row MetricsBaker
	err := tx.DB().Where("block_height = ?", blockHeight).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = MetricsBaker{
			BlockHeight:          blockHeight,
			TotalBakersAdded:     addedDelta,
			TotalBakersRemoved:   removedDelta,
			TotalBakersSuspended: suspendedDelta,
			TotalBakersResumed:   resumedDelta,
		}
		if err := tx.DB().Create(&row).Error; err != nil {
			return errors.Wrap(err, "store: insert metrics_bakers")
		}
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "store: load metrics_bakers")
	}
	res := tx.DB().Model(&MetricsBaker{}).Where("block_height = ?", blockHeight).Updates(map[string]interface{}{
		"total_bakers_added":     row.TotalBakersAdded + addedDelta,
		"total_bakers_removed":   row.TotalBakersRemoved + removedDelta,
		"total_bakers_suspended": row.TotalBakersSuspended + suspendedDelta,
		"total_bakers_resumed":   row.TotalBakersResumed + resumedDelta,
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: update metrics_bakers")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "update metrics_bakers")
}
