package store

import "github.com/pkg/errors"

// NextScheduledReleaseIndex computes the next global scheduled_releases
// index.
func NextScheduledReleaseIndex(tx *Tx) (uint64, error) {
	return nextIndex(tx.DB(), "scheduled_releases", "index", "")
}

// InsertScheduledRelease inserts one scheduled_releases row for a
// TransferredWithSchedule transaction (spec.md §4.3.1). Deletion of
// expired rows happens in DeleteExpiredScheduledReleases (blocks.go),
// run once per batch against the batch's last block's slot time.
func InsertScheduledRelease(tx *Tx, r *ScheduledRelease) error {
	if err := tx.DB().Create(r).Error; err != nil {
		return errors.Wrap(err, "store: insert scheduled_release")
	}
	return nil
}
