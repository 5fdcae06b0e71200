package store

import "github.com/pkg/errors"

// ErrInvariantViolation is returned by the guard helpers below when a
// statement's affected-row count doesn't match what the caller
// expected. The processor treats this as a decode/invariant error
// (spec.md §7): it aborts the current batch and retries it with the
// same blocks, stopping with an error after maxSuccessiveFailures
// consecutive failures.
var ErrInvariantViolation = errors.New("store: invariant violation")

// EnsureAffectedOneRow guards statements that must touch exactly one
// row (spec.md §4.3.5), e.g. crediting a specific account by index.
func EnsureAffectedOneRow(rowsAffected int64, what string) error {
	return EnsureAffectedRows(rowsAffected, 1, what)
}

// EnsureAffectedRows guards statements that must touch exactly n rows.
func EnsureAffectedRows(rowsAffected int64, n int64, what string) error {
	if rowsAffected != n {
		return errors.Wrapf(ErrInvariantViolation, "%s: expected %d affected row(s), got %d", what, n, rowsAffected)
	}
	return nil
}

// EnsureAffectedRowsInRange guards statements whose affected-row count
// may legitimately vary within [lo, hi], e.g. a baker-pool update that
// may affect zero rows if the baker was already removed during a
// cooldown (protocol versions <= 6, spec.md §4.3.1).
func EnsureAffectedRowsInRange(rowsAffected, lo, hi int64, what string) error {
	if rowsAffected < lo || rowsAffected > hi {
		return errors.Wrapf(ErrInvariantViolation, "%s: expected %d..=%d affected row(s), got %d", what, lo, hi, rowsAffected)
	}
	return nil
}
