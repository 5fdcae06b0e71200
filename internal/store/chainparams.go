package store

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// LoadChainParameters loads the singleton current_chain_parameters row,
// returning (nil, nil) if it has never been written (pre-genesis).
func LoadChainParameters(tx *Tx) (*CurrentChainParameters, error) {
	var p CurrentChainParameters
	err := tx.DB().Where("id = 1").Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "store: load current_chain_parameters")
	}
	return &p, nil
}

// UpsertChainParameters writes the singleton row, preserving
// last_payday_block_height unless the caller explicitly overwrites it
// (spec.md §4.3 step on chain-parameter-change blocks).
func UpsertChainParameters(tx *Tx, p *CurrentChainParameters) error {
	p.ID = 1
	existing, err := LoadChainParameters(tx)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := tx.DB().Create(p).Error; err != nil {
			return errors.Wrap(err, "store: insert current_chain_parameters")
		}
		return nil
	}
	if p.LastPaydayBlockHeight == 0 {
		p.LastPaydayBlockHeight = existing.LastPaydayBlockHeight
	}
	res := tx.DB().Model(&CurrentChainParameters{}).Where("id = 1").Updates(map[string]interface{}{
		"leverage_bound_numerator":           p.LeverageBoundNumerator,
		"leverage_bound_denominator":         p.LeverageBoundDenominator,
		"capital_bound_per_hundred_thousand": p.CapitalBoundPerHundredThousand,
		"epoch_duration_ms":                  p.EpochDurationMs,
		"reward_period_length":               p.RewardPeriodLength,
		"last_payday_block_height":           p.LastPaydayBlockHeight,
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: update current_chain_parameters")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "update current_chain_parameters")
}
