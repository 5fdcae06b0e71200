package store

import (
	"math/big"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func numericToBig(n Numeric) *big.Int {
	v := new(big.Int)
	if n == "" {
		return v
	}
	v.SetString(string(n), 10)
	return v
}

func bigToNumeric(v *big.Int) Numeric {
	return Numeric(v.String())
}

// numericAdd and numericSub implement the CIS-2 token-amount algebra
// on arbitrary-precision integers (spec.md §4.3.2); token amounts are
// unsigned in the protocol but balances are allowed to go negative here
// to surface buggy contracts rather than mask them with a clamp.
func numericAdd(a, delta Numeric) Numeric {
	return bigToNumeric(new(big.Int).Add(numericToBig(a), numericToBig(delta)))
}

func numericSub(a, delta Numeric) Numeric {
	return bigToNumeric(new(big.Int).Sub(numericToBig(a), numericToBig(delta)))
}

// NextTokenIndex computes the next global token index.
func NextTokenIndex(tx *Tx) (uint64, error) {
	return nextIndex(tx.DB(), "tokens", "index", "")
}

// GetOrCreateToken loads the token row for (contractIndex, subIndex,
// tokenID), creating it with zero supply on first sight (spec.md
// §4.3.2: a Mint event for a token never seen before implicitly
// registers it).
func GetOrCreateToken(tx *Tx, contractIndex, subIndex uint64, tokenID string, txIndex uint64) (*Token, error) {
	var t Token
	err := tx.DB().Where("contract_index = ? AND contract_sub_index = ? AND token_id = ?",
		contractIndex, subIndex, tokenID).Take(&t).Error
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "store: load token")
	}

	idx, err := NextTokenIndex(tx)
	if err != nil {
		return nil, err
	}
	perContract, err := nextIndex(tx.DB(), "tokens", "token_index_per_contract",
		"contract_index = ? AND contract_sub_index = ?", contractIndex, subIndex)
	if err != nil {
		return nil, err
	}
	t = Token{
		Index:                 idx,
		ContractIndex:         contractIndex,
		ContractSubIndex:      subIndex,
		TokenID:               tokenID,
		TokenIndexPerContract: perContract,
		TotalSupply:           Numeric("0"),
		InitTransactionIndex:  txIndex,
	}
	if err := tx.DB().Create(&t).Error; err != nil {
		return nil, errors.Wrap(err, "store: insert token")
	}
	return &t, nil
}

// AdjustTokenTotalSupply applies delta to a token's total_supply.
func AdjustTokenTotalSupply(tx *Tx, tokenIndex uint64, delta Numeric) error {
	var t Token
	if err := tx.DB().Where("index = ?", tokenIndex).Take(&t).Error; err != nil {
		return errors.Wrap(err, "store: load token for supply adjustment")
	}
	newSupply := numericAdd(t.TotalSupply, delta)
	res := tx.DB().Model(&Token{}).Where("index = ?", tokenIndex).Update("total_supply", newSupply)
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: adjust token total_supply")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "adjust token total_supply")
}

// SetTokenMetadataURL updates a token's metadata_url on a
// TokenMetadata event.
func SetTokenMetadataURL(tx *Tx, tokenIndex uint64, url string) error {
	res := tx.DB().Model(&Token{}).Where("index = ?", tokenIndex).Update("metadata_url", url)
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: set token metadata url")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "set token metadata url")
}

// AdjustAccountTokenBalance applies delta to the (accountIndex,
// tokenIndex) balance, creating the row with a zero starting balance
// on first sight (spec.md §4.3.2).
func AdjustAccountTokenBalance(tx *Tx, accountIndex, tokenIndex uint64, delta Numeric) error {
	var bal AccountTokenBalance
	err := tx.DB().Where("account_index = ? AND token_index = ?", accountIndex, tokenIndex).Take(&bal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		bal = AccountTokenBalance{AccountIndex: accountIndex, TokenIndex: tokenIndex, Balance: numericAdd("0", delta)}
		if err := tx.DB().Create(&bal).Error; err != nil {
			return errors.Wrap(err, "store: insert account_tokens")
		}
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "store: load account_tokens")
	}
	newBalance := numericAdd(bal.Balance, delta)
	res := tx.DB().Model(&AccountTokenBalance{}).
		Where("account_index = ? AND token_index = ?", accountIndex, tokenIndex).
		Update("balance", newBalance)
	if res.Error != nil {
		return errors.Wrap(res.Error, "store: update account_tokens balance")
	}
	return EnsureAffectedOneRow(res.RowsAffected, "update account_tokens balance")
}

// NextCis2EventIndex computes the next index_per_token for
// cis2_token_events.
func NextCis2EventIndex(tx *Tx, tokenIndex uint64) (uint64, error) {
	return nextIndex(tx.DB(), "cis2_token_events", "index_per_token", "token_index = ?", tokenIndex)
}

// InsertCis2TokenEvent inserts one cis2_token_events row.
func InsertCis2TokenEvent(tx *Tx, e *Cis2TokenEvent) error {
	if err := tx.DB().Create(e).Error; err != nil {
		return errors.Wrap(err, "store: insert cis2_token_event")
	}
	return nil
}
