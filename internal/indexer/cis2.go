package indexer

import (
	"github.com/pkg/errors"

	"github.com/ccdscan/backend/internal/store"
)

// applyCis2Logs applies a sequence of CIS-2 log events against the
// token and account_tokens tables (spec.md §4.3.2). Every event is
// already gated behind the preprocessor's supports(CIS2) check.
func applyCis2Logs(tx *store.Tx, txIndex uint64, logs []Cis2LogEvent) error {
	for _, l := range logs {
		if err := applyCis2Log(tx, txIndex, &l); err != nil {
			return errors.Wrapf(err, "cis2 log kind %q", l.Kind)
		}
	}
	return nil
}

func applyCis2Log(tx *store.Tx, txIndex uint64, l *Cis2LogEvent) error {
	token, err := store.GetOrCreateToken(tx, l.ContractIndex, l.ContractSubIndex, l.TokenID, txIndex)
	if err != nil {
		return err
	}

	switch l.Kind {
	case "Mint":
		if err := store.AdjustTokenTotalSupply(tx, token.Index, store.Numeric(l.Amount)); err != nil {
			return err
		}
		if l.ToIsAccount {
			if err := store.AdjustAccountTokenBalance(tx, l.ToAccountIndex, token.Index, store.Numeric(l.Amount)); err != nil {
				return err
			}
		}
	case "Burn":
		neg := "-" + l.Amount
		if err := store.AdjustTokenTotalSupply(tx, token.Index, store.Numeric(neg)); err != nil {
			return err
		}
		if l.FromIsAccount {
			if err := store.AdjustAccountTokenBalance(tx, l.FromAccountIndex, token.Index, store.Numeric(neg)); err != nil {
				return err
			}
		}
	case "Transfer":
		// Total supply is untouched; only the two account-held balances
		// move (contract-held balances aren't tracked per spec.md §4.3.2).
		if l.FromIsAccount {
			neg := "-" + l.Amount
			if err := store.AdjustAccountTokenBalance(tx, l.FromAccountIndex, token.Index, store.Numeric(neg)); err != nil {
				return err
			}
		}
		if l.ToIsAccount {
			if err := store.AdjustAccountTokenBalance(tx, l.ToAccountIndex, token.Index, store.Numeric(l.Amount)); err != nil {
				return err
			}
		}
	case "TokenMetadata":
		if err := store.SetTokenMetadataURL(tx, token.Index, l.MetadataURL); err != nil {
			return err
		}
	default:
		return errors.Errorf("unknown cis2 log kind %q", l.Kind)
	}

	idx, err := store.NextCis2EventIndex(tx, token.Index)
	if err != nil {
		return err
	}
	return store.InsertCis2TokenEvent(tx, &store.Cis2TokenEvent{
		TokenIndex: token.Index, IndexPerToken: idx, Kind: l.Kind,
		TransactionIndex: txIndex, Payload: l.Payload,
	})
}
