package memory

import (
	"coin-feed/internal/storage"
)

// References enforces the account and coin foreign keys of the relational
// schema. A store without References accepts any id.
type References struct {
	Accounts *AccountStore
	Coins    *CoinStore
}

// account returns ErrMissingReference unless the account exists.
func (r *References) account(id string) error {
	if r == nil || r.Accounts == nil {
		return nil
	}
	if !r.Accounts.has(id) {
		return storage.ErrMissingReference
	}
	return nil
}

// coin returns ErrMissingReference unless the coin exists.
func (r *References) coin(id string) error {
	if r == nil || r.Coins == nil {
		return nil
	}
	if !r.Coins.has(id) {
		return storage.ErrMissingReference
	}
	return nil
}

// coinAndAccount checks both keys, coin first.
func (r *References) coinAndAccount(coinID, accountID string) error {
	if err := r.coin(coinID); err != nil {
		return err
	}
	return r.account(accountID)
}
