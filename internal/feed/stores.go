package feed

import (
	"coin-feed/internal/storage"
	"coin-feed/internal/storage/memory"
	"coin-feed/internal/storage/postgres"
)

// NewMemoryStores wires the in-memory stores together. Writes enforce the same
// account and coin references as the Postgres schema, and the returned content
// store reads from the same account, coin and swap stores.
func NewMemoryStores() (Stores, storage.ContentStore) {
	refs := &memory.References{Accounts: memory.NewAccountStore()}
	refs.Coins = memory.NewCoinStore().WithReferences(refs)
	swaps := memory.NewSwapStore().WithReferences(refs)
	content := memory.NewContentStore(refs.Accounts, refs.Coins, swaps)

	return Stores{
		Accounts: refs.Accounts,
		Coins:    refs.Coins,
		Swaps:    swaps,
		Charts:   memory.NewChartStore().WithReferences(refs),
		Balances: memory.NewBalanceStore().WithReferences(refs),
		Curves:   memory.NewCurveStore().WithReferences(refs),
		Threads:  memory.NewThreadStore().WithReferences(refs),
		Info:     content,
	}, content
}

// NewPostgresStores wires the PostgreSQL stores on a shared pool.
func NewPostgresStores(pool *postgres.Pool) (Stores, storage.ContentStore) {
	content := postgres.NewContentStore(pool)

	return Stores{
		Accounts: postgres.NewAccountStore(pool),
		Coins:    postgres.NewCoinStore(pool),
		Swaps:    postgres.NewSwapStore(pool),
		Charts:   postgres.NewChartStore(pool),
		Balances: postgres.NewBalanceStore(pool),
		Curves:   postgres.NewCurveStore(pool),
		Threads:  postgres.NewThreadStore(pool),
		Info:     content,
	}, content
}
