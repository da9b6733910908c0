package token

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/agnes-pro/Automated-Market-Maker/internal/model"
)

type balanceKey struct {
	Holder common.Address
	Asset  common.Address
}

// Bank is an in-memory balance book implementing Transferer. It backs the CLI
// and tests; a production deployment would inject its own custody mechanism.
type Bank struct {
	mu       sync.Mutex
	balances map[balanceKey]*uint256.Int
}

func NewBank() *Bank {
	return &Bank{balances: make(map[balanceKey]*uint256.Int)}
}

// NewBankFromRecords rebuilds a bank from snapshot balance rows.
func NewBankFromRecords(records []model.BalanceRecord) (*Bank, error) {
	bank := NewBank()
	for _, rec := range records {
		if !common.IsHexAddress(rec.Holder) {
			return nil, fmt.Errorf("balance record: invalid holder %q", rec.Holder)
		}
		if !common.IsHexAddress(rec.Asset) {
			return nil, fmt.Errorf("balance record: invalid asset %q", rec.Asset)
		}
		amount, err := model.ParseAmount(rec.Amount)
		if err != nil {
			return nil, fmt.Errorf("balance record: %w", err)
		}
		bank.Mint(common.HexToAddress(rec.Holder), common.HexToAddress(rec.Asset), amount)
	}
	return bank, nil
}

// Mint credits a holder with new units of an asset.
func (b *Bank) Mint(holder, asset common.Address, amount *uint256.Int) {
	if amount == nil || amount.IsZero() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	key := balanceKey{Holder: holder, Asset: asset}
	cur, ok := b.balances[key]
	if !ok {
		cur = new(uint256.Int)
		b.balances[key] = cur
	}
	cur.Add(cur, amount)
}

// Balance returns a copy of the holder's balance for an asset.
func (b *Bank) Balance(holder, asset common.Address) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur, ok := b.balances[balanceKey{Holder: holder, Asset: asset}]
	if !ok {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(cur)
}

// Transfer moves amount of asset from one holder to another. It fails when the
// sender balance is insufficient and leaves both balances untouched on failure.
func (b *Bank) Transfer(ctx context.Context, asset common.Address, amount *uint256.Int, from, to common.Address, memo string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("transfer amount must be positive")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	fromKey := balanceKey{Holder: from, Asset: asset}
	cur, ok := b.balances[fromKey]
	if !ok || cur.Lt(amount) {
		return fmt.Errorf("insufficient balance: %s holds %s of %s, need %s",
			from.Hex(), model.FormatAmount(cur), asset.Hex(), model.FormatAmount(amount))
	}
	if from == to {
		return nil
	}
	cur.Sub(cur, amount)
	if cur.IsZero() {
		delete(b.balances, fromKey)
	}

	toKey := balanceKey{Holder: to, Asset: asset}
	dst, ok := b.balances[toKey]
	if !ok {
		dst = new(uint256.Int)
		b.balances[toKey] = dst
	}
	dst.Add(dst, amount)

	return nil
}

// Export returns all non-zero balances as sorted snapshot rows.
func (b *Bank) Export() []model.BalanceRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	records := make([]model.BalanceRecord, 0, len(b.balances))
	for key, amount := range b.balances {
		if amount.IsZero() {
			continue
		}
		records = append(records, model.BalanceRecord{
			Holder: key.Holder.Hex(),
			Asset:  key.Asset.Hex(),
			Amount: model.FormatAmount(amount),
		})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Holder != records[j].Holder {
			return records[i].Holder < records[j].Holder
		}
		return records[i].Asset < records[j].Asset
	})
	return records
}
