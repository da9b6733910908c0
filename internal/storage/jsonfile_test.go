package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/agnes-pro/Automated-Market-Maker/internal/model"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "amm.json")
	store := NewFileStore(path)
	ctx := context.Background()

	if _, ok, err := store.Load(ctx); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v, want ok=false err=nil", ok, err)
	}

	state := model.State{
		Owner:         "0x00000000000000000000000000000000000000Ee",
		RewardRate:    42,
		AllowedTokens: []string{"0x1111111111111111111111111111111111111111"},
		Pools: []model.PoolRecord{{
			AssetIn:     "0x1111111111111111111111111111111111111111",
			AssetOut:    "0x2222222222222222222222222222222222222222",
			ReserveIn:   "1000",
			ReserveOut:  "2000",
			TotalShares: "1000",
		}},
		Positions: []model.PositionRecord{{
			User:     "0xAaAaAAAaaAAAAaaAAAAaaaAaAaAAaAaaAaAAAAaA",
			AssetIn:  "0x1111111111111111111111111111111111111111",
			AssetOut: "0x2222222222222222222222222222222222222222",
			Shares:   "1000",
		}},
		Balances: []model.BalanceRecord{{
			Holder: "0xAaAaAAAaaAAAAaaAAAAaaaAaAaAAaAaaAaAAAAaA",
			Asset:  "0x1111111111111111111111111111111111111111",
			Amount: "340282366920938463463374607431768211455",
		}},
	}

	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(state, loaded) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", state, loaded)
	}
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "amm.json"))
	ctx := context.Background()

	if err := store.Save(ctx, model.State{Owner: "a", RewardRate: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, model.State{Owner: "b", RewardRate: 2}); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if loaded.Owner != "b" || loaded.RewardRate != 2 {
		t.Fatalf("expected the second snapshot, got %+v", loaded)
	}
}
