package token

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/agnes-pro/Automated-Market-Maker/internal/model"
)

var (
	alice = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	bob   = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	gold  = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

func TestBankTransfer(t *testing.T) {
	bank := NewBank()
	bank.Mint(alice, gold, uint256.NewInt(100))

	if err := bank.Transfer(context.Background(), gold, uint256.NewInt(40), alice, bob, "test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := bank.Balance(alice, gold); !got.Eq(uint256.NewInt(60)) {
		t.Fatalf("alice balance = %s, want 60", got.Dec())
	}
	if got := bank.Balance(bob, gold); !got.Eq(uint256.NewInt(40)) {
		t.Fatalf("bob balance = %s, want 40", got.Dec())
	}
}

func TestBankTransferInsufficient(t *testing.T) {
	bank := NewBank()
	bank.Mint(alice, gold, uint256.NewInt(10))

	err := bank.Transfer(context.Background(), gold, uint256.NewInt(11), alice, bob, "")
	if err == nil {
		t.Fatalf("expected error for insufficient balance")
	}

	if got := bank.Balance(alice, gold); !got.Eq(uint256.NewInt(10)) {
		t.Fatalf("failed transfer must not move funds, alice = %s", got.Dec())
	}
	if got := bank.Balance(bob, gold); !got.IsZero() {
		t.Fatalf("failed transfer must not move funds, bob = %s", got.Dec())
	}
}

func TestBankTransferUnknownHolder(t *testing.T) {
	bank := NewBank()
	if err := bank.Transfer(context.Background(), gold, uint256.NewInt(1), alice, bob, ""); err == nil {
		t.Fatalf("expected error for holder with no balance")
	}
}

func TestBankSelfTransferNoop(t *testing.T) {
	bank := NewBank()
	bank.Mint(alice, gold, uint256.NewInt(5))

	if err := bank.Transfer(context.Background(), gold, uint256.NewInt(5), alice, alice, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := bank.Balance(alice, gold); !got.Eq(uint256.NewInt(5)) {
		t.Fatalf("self transfer should leave balance intact, got %s", got.Dec())
	}
}

func TestBankSelfTransferInsufficient(t *testing.T) {
	bank := NewBank()
	bank.Mint(alice, gold, uint256.NewInt(5))

	if err := bank.Transfer(context.Background(), gold, uint256.NewInt(6), alice, alice, ""); err == nil {
		t.Fatalf("expected error for self transfer exceeding the balance")
	}
	if got := bank.Balance(alice, gold); !got.Eq(uint256.NewInt(5)) {
		t.Fatalf("failed self transfer must not move funds, got %s", got.Dec())
	}
}

func TestBankExportRoundTrip(t *testing.T) {
	bank := NewBank()
	bank.Mint(alice, gold, uint256.NewInt(77))
	bank.Mint(bob, gold, uint256.NewInt(3))

	records := bank.Export()
	if len(records) != 2 {
		t.Fatalf("expected 2 balance records, got %d", len(records))
	}

	restored, err := NewBankFromRecords(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := restored.Balance(alice, gold); !got.Eq(uint256.NewInt(77)) {
		t.Fatalf("restored alice balance = %s, want 77", got.Dec())
	}
	if got := restored.Balance(bob, gold); !got.Eq(uint256.NewInt(3)) {
		t.Fatalf("restored bob balance = %s, want 3", got.Dec())
	}
}

func TestBankFromRecordsRejectsBadRows(t *testing.T) {
	if _, err := NewBankFromRecords([]model.BalanceRecord{{Holder: "nope", Asset: gold.Hex(), Amount: "1"}}); err == nil {
		t.Fatalf("expected error for invalid holder")
	}
}
