package model

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestTokenHasBank(t *testing.T) {
	token := Token{}
	if token.HasBank() {
		t.Error("token without bank address should not have bank")
	}

	token.BankAddress = "0xb1511dfe1ad2406de19109350d172fe1d7bbcdd9"
	if token.HasBank() {
		t.Error("bank without start block should not count as configured")
	}

	token.BankStartBlock = 24179279
	if !token.HasBank() {
		t.Error("expected bank to be configured")
	}
}

func TestTokenBurnAddrs(t *testing.T) {
	token := Token{BurnAddresses: []string{
		"0x000000000000000000000000000000000000dead",
		"0x0000000000000000000000000000000000000000",
	}}

	addrs := token.BurnAddrs()
	if len(addrs) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(addrs))
	}
	if addrs[0] != common.HexToAddress("0x000000000000000000000000000000000000dead") {
		t.Errorf("unexpected address: %s", addrs[0].Hex())
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry([]Token{
		{ID: "shi", Symbol: "SHI"},
		{ID: "shib", Symbol: "SHIB"},
	})

	if got := registry.Default(); got == nil || got.ID != "shi" {
		t.Errorf("unexpected default token: %+v", got)
	}

	token, ok := registry.ByID("shib")
	if !ok || token.Symbol != "SHIB" {
		t.Errorf("ByID(shib) = %+v, %v", token, ok)
	}

	if _, ok := registry.ByID("doge"); ok {
		t.Error("unknown token id should not resolve")
	}

	if len(registry.All()) != 2 {
		t.Errorf("expected 2 tokens, got %d", len(registry.All()))
	}
}

func TestEmptyRegistry(t *testing.T) {
	registry := NewRegistry(nil)
	if registry.Default() != nil {
		t.Error("empty registry should have no default token")
	}
}
