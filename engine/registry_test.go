package engine

import (
	"fmt"
	"testing"
)

func TestRegistryLookup(t *testing.T) {
	r, err := NewRegistry([]string{"AAPL", "GOOG", "MSFT"})
	if err != nil {
		t.Fatal(err)
	}
	for i, sym := range []string{"AAPL", "GOOG", "MSFT"} {
		slot, ok := r.Lookup(sym)
		if !ok {
			t.Fatalf("%s not found", sym)
		}
		if slot != uint32(i) {
			t.Fatalf("%s slot %d, want %d", sym, slot, i)
		}
		if r.Symbol(slot) != sym {
			t.Fatalf("slot %d resolves to %q, want %q", slot, r.Symbol(slot), sym)
		}
	}
	if _, ok := r.Lookup("TSLA"); ok {
		t.Error("unregistered symbol must not resolve")
	}
}

func TestRegistryRejectsBadInput(t *testing.T) {
	if _, err := NewRegistry([]string{"AAPL", "AAPL"}); err == nil {
		t.Error("duplicate symbols must be rejected")
	}
	if _, err := NewRegistry([]string{""}); err == nil {
		t.Error("empty symbol must be rejected")
	}
	too := make([]string, MaxSymbols+1)
	for i := range too {
		too[i] = fmt.Sprintf("S%d", i)
	}
	if _, err := NewRegistry(too); err == nil {
		t.Error("universe above the maximum must be rejected")
	}
}

func TestRegistryFullUniverse(t *testing.T) {
	syms := SyntheticUniverse(MaxSymbols)
	r, err := NewRegistry(syms)
	if err != nil {
		t.Fatal(err)
	}
	if r.Len() != MaxSymbols {
		t.Fatalf("len %d, want %d", r.Len(), MaxSymbols)
	}
	// Every symbol must resolve even with the probe table at half load.
	for i, sym := range syms {
		slot, ok := r.Lookup(sym)
		if !ok || slot != uint32(i) {
			t.Fatalf("%s -> %d ok=%v, want %d", sym, slot, ok, i)
		}
	}
}
