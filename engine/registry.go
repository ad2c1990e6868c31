package engine

import (
	"fmt"
	"hash/fnv"
)

// MaxSymbols is the size of the symbol universe. The registry is populated
// once at startup; no symbol is added or removed while the engine runs.
const MaxSymbols = 1024

// Registry resolves ticker symbols to book slots through a precomputed
// open-addressed hash table sized to keep the load factor at or below one
// half, so lookups are a short linear probe with no locking and no
// allocation.
type Registry struct {
	names []string
	keys  []string
	vals  []uint32
	mask  uint32
}

// NewRegistry builds the immutable symbol table. It rejects an empty
// universe, empty or duplicate symbols, and universes larger than
// MaxSymbols.
func NewRegistry(symbols []string) (*Registry, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("registry: empty symbol universe")
	}
	if len(symbols) > MaxSymbols {
		return nil, fmt.Errorf("registry: %d symbols exceeds maximum %d", len(symbols), MaxSymbols)
	}

	size := uint32(1)
	for size < uint32(2*len(symbols)) {
		size <<= 1
	}

	r := &Registry{
		names: make([]string, len(symbols)),
		keys:  make([]string, size),
		vals:  make([]uint32, size),
		mask:  size - 1,
	}
	for i, sym := range symbols {
		if sym == "" {
			return nil, fmt.Errorf("registry: empty symbol at index %d", i)
		}
		if _, dup := r.Lookup(sym); dup {
			return nil, fmt.Errorf("registry: duplicate symbol %q", sym)
		}
		r.names[i] = sym
		idx := hashSymbol(sym) & r.mask
		for r.keys[idx] != "" {
			idx = (idx + 1) & r.mask
		}
		r.keys[idx] = sym
		r.vals[idx] = uint32(i)
	}
	return r, nil
}

// Lookup resolves a symbol to its slot. The table is immutable after
// construction, so concurrent lookups need no synchronization.
func (r *Registry) Lookup(symbol string) (uint32, bool) {
	if symbol == "" {
		return 0, false
	}
	idx := hashSymbol(symbol) & r.mask
	for {
		k := r.keys[idx]
		if k == "" {
			return 0, false
		}
		if k == symbol {
			return r.vals[idx], true
		}
		idx = (idx + 1) & r.mask
	}
}

// Symbol returns the ticker registered at slot.
func (r *Registry) Symbol(slot uint32) string {
	if int(slot) >= len(r.names) {
		return ""
	}
	return r.names[slot]
}

// Symbols returns the universe in slot order. Callers must not modify it.
func (r *Registry) Symbols() []string { return r.names }

func (r *Registry) Len() int { return len(r.names) }

func hashSymbol(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// SyntheticUniverse generates a deterministic n-symbol universe, used by the
// simulation feeder and tests when no real ticker list is configured.
func SyntheticUniverse(n int) []string {
	if n <= 0 || n > MaxSymbols {
		n = MaxSymbols
	}
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("SYM%04d", i)
	}
	return out
}
