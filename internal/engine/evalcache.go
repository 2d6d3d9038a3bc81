package engine

import "github.com/mwingate/chesscore/internal/board"

// evalCacheBits sizes the table at 2^evalCacheBits entries; each entry is a
// single uint32 (tag:16 | score:16), so this default is a 16 MiB table.
const evalCacheBits = 22

// EvalCache stores the final, fully-computed static evaluation for a
// position keyed by its Zobrist hash, per spec.md §4.5: "after full
// compute, store 16-bit signed score at evalHash[key mod N] with the high
// bits carrying a key tag; on hit return it directly." A flat array with a
// truncated-hash collision tag is used rather than a generic cache library
// (see DESIGN.md) since the replacement policy is unconditional overwrite,
// not LRU/TinyLFU.
type EvalCache struct {
	entries []uint32
	mask    uint64
}

// NewEvalCache allocates a direct-mapped evaluation cache.
func NewEvalCache() *EvalCache {
	size := uint64(1) << evalCacheBits
	return &EvalCache{
		entries: make([]uint32, size),
		mask:    size - 1,
	}
}

func (ec *EvalCache) index(key uint64) uint64 {
	return key & ec.mask
}

func (ec *EvalCache) tag(key uint64) uint16 {
	return uint16(key >> 48)
}

// Probe returns the cached score and true if key's tag matches the slot
// occupant; a tag mismatch is reported as a miss. An empty slot holds tag 0
// with score 0, so it is a miss for every key except one whose top 16 bits
// are zero, which gets a hit with score 0.
func (ec *EvalCache) Probe(key uint64) (int, bool) {
	packed := ec.entries[ec.index(key)]
	tag := uint16(packed >> 16)
	if tag != ec.tag(key) {
		return 0, false
	}
	return int(int16(uint16(packed))), true
}

// Store writes score into the slot for key, unconditionally overwriting
// any prior occupant (the table has no explicit replacement policy beyond
// direct-mapped collision).
func (ec *EvalCache) Store(key uint64, score int) {
	packed := uint32(ec.tag(key))<<16 | uint32(uint16(int16(score)))
	ec.entries[ec.index(key)] = packed
}

// Clear empties the cache, used between games so stale scores from a
// previous position of the same hash-index don't leak in.
func (ec *EvalCache) Clear() {
	for i := range ec.entries {
		ec.entries[i] = 0
	}
}

// lazyMaterialMargin bounds how far a material-only estimate can be from
// the full evaluation; if the lazy score already falls clearly outside the
// alpha/beta window the full per-piece evaluation is skipped.
const lazyMaterialMargin = 150

// EvaluateLazy returns the material-only evaluation and whether it already
// lies outside [alpha-margin, beta+margin], per spec.md's lazy-eval gate.
func EvaluateLazy(pos *board.Position, alpha, beta int) (score int, cutoff bool) {
	score = EvaluateMaterial(pos)
	return score, score < alpha-lazyMaterialMargin || score > beta+lazyMaterialMargin
}

// EvaluateCached wraps Evaluate with the eval cache and the lazy-material
// pre-check, the entry point search.go calls at every node.
func EvaluateCached(pos *board.Position, cache *EvalCache, pawnTable *PawnTable, alpha, beta int) int {
	if lazy, cutoff := EvaluateLazy(pos, alpha, beta); cutoff {
		return lazy
	}
	if score, ok := cache.Probe(pos.Hash); ok {
		return score
	}
	score := EvaluateWithPawnTable(pos, pawnTable)
	cache.Store(pos.Hash, score)
	return score
}
