package engine

import (
	"sync/atomic"

	"github.com/mwingate/chesscore/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// TTEntry is the decoded, verified contents of a transposition slot.
type TTEntry struct {
	Score    int16
	Depth    int8
	From     board.Square
	To       board.Square
	Flag     TTFlag
	Age      uint8
}

// packData folds a TTEntry into the 56-bit payload word the table actually
// stores (score:16, depth:8, from:8, to:8, flags:8, age:8 — spec.md names
// this layout "48 bits" loosely; it is implemented here at its stated field
// widths, which sum to 56 and fit comfortably in the 64-bit payload word).
func packData(e TTEntry) uint64 {
	return uint64(uint16(e.Score)) |
		uint64(uint8(e.Depth))<<16 |
		uint64(e.From)<<24 |
		uint64(e.To)<<32 |
		uint64(e.Flag)<<40 |
		uint64(e.Age)<<48
}

func unpackData(data uint64) TTEntry {
	return TTEntry{
		Score: int16(uint16(data)),
		Depth: int8(uint8(data >> 16)),
		From:  board.Square(uint8(data >> 24)),
		To:    board.Square(uint8(data >> 32)),
		Flag:  TTFlag(uint8(data >> 40)),
		Age:   uint8(data >> 48),
	}
}

// ttSlot is one lockless entry: the payload word, and the zobrist key XORed
// with that payload. A reader recomputes key = lock XOR data and compares
// against the probed hash; any write torn between the two words (the race
// two Lazy-SMP workers can hit on the same slot, since there is no
// per-slot mutex) makes that comparison fail, which is reported as a miss
// rather than handed back as a corrupted hit. This is Hyatt's lockless
// hashing technique, ported from the single-bucket-pair Hash.h revision.
type ttSlot struct {
	lock atomic.Uint64
	data atomic.Uint64
}

func (s *ttSlot) load(key uint64) (TTEntry, bool) {
	data := s.data.Load()
	lock := s.lock.Load()
	if lock^data != key {
		return TTEntry{}, false
	}
	return unpackData(data), true
}

func (s *ttSlot) store(key uint64, e TTEntry) {
	data := packData(e)
	s.data.Store(data)
	s.lock.Store(key ^ data)
}

func (s *ttSlot) depth() int8 {
	return int8(uint8(s.data.Load() >> 16))
}

func (s *ttSlot) age() uint8 {
	return uint8(s.data.Load() >> 48)
}

// TranspositionTable is the two-array concurrent hash table of spec §4.6:
// "always" unconditionally takes the newest entry for a slot, "greater"
// (depth-preferred) only yields its slot to searches that dug deeper or to
// an entry whose age has gone stale. Lazy-SMP workers share one table with
// no locking; see ttSlot for the torn-read guard that makes that safe.
type TranspositionTable struct {
	always  []ttSlot
	greater []ttSlot
	mask    uint64
	age     atomic.Uint32

	hits   atomic.Uint64
	probes atomic.Uint64
}

// NewTranspositionTable allocates a table of the given size in megabytes,
// split evenly between the always-replace and depth-preferred arrays.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	const slotBytes = 16 // two uint64 words per slot
	numEntries := (uint64(sizeMB) * 1024 * 1024) / (2 * slotBytes)
	numEntries = roundDownToPowerOf2(numEntries)
	if numEntries == 0 {
		numEntries = 1
	}
	return &TranspositionTable{
		always:  make([]ttSlot, numEntries),
		greater: make([]ttSlot, numEntries),
		mask:    numEntries - 1,
	}
}

// SetSize reallocates the table to a new size in megabytes, discarding the
// prior contents (spec §4.6 set_size contract).
func (tt *TranspositionTable) SetSize(sizeMB int) {
	fresh := NewTranspositionTable(sizeMB)
	tt.always = fresh.always
	tt.greater = fresh.greater
	tt.mask = fresh.mask
	tt.age.Store(0)
	tt.hits.Store(0)
	tt.probes.Store(0)
}

func roundDownToPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe looks up a position, preferring the depth-preferred slot since it
// is more likely to hold a deep, expensive-to-recompute result.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes.Add(1)
	idx := hash & tt.mask

	if e, ok := tt.greater[idx].load(hash); ok {
		tt.hits.Add(1)
		return e, true
	}
	if e, ok := tt.always[idx].load(hash); ok {
		tt.hits.Add(1)
		return e, true
	}
	return TTEntry{}, false
}

// Store writes a search result, per spec §4.6: unconditionally to the
// always-replace slot, and to the depth-preferred slot only when the new
// entry is at least as deep or the occupant is from a stale generation.
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, from, to board.Square) {
	idx := hash & tt.mask
	age := uint8(tt.age.Load())
	e := TTEntry{
		Score: int16(score),
		Depth: int8(depth),
		From:  from,
		To:    to,
		Flag:  flag,
		Age:   age,
	}

	tt.always[idx].store(hash, e)

	g := &tt.greater[idx]
	if g.age() != age || int8(depth) >= g.depth() {
		g.store(hash, e)
	}
}

// NewSearch increments the age counter at the start of a new search, so
// stale depth-preferred entries become eligible for replacement again.
func (tt *TranspositionTable) NewSearch() {
	tt.age.Add(1)
}

// ClearAge resets the age counter without touching stored entries (spec
// §4.6's clear_age, distinct from a full Clear).
func (tt *TranspositionTable) ClearAge() {
	tt.age.Store(0)
}

// Clear zeroes both arrays and resets statistics.
func (tt *TranspositionTable) Clear() {
	tt.always = make([]ttSlot, len(tt.always))
	tt.greater = make([]ttSlot, len(tt.greater))
	tt.age.Store(0)
	tt.hits.Store(0)
	tt.probes.Store(0)
}

// HashFull returns the permille of the depth-preferred array occupied by
// entries from the current search generation.
func (tt *TranspositionTable) HashFull() int {
	sampleSize := 1000
	if uint64(sampleSize) > uint64(len(tt.greater)) {
		sampleSize = len(tt.greater)
	}
	if sampleSize == 0 {
		return 0
	}
	age := uint8(tt.age.Load())
	used := 0
	for i := 0; i < sampleSize; i++ {
		if tt.greater[i].age() == age && tt.greater[i].depth() > 0 {
			used++
		}
	}
	return (used * 1000) / sampleSize
}

// HitRate returns the cache hit rate as a percentage, for diagnostics.
func (tt *TranspositionTable) HitRate() float64 {
	probes := tt.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(tt.hits.Load()) / float64(probes) * 100
}

// Size returns the number of entries in each of the two arrays.
func (tt *TranspositionTable) Size() uint64 {
	return uint64(len(tt.always))
}

// AdjustScoreFromTT converts a mate score stored relative to the TT entry's
// own search root back into a score relative to the current ply.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT normalises a mate score by distance-to-root before
// storing it, so it is reusable from other points in the tree.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
