package engine

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mwingate/chesscore/internal/board"
)

// LazySMP coordinates a pool of Searcher threads that all dig into the same
// position against one shared *TranspositionTable with no other
// communication between them — the "Lazy" in Lazy-SMP. Helper threads start
// at staggered depths so they don't all duplicate the main thread's shallow
// work, and every thread's Store calls enrich the table for the others.
type LazySMP struct {
	tt        *TranspositionTable
	searchers []*Searcher
	stopFlag  atomic.Bool
}

// NewLazySMP builds a pool of n search threads sharing tt, each with its
// own pawn hash table (PawnTable isn't safe for concurrent use).
func NewLazySMP(n int, tt *TranspositionTable) *LazySMP {
	pool := &LazySMP{
		tt:        tt,
		searchers: make([]*Searcher, n),
	}
	for i := 0; i < n; i++ {
		pool.searchers[i] = NewSearcher(i, tt, NewPawnTable(1))
	}
	return pool
}

// SetRootHistory propagates the game's position history to every thread.
func (p *LazySMP) SetRootHistory(hashes []uint64) {
	for _, s := range p.searchers {
		s.SetRootHistory(hashes)
	}
}

// Stop requests that all threads stop at their next node-count check.
func (p *LazySMP) Stop() {
	p.stopFlag.Store(true)
}

// Go runs the pool against pos up to maxDepth (or until tm/stop fires),
// returning the main thread's (id 0) best result. onMainIteration is called
// after every completed depth on the main thread only, for UCI "info"
// output; helper threads run silently.
func (p *LazySMP) Go(pos *board.Position, maxDepth int, tm *TimeManager, onMainIteration func(IterativeDeepeningResult)) IterativeDeepeningResult {
	return p.GoRestricted(pos, maxDepth, tm, nil, onMainIteration)
}

// GoRestricted is Go, limited to the given root moves when searchMoves is
// non-empty (UCI "go searchmoves").
func (p *LazySMP) GoRestricted(pos *board.Position, maxDepth int, tm *TimeManager, searchMoves []board.Move, onMainIteration func(IterativeDeepeningResult)) IterativeDeepeningResult {
	p.stopFlag.Store(false)

	var g errgroup.Group
	var mainResult IterativeDeepeningResult

	for i, s := range p.searchers {
		i, s := i, s
		g.Go(func() error {
			s.SetRestrictRootMoves(searchMoves)
			depthOffset := depthStagger(i)
			start := 1 + depthOffset
			if start > maxDepth {
				start = maxDepth
			}
			if i == 0 {
				mainResult = s.iterativeDeepenFrom(pos, start, maxDepth, tm, &p.stopFlag, onMainIteration)
			} else {
				s.iterativeDeepenFrom(pos, start, maxDepth, tm, &p.stopFlag, nil)
			}
			return nil
		})
	}
	g.Wait()
	p.stopFlag.Store(true)

	return mainResult
}

// TotalNodes sums node counts across every thread, for UCI "info nodes".
func (p *LazySMP) TotalNodes() uint64 {
	var total uint64
	for _, s := range p.searchers {
		total += s.Nodes()
	}
	return total
}

// HashFull reports the shared table's fill level.
func (p *LazySMP) HashFull() int {
	return p.tt.HashFull()
}

// Clear resets every thread's move-ordering state and the shared table.
func (p *LazySMP) Clear() {
	p.tt.Clear()
	for _, s := range p.searchers {
		s.orderer.Clear()
		s.evalCache.Clear()
	}
}

// depthStagger assigns helper threads a starting-depth offset so they skip
// redundant shallow iterations the main thread already covers quickly.
func depthStagger(workerID int) int {
	switch {
	case workerID == 0:
		return 0
	case workerID < 3:
		return 1
	case workerID < 6:
		return 2
	default:
		return 3
	}
}

// iterativeDeepenFrom is IterativeDeepen generalized to start above depth 1,
// for helper threads' depth staggering.
func (s *Searcher) iterativeDeepenFrom(pos *board.Position, startDepth, maxDepth int, tm *TimeManager, stopFlag *atomic.Bool, onIteration func(IterativeDeepeningResult)) IterativeDeepeningResult {
	s.pos = pos.Copy()
	s.stopFlag = stopFlag
	s.tm = tm
	s.Reset()
	if s.id == 0 {
		s.tt.NewSearch()
	}

	var last IterativeDeepeningResult
	score := 0

	for depth := startDepth; depth <= maxDepth; depth++ {
		if s.stopFlag.Load() {
			break
		}
		if tm != nil && depth > startDepth && tm.ShouldStop() {
			break
		}

		alpha, beta := -Infinity, Infinity
		if depth >= 4 {
			alpha = score - aspirationDelta
			beta = score + aspirationDelta
		}

		var iterScore int
		for {
			iterScore = s.negamax(depth, 0, alpha, beta, true)
			if s.stopFlag.Load() {
				break
			}
			if iterScore <= alpha {
				alpha = max(alpha-aspirationDelta*4, -Infinity)
				continue
			}
			if iterScore >= beta {
				beta = min(beta+aspirationDelta*4, Infinity)
				continue
			}
			break
		}

		if s.stopFlag.Load() && depth > startDepth {
			break
		}

		score = iterScore
		var bestMove board.Move
		if s.pv.length[0] > 0 {
			bestMove = s.pv.moves[0][0]
		}
		last = IterativeDeepeningResult{
			Depth: depth,
			Move:  bestMove,
			Score: score,
			PV:    s.GetPV(),
			Nodes: s.nodes,
		}
		if onIteration != nil {
			onIteration(last)
		}

		if score > MateScore-MaxPly || score < -MateScore+MaxPly {
			break
		}
	}

	return last
}
