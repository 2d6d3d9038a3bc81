package engine

import (
	"sync/atomic"
	"time"

	"github.com/mwingate/chesscore/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// Pruning and reduction tuning, named individually so each technique spec.md
// lists can be tuned in isolation.
const (
	nullMoveMinDepth    = 3
	nullMoveBaseR       = 3
	razorMaxDepth       = 3
	razorMargin         = 300
	futilityMaxDepth    = 6
	futilityMarginBase  = 100
	aspirationDelta     = 25
	endgamePieceCeiling = 5 // EndgameValue is only consulted at or below this many non-king pieces
)

// PVTable stores the principal variation.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Searcher runs one thread's iterative-deepening alpha-beta search. A
// Lazy-SMP pool (see smp.go) runs several Searchers concurrently against one
// shared *TranspositionTable; everything else here — move orderer, pawn
// hash, eval cache, undo/path stacks — is private per Searcher.
type Searcher struct {
	id        int
	pos       *board.Position
	tt        *TranspositionTable
	orderer   *MoveOrderer
	pawnTable *PawnTable
	evalCache *EvalCache

	nodes    uint64
	stopFlag *atomic.Bool

	pv PVTable

	undoStack [MaxPly]board.UndoInfo

	// rootHistory holds Zobrist hashes for the game so far (set once per
	// search via SetRootHistory); searchPath holds the hashes pushed during
	// this search's own line of play. isDraw consults both so repetitions
	// spanning the root are detected the same way they would be over the
	// board.
	rootHistory []uint64
	searchPath  [MaxPly]uint64

	tm *TimeManager

	// excludedRootMoves are skipped at ply 0 only, so SearchMultiPV can pull
	// successive principal variations from one Searcher instead of just
	// discarding a search whose best move was already reported.
	excludedRootMoves []board.Move

	// restrictRootMoves, if non-nil, is the only set of moves considered at
	// ply 0 — the UCI "go searchmoves" allow-list.
	restrictRootMoves []board.Move
}

// SetExcludedRootMoves restricts the next search to root moves not in
// excluded. Pass nil to search all root moves again.
func (s *Searcher) SetExcludedRootMoves(excluded []board.Move) {
	s.excludedRootMoves = excluded
}

// SetRestrictRootMoves limits the next search to only the given root moves.
// Pass nil to consider every legal root move again.
func (s *Searcher) SetRestrictRootMoves(allowed []board.Move) {
	s.restrictRootMoves = allowed
}

func (s *Searcher) isExcludedRootMove(m board.Move) bool {
	for _, ex := range s.excludedRootMoves {
		if ex == m {
			return true
		}
	}
	if s.restrictRootMoves != nil {
		for _, allowed := range s.restrictRootMoves {
			if allowed == m {
				return false
			}
		}
		return true
	}
	return false
}

// NewSearcher creates a search thread sharing tt with the rest of the pool.
func NewSearcher(id int, tt *TranspositionTable, pawnTable *PawnTable) *Searcher {
	return &Searcher{
		id:        id,
		tt:        tt,
		orderer:   NewMoveOrderer(),
		pawnTable: pawnTable,
		evalCache: NewEvalCache(),
	}
}

// Stop signals the search to stop. Kept for callers that own a lone
// Searcher directly (e.g. SearchMultiPV); pool-driven searches share one
// *atomic.Bool set by smp.go instead.
func (s *Searcher) Stop() {
	if s.stopFlag == nil {
		s.stopFlag = &atomic.Bool{}
	}
	s.stopFlag.Store(true)
}

// Reset resets the searcher for a new search.
func (s *Searcher) Reset() {
	if s.stopFlag == nil {
		s.stopFlag = &atomic.Bool{}
	}
	s.stopFlag.Store(false)
	s.nodes = 0
	s.orderer.Clear()
}

// SetRootHistory records the game's position history (oldest first) so
// repetition detection during search sees positions played before the
// current search began.
func (s *Searcher) SetRootHistory(hashes []uint64) {
	s.rootHistory = make([]uint64, len(hashes))
	copy(s.rootHistory, hashes)
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// GetPV returns the principal variation from the last completed iteration.
func (s *Searcher) GetPV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	for i := 0; i < s.pv.length[0]; i++ {
		pv[i] = s.pv.moves[0][i]
	}
	return pv
}

// Search performs a fixed-depth search, for callers (perft-adjacent tools,
// tests) that don't need iterative deepening.
func (s *Searcher) Search(pos *board.Position, depth int) (board.Move, int) {
	s.pos = pos.Copy()
	s.Reset()
	score := s.negamax(depth, 0, -Infinity, Infinity, true)
	var bestMove board.Move
	if s.pv.length[0] > 0 {
		bestMove = s.pv.moves[0][0]
	}
	return bestMove, score
}

// IterativeDeepeningResult is one completed iteration's outcome.
type IterativeDeepeningResult struct {
	Depth int
	Move  board.Move
	Score int
	PV    []board.Move
	Nodes uint64
}

// IterativeDeepen runs iterative deepening with aspiration windows from
// depth 1 up to maxDepth (or until stopFlag/tm signals time is up), calling
// onIteration after every completed depth. It is the loop smp.go's worker
// goroutines and the legacy single-thread callers both drive.
func (s *Searcher) IterativeDeepen(pos *board.Position, maxDepth int, tm *TimeManager, stopFlag *atomic.Bool, onIteration func(IterativeDeepeningResult)) IterativeDeepeningResult {
	s.tt.NewSearch()
	return s.iterativeDeepenFrom(pos, 1, maxDepth, tm, stopFlag, onIteration)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// pushPath records the current position's hash as played during this
// search, for repetition detection against both the game history and the
// search's own line.
func (s *Searcher) pushPath(ply int) {
	s.searchPath[ply] = s.pos.Hash
}

func (s *Searcher) repetitionCount(ply int) int {
	count := 0
	for _, h := range s.rootHistory {
		if h == s.pos.Hash {
			count++
		}
	}
	for i := 0; i < ply; i++ {
		if s.searchPath[i] == s.pos.Hash {
			count++
		}
	}
	return count
}

// negamax implements negamax alpha-beta with PVS, null-move pruning,
// razoring, futility pruning and TT cutoffs, per spec.md's search design
// (explicitly excluding LMR, singular extensions, multicut and probcut).
func (s *Searcher) negamax(depth, ply int, alpha, beta int, isPV bool) int {
	if s.nodes&2047 == 0 {
		if s.stopFlag.Load() {
			return 0
		}
		if s.tm != nil && ply > 0 && s.tm.ShouldStop() {
			s.stopFlag.Store(true)
			return 0
		}
	}

	s.nodes++
	s.pv.length[ply] = ply

	if ply > 0 {
		s.pushPath(ply)
		if s.repetitionCount(ply) >= 2 || s.pos.HalfMoveClock >= 100 {
			return 0
		}
		if s.pos.IsInsufficientMaterial() {
			return 0
		}
		// Mate-distance pruning: a mate already found closer to the root
		// makes searching deeper here pointless.
		alpha = max(alpha, -MateScore+ply)
		beta = min(beta, MateScore-ply)
		if alpha >= beta {
			return alpha
		}
	}

	totalPieces := s.pos.AllOccupied.PopCount() - 2 // exclude both kings
	if totalPieces <= endgamePieceCeiling {
		if v, ok := EndgameValue(s.pos, totalPieces); ok {
			if s.pos.SideToMove == board.Black {
				v = -v
			}
			return v
		}
	}

	var ttMove board.Move
	ttEntry, found := s.tt.Probe(s.pos.Hash)
	if found {
		// From==To never occurs in a legal move, so it marks "no move was
		// stored" for this entry (an all-node that never raised alpha).
		if ttEntry.From != ttEntry.To {
			ttMove = s.reconstructMove(ttEntry)
		}
		if !isPV && int(ttEntry.Depth) >= depth {
			score := AdjustScoreFromTT(int(ttEntry.Score), ply)
			switch ttEntry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				if score >= beta {
					return score
				}
			case TTUpperBound:
				if score <= alpha {
					return score
				}
			}
		}
	}

	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}

	inCheck := s.pos.InCheck()
	staticEval := EvaluateCached(s.pos, s.evalCache, s.pawnTable, alpha, beta)

	// Razoring: hopelessly behind near the leaves, drop straight to
	// quiescence rather than spend a full ply on it.
	if !isPV && !inCheck && depth <= razorMaxDepth && staticEval+razorMargin*depth < alpha {
		q := s.quiescence(ply, alpha, beta)
		if q < alpha {
			return q
		}
	}

	// Null-move pruning: give the opponent a free move and see if we still
	// fail high; skipped in check, in zugzwang-prone pawn-only endings, and
	// near the leaves where it stops paying for itself.
	if !isPV && !inCheck && depth >= nullMoveMinDepth && staticEval >= beta && s.hasNonPawnMaterial() {
		undo := s.pos.MakeNullMove()
		r := nullMoveBaseR
		if depth > 6 {
			r++
		}
		reduced := depth - 1 - r
		if reduced < 0 {
			reduced = 0
		}
		score := -s.negamax(reduced, ply+1, -beta, -beta+1, false)
		s.pos.UnmakeNullMove(undo)
		if s.stopFlag.Load() {
			return 0
		}
		if score >= beta {
			return beta
		}
	}

	// Futility pruning margin for quiet moves near the leaves.
	futile := !isPV && !inCheck && depth <= futilityMaxDepth &&
		staticEval+futilityMarginBase*depth <= alpha

	moves := s.pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	scores := s.orderer.ScoreMoves(s.pos, moves, ply, ttMove)

	bestScore := -Infinity
	bestMove := board.NoMove
	flag := TTUpperBound
	movesSearched := 0

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)
		isCapture := move.IsCapture(s.pos)
		givesCheckOrPromo := move.IsPromotion()

		if futile && movesSearched > 0 && !isCapture && !givesCheckOrPromo && !inCheck {
			continue
		}
		if ply == 0 && s.isExcludedRootMove(move) {
			continue
		}

		s.undoStack[ply] = s.pos.MakeMove(move)
		if !s.undoStack[ply].Valid {
			continue
		}

		var score int
		if movesSearched == 0 {
			score = -s.negamax(depth-1, ply+1, -beta, -alpha, isPV)
		} else {
			// PVS: search later moves with a null window first, re-search
			// with the full window only if they beat alpha.
			score = -s.negamax(depth-1, ply+1, -alpha-1, -alpha, false)
			if score > alpha && score < beta {
				score = -s.negamax(depth-1, ply+1, -beta, -alpha, isPV)
			}
		}

		s.pos.UnmakeMove(move, s.undoStack[ply])
		movesSearched++

		if s.stopFlag.Load() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move

			if score > alpha {
				alpha = score
				flag = TTExact
				s.pv.moves[ply][ply] = move
				for j := ply + 1; j < s.pv.length[ply+1]; j++ {
					s.pv.moves[ply][j] = s.pv.moves[ply+1][j]
				}
				s.pv.length[ply] = s.pv.length[ply+1]
			}
		}

		if score >= beta {
			s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(score, ply), TTLowerBound, bestMove.From(), bestMove.To())
			if !isCapture {
				s.orderer.UpdateKillers(move, ply)
				s.orderer.UpdateHistory(move, depth, true)
			}
			return score
		}
		if !isCapture {
			s.orderer.UpdateHistory(move, depth, false)
		}
	}

	s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(bestScore, ply), flag, bestMove.From(), bestMove.To())
	return bestScore
}

// reconstructMove recovers a playable board.Move from a TT entry's bare
// from/to squares by matching it against the current position's legal
// moves (transposition.go's packed payload drops flag bits to fit its
// layout; see DESIGN.md).
func (s *Searcher) reconstructMove(e TTEntry) board.Move {
	moves := s.pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.From() == e.From && m.To() == e.To {
			return m
		}
	}
	return board.NoMove
}

func (s *Searcher) hasNonPawnMaterial() bool {
	us := s.pos.SideToMove
	return s.pos.Pieces[us][board.Knight]|s.pos.Pieces[us][board.Bishop]|
		s.pos.Pieces[us][board.Rook]|s.pos.Pieces[us][board.Queen] != 0
}

// quiescence searches captures (and, while in check, all evasions) to
// avoid the horizon effect, pruned with SEE.
func (s *Searcher) quiescence(ply int, alpha, beta int) int {
	const maxQuiescencePly = 32
	if ply >= MaxPly || ply > maxQuiescencePly {
		return Evaluate(s.pos)
	}
	if s.stopFlag.Load() {
		return 0
	}
	s.nodes++

	inCheck := s.pos.InCheck()
	var standPat int
	if !inCheck {
		standPat = EvaluateCached(s.pos, s.evalCache, s.pawnTable, alpha, beta)
		if standPat >= beta {
			return beta
		}
		if standPat > alpha {
			alpha = standPat
		}
		bigDelta := QueenValue
		if standPat+bigDelta < alpha {
			return alpha
		}
	}

	var moves *board.MoveList
	if inCheck {
		moves = s.pos.GenerateLegalMoves()
	} else {
		moves = s.pos.GenerateCaptures()
	}
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return alpha
	}

	scores := s.orderer.ScoreMoves(s.pos, moves, ply, board.NoMove)
	SortMoves(moves, scores)

	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)

		if !inCheck {
			// SEE pruning: don't bother with captures that lose material.
			if move.IsCapture(s.pos) && SEE(s.pos, move) < 0 {
				continue
			}
		}

		undo := s.pos.MakeMove(move)
		if !undo.Valid {
			continue
		}
		score := -s.quiescence(ply+1, -beta, -alpha)
		s.pos.UnmakeMove(move, undo)

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	return alpha
}
