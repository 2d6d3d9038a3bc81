package engine

import (
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/mwingate/chesscore/internal/board"
	"github.com/mwingate/chesscore/internal/book"
	"github.com/mwingate/chesscore/internal/tablebase"
)

// NumWorkers is the number of parallel search threads (matches CPU cores).
var NumWorkers = runtime.GOMAXPROCS(0)

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth       int           // Maximum depth (0 = no limit)
	Nodes       uint64        // Maximum nodes (0 = no limit)
	MoveTime    time.Duration // Time for this move (0 = no limit)
	Infinite    bool          // Search until stopped
	MultiPV     int           // Number of principal variations to find (0 or 1 = single best move)
	SearchMoves []board.Move  // Restrict the search to these root moves, if non-empty
}

// SearchResult contains the result of a single PV search.
type SearchResult struct {
	Move  board.Move
	Score int
	PV    []board.Move
	Depth int
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // depth 3, 500ms
	Medium                   // depth 7, 1s
	Hard                     // maximum strength (depth 40), 3s
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 3, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 7, MoveTime: 1 * time.Second},
	Hard:   {Depth: 40, MoveTime: 3 * time.Second}, // Max strength (time-limited)
}

// Engine is the chess AI engine: a Lazy-SMP search pool plus the
// surrounding opening-book and tablebase collaborators, per spec.md's
// component table.
type Engine struct {
	pool *LazySMP
	tt   *TranspositionTable

	// Single-thread searcher used for Multi-PV, where root moves must be
	// excluded one at a time — something the pool's identical-position
	// threads don't support.
	searcher *Searcher

	stopFlag atomic.Bool

	difficulty Difficulty
	book       *book.Book
	tablebase  tablebase.Prober

	rootPosHashes []uint64

	// ownBook gates book probing, per UCI's "OwnBook" option: a loaded book
	// is kept even while this is false, so re-enabling it mid-game doesn't
	// require reloading the file.
	ownBook bool

	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine with the given transposition table size in MB.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)

	e := &Engine{
		tt:         tt,
		pool:       NewLazySMP(NumWorkers, tt),
		searcher:   NewSearcher(0, tt, NewPawnTable(1)),
		difficulty: Medium,
		ownBook:    true,
	}

	log.Printf("[Engine] Lazy-SMP pool: %d threads (GOMAXPROCS=%d)", NumWorkers, runtime.GOMAXPROCS(0))

	return e
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
}

// LoadBook loads an opening book from a Polyglot file.
func (e *Engine) LoadBook(filename string) error {
	b, err := book.LoadPolyglot(filename)
	if err != nil {
		return err
	}
	e.book = b
	return nil
}

// SetBook sets the opening book.
func (e *Engine) SetBook(b *book.Book) {
	e.book = b
}

// HasBook returns true if an opening book is loaded.
func (e *Engine) HasBook() bool {
	return e.book != nil
}

// SetHashSize resizes the shared transposition table in place (to sizeMB
// megabytes), discarding its contents. Both the Lazy-SMP pool and the
// Multi-PV searcher hold the same *TranspositionTable, so one resize
// reaches both.
func (e *Engine) SetHashSize(sizeMB int) {
	e.tt.SetSize(sizeMB)
}

// SetOwnBook enables or disables opening-book probing, per UCI's "OwnBook"
// option. A previously loaded book is kept in memory either way.
func (e *Engine) SetOwnBook(enabled bool) {
	e.ownBook = enabled
}

// SetThreads rebuilds the Lazy-SMP pool with n search threads sharing the
// existing transposition table, per UCI's "Threads" option. Must not be
// called while a search is in progress.
func (e *Engine) SetThreads(n int) {
	if n < 1 {
		n = 1
	}
	e.pool = NewLazySMP(n, e.tt)
}

// SetTablebase sets the tablebase prober.
func (e *Engine) SetTablebase(tb tablebase.Prober) {
	e.tablebase = tb
}

// HasTablebase returns true if a tablebase is available.
func (e *Engine) HasTablebase() bool {
	return e.tablebase != nil && e.tablebase.Available()
}

// SetPositionHistory sets the position history for repetition detection.
// This should be called before Search() with hashes from the game's move history.
func (e *Engine) SetPositionHistory(hashes []uint64) {
	e.rootPosHashes = make([]uint64, len(hashes))
	copy(e.rootPosHashes, hashes)

	e.pool.SetRootHistory(hashes)
	e.searcher.SetRootHistory(hashes)
}

// Search finds the best move for the given position.
func (e *Engine) Search(pos *board.Position) board.Move {
	limits := DifficultySettings[e.difficulty]
	return e.SearchWithLimits(pos, limits)
}

func (e *Engine) probeBookAndTablebase(pos *board.Position) (board.Move, bool) {
	if e.book != nil && e.ownBook {
		if move, ok := e.book.Probe(pos); ok {
			return move, true
		}
	}
	if e.tablebase != nil && e.tablebase.Available() {
		pieceCount := tablebase.CountPieces(pos)
		if pieceCount <= e.tablebase.MaxPieces() {
			result := e.tablebase.ProbeRoot(pos)
			if result.Found && result.Move != board.NoMove {
				return result.Move, true
			}
		}
	}
	return board.NoMove, false
}

// SearchWithLimits finds the best move with specific search limits, using
// the Lazy-SMP pool to search in parallel.
func (e *Engine) SearchWithLimits(pos *board.Position, limits SearchLimits) board.Move {
	if move, ok := e.probeBookAndTablebase(pos); ok {
		return move
	}

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	var tm *TimeManager
	if limits.MoveTime > 0 {
		tm = NewTimeManager()
		tm.optimumTime = limits.MoveTime
		tm.maximumTime = limits.MoveTime
		tm.startTime = time.Now()
	}

	startTime := time.Now()
	result := e.pool.GoRestricted(pos, maxDepth, tm, limits.SearchMoves, func(r IterativeDeepeningResult) {
		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    r.Depth,
				Score:    r.Score,
				Nodes:    e.pool.TotalNodes(),
				Time:     time.Since(startTime),
				PV:       r.PV,
				HashFull: e.pool.HashFull(),
			})
		}
	})

	return result.Move
}

// SearchWithUCILimits finds the best move using UCI time controls.
// Supports wtime/btime/winc/binc for proper tournament time management.
func (e *Engine) SearchWithUCILimits(pos *board.Position, limits UCILimits, ply int) board.Move {
	if move, ok := e.probeBookAndTablebase(pos); ok {
		return move
	}

	tm := NewTimeManager()
	tm.Init(limits, pos.SideToMove, ply)

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	startTime := time.Now()
	var lastMove board.Move
	var stabilityCount, instabilityCount int

	result := e.pool.GoRestricted(pos, maxDepth, tm, limits.SearchMoves, func(r IterativeDeepeningResult) {
		if r.Move != lastMove && lastMove != board.NoMove {
			instabilityCount++
			stabilityCount = 0
		} else if r.Move == lastMove {
			stabilityCount++
			instabilityCount = 0
		}
		lastMove = r.Move

		if stabilityCount > 0 {
			tm.AdjustForStability(stabilityCount)
		} else if instabilityCount > 0 {
			tm.AdjustForInstability(instabilityCount)
		}

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    r.Depth,
				Score:    r.Score,
				Nodes:    e.pool.TotalNodes(),
				Time:     time.Since(startTime),
				PV:       r.PV,
				HashFull: e.pool.HashFull(),
			})
		}
	})

	return result.Move
}

// SearchMultiPV finds multiple best moves (principal variations) for analysis.
func (e *Engine) SearchMultiPV(pos *board.Position, limits SearchLimits) []SearchResult {
	numPV := limits.MultiPV
	if numPV <= 0 {
		numPV = 1
	}

	results := make([]SearchResult, 0, numPV)
	excludedMoves := make([]board.Move, 0, numPV)

	for i := 0; i < numPV; i++ {
		move, score, pv, depth := e.searchWithExclusions(pos, limits, excludedMoves)
		if move == board.NoMove {
			break
		}

		results = append(results, SearchResult{
			Move:  move,
			Score: score,
			PV:    pv,
			Depth: depth,
		})
		excludedMoves = append(excludedMoves, move)
	}

	for i := 0; i < len(results)-1; i++ {
		maxIdx := i
		for j := i + 1; j < len(results); j++ {
			if results[j].Score > results[maxIdx].Score {
				maxIdx = j
			}
		}
		if maxIdx != i {
			results[i], results[maxIdx] = results[maxIdx], results[i]
		}
	}

	return results
}

// SearchMultiPVWithUCILimits runs Multi-PV search under UCI time controls:
// one time allocation is computed (via TimeManager.Init, same as
// SearchWithUCILimits), and each of the numPV single-thread searches gets
// its optimum time as its own MoveTime, so the whole call can take up to
// numPV times that.
func (e *Engine) SearchMultiPVWithUCILimits(pos *board.Position, limits UCILimits, ply int, numPV int) []SearchResult {
	if numPV <= 0 {
		numPV = 1
	}

	tm := NewTimeManager()
	tm.Init(limits, pos.SideToMove, ply)

	perPVLimits := SearchLimits{
		Depth:       limits.Depth,
		MoveTime:    tm.OptimumTime(),
		SearchMoves: limits.SearchMoves,
		MultiPV:     numPV,
	}

	return e.SearchMultiPV(pos, perPVLimits)
}

// searchWithExclusions searches for the best move, excluding certain root
// moves so a prior PV's move isn't found again.
func (e *Engine) searchWithExclusions(pos *board.Position, limits SearchLimits, excluded []board.Move) (board.Move, int, []board.Move, int) {
	filtered := pos.Copy()
	e.searcher.Reset()
	e.searcher.SetExcludedRootMoves(excluded)
	defer e.searcher.SetExcludedRootMoves(nil)

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	var tm *TimeManager
	if limits.MoveTime > 0 {
		tm = NewTimeManager()
		tm.optimumTime = limits.MoveTime
		tm.maximumTime = limits.MoveTime
		tm.startTime = time.Now()
	}

	result := e.searcher.IterativeDeepen(filtered, maxDepth, tm, &e.stopFlag, nil)
	if result.Move == board.NoMove {
		return board.NoMove, 0, nil, 0
	}

	return result.Move, result.Score, result.PV, result.Depth
}

// Stop stops the current search.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
	e.pool.Stop()
	e.searcher.Stop()
}

// Clear clears the transposition table and other caches.
func (e *Engine) Clear() {
	e.pool.Clear()
	e.searcher.orderer.Clear()
	e.searcher.evalCache.Clear()
}

// Perft performs a perft test (for debugging move generation).
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := pos.MakeMove(move)
		nodes += e.Perft(pos, depth-1)
		pos.UnmakeMove(move, undo)
	}

	return nodes
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score > MateScore-100 {
		mateIn := (MateScore - score + 1) / 2
		return "Mate in " + itoa(mateIn)
	}
	if score < -MateScore+100 {
		mateIn := (MateScore + score + 1) / 2
		return "Mated in " + itoa(mateIn)
	}

	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	pawns := score / 100
	centipawns := score % 100

	return sign + itoa(pawns) + "." + itoa(centipawns)
}

// Simple integer to string (avoid fmt import)
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + itoa(-n)
	}
	s := ""
	for n > 0 {
		s = string('0'+byte(n%10)) + s
		n /= 10
	}
	return s
}
