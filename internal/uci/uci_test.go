package uci

import (
	"testing"

	"github.com/mwingate/chesscore/internal/board"
	"github.com/mwingate/chesscore/internal/engine"
)

func TestParseGoOptionsSearchMoves(t *testing.T) {
	u := New(engine.NewEngine(1))
	opts := u.parseGoOptions([]string{"searchmoves", "e2e4", "d2d4", "depth", "5"})

	if opts.Depth != 5 {
		t.Errorf("expected depth 5, got %d", opts.Depth)
	}
	want := []string{"e2e4", "d2d4"}
	if len(opts.SearchMoves) != len(want) {
		t.Fatalf("expected %v, got %v", want, opts.SearchMoves)
	}
	for i, w := range want {
		if opts.SearchMoves[i] != w {
			t.Errorf("SearchMoves[%d] = %s, want %s", i, opts.SearchMoves[i], w)
		}
	}
}

func TestParseGoOptionsSearchMovesAtEndOfArgs(t *testing.T) {
	u := New(engine.NewEngine(1))
	opts := u.parseGoOptions([]string{"wtime", "1000", "searchmoves", "e2e4", "g1f3"})

	if len(opts.SearchMoves) != 2 || opts.SearchMoves[0] != "e2e4" || opts.SearchMoves[1] != "g1f3" {
		t.Errorf("unexpected SearchMoves: %v", opts.SearchMoves)
	}
}

// chess960CastlingPosition returns the standard starting position, but
// parsed from a Shredder-FEN so pos.Chess960 is set and castling rights are
// recorded as rook home files rather than KQkq.
func chess960CastlingPosition(t *testing.T) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w HAha - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN failed: %v", err)
	}
	if !pos.Chess960 {
		t.Fatal("expected Chess960 to be set from Shredder-FEN castling letters")
	}
	return pos
}

func findCastling(t *testing.T, pos *board.Position, kingSide bool) board.Move {
	t.Helper()
	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if !m.IsCastling() {
			continue
		}
		isKingSide := m.To().File() > m.From().File()
		if isKingSide == kingSide {
			return m
		}
	}
	t.Fatalf("no castling move found (kingSide=%v)", kingSide)
	return board.NoMove
}

func TestUCIMoveStringChess960Castling(t *testing.T) {
	u := New(engine.NewEngine(1))
	u.chess960 = true
	pos := chess960CastlingPosition(t)

	kingSide := findCastling(t, pos, true)
	if got, want := u.uciMoveString(pos, kingSide), "e1h1"; got != want {
		t.Errorf("king-side castling: got %s, want %s", got, want)
	}

	queenSide := findCastling(t, pos, false)
	if got, want := u.uciMoveString(pos, queenSide), "e1a1"; got != want {
		t.Errorf("queen-side castling: got %s, want %s", got, want)
	}
}

func TestUCIMoveStringNonChess960Unaffected(t *testing.T) {
	u := New(engine.NewEngine(1))
	u.chess960 = false
	pos := chess960CastlingPosition(t)

	kingSide := findCastling(t, pos, true)
	if got, want := u.uciMoveString(pos, kingSide), kingSide.String(); got != want {
		t.Errorf("expected plain move string %s, got %s", want, got)
	}
}

func TestParseMoveChess960CastlingInput(t *testing.T) {
	u := New(engine.NewEngine(1))
	u.chess960 = true
	u.position = chess960CastlingPosition(t)

	want := findCastling(t, u.position, true)
	got := u.parseMove("e1h1")
	if got != want {
		t.Errorf("parseMove(e1h1) = %s, want %s", got.String(), want.String())
	}

	want = findCastling(t, u.position, false)
	got = u.parseMove("e1a1")
	if got != want {
		t.Errorf("parseMove(e1a1) = %s, want %s", got.String(), want.String())
	}
}

func TestHandleSetOptionMultiPV(t *testing.T) {
	u := New(engine.NewEngine(1))

	u.handleSetOption([]string{"name", "MultiPV", "value", "3"})
	if u.multiPV != 3 {
		t.Errorf("expected multiPV=3, got %d", u.multiPV)
	}

	// Invalid values are ignored, leaving the prior setting in place.
	u.handleSetOption([]string{"name", "MultiPV", "value", "0"})
	if u.multiPV != 3 {
		t.Errorf("expected multiPV to stay 3 after an invalid value, got %d", u.multiPV)
	}
}

func TestHandleSetOptionThreadsAndOwnBook(t *testing.T) {
	u := New(engine.NewEngine(1))

	// Both options should be accepted without panicking; there's no
	// engine-exposed getter for thread count or ownBook, so this exercises
	// the parse/dispatch path rather than the resulting engine state.
	u.handleSetOption([]string{"name", "Threads", "value", "2"})
	u.handleSetOption([]string{"name", "OwnBook", "value", "false"})
	u.handleSetOption([]string{"name", "OwnBook", "value", "true"})
}

func TestParseMoveOrdinary(t *testing.T) {
	u := New(engine.NewEngine(1))
	u.position = board.NewPosition()

	m := u.parseMove("e2e4")
	if m == board.NoMove {
		t.Fatal("expected e2e4 to parse as a legal move")
	}
	if m.From() != board.NewSquare(4, 1) || m.To() != board.NewSquare(4, 3) {
		t.Errorf("unexpected move: %s", m.String())
	}
}
