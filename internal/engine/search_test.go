package engine

import (
	"sync/atomic"
	"testing"

	"github.com/mwingate/chesscore/internal/board"
)

func TestSearchRestrictRootMoves(t *testing.T) {
	pos := board.NewPosition()
	legal := pos.GenerateLegalMoves()
	if legal.Len() < 2 {
		t.Fatal("expected multiple legal moves from the starting position")
	}
	allowed := legal.Get(0)

	tt := NewTranspositionTable(4)
	s := NewSearcher(0, tt, NewPawnTable(1))
	s.SetRestrictRootMoves([]board.Move{allowed})

	var stopFlag atomic.Bool
	result := s.iterativeDeepenFrom(pos, 1, 2, nil, &stopFlag, nil)

	if result.Move != allowed {
		t.Errorf("expected search restricted to %s, got %s", allowed.String(), result.Move.String())
	}
}

func TestSearchExcludeRootMoves(t *testing.T) {
	pos := board.NewPosition()
	tt := NewTranspositionTable(4)
	s := NewSearcher(0, tt, NewPawnTable(1))

	var stopFlag atomic.Bool
	first := s.iterativeDeepenFrom(pos, 1, 3, nil, &stopFlag, nil)
	if first.Move == board.NoMove {
		t.Fatal("expected a move from the unrestricted search")
	}

	s.Reset()
	s.SetExcludedRootMoves([]board.Move{first.Move})
	second := s.iterativeDeepenFrom(pos, 1, 3, nil, &stopFlag, nil)

	if second.Move == board.NoMove {
		t.Fatal("expected a move from the search with one root move excluded")
	}
	if second.Move == first.Move {
		t.Error("excluded root move was searched again")
	}
}
