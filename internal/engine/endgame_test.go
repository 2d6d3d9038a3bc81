package engine

import (
	"testing"

	"github.com/mwingate/chesscore/internal/board"
)

// endgameCase names a position alongside the non-king piece count it
// should dispatch on, so a regression in EndgameValue's switch (matching
// the wrong case to the wrong formula) shows up as ok==false here rather
// than silently falling through to the general evaluator.
type endgameCase struct {
	name        string
	fen         string
	totalPieces int
}

func TestEndgameValueCoversAllSevenClasses(t *testing.T) {
	cases := []endgameCase{
		{"KBNK white", "8/8/8/8/3k4/8/2BNK3/8 w - - 0 1", 2},
		{"KBNK black", "8/2bnk3/8/8/3K4/8/8/8 b - - 0 1", 2},
		{"KQKP white", "8/8/8/8/3k4/8/2p1K3/4Q3 w - - 0 1", 2},
		{"KQKP black", "8/8/8/8/3K4/8/2P1k3/4q3 b - - 0 1", 2},
		{"KRKQ white rook", "8/8/8/8/3k4/8/2R1K3/4q3 w - - 0 1", 2},
		{"KRKQ black rook", "8/8/8/8/3K4/8/2r1k3/4Q3 b - - 0 1", 2},
		{"KRKP white pawn", "8/8/8/8/3k4/8/2P1K3/4r3 w - - 0 1", 2},
		{"KRKP black pawn", "8/8/8/8/3K4/8/2p1k3/4R3 b - - 0 1", 2},
		{"KRKB white bishop", "8/8/8/8/3k4/8/2B1K3/4r3 w - - 0 1", 2},
		{"KRKB black bishop", "8/8/8/8/3K4/8/2b1k3/4R3 b - - 0 1", 2},
		{"KRKN white knight", "8/8/8/8/3k4/8/2N1K3/4r3 w - - 0 1", 2},
		{"KRKN black knight", "8/8/8/8/3K4/8/2n1k3/4R3 b - - 0 1", 2},
		{"KBBKN white knight", "8/8/8/4k3/8/8/2N1K3/2b1b3 w - - 0 1", 3},
		{"KBBKN black knight", "8/8/8/4K3/8/8/2n1k3/2B1B3 b - - 0 1", 3},
	}

	for _, c := range cases {
		pos, err := board.ParseFEN(c.fen)
		if err != nil {
			t.Fatalf("%s: ParseFEN failed: %v", c.name, err)
		}

		got := pos.AllOccupied.PopCount() - 2
		if got != c.totalPieces {
			t.Fatalf("%s: expected %d non-king pieces, got %d", c.name, c.totalPieces, got)
		}

		if _, ok := EndgameValue(pos, got); !ok {
			t.Errorf("%s: EndgameValue did not recognize this material as a known endgame class", c.name)
		}
	}
}
