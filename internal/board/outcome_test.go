package board

import "testing"

// TestStalemateOutcome exercises the stalemate scenario from spec.md's
// concrete test list: no legal moves, not in check.
func TestStalemateOutcome(t *testing.T) {
	pos, err := ParseFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN failed: %v", err)
	}
	pos.UpdateCheckers()

	if pos.HasLegalMoves() {
		t.Fatal("expected no legal moves in this stalemate position")
	}
	if pos.InCheck() {
		t.Fatal("expected the black king not to be in check")
	}
	if got := pos.Outcome(0); got != Stalemate {
		t.Errorf("Outcome() = %v, want Stalemate", got)
	}
}

// TestTripleRepetitionOutcome replays spec.md's named knight-shuffle
// sequence from the starting position and confirms the position recurs a
// third time, which Outcome reports as a draw once repetitionCount reaches 2
// (the position having occurred three times total).
func TestTripleRepetitionOutcome(t *testing.T) {
	pos := NewPosition()
	moves := []string{"g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1", "f6g8"}

	counts := map[uint64]int{pos.Hash: 1}
	for _, moveStr := range moves {
		from := NewSquare(int(moveStr[0]-'a'), int(moveStr[1]-'1'))
		to := NewSquare(int(moveStr[2]-'a'), int(moveStr[3]-'1'))

		legal := pos.GenerateLegalMoves()
		var found Move
		for i := 0; i < legal.Len(); i++ {
			if m := legal.Get(i); m.From() == from && m.To() == to {
				found = m
				break
			}
		}
		if found == NoMove {
			t.Fatalf("move %s not found among legal moves", moveStr)
		}
		pos.MakeMove(found)
		pos.UpdateCheckers()
		counts[pos.Hash]++
	}

	if counts[pos.Hash] != 3 {
		t.Fatalf("expected the final position to have occurred 3 times, got %d", counts[pos.Hash])
	}
	if got := pos.Outcome(counts[pos.Hash] - 1); got != DrawByRepetition {
		t.Errorf("Outcome() = %v, want DrawByRepetition", got)
	}
}

// TestEnPassantCaptureRemovesPawn follows spec.md's named en-passant
// scenario: after e2e4 a7a6 e4e5 d7d5, e5d6 must be in the move list and
// must remove the d5 pawn, not the e5 pawn, when made.
func TestEnPassantCaptureRemovesPawn(t *testing.T) {
	pos := NewPosition()
	for _, moveStr := range []string{"e2e4", "a7a6", "e4e5", "d7d5"} {
		from := NewSquare(int(moveStr[0]-'a'), int(moveStr[1]-'1'))
		to := NewSquare(int(moveStr[2]-'a'), int(moveStr[3]-'1'))
		legal := pos.GenerateLegalMoves()
		var found Move
		for i := 0; i < legal.Len(); i++ {
			if m := legal.Get(i); m.From() == from && m.To() == to {
				found = m
				break
			}
		}
		if found == NoMove {
			t.Fatalf("move %s not found among legal moves", moveStr)
		}
		pos.MakeMove(found)
		pos.UpdateCheckers()
	}

	if pos.EnPassant != NewSquare(3, 5) { // d6
		t.Fatalf("expected en-passant target d6, got %v", pos.EnPassant)
	}

	legal := pos.GenerateLegalMoves()
	var epMove Move
	for i := 0; i < legal.Len(); i++ {
		if m := legal.Get(i); m.IsEnPassant() {
			epMove = m
			break
		}
	}
	if epMove == NoMove {
		t.Fatal("expected an en-passant capture in the legal move list")
	}
	if epMove.From() != NewSquare(4, 4) || epMove.To() != NewSquare(3, 5) { // e5xd6
		t.Errorf("unexpected en-passant move: %s", epMove.String())
	}

	d5 := NewSquare(3, 4)
	pos.MakeMove(epMove)
	if pos.PieceAt(d5) != NoPiece {
		t.Error("expected the captured d5 pawn to be removed")
	}
}
