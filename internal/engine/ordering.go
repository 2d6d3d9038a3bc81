package engine

import (
	"github.com/mwingate/chesscore/internal/board"
)

// Move ordering priorities, matching spec.md's described ranking: TT hint,
// then MVV-LVA captures, then castling, then killer1/killer2, then history.
const (
	TTMoveScore     = 10000000
	GoodCaptureBase = 1000000
	CastlingScore   = 500000
	KillerScore1    = 90
	KillerScore2    = 80
	BadCaptureBase  = -100000
)

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores.
// Score = 10*(victim index + 1) plus an attacker term falling from 5 (pawn)
// through 4 (knight, bishop), 3 (rook) and 2 (queen) to 1 (king), biasing
// towards capturing the most valuable victim with the least valuable attacker.
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11},
	/* N */ {25, 24, 24, 23, 22, 21},
	/* B */ {35, 34, 34, 33, 32, 31},
	/* R */ {45, 44, 44, 43, 42, 41},
	/* Q */ {55, 54, 54, 53, 52, 51},
	/* K */ {0, 0, 0, 0, 0, 0},
}

// MoveOrderer holds the per-worker move-ordering heuristics named in
// spec.md's search design: killer moves and the history table. Counter-move
// and continuation-history tables the teacher's worker.go also maintains
// are not part of this spec and are dropped.
type MoveOrderer struct {
	killers [MaxPly][2]board.Move
	history [64][64]int
}

func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers and ages the history table for a new search.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
	for i := range mo.history {
		for j := range mo.history[i] {
			mo.history[i][j] /= 2
		}
	}
}

// ScoreMoves assigns an ordering score to every move in the list.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, ttMove board.Move) []int {
	scores := make([]int, moves.Len())
	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(pos, moves.Get(i), ply, ttMove)
	}
	return scores
}

func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove board.Move) int {
	if m == ttMove {
		return TTMoveScore
	}

	if m.IsCastling() {
		return CastlingScore
	}

	if m.IsCapture(pos) {
		from, to := m.From(), m.To()
		attackerPiece := pos.PieceAt(from)
		if attackerPiece == board.NoPiece {
			return GoodCaptureBase
		}
		attacker := attackerPiece.Type()

		var victim board.PieceType
		if m.IsEnPassant() {
			victim = board.Pawn
		} else {
			capturedPiece := pos.PieceAt(to)
			if capturedPiece == board.NoPiece {
				return GoodCaptureBase
			}
			victim = capturedPiece.Type()
		}
		if victim >= board.King || attacker > board.King {
			return GoodCaptureBase
		}

		score := GoodCaptureBase + mvvLva[victim][attacker]*1000
		score += mo.history[from][to] / 8 // history tie-break among captures
		if pieceValues[attacker] < pieceValues[victim] {
			score += 10000
		}
		return score
	}

	if m.IsPromotion() {
		return GoodCaptureBase - 1000 + int(m.Promotion())*100
	}

	if m == mo.killers[ply][0] {
		return KillerScore1
	}
	if m == mo.killers[ply][1] {
		return KillerScore2
	}

	return clampHistory(mo.history[m.From()][m.To()])
}

// clampHistory keeps quiet-move scores below the killer band so a killer
// never loses priority to an accumulated history score.
func clampHistory(h int) int {
	if h > KillerScore2-1 {
		return KillerScore2 - 1
	}
	if h < BadCaptureBase {
		return BadCaptureBase
	}
	return h
}

// PickMove selects the best-scoring remaining move starting at index and
// swaps it into place — the "get_next_move" incremental picker spec.md
// describes, which avoids sorting the whole move list up front.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// SortMoves fully sorts the move list by score, descending. Used by
// quiescence search where the picker's incremental cost isn't worth it for
// the shorter capture lists involved.
func SortMoves(moves *board.MoveList, scores []int) {
	n := moves.Len()
	for i := 0; i < n-1; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		if best != i {
			moves.Swap(i, best)
			scores[i], scores[best] = scores[best], scores[i]
		}
	}
}

// UpdateKillers records a quiet move that caused a beta cutoff.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly {
		return
	}
	if mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory adjusts the history score for a quiet move that either
// caused (isGood) or merely failed to cause a beta cutoff.
func (mo *MoveOrderer) UpdateHistory(m board.Move, depth int, isGood bool) {
	from, to := m.From(), m.To()
	bonus := depth * depth
	if isGood {
		mo.history[from][to] += bonus
		if mo.history[from][to] > 400000 {
			for i := range mo.history {
				for j := range mo.history[i] {
					mo.history[i][j] /= 2
				}
			}
		}
	} else {
		mo.history[from][to] -= bonus
		if mo.history[from][to] < -400000 {
			mo.history[from][to] = -400000
		}
	}
}

// GetHistoryScore returns the raw history score for a move.
func (mo *MoveOrderer) GetHistoryScore(m board.Move) int {
	return mo.history[m.From()][m.To()]
}
