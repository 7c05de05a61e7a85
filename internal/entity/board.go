package entity

import (
	"errors"
	"fmt"
	"iter"

	"github.com/rocketscienceinc/tictactoe-tcp/internal/apperror"
)

const (
	BoardSize = 3
	CellCount = BoardSize * BoardSize
)

// Cell is the state of one board position.
type Cell string

const (
	EmptyCell Cell = ""
	PlayerA   Cell = "X" // the client side
	PlayerB   Cell = "O" // the server side
)

// Opponent - returns the other player's mark. EmptyCell has no opponent.
func (that Cell) Opponent() Cell {
	switch that {
	case PlayerA:
		return PlayerB
	case PlayerB:
		return PlayerA
	default:
		return EmptyCell
	}
}

// Move is a cell index in row-major order.
type Move int

func (that Move) Row() int {
	return int(that) / BoardSize
}

func (that Move) Col() int {
	return int(that) % BoardSize
}

func (that Move) IsValid() bool {
	return that >= 0 && that < CellCount
}

// Outcome classifies a board as terminal or not.
type Outcome string

const (
	OutcomeInProgress Outcome = "in_progress"
	OutcomePlayerAWin Outcome = "player_a_win"
	OutcomePlayerBWin Outcome = "player_b_win"
	OutcomeDraw       Outcome = "draw"
)

func (that Outcome) IsTerminal() bool {
	return that == OutcomePlayerAWin || that == OutcomePlayerBWin || that == OutcomeDraw
}

// Winner - returns the mark of the winning side, EmptyCell for a draw or a game in progress.
func (that Outcome) Winner() Cell {
	switch that {
	case OutcomePlayerAWin:
		return PlayerA
	case OutcomePlayerBWin:
		return PlayerB
	default:
		return EmptyCell
	}
}

var (
	ErrInvalidPlayer = errors.New("invalid player mark")

	WinCombos = [8][3]Move{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}
)

// Board is the 3x3 grid stored row-major.
type Board [CellCount]Cell

// NewBoard - builds a board with the given marks already placed, mostly for tests and replays.
func NewBoard(playerA, playerB []Move) (Board, error) {
	var board Board

	for _, move := range playerA {
		if err := board.Apply(move, PlayerA); err != nil {
			return Board{}, err
		}
	}

	for _, move := range playerB {
		if err := board.Apply(move, PlayerB); err != nil {
			return Board{}, err
		}
	}

	return board, nil
}

// Apply - places the player's mark. The board is left unchanged on error.
func (that *Board) Apply(move Move, player Cell) error {
	if player != PlayerA && player != PlayerB {
		return fmt.Errorf("%w: %q", ErrInvalidPlayer, player)
	}

	if !move.IsValid() {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, move)
	}

	if that[move] != EmptyCell {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, move)
	}

	that[move] = player

	return nil
}

// Undo - empties a cell. Only the search engine takes moves back.
func (that *Board) Undo(move Move) {
	that[move] = EmptyCell
}

func (that *Board) IsEmpty(move Move) bool {
	return move.IsValid() && that[move] == EmptyCell
}

func (that *Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// Evaluate - reports the outcome of the position.
func (that *Board) Evaluate() Outcome {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			if a == PlayerA {
				return OutcomePlayerAWin
			}
			return OutcomePlayerBWin
		}
	}

	if that.IsFull() {
		return OutcomeDraw
	}

	return OutcomeInProgress
}

// LegalMoves - yields every empty cell in ascending order. The sequence reads the board lazily,
// so each iteration reflects the board as it is at that moment.
func (that *Board) LegalMoves() iter.Seq[Move] {
	return func(yield func(Move) bool) {
		for i := range that {
			if that[i] != EmptyCell {
				continue
			}
			if !yield(Move(i)) {
				return
			}
		}
	}
}
