package service

import (
	"fmt"
	"math"

	"github.com/rocketscienceinc/tictactoe-tcp/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-tcp/internal/entity"
)

const defaultWinScore = 10

// Minimax searches the whole game tree. There is no pruning and no depth discount:
// a win found deep in the tree scores the same as an immediate one, so the engine
// prefers some winning line but not the fastest win or the slowest loss.
type Minimax struct {
	winScore int
}

type Option func(*Minimax)

// WithWinScore - sets the score of a won position. A lost position scores the negation.
func WithWinScore(score int) Option {
	return func(m *Minimax) {
		if score > 0 {
			m.winScore = score
		}
	}
}

func NewMinimax(opts ...Option) *Minimax {
	m := &Minimax{winScore: defaultWinScore}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// BestMove - returns the optimal move for side. Ties go to the lowest cell index.
// The board must be in progress; the caller's board is never modified.
func (that *Minimax) BestMove(board entity.Board, side entity.Cell) (entity.Move, error) {
	if side != entity.PlayerA && side != entity.PlayerB {
		return 0, fmt.Errorf("%w: %q", entity.ErrInvalidPlayer, side)
	}

	if outcome := board.Evaluate(); outcome != entity.OutcomeInProgress {
		return 0, fmt.Errorf("%w: board is %s", apperror.ErrNoLegalMoves, outcome)
	}

	bestMove := entity.Move(-1)
	bestValue := math.MinInt

	for move := range board.LegalMoves() {
		value := tryMove(&board, move, side, func() int {
			return that.value(&board, side, false)
		})

		// strict comparison keeps the first move that reaches the maximum
		if value > bestValue {
			bestMove = move
			bestValue = value
		}
	}

	if !bestMove.IsValid() {
		return 0, apperror.ErrNoLegalMoves
	}

	return bestMove, nil
}

// Value - scores the position for side, with isMaximizing telling whether side moves next.
func (that *Minimax) Value(board entity.Board, side entity.Cell, isMaximizing bool) int {
	return that.value(&board, side, isMaximizing)
}

func (that *Minimax) value(board *entity.Board, side entity.Cell, isMaximizing bool) int {
	switch outcome := board.Evaluate(); {
	case outcome == entity.OutcomeDraw:
		return 0
	case outcome.Winner() == side:
		return that.winScore
	case outcome.Winner() == side.Opponent():
		return -that.winScore
	}

	mover := side
	best := math.MinInt
	if !isMaximizing {
		mover = side.Opponent()
		best = math.MaxInt
	}

	for move := range board.LegalMoves() {
		score := tryMove(board, move, mover, func() int {
			return that.value(board, side, !isMaximizing)
		})

		if isMaximizing {
			best = max(best, score)
		} else {
			best = min(best, score)
		}
	}

	return best
}

// tryMove - plays move for player, runs fn and takes the move back on every exit path.
func tryMove(board *entity.Board, move entity.Move, player entity.Cell, fn func() int) int {
	board[move] = player
	defer board.Undo(move)

	return fn()
}
