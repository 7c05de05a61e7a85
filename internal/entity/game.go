package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-tcp/internal/apperror"
)

// Game is the record of one session: its board, the moves in play order and the result.
type Game struct {
	ID         string    `json:"id"`
	Remote     string    `json:"remote,omitempty"`
	Board      Board     `json:"board"`
	Turn       Cell      `json:"turn"`
	Moves      []Move    `json:"moves"`
	Outcome    Outcome   `json:"outcome"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

func NewGame(id, remote string) *Game {
	return &Game{
		ID:        id,
		Remote:    remote,
		Turn:      PlayerA,
		Moves:     []Move{},
		Outcome:   OutcomeInProgress,
		StartedAt: time.Now().UTC(),
	}
}

// MakeTurn - applies a move for the player whose turn it is and updates the outcome.
func (that *Game) MakeTurn(player Cell, move Move) error {
	if that.IsFinished() {
		return apperror.ErrGameFinished
	}

	if that.Turn != player {
		return apperror.ErrNotYourTurn
	}

	if err := that.Board.Apply(move, player); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	that.Moves = append(that.Moves, move)
	that.UpdateGameState()

	return nil
}

func (that *Game) UpdateGameState() {
	that.Outcome = that.Board.Evaluate()

	if that.Outcome.IsTerminal() {
		that.Turn = EmptyCell
		that.FinishedAt = time.Now().UTC()
		return
	}

	// strictly alternating turns
	that.Turn = that.Turn.Opponent()
}

func (that *Game) IsFinished() bool {
	return that.Outcome.IsTerminal()
}
