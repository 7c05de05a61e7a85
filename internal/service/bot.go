package service

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-tcp/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-tcp/internal/entity"
)

var ErrEngineInvariant = errors.New("search engine returned an unplayable move")

type BotService interface {
	MakeTurn(game *entity.Game) (entity.Move, error)
}

type searchEngine interface {
	BestMove(board entity.Board, side entity.Cell) (entity.Move, error)
}

type botService struct {
	engine searchEngine
	mark   entity.Cell
}

// NewBotService - the bot plays mark using the engine's choice.
func NewBotService(engine searchEngine, mark entity.Cell) BotService {
	return &botService{
		engine: engine,
		mark:   mark,
	}
}

func (that *botService) MakeTurn(game *entity.Game) (entity.Move, error) {
	if game.IsFinished() {
		return 0, apperror.ErrGameFinished
	}

	if game.Turn != that.mark {
		return 0, apperror.ErrNotYourTurn
	}

	move, err := that.engine.BestMove(game.Board, that.mark)
	if err != nil {
		return 0, fmt.Errorf("failed to search best move: %w", err)
	}

	if !game.Board.IsEmpty(move) {
		return 0, fmt.Errorf("%w: cell %d", ErrEngineInvariant, move)
	}

	if err = game.MakeTurn(that.mark, move); err != nil {
		return 0, fmt.Errorf("bot failed to make turn: %w", err)
	}

	return move, nil
}
