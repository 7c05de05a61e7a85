package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/rocketscienceinc/tictactoe-tcp/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-tcp/internal/entity"
	"github.com/rocketscienceinc/tictactoe-tcp/internal/pkg"
)

type gameRepo interface {
	Archive(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
	CountByOutcome(ctx context.Context) (map[entity.Outcome]int64, error)
}

type botService interface {
	MakeTurn(game *entity.Game) (entity.Move, error)
}

// Stats is a snapshot of the server's sessions.
type Stats struct {
	ActiveSessions int64                    `json:"active_sessions"`
	Finished       map[entity.Outcome]int64 `json:"finished"`
}

// GameManager runs the game logic of every session. Each game is owned by its session;
// the manager holds no game state, only the archive and a live session counter.
type GameManager struct {
	logger   *slog.Logger
	gameRepo gameRepo
	bot      botService

	active atomic.Int64
}

func NewGameManager(logger *slog.Logger, gameRepo gameRepo, bot botService) *GameManager {
	return &GameManager{
		logger:   logger.With("component", "game_manager"),
		gameRepo: gameRepo,
		bot:      bot,
	}
}

// StartGame - opens a game for one connection. Every StartGame must be paired with EndGame.
func (that *GameManager) StartGame(remote string) (*entity.Game, error) {
	gameID, err := pkg.GenerateGameID()
	if err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}

	that.active.Add(1)

	return entity.NewGame(gameID, remote), nil
}

// EndGame - releases the session slot held by the game.
func (that *GameManager) EndGame(game *entity.Game) {
	that.active.Add(-1)

	that.logger.Debug("game ended", "game_id", game.ID, "outcome", game.Outcome, "moves", len(game.Moves))
}

// MakeTurn - applies the client's move, then the bot's reply. When the client's move
// ends the game there is no reply and ErrGameFinished is returned along with the game.
func (that *GameManager) MakeTurn(ctx context.Context, game *entity.Game, move entity.Move) (entity.Move, error) {
	if err := game.MakeTurn(entity.PlayerA, move); err != nil {
		return 0, fmt.Errorf("failed to make turn: %w", err)
	}

	if game.IsFinished() {
		that.archive(ctx, game)

		return 0, apperror.ErrGameFinished
	}

	reply, err := that.bot.MakeTurn(game)
	if err != nil {
		return 0, fmt.Errorf("bot failed to make turn: %w", err)
	}

	if game.IsFinished() {
		that.archive(ctx, game)
	}

	return reply, nil
}

func (that *GameManager) Stats(ctx context.Context) (*Stats, error) {
	counts, err := that.gameRepo.CountByOutcome(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count games: %w", err)
	}

	return &Stats{
		ActiveSessions: that.active.Load(),
		Finished:       counts,
	}, nil
}

// GetGame - reads a finished game from the archive.
func (that *GameManager) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

// DeleteGame - removes a finished game from the archive. Outcome counters are not touched.
func (that *GameManager) DeleteGame(ctx context.Context, id string) error {
	if err := that.gameRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	that.logger.Info("archived game deleted", "game_id", id)

	return nil
}

// archive - failures are logged only, the archive never affects a session.
func (that *GameManager) archive(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "archive", "game_id", game.ID)

	if err := that.gameRepo.Archive(ctx, game); err != nil {
		log.Error("failed to archive game", "error", err)
		return
	}

	log.Info("game archived", "outcome", game.Outcome)
}
