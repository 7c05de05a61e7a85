package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-tcp/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-tcp/internal/entity"
	"github.com/rocketscienceinc/tictactoe-tcp/internal/protocol"
)

// session is the turn protocol of one connection. It owns its game exclusively.
type session struct {
	conn   io.ReadWriter
	game   *entity.Game
	games  gameManager
	logger *slog.Logger
}

func newSession(conn io.ReadWriter, game *entity.Game, games gameManager, logger *slog.Logger) *session {
	return &session{
		conn:   conn,
		game:   game,
		games:  games,
		logger: logger,
	}
}

// run - waits for a client move, replies with the computed move, and repeats until
// the game is over or the connection fails.
func (that *session) run(ctx context.Context) error {
	for {
		value, err := protocol.ReadMessage(that.conn)
		if err != nil {
			return fmt.Errorf("failed to read move: %w", err)
		}

		move := entity.Move(value)
		that.logger.Debug("client moved", "cell", move)

		reply, err := that.games.MakeTurn(ctx, that.game, move)

		switch {
		case errors.Is(err, apperror.ErrGameFinished):
			if err = protocol.WriteMessage(that.conn, protocol.ReplyGameOver); err != nil {
				return fmt.Errorf("failed to send game over: %w", err)
			}
			return nil

		case errors.Is(err, apperror.ErrIllegalMove):
			that.logger.Warn("rejected illegal move", "cell", value, "error", err)

			if err = protocol.WriteMessage(that.conn, protocol.ReplyIllegalMove); err != nil {
				return fmt.Errorf("failed to send illegal move: %w", err)
			}
			continue

		case err != nil:
			return err
		}

		that.logger.Debug("server moved", "cell", reply)

		if err = protocol.WriteMessage(that.conn, int32(reply)); err != nil {
			return fmt.Errorf("failed to send reply: %w", err)
		}

		if that.game.IsFinished() {
			return nil
		}
	}
}
