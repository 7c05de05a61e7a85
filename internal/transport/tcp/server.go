package tcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/rocketscienceinc/tictactoe-tcp/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-tcp/internal/entity"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

type gameManager interface {
	StartGame(remote string) (*entity.Game, error)
	EndGame(game *entity.Game)
	MakeTurn(ctx context.Context, game *entity.Game, move entity.Move) (entity.Move, error)
}

// Server accepts connections and runs one game session per connection.
// It owns only the listener; sessions share nothing with each other.
type Server struct {
	logger *slog.Logger
	games  gameManager
}

func New(logger *slog.Logger, games gameManager) *Server {
	return &Server{
		logger: logger.With("component", "tcp_server"),
		games:  games,
	}
}

// Start - listens on port and serves until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("%w: failed to listen on port %s: %w", apperror.ErrResource, port, err)
	}

	return that.Serve(ctx, listener)
}

// Serve - accepts connections on listener until ctx is canceled. Canceling ctx closes
// the listener and every live connection. Accept failures are retried with backoff.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	log := that.logger.With("method", "Serve", "addr", listener.Addr().String())

	defer listener.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = listener.Close()
	})
	defer stop()

	log.Info("accepting connections")

	var delay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				log.Info("stopped accepting connections")
				return nil
			}

			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("%w: listener closed: %w", apperror.ErrResource, err)
			}

			delay = nextAcceptDelay(delay)
			log.Error("failed to accept connection", "error", err, "retry_in", delay)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}

			continue
		}

		delay = 0

		go that.handleConn(ctx, conn)
	}
}

func nextAcceptDelay(delay time.Duration) time.Duration {
	if delay == 0 {
		return minAcceptDelay
	}

	return min(delay*2, maxAcceptDelay)
}

// handleConn - runs one session for the lifetime of the connection.
func (that *Server) handleConn(ctx context.Context, conn net.Conn) {
	log := that.logger.With("method", "handleConn", "remote", conn.RemoteAddr().String())

	defer conn.Close()

	// closing the connection is the only cancellation a session observes
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			log.Error("session panicked", "panic", r)
		}
	}()

	game, err := that.games.StartGame(conn.RemoteAddr().String())
	if err != nil {
		log.Error("failed to start game", "error", err)
		return
	}
	defer that.games.EndGame(game)

	log = log.With("session_id", game.ID)
	log.Info("session opened")

	err = newSession(conn, game, that.games, log).run(ctx)

	switch {
	case err == nil:
		log.Info("session closed", "outcome", game.Outcome, "moves", len(game.Moves))
	case errors.Is(err, apperror.ErrConnectionLost):
		log.Info("client disconnected", "outcome", game.Outcome, "moves", len(game.Moves), "reason", err)
	default:
		log.Error("session failed", "error", err, "outcome", game.Outcome)
	}
}
