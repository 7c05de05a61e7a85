package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-tcp/internal/config"
	"github.com/rocketscienceinc/tictactoe-tcp/internal/entity"
	"github.com/rocketscienceinc/tictactoe-tcp/internal/repository"
	"github.com/rocketscienceinc/tictactoe-tcp/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-tcp/internal/service"
	"github.com/rocketscienceinc/tictactoe-tcp/internal/transport/rest"
	"github.com/rocketscienceinc/tictactoe-tcp/internal/transport/tcp"
	"github.com/rocketscienceinc/tictactoe-tcp/internal/usecase"
)

// RunApp - runs the game server until a signal arrives or a listener fails.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	gameRepo, closeRepo, err := newGameRepository(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeRepo()

	bot := service.NewBotService(service.NewMinimax(), entity.PlayerB)
	gameManager := usecase.NewGameManager(logger, gameRepo, bot)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	if conf.HTTPPort != "" {
		go func() {
			log.Info("Starting HTTP server", "port", conf.HTTPPort)
			if httpErr := rest.Start(ctx, conf.HTTPPort, rest.NewRouter(logger, gameManager)); httpErr != nil {
				log.Error("HTTP server error", "error", httpErr)
				httpErrCh <- httpErr
			}
		}()
	}

	// run game server
	tcpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting game server", "port", conf.Port)
		tcpServer := tcp.New(logger, gameManager)
		tcpErrCh <- tcpServer.Start(ctx, conf.Port)
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-tcpErrCh:
		if err != nil {
			return fmt.Errorf("game server error: %w", err)
		}
		log.Info("Game server stopped")
		return nil
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// newGameRepository - redis archive when a host is configured, in-memory otherwise.
func newGameRepository(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.GameRepository, func(), error) {
	redisAddr := conf.Redis.GetRedisAddr()
	if redisAddr == "" {
		log.Info("Redis host not set, archiving games in memory")
		return repository.NewMemoryGameRepository(conf.ArchiveTTL), func() {}, nil
	}

	redisStorage, err := storage.New(ctx, redisAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeFn := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewGameRepository(redisStorage, conf.ArchiveTTL), closeFn, nil
}
