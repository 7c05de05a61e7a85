package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-tcp/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-tcp/internal/entity"
)

var (
	ErrGameNotFound    = fmt.Errorf("game %w", apperror.ErrNotFound)
	ErrGameNotFinished = errors.New("game is not finished")

	// Outcomes counted by the archive.
	FinishedOutcomes = []entity.Outcome{entity.OutcomePlayerAWin, entity.OutcomePlayerBWin, entity.OutcomeDraw}
)

// GameRepository - archive of finished games.
type GameRepository interface {
	Archive(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
	CountByOutcome(ctx context.Context) (map[entity.Outcome]int64, error)
}

type dbGame struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGameRepository - archived games expire after ttl, zero keeps them forever.
func NewGameRepository(client *redis.Client, ttl time.Duration) GameRepository {
	return &dbGame{
		client: client,
		ttl:    ttl,
	}
}

// archiveScript stores the game only if absent and counts it in the same step.
// KEYS[1] game key, KEYS[2] outcome counter, ARGV[1] game json, ARGV[2] ttl in ms (0 keeps it).
var archiveScript = redis.NewScript(`
local stored
if tonumber(ARGV[2]) > 0 then
	stored = redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[2])
else
	stored = redis.call("SET", KEYS[1], ARGV[1], "NX")
end
if not stored then
	return 0
end
redis.call("INCR", KEYS[2])
return 1
`)

func gameKey(id string) string {
	return "game:" + id
}

func statsKey(outcome entity.Outcome) string {
	return "stats:" + string(outcome)
}

// Archive - stores a finished game once; archiving the same game again is a no-op.
func (that *dbGame) Archive(ctx context.Context, game *entity.Game) error {
	if !game.IsFinished() {
		return fmt.Errorf("%w: %s", ErrGameNotFinished, game.ID)
	}

	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	err = archiveScript.Run(ctx, that.client,
		[]string{gameKey(game.ID), statsKey(game.Outcome)},
		gameJSON, that.ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to archive game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal([]byte(response), &existingGame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

func (that *dbGame) DeleteByID(ctx context.Context, id string) error {
	deleted, err := that.client.Del(ctx, gameKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete game by ID: %w", err)
	}

	if deleted == 0 {
		return ErrGameNotFound
	}

	return nil
}

func (that *dbGame) CountByOutcome(ctx context.Context) (map[entity.Outcome]int64, error) {
	keys := make([]string, 0, len(FinishedOutcomes))
	for _, outcome := range FinishedOutcomes {
		keys = append(keys, statsKey(outcome))
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	counts := make(map[entity.Outcome]int64, len(FinishedOutcomes))
	for i, outcome := range FinishedOutcomes {
		counts[outcome] = 0

		raw, ok := values[i].(string)
		if !ok {
			continue
		}

		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s counter: %w", outcome, err)
		}
		counts[outcome] = n
	}

	return counts, nil
}
