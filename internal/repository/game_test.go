package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-tcp/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-tcp/internal/entity"
	"github.com/rocketscienceinc/tictactoe-tcp/testing/suite"
)

// finishedGame - plays the listed cells alternately starting with player A.
func finishedGame(t *testing.T, id string, moves ...entity.Move) *entity.Game {
	t.Helper()

	game := entity.NewGame(id, "127.0.0.1:4000")
	for _, move := range moves {
		require.NoError(t, game.MakeTurn(game.Turn, move))
	}
	require.True(t, game.IsFinished())

	return game
}

type repoFactory func(t *testing.T) (context.Context, GameRepository)

func redisRepo(t *testing.T) (context.Context, GameRepository) {
	ctx, st := suite.New(t)
	return ctx, NewGameRepository(st.Storage, time.Minute)
}

func memoryRepo(_ *testing.T) (context.Context, GameRepository) {
	return context.Background(), NewMemoryGameRepository(time.Minute)
}

func TestGameRepository_Redis(t *testing.T) {
	runGameRepositoryTests(t, redisRepo)
}

func TestGameRepository_Memory(t *testing.T) {
	runGameRepositoryTests(t, memoryRepo)
}

func runGameRepositoryTests(t *testing.T, newRepo repoFactory) {
	t.Run("Archive_and_GetByID", func(t *testing.T) {
		ctx, gameRepo := newRepo(t)

		// Given: a game player A won on the top row
		game := finishedGame(t, "g1", 0, 3, 1, 4, 2)

		// When: it is archived and read back
		err := gameRepo.Archive(ctx, game)
		require.NoError(t, err)

		retrieved, err := gameRepo.GetByID(ctx, game.ID)

		// Then: the record matches
		require.NoError(t, err)
		assert.Equal(t, game.ID, retrieved.ID)
		assert.Equal(t, game.Remote, retrieved.Remote)
		assert.Equal(t, game.Moves, retrieved.Moves)
		assert.Equal(t, game.Board, retrieved.Board)
		assert.Equal(t, entity.OutcomePlayerAWin, retrieved.Outcome)
	})

	t.Run("Archive_RejectsUnfinishedGame", func(t *testing.T) {
		ctx, gameRepo := newRepo(t)

		// Given: a game still in progress
		game := entity.NewGame("g2", "")

		// When: archiving it
		err := gameRepo.Archive(ctx, game)

		// Then: it is refused
		require.ErrorIs(t, err, ErrGameNotFinished)
	})

	t.Run("Archive_CountsEachGameOnce", func(t *testing.T) {
		ctx, gameRepo := newRepo(t)

		// Given: one win for each side and a draw, the first one archived twice
		aWin := finishedGame(t, "a", 0, 3, 1, 4, 2)
		bWin := finishedGame(t, "b", 0, 3, 1, 4, 8, 5)
		draw := finishedGame(t, "d", 0, 1, 2, 4, 3, 5, 7, 6, 8)

		for _, game := range []*entity.Game{aWin, aWin, bWin, draw} {
			require.NoError(t, gameRepo.Archive(ctx, game))
		}

		// When: reading the counters
		counts, err := gameRepo.CountByOutcome(ctx)

		// Then: each game is counted once
		require.NoError(t, err)
		assert.Equal(t, map[entity.Outcome]int64{
			entity.OutcomePlayerAWin: 1,
			entity.OutcomePlayerBWin: 1,
			entity.OutcomeDraw:       1,
		}, counts)
	})

	t.Run("CountByOutcome_Empty", func(t *testing.T) {
		ctx, gameRepo := newRepo(t)

		counts, err := gameRepo.CountByOutcome(ctx)

		require.NoError(t, err)
		for _, outcome := range FinishedOutcomes {
			assert.Zero(t, counts[outcome])
		}
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, gameRepo := newRepo(t)

		// When: GetByID is called with a non-existent ID
		retrieved, err := gameRepo.GetByID(ctx, "9999999")

		// Then: ErrGameNotFound is returned
		require.ErrorIs(t, err, ErrGameNotFound)
		require.ErrorIs(t, err, apperror.ErrNotFound)
		assert.Nil(t, retrieved)
	})

	t.Run("DeleteByID", func(t *testing.T) {
		ctx, gameRepo := newRepo(t)

		// Given: an archived game
		game := finishedGame(t, "g3", 0, 3, 1, 4, 2)
		require.NoError(t, gameRepo.Archive(ctx, game))

		// When: deleting it twice
		err := gameRepo.DeleteByID(ctx, game.ID)
		require.NoError(t, err)

		err = gameRepo.DeleteByID(ctx, game.ID)

		// Then: the second delete reports it missing and reads fail
		require.ErrorIs(t, err, ErrGameNotFound)

		_, err = gameRepo.GetByID(ctx, game.ID)
		require.ErrorIs(t, err, ErrGameNotFound)
	})
}

func TestGameRepository_RedisArchive(t *testing.T) {
	t.Run("Stores the record with its ttl and counts it", func(t *testing.T) {
		ctx, st := suite.New(t)
		gameRepo := NewGameRepository(st.Storage, time.Minute)

		// Given: a finished game
		game := finishedGame(t, "ttl", 0, 3, 1, 4, 2)

		// When: it is archived
		require.NoError(t, gameRepo.Archive(ctx, game))

		// Then: the record expires and the counter moved in the same step
		ttl, err := st.Storage.PTTL(ctx, gameKey(game.ID)).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, time.Minute)

		count, err := st.Storage.Get(ctx, statsKey(entity.OutcomePlayerAWin)).Int64()
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Zero ttl keeps the record", func(t *testing.T) {
		ctx, st := suite.New(t)
		gameRepo := NewGameRepository(st.Storage, 0)

		game := finishedGame(t, "forever", 0, 3, 1, 4, 2)
		require.NoError(t, gameRepo.Archive(ctx, game))

		ttl, err := st.Storage.PTTL(ctx, gameKey(game.ID)).Result()
		require.NoError(t, err)
		assert.Equal(t, time.Duration(-1), ttl)
	})

	t.Run("A stored record without a counter is not counted again", func(t *testing.T) {
		ctx, st := suite.New(t)
		gameRepo := NewGameRepository(st.Storage, time.Minute)

		// Given: the game key already exists
		game := finishedGame(t, "dup", 0, 3, 1, 4, 2)
		require.NoError(t, st.Storage.Set(ctx, gameKey(game.ID), "{}", time.Minute).Err())

		// When: archiving it
		require.NoError(t, gameRepo.Archive(ctx, game))

		// Then: neither the record nor the counter change
		raw, err := st.Storage.Get(ctx, gameKey(game.ID)).Result()
		require.NoError(t, err)
		assert.Equal(t, "{}", raw)

		counts, err := gameRepo.CountByOutcome(ctx)
		require.NoError(t, err)
		assert.Zero(t, counts[entity.OutcomePlayerAWin])
	})
}

type fakeClock struct {
	now time.Time
}

func (that *fakeClock) Now() time.Time {
	return that.now
}

func TestGameRepository_MemoryExpiry(t *testing.T) {
	ctx := context.Background()

	t.Run("Expired records are dropped and counters kept", func(t *testing.T) {
		// Given: a memory archive with a one minute ttl and a game archived at t0
		clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
		gameRepo := newMemoryGameRepository(time.Minute, clock.Now)

		old := finishedGame(t, "old", 0, 3, 1, 4, 2)
		require.NoError(t, gameRepo.Archive(ctx, old))

		// When: the ttl passes and another game is archived
		clock.now = clock.now.Add(time.Minute)
		fresh := finishedGame(t, "fresh", 0, 3, 1, 4, 8, 5)
		require.NoError(t, gameRepo.Archive(ctx, fresh))

		// Then: only the fresh record is held, both games stay counted
		_, err := gameRepo.GetByID(ctx, old.ID)
		require.ErrorIs(t, err, ErrGameNotFound)

		_, err = gameRepo.GetByID(ctx, fresh.ID)
		require.NoError(t, err)

		assert.Len(t, gameRepo.games, 1)
		assert.Len(t, gameRepo.expiries, 1)

		counts, err := gameRepo.CountByOutcome(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts[entity.OutcomePlayerAWin])
		assert.Equal(t, int64(1), counts[entity.OutcomePlayerBWin])
	})

	t.Run("GetByID drops a record past its ttl", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
		gameRepo := newMemoryGameRepository(time.Minute, clock.Now)

		game := finishedGame(t, "g", 0, 3, 1, 4, 2)
		require.NoError(t, gameRepo.Archive(ctx, game))

		clock.now = clock.now.Add(59 * time.Second)
		_, err := gameRepo.GetByID(ctx, game.ID)
		require.NoError(t, err)

		clock.now = clock.now.Add(time.Second)
		_, err = gameRepo.GetByID(ctx, game.ID)
		require.ErrorIs(t, err, ErrGameNotFound)
		assert.Empty(t, gameRepo.games)
	})

	t.Run("Re-archived id keeps its new expiry", func(t *testing.T) {
		// Given: a game archived, deleted and archived again 30s later
		clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
		gameRepo := newMemoryGameRepository(time.Minute, clock.Now)

		game := finishedGame(t, "g", 0, 3, 1, 4, 2)
		require.NoError(t, gameRepo.Archive(ctx, game))
		require.NoError(t, gameRepo.DeleteByID(ctx, game.ID))

		clock.now = clock.now.Add(30 * time.Second)
		require.NoError(t, gameRepo.Archive(ctx, game))

		// When: the first expiry passes
		clock.now = clock.now.Add(30 * time.Second)

		// Then: the second record is still there
		_, err := gameRepo.GetByID(ctx, game.ID)
		require.NoError(t, err)
	})

	t.Run("Zero ttl keeps every record", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
		gameRepo := newMemoryGameRepository(0, clock.Now)

		game := finishedGame(t, "g", 0, 3, 1, 4, 2)
		require.NoError(t, gameRepo.Archive(ctx, game))

		clock.now = clock.now.Add(24 * 365 * time.Hour)
		_, err := gameRepo.GetByID(ctx, game.ID)
		require.NoError(t, err)
		assert.Empty(t, gameRepo.expiries)
	})
}
