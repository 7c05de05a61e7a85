package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-tcp/internal/entity"
)

type memoryRecord struct {
	game      entity.Game
	expiresAt time.Time
}

type memoryExpiry struct {
	id        string
	expiresAt time.Time
}

type memoryGame struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	games  map[string]memoryRecord
	counts map[entity.Outcome]int64

	// archive order is expiry order since every record gets the same ttl
	expiries []memoryExpiry
}

// NewMemoryGameRepository - process-local archive used when no redis is configured.
// Archived games expire after ttl, zero keeps them forever.
func NewMemoryGameRepository(ttl time.Duration) GameRepository {
	return newMemoryGameRepository(ttl, time.Now)
}

func newMemoryGameRepository(ttl time.Duration, now func() time.Time) *memoryGame {
	return &memoryGame{
		ttl:    ttl,
		now:    now,
		games:  make(map[string]memoryRecord),
		counts: make(map[entity.Outcome]int64),
	}
}

func (that *memoryGame) Archive(_ context.Context, game *entity.Game) error {
	if !game.IsFinished() {
		return fmt.Errorf("%w: %s", ErrGameNotFinished, game.ID)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	now := that.now()
	that.evictExpired(now)

	if _, exists := that.games[game.ID]; exists {
		return nil
	}

	record := memoryRecord{game: *game}
	record.game.Moves = slices.Clone(game.Moves)
	if that.ttl > 0 {
		record.expiresAt = now.Add(that.ttl)
		that.expiries = append(that.expiries, memoryExpiry{id: game.ID, expiresAt: record.expiresAt})
	}

	that.games[game.ID] = record
	that.counts[game.Outcome]++

	return nil
}

func (that *memoryGame) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.evictExpired(that.now())

	record, ok := that.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}

	game := record.game
	game.Moves = slices.Clone(record.game.Moves)

	return &game, nil
}

func (that *memoryGame) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.evictExpired(that.now())

	if _, ok := that.games[id]; !ok {
		return ErrGameNotFound
	}

	delete(that.games, id)

	return nil
}

func (that *memoryGame) CountByOutcome(_ context.Context) (map[entity.Outcome]int64, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	counts := make(map[entity.Outcome]int64, len(FinishedOutcomes))
	for _, outcome := range FinishedOutcomes {
		counts[outcome] = that.counts[outcome]
	}

	return counts, nil
}

// evictExpired - drops records whose ttl has passed. Counters are kept. Must hold mu.
func (that *memoryGame) evictExpired(now time.Time) {
	n := 0
	for n < len(that.expiries) && !now.Before(that.expiries[n].expiresAt) {
		expiry := that.expiries[n]

		// a deleted id may have been archived again with a later expiry
		if record, ok := that.games[expiry.id]; ok && record.expiresAt.Equal(expiry.expiresAt) {
			delete(that.games, expiry.id)
		}
		n++
	}

	clear(that.expiries[:n])
	that.expiries = that.expiries[n:]
}
