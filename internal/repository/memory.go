package repository

import (
	"context"
	"sync"
	"time"

	"washboard/internal/models"
)

// MemoryStateRepository держит состояния операторов в памяти процесса.
// Используется как запасной вариант, когда Redis недоступен.
type MemoryStateRepository struct {
	states     sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{
		ttl: ttl,
	}
}

type stateEntry struct {
	state     *models.OperatorState
	expiresAt time.Time
}

func (r *MemoryStateRepository) GetState(ctx context.Context, operatorID int64) (*models.OperatorState, error) {
	val, ok := r.states.Load(operatorID)
	if !ok {
		return nil, nil
	}
	entry := val.(*stateEntry)
	if r.ttl > 0 && time.Now().After(entry.expiresAt) {
		r.states.Delete(operatorID)
		return nil, nil
	}
	return entry.state, nil
}

func (r *MemoryStateRepository) SetState(ctx context.Context, state *models.OperatorState) error {
	state.UpdatedAt = time.Now()
	r.states.Store(state.OperatorID, &stateEntry{
		state:     state,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemoryStateRepository) ClearState(ctx context.Context, operatorID int64) error {
	r.states.Delete(operatorID)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, operatorID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(operatorID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(operatorID, entry)
	return entry.count <= limit, nil
}
