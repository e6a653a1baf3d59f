package repository

import (
	"context"
	"sync/atomic"
	"time"

	"washboard/internal/domain"
	"washboard/internal/models"

	"github.com/rs/zerolog"
)

// FailoverStateRepository routes to the primary (Redis) repository until it
// errors, then serves from the fallback, probing the primary again after a
// recovery interval.
type FailoverStateRepository struct {
	primary   domain.StateRepository
	fallback  domain.StateRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64

	recoveryInterval time.Duration
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:          primary,
		fallback:         fallback,
		logger:           logger,
		recoveryInterval: time.Minute,
	}
}

func (r *FailoverStateRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary state repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverStateRepository) shouldProbe() bool {
	last := time.Unix(0, r.lastCheck.Load())
	return time.Since(last) > r.recoveryInterval
}

func (r *FailoverStateRepository) GetState(ctx context.Context, operatorID int64) (*models.OperatorState, error) {
	if !r.isDown.Load() {
		state, err := r.primary.GetState(ctx, operatorID)
		if err == nil {
			return state, nil
		}
		r.markDown(err)
	} else if r.shouldProbe() {
		state, err := r.primary.GetState(ctx, operatorID)
		if err == nil {
			r.isDown.Store(false)
			return state, nil
		}
		r.lastCheck.Store(time.Now().UnixNano())
	}

	return r.fallback.GetState(ctx, operatorID)
}

func (r *FailoverStateRepository) SetState(ctx context.Context, state *models.OperatorState) error {
	if !r.isDown.Load() {
		err := r.primary.SetState(ctx, state)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SetState(ctx, state)
}

func (r *FailoverStateRepository) ClearState(ctx context.Context, operatorID int64) error {
	if !r.isDown.Load() {
		err := r.primary.ClearState(ctx, operatorID)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.ClearState(ctx, operatorID)
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, operatorID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, operatorID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, operatorID, limit, window)
}
