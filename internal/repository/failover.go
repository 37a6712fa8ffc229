package repository

import (
	"context"
	"sync/atomic"
	"time"

	"playcafe/internal/domain"
	"playcafe/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverSessionRepository serves from primary until it errors, then from
// fallback, probing primary again once a minute.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
	}
	r.lastCheck.Store(time.Now().UnixNano())
}

// usePrimary reports whether the primary should be tried for this call.
func (r *FailoverSessionRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return time.Since(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}

func (r *FailoverSessionRepository) recovered() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary session repository recovered")
	}
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	if r.usePrimary() {
		session, err := r.primary.GetSession(ctx, token)
		if err == nil {
			r.recovered()
			if session != nil {
				return session, nil
			}
			// Sessions written during an outage only exist in the fallback.
			return r.fallback.GetSession(ctx, token)
		}
		r.markDown(err)
	}
	return r.fallback.GetSession(ctx, token)
}

func (r *FailoverSessionRepository) SetSession(ctx context.Context, session *models.Session) error {
	if r.usePrimary() {
		err := r.primary.SetSession(ctx, session)
		if err == nil {
			r.recovered()
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SetSession(ctx, session)
}

// DeleteSession clears both stores so a revoked token cannot resurface.
func (r *FailoverSessionRepository) DeleteSession(ctx context.Context, token string) error {
	if r.usePrimary() {
		if err := r.primary.DeleteSession(ctx, token); err != nil {
			r.markDown(err)
		} else {
			r.recovered()
		}
	}
	return r.fallback.DeleteSession(ctx, token)
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.recovered()
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
