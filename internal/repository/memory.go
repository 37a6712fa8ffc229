package repository

import (
	"context"
	"sync"
	"time"

	"playcafe/internal/models"
)

// MemorySessionRepository keeps sessions in process. Expired entries are
// dropped lazily on read.
type MemorySessionRepository struct {
	sessions   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
	now        func() time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl: ttl,
		now: time.Now,
	}
}

func (r *MemorySessionRepository) GetSession(_ context.Context, token string) (*models.Session, error) {
	val, ok := r.sessions.Load(token)
	if !ok {
		return nil, nil
	}
	session := val.(*models.Session)
	if !r.now().Before(session.ExpiresAt(r.ttl)) {
		r.sessions.Delete(token)
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (r *MemorySessionRepository) SetSession(_ context.Context, session *models.Session) error {
	copied := *session
	r.sessions.Store(session.Token, &copied)
	return nil
}

func (r *MemorySessionRepository) DeleteSession(_ context.Context, token string) error {
	r.sessions.Delete(token)
	return nil
}

type rateLimitEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
}

func (r *MemorySessionRepository) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now()
	val, _ := r.rateLimits.LoadOrStore(key, &rateLimitEntry{expiresAt: now.Add(window)})
	entry := val.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if now.After(entry.expiresAt) {
		entry.count = 0
		entry.expiresAt = now.Add(window)
	}
	entry.count++
	return entry.count <= limit, nil
}
