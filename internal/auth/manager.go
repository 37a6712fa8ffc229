package auth

import (
	"context"
	"fmt"

	"playcafe/internal/domain"
	"playcafe/internal/models"

	"github.com/rs/zerolog"
)

// Manager ties signed tokens to the session store so that logout revokes a
// token before it expires.
type Manager struct {
	tokens   *TokenIssuer
	sessions domain.SessionRepository
	logger   *zerolog.Logger
}

func NewManager(tokens *TokenIssuer, sessions domain.SessionRepository, logger *zerolog.Logger) *Manager {
	return &Manager{tokens: tokens, sessions: sessions, logger: logger}
}

// Sessions exposes the backing store for login throttling.
func (m *Manager) Sessions() domain.SessionRepository {
	return m.sessions
}

func (m *Manager) Start(ctx context.Context, owner *models.Owner) (*models.Session, error) {
	token, claims, err := m.tokens.Issue(owner.ID, owner.Username)
	if err != nil {
		return nil, err
	}
	session := &models.Session{
		Token:    token,
		OwnerID:  owner.ID,
		Username: owner.Username,
		IssuedAt: claims.IssuedAt.Time,
	}
	if err := m.sessions.SetSession(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	m.logger.Info().Str("owner_id", owner.ID).Str("username", owner.Username).Msg("Session started")
	return session, nil
}

// Authenticate returns the live session behind token. A token that parses but
// is no longer in the store has been revoked.
func (m *Manager) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	claims, err := m.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	session, err := m.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionExpired
	}
	if session.OwnerID != claims.OwnerID {
		return nil, ErrInvalidToken
	}
	if !m.tokens.now().Before(session.ExpiresAt(m.tokens.TTL())) {
		_ = m.sessions.DeleteSession(ctx, token)
		return nil, ErrSessionExpired
	}
	return session, nil
}

func (m *Manager) Revoke(ctx context.Context, token string) error {
	if err := m.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
