package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"playcafe/internal/auth"
	"playcafe/internal/models"

	"github.com/rs/zerolog"
)

const (
	loginAttempts = 5
	loginWindow   = 15 * time.Minute
)

// OwnerStore is the storage the owner service needs.
type OwnerStore interface {
	UpsertOwner(ctx context.Context, owner *models.Owner) error
	GetOwnerByUsername(ctx context.Context, username string) (*models.Owner, error)
	CreateProfile(ctx context.Context, p *models.UserProfile) error
	GetProfile(ctx context.Context, id string) (*models.UserProfile, error)
}

// SeedOwner is an owner account declared in the seed file. Password may be
// plain text or an existing bcrypt hash.
type SeedOwner struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

// OwnerService handles owner login and customer profiles.
type OwnerService struct {
	store  OwnerStore
	auth   *auth.Manager
	logger *zerolog.Logger
}

func NewOwnerService(store OwnerStore, manager *auth.Manager, logger *zerolog.Logger) *OwnerService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &OwnerService{store: store, auth: manager, logger: logger}
}

// Login checks credentials and opens a session. Attempts are throttled per
// username and per client.
func (s *OwnerService) Login(ctx context.Context, username, password, client string) (*models.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalidf("username and password are required")
	}

	for _, key := range []string{"login:user:" + strings.ToLower(username), "login:client:" + client} {
		allowed, err := s.auth.Sessions().CheckRateLimit(ctx, key, loginAttempts, loginWindow)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Login rate limit check failed")
			continue
		}
		if !allowed {
			return nil, ErrRateLimited
		}
	}

	owner, err := s.store.GetOwnerByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			s.logger.Warn().Str("username", username).Msg("Login for unknown owner")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(owner.PasswordHash, password) {
		s.logger.Warn().Str("username", username).Msg("Login with wrong password")
		return nil, ErrInvalidCredentials
	}
	return s.auth.Start(ctx, owner)
}

func (s *OwnerService) Logout(ctx context.Context, token string) error {
	return s.auth.Revoke(ctx, token)
}

// Authenticate resolves a bearer token into a live session.
func (s *OwnerService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	return s.auth.Authenticate(ctx, token)
}

// SeedOwners upserts the configured owner accounts.
func (s *OwnerService) SeedOwners(ctx context.Context, owners []SeedOwner) error {
	for _, o := range owners {
		if o.Username == "" {
			return invalidf("seed owner without username")
		}
		hash := o.PasswordHash
		if hash == "" {
			if o.Password == "" {
				return invalidf("seed owner %s has no password", o.Username)
			}
			var err error
			if hash, err = auth.HashPassword(o.Password); err != nil {
				return fmt.Errorf("hash password for %s: %w", o.Username, err)
			}
		}
		owner := &models.Owner{Username: o.Username, PasswordHash: hash}
		if err := s.store.UpsertOwner(ctx, owner); err != nil {
			return fmt.Errorf("seed owner %s: %w", o.Username, err)
		}
		s.logger.Info().Str("username", o.Username).Str("owner_id", owner.ID).Msg("Owner seeded")
	}
	return nil
}

// CreateProfile registers a customer profile used by online bookings.
func (s *OwnerService) CreateProfile(ctx context.Context, p *models.UserProfile) error {
	p.FullName = strings.TrimSpace(p.FullName)
	if p.FullName == "" {
		return invalidf("full_name is required")
	}
	return s.store.CreateProfile(ctx, p)
}

func (s *OwnerService) GetProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	return s.store.GetProfile(ctx, id)
}
