package service

import (
	"context"
	"strings"

	"playcafe/internal/domain"
	"playcafe/internal/models"

	"github.com/rs/zerolog"
)

// PlanInput is the editable part of a membership plan.
type PlanInput struct {
	Name         string
	Type         models.PlanType
	ConsoleType  models.ConsoleType
	PlayerCount  models.PlayerCount
	Price        int64
	Hours        *int
	ValidityDays int
	IsActive     *bool
}

type MembershipService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewMembershipService(store domain.Store, logger *zerolog.Logger) *MembershipService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &MembershipService{store: store, logger: logger}
}

func (in *PlanInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalidf("plan name is required")
	}
	switch in.Type {
	case models.PlanDayPass:
		in.Hours = nil
	case models.PlanHourlyPackage:
		if in.Hours == nil || *in.Hours <= 0 {
			return invalidf("hourly packages need a positive number of hours")
		}
	default:
		return invalidf("unknown plan type %q", in.Type)
	}
	if ct, ok := models.ParseConsoleType(string(in.ConsoleType)); ok {
		in.ConsoleType = ct
	}
	if !in.ConsoleType.Valid() {
		return invalidf("unknown console type %q", in.ConsoleType)
	}
	if in.PlayerCount == "" {
		in.PlayerCount = models.PlayersSingle
	}
	if in.PlayerCount != models.PlayersSingle && in.PlayerCount != models.PlayersDouble {
		return invalidf("player_count must be single or double")
	}
	if in.Price < 0 {
		return invalidf("price must not be negative")
	}
	if in.ValidityDays <= 0 {
		return invalidf("validity_days must be positive")
	}
	return nil
}

// List returns a café's plans; customers only see active ones.
func (s *MembershipService) List(ctx context.Context, cafeID string, activeOnly bool) ([]*models.MembershipPlan, error) {
	if _, err := s.store.GetCafe(ctx, cafeID); err != nil {
		return nil, err
	}
	return s.store.ListMembershipPlans(ctx, cafeID, activeOnly)
}

// ListOwned returns every plan of an owner's café, inactive ones included.
func (s *MembershipService) ListOwned(ctx context.Context, ownerID, cafeID string) ([]*models.MembershipPlan, error) {
	if _, err := ownedCafe(ctx, s.store, ownerID, cafeID); err != nil {
		return nil, err
	}
	return s.store.ListMembershipPlans(ctx, cafeID, false)
}

func (s *MembershipService) Create(ctx context.Context, ownerID, cafeID string, in PlanInput) (*models.MembershipPlan, error) {
	if _, err := ownedCafe(ctx, s.store, ownerID, cafeID); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	plan := &models.MembershipPlan{CafeID: cafeID, IsActive: true}
	applyPlan(plan, in)
	if err := s.store.CreateMembershipPlan(ctx, plan); err != nil {
		return nil, err
	}
	s.logger.Info().Str("plan_id", plan.ID).Str("cafe_id", cafeID).Msg("Membership plan created")
	return plan, nil
}

func (s *MembershipService) Update(ctx context.Context, ownerID, planID string, in PlanInput) (*models.MembershipPlan, error) {
	plan, err := s.ownedPlan(ctx, ownerID, planID)
	if err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	applyPlan(plan, in)
	if err := s.store.UpdateMembershipPlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Deactivate soft-deletes a plan.
func (s *MembershipService) Deactivate(ctx context.Context, ownerID, planID string) error {
	plan, err := s.ownedPlan(ctx, ownerID, planID)
	if err != nil {
		return err
	}
	if err := s.store.DeactivateMembershipPlan(ctx, plan.CafeID, plan.ID); err != nil {
		return err
	}
	s.logger.Info().Str("plan_id", planID).Msg("Membership plan deactivated")
	return nil
}

func (s *MembershipService) ownedPlan(ctx context.Context, ownerID, planID string) (*models.MembershipPlan, error) {
	plan, err := s.store.GetMembershipPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if _, err := ownedCafe(ctx, s.store, ownerID, plan.CafeID); err != nil {
		return nil, err
	}
	return plan, nil
}

func applyPlan(plan *models.MembershipPlan, in PlanInput) {
	plan.Name = in.Name
	plan.Type = in.Type
	plan.ConsoleType = in.ConsoleType
	plan.PlayerCount = in.PlayerCount
	plan.Price = in.Price
	plan.Hours = in.Hours
	plan.ValidityDays = in.ValidityDays
	if in.IsActive != nil {
		plan.IsActive = *in.IsActive
	}
}
