package models

import "time"

type PlanType string

const (
	PlanDayPass       PlanType = "day_pass"
	PlanHourlyPackage PlanType = "hourly_package"
)

type PlayerCount string

const (
	PlayersSingle PlayerCount = "single"
	PlayersDouble PlayerCount = "double"
)

type MembershipPlan struct {
	ID           string      `json:"id"`
	CafeID       string      `json:"cafe_id"`
	Name         string      `json:"name"`
	Type         PlanType    `json:"type"`
	ConsoleType  ConsoleType `json:"console_type"`
	PlayerCount  PlayerCount `json:"player_count"`
	Price        int64       `json:"price"`
	Hours        *int        `json:"hours,omitempty"`
	ValidityDays int         `json:"validity_days"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
