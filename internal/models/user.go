package models

import "time"

// UserProfile is a customer account that can book online.
type UserProfile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Owner is a café owner account.
type Owner struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is the authenticated state behind an owner token.
type Session struct {
	Token    string    `json:"token"`
	OwnerID  string    `json:"owner_id"`
	Username string    `json:"username"`
	IssuedAt time.Time `json:"issued_at"`
}

// ExpiresAt returns the moment the session stops being valid.
func (s *Session) ExpiresAt(ttl time.Duration) time.Time {
	return s.IssuedAt.Add(ttl)
}

// CustomerSummary aggregates a customer's bookings for the customers tab.
type CustomerSummary struct {
	Key        string  `json:"key"`
	UserID     *string `json:"user_id,omitempty"`
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Visits     int     `json:"visits"`
	TotalSpent int64   `json:"total_spent"`
	LastVisit  string  `json:"last_visit"`
}
