package models

import "time"

type Booking struct {
	ID            string        `json:"id"`
	CafeID        string        `json:"cafe_id"`
	UserID        *string       `json:"user_id"`
	BookingDate   string        `json:"booking_date"`
	StartTime     string        `json:"start_time"`
	Duration      int           `json:"duration"`
	TotalAmount   *int64        `json:"total_amount"`
	Status        BookingStatus `json:"status"`
	Source        BookingSource `json:"source"`
	PaymentMode   PaymentMode   `json:"payment_mode"`
	CustomerName  string        `json:"customer_name,omitempty"`
	CustomerPhone string        `json:"customer_phone,omitempty"`
	Items         []BookingItem `json:"items"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Version       int64         `json:"version"`
}

// BookingItem is one console claim inside a booking. Quantity counts units,
// or controllers for gaming consoles.
type BookingItem struct {
	ConsoleType ConsoleType `json:"console_type"`
	Quantity    int         `json:"quantity"`
}

// IsWalkIn reports whether the booking has no linked user profile.
func (b *Booking) IsWalkIn() bool {
	return b.UserID == nil || *b.UserID == ""
}

// Amount returns the total amount with null treated as zero.
func (b *Booking) Amount() int64 {
	if b.TotalAmount == nil {
		return 0
	}
	return *b.TotalAmount
}

// Clone returns a deep copy safe to mutate.
func (b Booking) Clone() Booking {
	if b.UserID != nil {
		id := *b.UserID
		b.UserID = &id
	}
	if b.TotalAmount != nil {
		amount := *b.TotalAmount
		b.TotalAmount = &amount
	}
	if b.Items != nil {
		b.Items = append([]BookingItem(nil), b.Items...)
	}
	return b
}

// ChangeType is the kind of mutation carried by a BookingChange.
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// BookingChange is a single booking mutation as delivered to subscribers.
type BookingChange struct {
	Type   ChangeType `json:"type"`
	CafeID string     `json:"cafe_id"`
	New    *Booking   `json:"new,omitempty"`
	Old    *Booking   `json:"old,omitempty"`
	At     time.Time  `json:"at"`
}

// BookingID returns the id of the affected row.
func (c BookingChange) BookingID() string {
	if c.New != nil {
		return c.New.ID
	}
	if c.Old != nil {
		return c.Old.ID
	}
	return ""
}
