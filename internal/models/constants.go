package models

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in-progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// BookingSource tells where a booking was entered.
type BookingSource string

const (
	SourceOnline BookingSource = "online"
	SourceWalkIn BookingSource = "walk-in"
)

// PaymentMode is how a booking was (or will be) paid.
type PaymentMode string

const (
	PaymentCash   PaymentMode = "cash"
	PaymentUPI    PaymentMode = "upi"
	PaymentCard   PaymentMode = "card"
	PaymentOnline PaymentMode = "online"
)

func (p PaymentMode) Valid() bool {
	switch p {
	case PaymentCash, PaymentUPI, PaymentCard, PaymentOnline:
		return true
	}
	return false
}

const (
	// DateLayout is the wire and storage format of booking dates.
	DateLayout = "2006-01-02"

	// SessionTTL is how long an owner session token stays valid.
	SessionTTL = 24 * 60 * 60 // 24 hours in seconds

	// SweepIntervalSeconds is the default expiry sweep cadence.
	SweepIntervalSeconds = 10

	// RecentBookingsWindow caps the dashboard "recent" list.
	RecentBookingsWindow = 20

	// WorkerQueueSize is the in-memory sync queue capacity.
	WorkerQueueSize = 128

	// UnknownMinutesRemaining marks a session whose end cannot be computed.
	UnknownMinutesRemaining = 999

	// MaxUploadBytes limits cover and gallery uploads.
	MaxUploadBytes = 10 << 20
)
