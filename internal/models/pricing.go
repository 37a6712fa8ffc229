package models

// PricingTier is a café price for (console, quantity, duration bucket).
type PricingTier struct {
	ID          int64       `json:"id"`
	CafeID      string      `json:"cafe_id"`
	ConsoleType ConsoleType `json:"console_type"`
	Quantity    int         `json:"quantity"`
	Duration    int         `json:"duration"`
	Price       int64       `json:"price"`
}

// TierDurations are the only duration buckets a tier can be keyed on.
var TierDurations = []int{30, 60}

// ControllerRate is the half/full hour price for a given controller count.
type ControllerRate struct {
	HalfHour int64 `json:"half_hour"`
	FullHour int64 `json:"full_hour"`
}

// StationPricing overrides rates for one named station. Non-gaming stations
// use HalfHourRate/HourRate; gaming consoles use Controllers, where index 0
// is one controller and a nil entry for 2-4 means "not offered".
type StationPricing struct {
	ID           int64              `json:"id"`
	CafeID       string             `json:"cafe_id"`
	StationName  string             `json:"station_name"`
	ConsoleType  ConsoleType        `json:"console_type"`
	HalfHourRate *int64             `json:"half_hour_rate,omitempty"`
	HourRate     *int64             `json:"hour_rate,omitempty"`
	Controllers  [4]*ControllerRate `json:"controllers"`
}
