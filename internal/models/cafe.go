package models

import "time"

type Cafe struct {
	ID             string              `json:"id"`
	OwnerID        string              `json:"owner_id"`
	Name           string              `json:"name"`
	Address        string              `json:"address"`
	Phone          string              `json:"phone"`
	Email          string              `json:"email"`
	OpeningHours   string              `json:"opening_hours"`
	Description    string              `json:"description"`
	Inventory      map[ConsoleType]int `json:"inventory"`
	HourlyRate     int64               `json:"hourly_rate"`
	CoverImageURL  string              `json:"cover_image_url"`
	TechSpecs      map[string]string   `json:"tech_specs,omitempty"`
	TelegramChatID int64               `json:"-"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Station is a synthesized identity for one physical unit of inventory.
type Station struct {
	Name        string      `json:"name"`
	ConsoleType ConsoleType `json:"console_type"`
	Index       int         `json:"index"`
}

type GalleryImage struct {
	ID        string    `json:"id"`
	CafeID    string    `json:"cafe_id"`
	URL       string    `json:"url"`
	ObjectKey string    `json:"-"`
	Caption   string    `json:"caption,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
