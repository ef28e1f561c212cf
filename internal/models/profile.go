package models

import (
	"time"
)

// Profile is owned by the profile directory; the engine only reads it for
// existence checks and display metadata.
type Profile struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Role      Role      `json:"role" gorm:"type:varchar(16);not null"`
	City      string    `json:"city"`
	Tags      []string  `json:"tags" gorm:"serializer:json"`
	BudgetMin *int      `json:"budget_min,omitempty"`
	BudgetMax *int      `json:"budget_max,omitempty"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	IsVisible bool      `json:"is_visible" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileSummary is the display metadata attached to engine responses.
type ProfileSummary struct {
	ID        uint     `json:"id"`
	Name      string   `json:"name"`
	AvatarURL *string  `json:"avatar_url,omitempty"`
	Role      Role     `json:"role"`
	City      string   `json:"city"`
	Tags      []string `json:"tags"`
}

func (p Profile) Summary() ProfileSummary {
	return ProfileSummary{
		ID:        p.ID,
		Name:      p.Name,
		AvatarURL: p.AvatarURL,
		Role:      p.Role,
		City:      p.City,
		Tags:      p.Tags,
	}
}
