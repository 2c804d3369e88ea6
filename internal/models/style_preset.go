package models

import "time"

// StylePreset is an administrator-curated suffix appended to prompts.
// Category feeds the video hashtag style pools.
type StylePreset struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	PromptSuffix string    `gorm:"type:text;not null" json:"prompt_suffix"`
	Category     string    `gorm:"size:30" json:"category,omitempty"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
