package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Video lifecycle states. Generation is synchronous, so processing only persists
// past a request when the process died mid-generation.
const (
	VideoStatusProcessing = "processing"
	VideoStatusCompleted  = "completed"
	VideoStatusFailed     = "failed"
)

// Video quality levels.
const (
	VideoQualityDraft    = "draft"
	VideoQualityStandard = "standard"
	VideoQualityHigh     = "high"
)

// GeneratedVideo is one clip produced for a user, with its poster thumbnail.
type GeneratedVideo struct {
	ID                 uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uint             `gorm:"not null;index" json:"user_id"`
	User               User             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Prompt             string           `gorm:"type:text;not null" json:"prompt"`
	StylePresetID      *uint            `gorm:"index" json:"style_preset_id,omitempty"`
	StylePreset        *StylePreset     `gorm:"foreignKey:StylePresetID;constraint:OnDelete:SET NULL" json:"style_preset,omitempty"`
	FilePath           string           `json:"-"`
	ThumbnailPath      string           `json:"-"`
	ContentType        string           `gorm:"size:100" json:"content_type"`
	FileSize           int64            `json:"file_size"`
	Duration           int              `gorm:"default:5" json:"duration"`
	Quality            string           `gorm:"size:20;default:standard" json:"quality"`
	FPS                int              `gorm:"default:24" json:"fps"`
	Seed               *int64           `json:"seed,omitempty"`
	Status             string           `gorm:"size:20;default:processing;index" json:"status"`
	ErrorMessage       string           `gorm:"type:text" json:"error_message,omitempty"`
	IsPublic           bool             `gorm:"not null;index" json:"is_public"`
	GenerationSource   GenerationSource `gorm:"size:20;default:unknown" json:"generation_source"`
	GenerationMetadata Metadata         `gorm:"type:jsonb" json:"generation_metadata"`
	Hashtags           TagList          `gorm:"type:text" json:"hashtags"`
	URL                string           `gorm:"-" json:"url,omitempty"`
	ThumbnailURL       string           `gorm:"-" json:"thumbnail_url,omitempty"`
	CreatedAt          time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

func (v *GeneratedVideo) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (v *GeneratedVideo) VisibleTo(viewerID uint) bool {
	return v.IsPublic || (viewerID != 0 && v.UserID == viewerID)
}
