package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Default canvas size for generated images.
const (
	DefaultImageWidth  = 512
	DefaultImageHeight = 512
)

// AllowedImageSizes are the dimensions accepted by the generation form.
var AllowedImageSizes = []int{512, 768, 1024}

// GeneratedImage is one image produced for a user. FilePath is the storage key of the
// single media file owned by the record.
type GeneratedImage struct {
	ID                 uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uint             `gorm:"not null;index" json:"user_id"`
	User               User             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Prompt             string           `gorm:"type:text;not null" json:"prompt"`
	StylePresetID      *uint            `gorm:"index" json:"style_preset_id,omitempty"`
	StylePreset        *StylePreset     `gorm:"foreignKey:StylePresetID;constraint:OnDelete:SET NULL" json:"style_preset,omitempty"`
	FilePath           string           `gorm:"not null" json:"-"`
	PreviewPath        string           `json:"-"`
	ContentType        string           `gorm:"size:100" json:"content_type"`
	FileSize           int64            `json:"file_size"`
	Width              int              `gorm:"default:512" json:"width"`
	Height             int              `gorm:"default:512" json:"height"`
	Seed               *int64           `json:"seed,omitempty"`
	IsPublic           bool             `gorm:"not null;index" json:"is_public"`
	GenerationSource   GenerationSource `gorm:"size:20;default:unknown;index" json:"generation_source"`
	GenerationMetadata Metadata         `gorm:"type:jsonb" json:"generation_metadata"`
	Hashtags           TagList          `gorm:"type:text" json:"hashtags"`
	URL                string           `gorm:"-" json:"url,omitempty"`
	PreviewURL         string           `gorm:"-" json:"preview_url,omitempty"`
	CreatedAt          time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// BeforeCreate assigns a random identifier when none is set.
func (g *GeneratedImage) BeforeCreate(_ *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// FileSizeKB returns the stored file size in kilobytes rounded to one decimal.
func (g *GeneratedImage) FileSizeKB() float64 {
	return math.Round(float64(g.FileSize)/1024*10) / 10
}

// ServiceDisplayName returns the human readable name of the producing service.
func (g *GeneratedImage) ServiceDisplayName() string {
	return g.GenerationSource.DisplayName()
}

// VisibleTo reports whether viewerID may see the image. A zero viewer is anonymous.
func (g *GeneratedImage) VisibleTo(viewerID uint) bool {
	return g.IsPublic || (viewerID != 0 && g.UserID == viewerID)
}
