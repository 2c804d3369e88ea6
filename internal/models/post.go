package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post shares one generated image with a title and comma separated tags.
type Post struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Title            string          `gorm:"size:200;not null" json:"title"`
	Description      string          `gorm:"size:1000" json:"description"`
	Tags             string          `gorm:"size:500" json:"tags"`
	IsPublic         bool            `gorm:"not null" json:"is_public"`
	UserID           uint            `gorm:"not null;index" json:"user_id"`
	User             User            `gorm:"foreignKey:UserID" json:"user"`
	GeneratedImageID uuid.UUID       `gorm:"type:uuid;not null;index" json:"generated_image_id"`
	GeneratedImage   *GeneratedImage `gorm:"foreignKey:GeneratedImageID;constraint:OnDelete:CASCADE" json:"generated_image,omitempty"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->" json:"comments_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool           `gorm:"->" json:"liked"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TagsList returns Tags split on commas.
func (p *Post) TagsList() []string {
	return ParseTagList(p.Tags)
}
