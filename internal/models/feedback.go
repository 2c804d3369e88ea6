package models

import "time"

// Feedback is a rating left by a user about the service.
type Feedback struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Message   string    `gorm:"size:1000" json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the singular table name.
func (Feedback) TableName() string {
	return "feedback"
}

var ratingLabels = map[int]string{
	1: "Very Poor",
	2: "Poor",
	3: "Average",
	4: "Good",
	5: "Excellent",
}

// RatingLabel returns the label shown next to a numeric rating.
func RatingLabel(rating int) string {
	return ratingLabels[rating]
}
