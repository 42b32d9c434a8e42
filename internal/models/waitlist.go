package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	WaitlistCollection = "waitlist"
	EventsCollection   = "events"
)

// Ingress tags stored on waitlist entries.
const (
	SourceAPI = "api"
	SourceCLI = "cli"
)

// WaitlistEntry is unique on EmailLower and never updated once stored.
type WaitlistEntry struct {
	ID         string    `gorm:"type:text;primaryKey" bson:"-" json:"-"`
	Email      string    `gorm:"not null" bson:"email" json:"email"`
	EmailLower string    `gorm:"not null;uniqueIndex:idx_waitlist_email_lower" bson:"emailLower" json:"emailLower"`
	CreatedAt  time.Time `gorm:"not null" bson:"createdAt" json:"createdAt"`
	UserAgent  *string   `bson:"userAgent" json:"userAgent"`
	Referrer   *string   `bson:"referrer" json:"referrer"`
	Source     string    `gorm:"not null" bson:"source" json:"source"`
}

func (WaitlistEntry) TableName() string {
	return WaitlistCollection
}

func (e *WaitlistEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}
