package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event types counted by the aggregate metrics. Any other type is stored as-is.
const (
	EventTypePageview     = "pageview"
	EventTypeWaitlistJoin = "waitlist_join"
)

type Event struct {
	ID        string    `gorm:"type:text;primaryKey" bson:"-" json:"-"`
	Type      string    `gorm:"not null;index:idx_events_type" bson:"type" json:"type"`
	Path      string    `gorm:"not null" bson:"path" json:"path"`
	CreatedAt time.Time `gorm:"not null" bson:"createdAt" json:"createdAt"`
	UserAgent *string   `bson:"userAgent" json:"userAgent"`
	Referrer  *string   `bson:"referrer" json:"referrer"`
}

func (Event) TableName() string {
	return EventsCollection
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}
