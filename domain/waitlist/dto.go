package waitlist

import (
	"time"

	"github.com/akeren/rankly-signals/internal/models"
)

type JoinWaitlistRequest struct {
	Email string `json:"email"`
}

type JoinWaitlistResponse struct {
	Created       bool `json:"created"`
	AlreadyOnList bool `json:"alreadyOnList"`
}

// ========================================
// Mappers
// ========================================

func ToWaitlistEntryModel(email, emailLower string, createdAt time.Time, meta models.ClientMetadata) *models.WaitlistEntry {
	source := meta.Source
	if source == "" {
		source = models.SourceAPI
	}

	return &models.WaitlistEntry{
		Email:      email,
		EmailLower: emailLower,
		CreatedAt:  createdAt,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
		Source:     source,
	}
}

func ToJoinWaitlistResponse(created bool) *JoinWaitlistResponse {
	return &JoinWaitlistResponse{
		Created:       created,
		AlreadyOnList: !created,
	}
}
