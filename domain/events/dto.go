package events

import (
	"strings"
	"time"

	"github.com/akeren/rankly-signals/internal/models"
)

type RecordEventRequest struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// ToEventModel fills in the defaults: a blank type is a pageview and a blank path falls back
// to requestPath, then to "/".
func ToEventModel(req *RecordEventRequest, requestPath string, createdAt time.Time, meta models.ClientMetadata) *models.Event {
	var eventType, path string
	if req != nil {
		eventType = strings.TrimSpace(req.Type)
		path = req.Path
	}

	if eventType == "" {
		eventType = models.EventTypePageview
	}

	if strings.TrimSpace(path) == "" {
		path = requestPath
	}
	if strings.TrimSpace(path) == "" {
		path = "/"
	}

	return &models.Event{
		Type:      eventType,
		Path:      path,
		CreatedAt: createdAt,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
	}
}
