package analytics

import "github.com/akeren/rankly-signals/config/router"

type MetricsSnapshot struct {
	Pageviews     int64 `json:"pageviews"`
	WaitlistJoins int64 `json:"waitlistJoins"`
	UniqueEmails  int64 `json:"uniqueEmails"`
}

func (s *MetricsSnapshot) ToPayload() router.Payload {
	return router.Payload{
		"pageviews":     s.Pageviews,
		"waitlistJoins": s.WaitlistJoins,
		"uniqueEmails":  s.UniqueEmails,
	}
}
