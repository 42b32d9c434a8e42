package storage

type Status string

const (
	StatusIdle         Status = "idle"
	StatusUnconfigured Status = "unconfigured"
	StatusConnecting   Status = "connecting"
	StatusReady        Status = "ready"
	StatusFailed       Status = "failed"
)

// State is the provider's readiness. Reason is set for unconfigured and failed.
type State struct {
	Status Status
	Reason string
}

func (s State) Ready() bool {
	return s.Status == StatusReady
}

func (s State) String() string {
	if s.Reason == "" {
		return string(s.Status)
	}
	return string(s.Status) + ": " + s.Reason
}
