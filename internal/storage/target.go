package storage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type Backend string

const (
	BackendMongo    Backend = "mongodb"
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

var (
	ErrNotConfigured = errors.New("storage connection target is not configured")
	ErrInvalidTarget = errors.New("storage connection target is malformed")
)

// Target is a parsed connection target. DSN is what the backend driver is opened with.
type Target struct {
	Backend Backend
	DSN     string
}

// Redacted hides credentials for logging.
func (t Target) Redacted() string {
	if t.Backend == BackendSQLite {
		return "sqlite://" + t.DSN
	}

	u, err := url.Parse(t.DSN)
	if err != nil {
		return string(t.Backend) + "://<unparsable>"
	}

	return u.Redacted()
}

func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, ErrNotConfigured
	}

	// Unfilled Atlas connection string template.
	if strings.Contains(raw, "<db_password>") {
		return Target{}, fmt.Errorf("%w: contains the <db_password> placeholder", ErrInvalidTarget)
	}

	scheme, rest, found := strings.Cut(raw, "://")
	if !found {
		return Target{}, fmt.Errorf("%w: missing scheme", ErrInvalidTarget)
	}

	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		if err := requireHost(raw); err != nil {
			return Target{}, err
		}
		return Target{Backend: BackendMongo, DSN: raw}, nil
	case "postgres", "postgresql":
		if err := requireHost(raw); err != nil {
			return Target{}, err
		}
		return Target{Backend: BackendPostgres, DSN: raw}, nil
	case "sqlite":
		if strings.TrimSpace(rest) == "" {
			return Target{}, fmt.Errorf("%w: sqlite target has no database", ErrInvalidTarget)
		}
		return Target{Backend: BackendSQLite, DSN: rest}, nil
	default:
		return Target{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidTarget, scheme)
	}
}

func requireHost(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidTarget)
	}
	return nil
}

// IsConfigurationError reports whether err comes from a missing or malformed target.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrInvalidTarget)
}
