package constants

import "time"

// RFC 3339 date-time format string.
// Use this format for all date-time serialization and communication with external systems.
const RFC3339DateTimeFormat = "2006-01-02T15:04:05Z07:00"

// DefaultDatabaseName is the database (MongoDB) used when none is configured.
const DefaultDatabaseName = "rankly"

const (
	// DefaultRequestTimeout bounds a single HTTP request at the server edge.
	DefaultRequestTimeout = 30 * time.Second
	// DefaultMaxRequestBodyBytes matches the 32kb JSON limit of the landing page API.
	DefaultMaxRequestBodyBytes = 32 << 10
	// DefaultStorageConnectAttempts is the number of dial attempts inside one connection attempt.
	DefaultStorageConnectAttempts = 3
)

// MaxEmailLength is the longest accepted waitlist email, after trimming.
const MaxEmailLength = 254
