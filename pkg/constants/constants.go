// Package constants defines application-wide constants for timeouts, limits, and durations.
package constants

import "time"

// Time-related constants
const (
	// GracefulShutdownTimeout is the timeout for graceful server shutdown
	GracefulShutdownTimeout = 30 * time.Second

	// WebSocketPingInterval is how long a WebSocket connection may stay
	// silent before it is considered dead; pings are sent more often
	WebSocketPingInterval = 60 * time.Second
)

// Session constants
const (
	// AccessTokenExpiry is the default access token lifetime
	AccessTokenExpiry = 24 * time.Hour
)

// Chat upload constants
const (
	// MaxUploadSize is the maximum accepted attachment size (16 MiB)
	MaxUploadSize = 16 << 20

	// SharedFilePrefix is the content placeholder for attachment messages
	SharedFilePrefix = "Shared file: "
)

// AllowedUploadExtensions lists the attachment extensions accepted by chat upload.
// Lowercase, without the leading dot.
var AllowedUploadExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"pdf":  true,
	"heic": true,
	"csv":  true,
}

// Analytics constants
const (
	// DefaultAdminMonths is the admin analytics lookback used when none is requested
	DefaultAdminMonths = 6

	// RecalculateAdminMonths is the admin window recomputed by the batch recalculation
	RecalculateAdminMonths = 12

	// MaxAdminMonths bounds a single admin analytics request
	MaxAdminMonths = 120
)

// Database connection constants
const (
	// MaxConnLifetime is the maximum lifetime of a database connection
	MaxConnLifetime = 1 * time.Hour

	// MaxConnIdleTime is the maximum idle time for a database connection
	MaxConnIdleTime = 30 * time.Minute

	// HealthCheckPeriod is the interval between database health checks
	HealthCheckPeriod = 1 * time.Minute
)
