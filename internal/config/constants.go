package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 90 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = time.Hour

// UsageEventRetention is how long usage events are kept before pruning.
// Counting only ever looks back 24 hours; the extra day is slack.
const UsageEventRetention = 48 * time.Hour

// Request body size limit for the API
const MaxBodyBytes = 1 << 20

// Webhook endpoints are unauthenticated, so they get a per-IP limit.
const WebhookRateLimitPerMin = 30

// Input length bounds for natural-language payload fields
const (
	MinJobDescriptionLen = 50
	MaxJobDescriptionLen = 20000
	MinProfileLen        = 50
	MaxProfileLen        = 30000
	MinBulletLen         = 10
	MaxBulletLen         = 1000
	MinEmailBodyLen      = 10
	MaxEmailBodyLen      = 20000
)
