package utils

import (
	"time"
)

// Token and session time constants
const (
	// SignupSessionTTL is the time-to-live for signup session tokens and
	// the signup scope flag (2 hours)
	SignupSessionTTL = 2 * time.Hour

	// SignupSessionTTLSeconds is the signup session TTL in seconds
	SignupSessionTTLSeconds = 7200

	// RegistrationRecordTTL is the time-to-live for the persisted
	// registration record blob. It outlives the scope flag so an abandoned
	// wizard can still be inspected before expiry (7 days).
	RegistrationRecordTTL = 7 * 24 * time.Hour

	// DashboardCacheTTL is the read-through cache lifetime for dashboard
	// resources (1 minute)
	DashboardCacheTTL = time.Minute
)

// Redis key prefixes
const (
	// RegistrationRecordKeyPrefix prefixes the persisted registration blob,
	// keyed by signup session id
	RegistrationRecordKeyPrefix = "funnel:registration:"

	// SignupScopeKeyPrefix prefixes the signup scope flag, keyed by signup
	// session id
	SignupScopeKeyPrefix = "funnel:signup:active:"

	// DashboardCacheKeyPrefix prefixes cached dashboard resources, keyed by
	// resource name and token hash
	DashboardCacheKeyPrefix = "funnel:dashboard:"
)

// Subscription constants
const (
	USDCurrency = "USD"
)
