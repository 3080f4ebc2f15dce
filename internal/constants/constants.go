package constants

import "time"

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Authentication
const (
	MinPasswordLength = 8
	SessionCookieName = "dev_bridge_session"
	SessionMaxAge     = 7 * 24 * time.Hour
	BearerPrefix      = "Bearer "
)

// Context keys set by the middleware
const (
	ContextKeyUserID    = "user_id"
	ContextKeyPrincipal = "principal"
	ContextKeyProject   = "project"
)

// Roles and defaults
const (
	DefaultSignupRole  = "user"
	DefaultColumnColor = "#6b7280"
)

// MaxAIGeneratedTasks caps the number of drafts accepted from one AI response.
const MaxAIGeneratedTasks = 20
