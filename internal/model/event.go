package model

// Event log levels.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event log categories.
const (
	EventCategoryAuth        = "auth"
	EventCategoryUser        = "user"
	EventCategoryApplication = "application"
	EventCategoryIntake      = "intake"
	EventCategoryConfig      = "config"
	EventCategorySystem      = "system"
)
