package model

// Auth methods for an account.
const (
	AuthMethodEmail   = "email"
	AuthMethodDiscord = "discord"
)

// Account statuses.
const (
	StatusActive = "active"
	StatusBanned = "banned"
)

// ValidStatus reports whether s is a known account status.
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusBanned
}
