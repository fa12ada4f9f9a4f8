package model

// IntakeStatus is the public-facing state of application intake.
type IntakeStatus string

// Intake statuses.
const (
	IntakeOpen       IntakeStatus = "open"
	IntakeClosed     IntakeStatus = "closed"
	IntakeComingSoon IntakeStatus = "coming_soon"
	IntakeEndingSoon IntakeStatus = "ending_soon"
)

// IntakeStatuses lists every valid intake status.
var IntakeStatuses = []IntakeStatus{IntakeOpen, IntakeClosed, IntakeComingSoon, IntakeEndingSoon}

// Valid reports whether s is a known intake status.
func (s IntakeStatus) Valid() bool {
	for _, known := range IntakeStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Accepting reports whether the status means new applications are being
// accepted. This derived flag, not the raw status, is what the frontend
// uses to gate the submission form.
func (s IntakeStatus) Accepting() bool {
	return s == IntakeOpen || s == IntakeEndingSoon
}
