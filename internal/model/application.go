package model

// ApplicationStatus is the review state of a membership application.
// The state graph is fully connected: staff may move an application
// between any two states, including back to pending, to correct
// mistaken reviews.
type ApplicationStatus string

// Application review statuses.
const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationUnderReview ApplicationStatus = "under_review"
	ApplicationApproved    ApplicationStatus = "approved"
	ApplicationRejected    ApplicationStatus = "rejected"
)

// ApplicationStatuses lists every valid review status.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationPending,
	ApplicationUnderReview,
	ApplicationApproved,
	ApplicationRejected,
}

// Valid reports whether s is a known review status.
func (s ApplicationStatus) Valid() bool {
	for _, known := range ApplicationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Field types for application form fields.
const (
	FieldTypeText     = "text"
	FieldTypeTextarea = "textarea"
	FieldTypeNumber   = "number"
	FieldTypeSelect   = "select"
)

// ValidFieldType reports whether t is a known form field type.
func ValidFieldType(t string) bool {
	switch t {
	case FieldTypeText, FieldTypeTextarea, FieldTypeNumber, FieldTypeSelect:
		return true
	}
	return false
}

// AppField describes one field of the application form. The set of
// fields is admin-editable; submitted answers are an open map keyed by
// field ID, validated against the enabled required fields.
type AppField struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Placeholder string   `json:"placeholder,omitempty"`
	Required    bool     `json:"required"`
	Enabled     bool     `json:"enabled"`
	Options     []string `json:"options,omitempty"`
}

// DefaultAppFields is the application form shipped out of the box.
// Admins can replace it through the settings endpoint.
var DefaultAppFields = []AppField{
	{ID: "username", Label: "Minecraft Username", Type: FieldTypeText, Placeholder: "e.g. Steve", Required: true, Enabled: true},
	{ID: "discord", Label: "Discord Username", Type: FieldTypeText, Placeholder: "e.g. username#1234", Required: true, Enabled: true},
	{ID: "age", Label: "Age", Type: FieldTypeNumber, Placeholder: "e.g. 18", Required: true, Enabled: true},
	{
		ID:       "timezone",
		Label:    "Time Zone",
		Type:     FieldTypeSelect,
		Required: true,
		Enabled:  true,
		Options: []string{
			"UTC-12:00 to UTC-08:00 (Pacific)",
			"UTC-07:00 to UTC-05:00 (Americas)",
			"UTC-04:00 to UTC-01:00 (Atlantic)",
			"UTC+00:00 to UTC+03:00 (Europe/Africa)",
			"UTC+04:00 to UTC+06:00 (Central Asia)",
			"UTC+07:00 to UTC+09:00 (East Asia)",
			"UTC+10:00 to UTC+12:00 (Oceania)",
		},
	},
	{ID: "why", Label: "Why do you want to join?", Type: FieldTypeTextarea, Placeholder: "Tell us what excites you about Dismine SMP...", Required: true, Enabled: true},
	{ID: "experience", Label: "SMP Experience", Type: FieldTypeTextarea, Placeholder: "Describe your experience with Minecraft SMPs...", Required: true, Enabled: true},
}
