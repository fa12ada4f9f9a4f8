package model

// Config keys for intake state. Schedule date keys are deleted when the
// boundary is consumed or cleared, never stored as sentinels.
const (
	ConfigKeyIntakeStatus     = "intake_status"
	ConfigKeyIntakeOpenDate   = "intake_open_date"
	ConfigKeyIntakeCloseDate  = "intake_close_date"
	ConfigKeyApplicationsOpen = "applications_open" // legacy boolean, kept in sync with intake_status
	ConfigKeyAppFields        = "application_fields"
)

// Content keys the site frontend reads and admins write. Values are
// opaque to the core; last write wins.
const (
	ContentKeySocialLinks = "social_links"
	ContentKeyServerInfo  = "server_info"
	ContentKeySeasonInfo  = "season_info"
	ContentKeyRules       = "rules"
)

// ContentKeys lists the keys exposed through the content endpoints.
var ContentKeys = []string{
	ContentKeySocialLinks,
	ContentKeyServerInfo,
	ContentKeySeasonInfo,
	ContentKeyRules,
}

// IsContentKey reports whether key is served by the content endpoints.
func IsContentKey(key string) bool {
	for _, k := range ContentKeys {
		if k == key {
			return true
		}
	}
	return false
}
