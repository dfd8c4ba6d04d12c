package models

// CategoryUncategorized is the placeholder assigned when no stage produces an
// accepted category. It is never persisted as a mapping value.
const CategoryUncategorized = "Uncategorized"

// File permissions
const (
	PermissionConfigFile = 0600
	PermissionDirectory  = 0750
	PermissionReportFile = 0644
)

// ISODate is the date layout of every table this engine writes.
const ISODate = "2006-01-02"
