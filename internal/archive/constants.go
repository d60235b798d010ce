package archive

const (
	// TimestampLayout formats the time prefix of archive names (YYYYMMDD_HHMMSS).
	TimestampLayout = "20060102_150405"

	DefaultDirPermissions = 0755

	// MaxNameAttempts bounds the numeric suffix search for a single name.
	MaxNameAttempts = 100000
)
