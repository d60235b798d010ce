package archive

import "time"

// Entry describes one successful archive operation.
type Entry struct {
	Source string
	Name   string
	Path   string
	Size   int64
	Reason string
	Time   time.Time
}
