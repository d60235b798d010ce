package catalog

import (
	"fmt"

	"backupwatch/internal/archive"
)

// Recorder stores a Record for every archive entry it is given.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) Record(sessionID string, entry archive.Entry) error {
	sum, err := HashFile(entry.Path)
	if err != nil {
		return fmt.Errorf("failed to checksum %s: %w", entry.Name, err)
	}

	return r.store.Put(&Record{
		SessionID:   sessionID,
		Source:      entry.Source,
		ArchiveName: entry.Name,
		ArchivePath: entry.Path,
		Reason:      entry.Reason,
		Size:        entry.Size,
		CreatedAt:   entry.Time,
		Checksum:    sum,
	})
}
