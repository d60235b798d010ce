package catalog

// Store is the persistence behind the catalog.
type Store interface {
	Put(r *Record) error
	Get(archivePath string) (*Record, error)
	BySource(sourcePath string) ([]*Record, error)
	All() ([]*Record, error)
	Delete(archivePath string) error
	Close() error
}
