// Package catalog records every archived copy in a bbolt database so that
// the history of a file can be listed and the copies verified later.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

const (
	ArchivesBucket = "archives"
)

// DB is the bbolt backed Store. Records are keyed by archive path.
type DB struct {
	db         *bbolt.DB
	mu         sync.RWMutex
	serializer Serializer
}

type Config struct {
	Path       string
	FileMode   os.FileMode
	Options    *bbolt.Options
	Serializer Serializer
}

func Open(cfg Config) (*DB, error) {
	if cfg.Serializer == nil {
		cfg.Serializer = &GobSerializer{}
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0666
	}
	if cfg.Options == nil {
		// A second process holding the file must not hang the caller.
		cfg.Options = &bbolt.Options{Timeout: time.Second}
	}

	db, err := bbolt.Open(cfg.Path, cfg.FileMode, cfg.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", cfg.Path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(ArchivesBucket))
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}

	return &DB{
		db:         db,
		serializer: cfg.Serializer,
	}, nil
}

func (c *DB) Close() error {
	if c.db == nil {
		return ErrNilDB
	}
	return c.db.Close()
}

func (c *DB) Put(r *Record) error {
	if r == nil {
		return ErrNilRecord
	}

	data, err := c.serializer.Serialize(r)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(ArchivesBucket))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(r.ArchivePath), data)
	})
}

func (c *DB) Get(archivePath string) (*Record, error) {
	var r Record

	c.mu.RLock()
	defer c.mu.RUnlock()

	err := c.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ArchivesBucket))
		if bucket == nil {
			return ErrBucketNotFound
		}

		data := bucket.Get([]byte(archivePath))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrRecordNotFound, archivePath)
		}

		return c.serializer.Deserialize(data, &r)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// BySource returns the copies of sourcePath, oldest first.
func (c *DB) BySource(sourcePath string) ([]*Record, error) {
	return c.collect(func(r *Record) bool {
		return r.Source == sourcePath
	})
}

// All returns every record, oldest first.
func (c *DB) All() ([]*Record, error) {
	return c.collect(func(*Record) bool { return true })
}

func (c *DB) Delete(archivePath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ArchivesBucket))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(archivePath))
	})
}

func (c *DB) collect(keep func(*Record) bool) ([]*Record, error) {
	var records []*Record

	c.mu.RLock()
	defer c.mu.RUnlock()

	err := c.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(ArchivesBucket))
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var r Record
			if err := c.serializer.Deserialize(v, &r); err != nil {
				return fmt.Errorf("failed to decode record %s: %w", k, err)
			}
			if keep(&r) {
				records = append(records, &r)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ArchiveName < records[j].ArchiveName
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}
