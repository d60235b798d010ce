package catalog

import (
	"bytes"
	"encoding/gob"
	"time"
)

// Record describes one archived copy.
type Record struct {
	SessionID   string
	Source      string
	ArchiveName string
	ArchivePath string
	Reason      string
	Size        int64
	CreatedAt   time.Time
	// Checksum is the hex encoded blake2b-256 digest of the archived copy.
	Checksum string
}

// Serializer предоставляет интерфейс для сериализации/десериализации данных
type Serializer interface {
	Serialize(v interface{}) ([]byte, error)
	Deserialize(data []byte, v interface{}) error
}

type GobSerializer struct{}

func (s *GobSerializer) Serialize(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *GobSerializer) Deserialize(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
