package backup

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/planet-nine-app/linkitylink/internal/bdo"
	"github.com/planet-nine-app/linkitylink/internal/domain"
)

const backupDocumentType = "linkitylink-index-backup"

// BDOSink keeps the backup as a single private document on the storage
// backend, owned by a dedicated identity. The first run creates the
// document; later runs replace its content.
type BDOSink struct {
	backend bdo.Backend
	keys    domain.Keys

	mu   sync.Mutex
	uuid string
}

func NewBDOSink(backend bdo.Backend, keys domain.Keys) *BDOSink {
	return &BDOSink{backend: backend, keys: keys}
}

func (s *BDOSink) Name() string { return "bdo" }

type backupDocument struct {
	Title      string          `json:"title"`
	Type       string          `json:"type"`
	Entries    int             `json:"entries"`
	BackedUpAt time.Time       `json:"backedUpAt"`
	Index      json.RawMessage `json:"index"`
}

func (s *BDOSink) Store(ctx context.Context, snap Snapshot) error {
	doc := backupDocument{
		Title:      "Alphanumeric index backup",
		Type:       backupDocumentType,
		Entries:    snap.Entries,
		BackedUpAt: snap.TakenAt,
		Index:      json.RawMessage(snap.Data),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.uuid == "" {
		id, err := s.backend.Create(ctx, s.keys, doc)
		if err != nil {
			return err
		}
		s.uuid = id
		return nil
	}
	return s.backend.Update(ctx, s.keys, s.uuid, doc)
}
