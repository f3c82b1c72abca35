package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/planet-nine-app/linkitylink/internal/domain"
)

// Load reads the index file at path and merges its entries. A missing file
// is a fresh install and loads nothing.
func (idx *ReverseIndex) Load(path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read index file %s: %w", path, err)
	}

	entries, err := Decode(data)
	if err != nil {
		return 0, fmt.Errorf("failed to parse index file %s: %w", path, err)
	}

	idx.mu.Lock()
	clean := idx.version == idx.saved
	idx.mu.Unlock()

	n := idx.Merge(entries)

	// Entries just read from the file need no flush back to it.
	if clean {
		idx.mu.Lock()
		idx.saved = idx.version
		idx.mu.Unlock()
	}

	return n, nil
}

// Save writes the index to path atomically (temp file + rename).
func (idx *ReverseIndex) Save(path string) error {
	entries, version := idx.snapshotForSave()

	data, err := Encode(entries)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp index file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace index file: %w", err)
	}

	idx.markSaved(version)
	return nil
}

// Encode renders entries as a flat JSON object keyed by public key, in the
// order given.
func Encode(entries []domain.ReverseIndexEntry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, e := range entries {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		key, err := json.Marshal(e.PubKey)
		if err != nil {
			return nil, fmt.Errorf("failed to encode index key: %w", err)
		}
		val, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("failed to encode index entry: %w", err)
		}
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(val)
	}
	if len(entries) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// Decode parses the flat JSON object written by Encode.
func Decode(data []byte) ([]domain.ReverseIndexEntry, error) {
	raw := map[string]domain.ReverseIndexEntry{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	entries := make([]domain.ReverseIndexEntry, 0, len(raw))
	for pubKey, e := range raw {
		e.PubKey = pubKey
		entries = append(entries, e)
	}
	sortEntries(entries)
	return entries, nil
}
