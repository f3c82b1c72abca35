package index

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/planet-nine-app/linkitylink/internal/domain"
)

// ReverseIndex maps full document public keys to their emoji identifiers.
// It is the runtime source of truth for alphanumeric lookups; the file and
// redis copies are mirrors of it.
type ReverseIndex struct {
	mu         sync.RWMutex
	entries    map[string]domain.ReverseIndexEntry // pubKey -> entry
	order      []string                            // pubKeys in insertion order
	version    uint64                              // bumped on every change
	saved      uint64                              // version last written to disk
	dirtySince time.Time
	lastFlush  time.Time

	flushEvery int
	flushC     chan struct{}
	now        func() time.Time
}

// NewReverseIndex creates an empty index that requests a flush every
// flushEvery insertions.
func NewReverseIndex(flushEvery int) *ReverseIndex {
	if flushEvery < 1 {
		flushEvery = 1
	}
	return &ReverseIndex{
		entries:    make(map[string]domain.ReverseIndexEntry),
		flushEvery: flushEvery,
		flushC:     make(chan struct{}, 1),
		now:        time.Now,
	}
}

// Register records one published document. Registering a key twice
// replaces the entry but keeps its original position.
func (idx *ReverseIndex) Register(entry domain.ReverseIndexEntry) {
	if entry.PubKey == "" {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = idx.now().UTC()
	}

	idx.mu.Lock()
	if _, exists := idx.entries[entry.PubKey]; !exists {
		idx.order = append(idx.order, entry.PubKey)
	}
	idx.entries[entry.PubKey] = entry
	idx.markDirtyLocked()
	due := idx.version-idx.saved >= uint64(idx.flushEvery)
	idx.mu.Unlock()

	if due {
		idx.RequestFlush()
	}
}

// RequestFlush asks the flusher to persist the index soon. Never blocks.
func (idx *ReverseIndex) RequestFlush() {
	select {
	case idx.flushC <- struct{}{}:
	default:
	}
}

// FlushRequests delivers a signal whenever the insertion threshold is reached.
func (idx *ReverseIndex) FlushRequests() <-chan struct{} {
	return idx.flushC
}

// Lookup returns the entry for a full public key.
func (idx *ReverseIndex) Lookup(pubKey string) (domain.ReverseIndexEntry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	e, ok := idx.entries[pubKey]
	return e, ok
}

// LookupPrefix returns the first entry, in insertion order, whose public
// key starts with prefix. Collisions are not detected.
func (idx *ReverseIndex) LookupPrefix(prefix string) (domain.ReverseIndexEntry, bool) {
	if prefix == "" {
		return domain.ReverseIndexEntry{}, false
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if e, ok := idx.entries[prefix]; ok {
		return e, true
	}
	for _, key := range idx.order {
		if strings.HasPrefix(key, prefix) {
			return idx.entries[key], true
		}
	}
	return domain.ReverseIndexEntry{}, false
}

// Count returns the number of entries.
func (idx *ReverseIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.entries)
}

// Snapshot returns a copy of every entry in insertion order.
func (idx *ReverseIndex) Snapshot() []domain.ReverseIndexEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]domain.ReverseIndexEntry, 0, len(idx.order))
	for _, key := range idx.order {
		out = append(out, idx.entries[key])
	}
	return out
}

// Merge adds entries that are not present yet and returns how many were
// added. Existing entries win.
func (idx *ReverseIndex) Merge(entries []domain.ReverseIndexEntry) int {
	sortEntries(entries)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	added := 0
	for _, e := range entries {
		if e.PubKey == "" {
			continue
		}
		if _, exists := idx.entries[e.PubKey]; exists {
			continue
		}
		idx.entries[e.PubKey] = e
		idx.order = append(idx.order, e.PubKey)
		added++
	}
	if added > 0 {
		idx.markDirtyLocked()
	}
	return added
}

// DirtyState describes changes not yet written to disk.
type DirtyState struct {
	Pending int       // changes since the last successful save
	Since   time.Time // when the oldest unsaved change happened
}

// Dirty reports the unsaved changes, if any.
func (idx *ReverseIndex) Dirty() (DirtyState, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.version == idx.saved {
		return DirtyState{}, false
	}
	return DirtyState{Pending: int(idx.version - idx.saved), Since: idx.dirtySince}, true
}

// LastFlush returns when the index was last written to disk.
func (idx *ReverseIndex) LastFlush() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastFlush
}

func (idx *ReverseIndex) markDirtyLocked() {
	if idx.version == idx.saved {
		idx.dirtySince = idx.now()
	}
	idx.version++
}

// snapshotForSave captures the entries together with the version they reflect.
func (idx *ReverseIndex) snapshotForSave() ([]domain.ReverseIndexEntry, uint64) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]domain.ReverseIndexEntry, 0, len(idx.order))
	for _, key := range idx.order {
		out = append(out, idx.entries[key])
	}
	return out, idx.version
}

// markSaved records a successful save of the given version. Changes made
// while the file was being written stay dirty.
func (idx *ReverseIndex) markSaved(version uint64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if version > idx.saved {
		idx.saved = version
	}
	idx.lastFlush = idx.now()
	if idx.saved != idx.version {
		idx.dirtySince = idx.lastFlush
	}
}

// sortEntries orders entries by creation time, then key, which is the
// closest stable approximation of insertion order for unordered sources.
func sortEntries(entries []domain.ReverseIndexEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].PubKey < entries[j].PubKey
	})
}
