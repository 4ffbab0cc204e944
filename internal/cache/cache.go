// Package cache persists analyzer outputs keyed by content signature.
//
// Layout under the cache root:
//
//	index.json             hit/miss counters and entry metadata
//	<category>/<key>.json  one raw payload per cached computation
//
// Writes are atomic (temp file + rename on the same filesystem), so a
// reader observes either the old entry or the fully written new one, never
// a partial file. Any read-side failure degrades to a cache miss; only
// write failures are surfaced, since a run must not believe it cached data
// it failed to persist.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SchemaVersion guards the index layout. A version mismatch on load
// discards the old index rather than guessing at its shape.
const SchemaVersion = 1

const indexFile = "index.json"

// EntryMeta is the per-entry metadata kept in the index.
type EntryMeta struct {
	WrittenAt time.Time `json:"written_at"`
	SizeBytes int64     `json:"size_bytes"`
}

// Index is the single process-wide index of a cache directory. It is read
// once when the store opens, accumulated in memory during the run, and
// persisted by Flush.
type Index struct {
	SchemaVersion int                  `json:"schema_version"`
	Hits          int64                `json:"hits"`
	Misses        int64                `json:"misses"`
	Entries       map[string]EntryMeta `json:"entries"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func newIndex() *Index {
	return &Index{
		SchemaVersion: SchemaVersion,
		Entries:       make(map[string]EntryMeta),
	}
}

// Stats is the operational summary exposed to callers.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Entries   int     `json:"entries"`
	SizeBytes int64   `json:"size_bytes"`
	HitRate   float64 `json:"hit_rate"`
}

// Store is a content-addressed on-disk cache. It is an explicit session
// object: open it at run start, pass it by handle, and Flush before exit.
// A disabled store answers every read with a miss and ignores writes.
type Store struct {
	dir     string
	enabled bool
	index   *Index
}

// Open loads (or initializes) the store rooted at dir. A missing,
// corrupt, or version-skewed index is replaced with a fresh one; opening
// never fails on bad cache state, only on invalid arguments.
func Open(dir string, enabled bool) (*Store, error) {
	if !enabled {
		return &Store{enabled: false, index: newIndex()}, nil
	}
	if dir == "" {
		return nil, fmt.Errorf("cache directory must not be empty")
	}

	s := &Store{dir: dir, enabled: true, index: newIndex()}
	data, err := os.ReadFile(filepath.Join(dir, indexFile))
	if err != nil {
		return s, nil
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil || idx.SchemaVersion != SchemaVersion {
		return s, nil
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]EntryMeta)
	}
	s.index = &idx
	return s, nil
}

// entryKey joins category and key for index bookkeeping.
func entryKey(category, key string) string {
	return category + "/" + key
}

func validName(s string) error {
	if s == "" {
		return fmt.Errorf("cache name must not be empty")
	}
	if strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
		return fmt.Errorf("cache name %q must not contain path separators", s)
	}
	return nil
}

func (s *Store) entryPath(category, key string) string {
	return filepath.Join(s.dir, category, key+".json")
}

// Read returns the raw payload for (category, key). Absent or unreadable
// entries are recorded as misses, never errors; the caller recomputes and
// overwrites. A successful read is recorded as a hit.
func (s *Store) Read(category, key string) ([]byte, bool) {
	if !s.enabled {
		return nil, false
	}
	data, err := os.ReadFile(s.entryPath(category, key))
	if err != nil {
		s.RecordMiss()
		return nil, false
	}
	s.RecordHit()
	return data, true
}

// ReadJSON reads and decodes a JSON payload into v. An entry that exists
// but fails to decode (corruption, schema drift) counts as a miss.
func (s *Store) ReadJSON(category, key string, v any) bool {
	if !s.enabled {
		return false
	}
	data, err := os.ReadFile(s.entryPath(category, key))
	if err != nil {
		s.RecordMiss()
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.RecordMiss()
		return false
	}
	s.RecordHit()
	return true
}

// Write persists a payload atomically and records it in the index.
// Unlike reads, write failures are returned to the caller.
func (s *Store) Write(category, key string, payload []byte) error {
	if !s.enabled {
		return nil
	}
	if err := validName(category); err != nil {
		return err
	}
	if err := validName(key); err != nil {
		return err
	}

	dir := filepath.Join(s.dir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache category dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+key+"-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp cache file: %w", err)
	}
	// Rename within the same directory is atomic on the same filesystem.
	if err := os.Rename(tmp.Name(), s.entryPath(category, key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publishing cache entry: %w", err)
	}

	s.index.Entries[entryKey(category, key)] = EntryMeta{
		WrittenAt: time.Now().UTC(),
		SizeBytes: int64(len(payload)),
	}
	return nil
}

// WriteJSON marshals v and writes it as the entry payload.
func (s *Store) WriteJSON(category, key string, v any) error {
	if !s.enabled {
		return nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding cache payload: %w", err)
	}
	return s.Write(category, key, payload)
}

// RecordHit increments the hit counter.
func (s *Store) RecordHit() {
	if s.enabled {
		s.index.Hits++
	}
}

// RecordMiss increments the miss counter.
func (s *Store) RecordMiss() {
	if s.enabled {
		s.index.Misses++
	}
}

// Flush persists the index, also via temp file + rename.
func (s *Store) Flush() error {
	if !s.enabled {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	s.index.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache index: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-index-*")
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp index file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, indexFile)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publishing cache index: %w", err)
	}
	return nil
}

// Prune removes entries whose last write is older than maxAgeDays. The age
// is validated before anything on disk is touched; a partial prune can
// only result from filesystem errors mid-removal, and those are surfaced.
func (s *Store) Prune(maxAgeDays int) (int, error) {
	if maxAgeDays < 0 {
		return 0, fmt.Errorf("max age must be non-negative, got %d days", maxAgeDays)
	}
	if !s.enabled {
		return 0, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -maxAgeDays)
	removed := 0
	for key, meta := range s.index.Entries {
		if !meta.WrittenAt.Before(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, key+".json")
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("removing cache entry %s: %w", key, err)
		}
		delete(s.index.Entries, key)
		removed++
	}
	if removed > 0 {
		if err := s.Flush(); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// Clear removes the entire cache tree and resets the in-memory index.
// The next write reinitializes the directory.
func (s *Store) Clear() error {
	if !s.enabled {
		return nil
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	s.index = newIndex()
	return nil
}

// GetStats returns the current counters and entry totals.
func (s *Store) GetStats() Stats {
	st := Stats{
		Hits:    s.index.Hits,
		Misses:  s.index.Misses,
		Entries: len(s.index.Entries),
	}
	for _, meta := range s.index.Entries {
		st.SizeBytes += meta.SizeBytes
	}
	if total := st.Hits + st.Misses; total > 0 {
		st.HitRate = float64(st.Hits) / float64(total)
	}
	return st
}
