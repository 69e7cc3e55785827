package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// snapshotFormat is the JSON structure for cache persistence between
// pipeline runs.
type snapshotFormat struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Entries    []snapshotEntry   `json:"entries"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// snapshotEntry is a single cached translation.
type snapshotEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

const snapshotVersion = "1.0"

// Snapshot writes an in-memory cache's contents to a writer as JSON, so the
// next pipeline run can warm-start without a Redis instance.
func Snapshot(c *InMemoryCache, w io.Writer, metadata map[string]string) error {
	data := c.Entries()
	entries := make([]snapshotEntry, 0, len(data))
	for key, value := range data {
		entries = append(entries, snapshotEntry{Key: key, Value: value})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	snap := snapshotFormat{
		Version:    snapshotVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Entries:    entries,
		Metadata:   metadata,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("encoding cache snapshot: %w", err)
	}
	return nil
}

// SnapshotToFile writes a cache snapshot to a file.
func SnapshotToFile(c *InMemoryCache, path string, metadata map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	return Snapshot(c, f, metadata)
}

// RestoreResult reports a snapshot restore.
type RestoreResult struct {
	Version  string
	Imported int
	Failed   int
	Metadata map[string]string
}

// Restore loads snapshot entries into any cache implementation.
func Restore(c TranslationCache, r io.Reader) (*RestoreResult, error) {
	var snap snapshotFormat
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding cache snapshot: %w", err)
	}

	result := &RestoreResult{
		Version:  snap.Version,
		Metadata: snap.Metadata,
	}
	for _, entry := range snap.Entries {
		if err := c.Set(entry.Key, entry.Value); err != nil {
			result.Failed++
			continue
		}
		result.Imported++
	}
	return result, nil
}

// RestoreFromFile loads a cache snapshot from a file. A missing file is not
// an error; it simply means a cold start.
func RestoreFromFile(c TranslationCache, path string) (*RestoreResult, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return &RestoreResult{Version: snapshotVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return Restore(c, f)
}
