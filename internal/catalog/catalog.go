// Package catalog maintains the persistent record of previously finalized
// items, enabling duplicate detection and merging across runs.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sellsort/internal/listing"
	"sellsort/internal/similarity"
)

// DefaultThreshold is the minimum composite similarity score for two
// items to be treated as cross-run duplicates.
const DefaultThreshold = 0.80

// Entry is one catalogued item. Created when the item is first finalized
// and updated in place on every subsequent merge; never deleted.
type Entry struct {
	ItemKey                  string    `json:"item_key"`
	Title                    string    `json:"title"`
	CanonicalText            string    `json:"canonical_text"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
	RepresentativeImageNames []string  `json:"representative_image_names"`
}

// Catalog holds every known item, loaded whole from disk and saved whole.
// Not safe for concurrent use; the tool assumes a single active run.
type Catalog struct {
	path      string
	threshold float64
	entries   []*Entry
}

// New creates a catalog backed by the given JSON file and loads any
// existing entries. A missing or corrupt file yields an empty catalog.
func New(path string, threshold float64) *Catalog {
	c := &Catalog{
		path:      path,
		threshold: threshold,
	}
	c.Load()
	return c
}

// Load reads persisted entries from disk. Failures are logged and leave
// the catalog empty; they never propagate.
func (c *Catalog) Load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Could not read item catalog, starting fresh", "path", c.path, "err", err)
		}
		c.entries = nil
		return
	}

	var entries []*Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("Item catalog has unexpected format, starting fresh", "path", c.path, "err", err)
		c.entries = nil
		return
	}

	c.entries = entries
	slog.Info("Loaded item catalog", "path", c.path, "entries", len(entries))
}

// Save persists all entries to disk. On failure the previous on-disk
// state is left intact and a warning is logged.
func (c *Catalog) Save() {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		slog.Warn("Could not marshal item catalog", "err", err)
		return
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			slog.Warn("Could not create catalog directory", "dir", dir, "err", err)
			return
		}
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		slog.Warn("Could not save item catalog", "path", c.path, "err", err)
		return
	}
	slog.Debug("Saved item catalog", "path", c.path, "entries", len(c.entries))
}

// Entries returns the catalogued items in insertion order.
func (c *Catalog) Entries() []*Entry {
	return c.entries
}

// Threshold returns the configured merge threshold.
func (c *Catalog) Threshold() float64 {
	return c.threshold
}

// FindMatch returns the best-scoring entry for a new item, or nil if no
// entry reaches the threshold. Entries are scanned in insertion order and
// only a strictly higher score displaces the current best, so exact ties
// resolve to the earlier entry.
func (c *Catalog) FindMatch(canonicalText, itemKey string) (*Entry, float64) {
	var best *Entry
	bestScore := 0.0

	for _, entry := range c.entries {
		score := similarity.Score(canonicalText, itemKey, entry.CanonicalText, entry.ItemKey)
		if score > bestScore {
			bestScore = score
			best = entry
		}
	}

	if best != nil && bestScore >= c.threshold {
		return best, bestScore
	}
	return nil, 0.0
}

// AddEntry records a newly finalized item. If an entry with the same key
// already exists it is updated in place instead of duplicated, and the
// image names are unioned preserving first insertion order.
func (c *Catalog) AddEntry(itemKey, title, canonicalText string, imageNames []string) *Entry {
	now := time.Now().UTC()
	for _, entry := range c.entries {
		if entry.ItemKey == itemKey {
			entry.Title = title
			entry.CanonicalText = canonicalText
			entry.UpdatedAt = now
			entry.RepresentativeImageNames = unionOrdered(entry.RepresentativeImageNames, imageNames)
			return entry
		}
	}

	entry := &Entry{
		ItemKey:                  itemKey,
		Title:                    title,
		CanonicalText:            canonicalText,
		CreatedAt:                now,
		UpdatedAt:                now,
		RepresentativeImageNames: unionOrdered(nil, imageNames),
	}
	c.entries = append(c.entries, entry)
	return entry
}

// UpdateEntryImages unions new image names into an existing entry and
// bumps its timestamp. Silently does nothing if the key is unknown.
func (c *Catalog) UpdateEntryImages(itemKey string, newImageNames []string) {
	for _, entry := range c.entries {
		if entry.ItemKey == itemKey {
			entry.RepresentativeImageNames = unionOrdered(entry.RepresentativeImageNames, newImageNames)
			entry.UpdatedAt = time.Now().UTC()
			return
		}
	}
}

// BuildCanonicalText synthesizes the similarity input for an item group:
// the humanized key, the representative name, category and condition, and
// the single longest description among the group's analyses.
func BuildCanonicalText(itemKey string, analyses []listing.Analysis) string {
	parts := []string{strings.ReplaceAll(itemKey, "_", " ")}
	if len(analyses) > 0 {
		base := analyses[0]
		if base.ItemName != "" {
			parts = append(parts, base.ItemName)
		}
		if base.Category != "" {
			parts = append(parts, base.Category)
		}
		if base.Condition != "" {
			parts = append(parts, base.Condition)
		}
		bestDesc := ""
		for _, a := range analyses {
			if len(a.Description) > len(bestDesc) {
				bestDesc = a.Description
			}
		}
		if bestDesc != "" {
			parts = append(parts, bestDesc)
		}
	}
	return strings.Join(parts, " ")
}

func unionOrdered(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(extra))
	merged := make([]string, 0, len(existing)+len(extra))
	for _, name := range existing {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		merged = append(merged, name)
	}
	for _, name := range extra {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		merged = append(merged, name)
	}
	return merged
}

// String describes an entry for catalog inspection output.
func (e *Entry) String() string {
	return fmt.Sprintf("%s  %q  images=%d  updated=%s",
		e.ItemKey, e.Title, len(e.RepresentativeImageNames), e.UpdatedAt.Format("2006-01-02"))
}
