// Package progress tracks cumulative processing counts across runs in a
// small JSON file next to the tool.
package progress

import (
	"encoding/json"
	"log/slog"
	"os"
)

// Progress holds cumulative counters across every run.
type Progress struct {
	TotalImages    int            `json:"total_images"`
	ProcessedCount int            `json:"processed_count"`
	LastRun        string         `json:"last_run"`
	ModelsUsed     map[string]int `json:"models_used"`
}

// Load reads progress from disk, returning zeroed defaults when the file
// is missing or unreadable.
func Load(path string) *Progress {
	p := &Progress{ModelsUsed: make(map[string]int)}
	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	if err := json.Unmarshal(data, p); err != nil {
		slog.Warn("Could not parse progress file, starting fresh", "path", path, "err", err)
		return &Progress{ModelsUsed: make(map[string]int)}
	}
	if p.ModelsUsed == nil {
		p.ModelsUsed = make(map[string]int)
	}
	return p
}

// Save persists progress; failures are logged and ignored.
func (p *Progress) Save(path string) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		slog.Warn("Could not marshal progress", "err", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		slog.Warn("Could not save progress file", "path", path, "err", err)
	}
}

// RecordRun folds one run's counts into the cumulative totals.
func (p *Progress) RecordRun(processed, remaining int, day string, modelsUsed map[string]int) {
	p.ProcessedCount += processed
	p.TotalImages = p.ProcessedCount + remaining
	p.LastRun = day
	for model, count := range modelsUsed {
		p.ModelsUsed[model] += count
	}
}
