// Package organize groups classified images into item groups and manages
// the per-item output folders.
package organize

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"sellsort/internal/listing"
	"sellsort/internal/similarity"
)

// WarnThreshold is the minimum key-token Jaccard similarity between two
// groups in the same run that triggers a duplicate warning. Advisory
// only; within-run groups are never merged automatically.
const WarnThreshold = 0.6

// Group is one run's images sharing an item key, in classification order.
type Group struct {
	Key      string
	Analyses []listing.Analysis
}

// GroupByKey partitions analyses by item key, preserving the first-seen
// order of keys and of members within each group.
func GroupByKey(analyses []listing.Analysis) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, a := range analyses {
		key := a.ItemKey
		if key == "" {
			key = listing.UnknownKey
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Analyses = append(groups[i].Analyses, a)
	}
	return groups
}

// DetectSimilarGroups returns a warning for every pair of distinct groups
// whose keys overlap at or above WarnThreshold. Quadratic in the number
// of groups, which is bounded by the images in one run.
func DetectSimilarGroups(groups []Group) []string {
	var warnings []string
	for i, a := range groups {
		for _, b := range groups[i+1:] {
			score := similarity.KeyJaccard(a.Key, b.Key)
			if score >= WarnThreshold {
				warnings = append(warnings, fmt.Sprintf(
					"WARNING: Possible duplicate items detected: '%s' and '%s' (similarity: %.0f%%). Please review these folders.",
					a.Key, b.Key, score*100))
			}
		}
	}
	return warnings
}

// Organizer creates and resolves item folders under the output directory.
type Organizer struct {
	outputDir string
}

// NewOrganizer creates the output directory if needed.
func NewOrganizer(outputDir string) (*Organizer, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Organizer{outputDir: outputDir}, nil
}

// OutputDir returns the root output directory.
func (o *Organizer) OutputDir() string {
	return o.outputDir
}

// FolderName converts an item key into a clean folder name.
func FolderName(itemKey string) string {
	return listing.NormalizeKey(itemKey)
}

// CreateItemFolder creates a fresh folder for an item, appending a
// numeric counter when the plain name is taken.
func (o *Organizer) CreateItemFolder(itemKey string) (string, error) {
	name := FolderName(itemKey)
	path := filepath.Join(o.outputDir, name)

	if _, err := os.Stat(path); err == nil {
		counter := 2
		for {
			candidate := filepath.Join(o.outputDir, fmt.Sprintf("%s_%d", name, counter))
			if _, err := os.Stat(candidate); os.IsNotExist(err) {
				path = candidate
				break
			}
			counter++
		}
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("failed to create item folder: %w", err)
	}
	slog.Debug("Created item folder", "path", path)
	return path, nil
}

// ExistingItemFolder returns the folder already on disk for this key, or
// "" if none exists.
func (o *Organizer) ExistingItemFolder(itemKey string) string {
	path := filepath.Join(o.outputDir, FolderName(itemKey))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// IsAlreadyProcessed reports whether an item folder already holds its
// canonical listing file.
func (o *Organizer) IsAlreadyProcessed(itemFolder string) bool {
	_, err := os.Stat(filepath.Join(itemFolder, listing.ListingFilename))
	return err == nil
}

// CopyImageToFolder copies an image into an item folder without ever
// overwriting: on a name clash the copy gets a numeric suffix.
func (o *Organizer) CopyImageToFolder(source, destFolder string) (string, error) {
	dest := filepath.Join(destFolder, filepath.Base(source))
	if _, err := os.Stat(dest); err == nil {
		base := filepath.Base(source)
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		counter := 2
		for {
			candidate := filepath.Join(destFolder, fmt.Sprintf("%s_%d%s", stem, counter, ext))
			if _, err := os.Stat(candidate); os.IsNotExist(err) {
				dest = candidate
				break
			}
			counter++
		}
	}

	if err := copyFile(source, dest); err != nil {
		return "", err
	}
	slog.Debug("Copied image", "source", source, "dest", dest)
	return dest, nil
}

// MoveToProcessed moves a source image into the processed pool after a
// successful run, renaming on collision.
func MoveToProcessed(source, processedDir string) (string, error) {
	if err := os.MkdirAll(processedDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create processed directory: %w", err)
	}

	base := filepath.Base(source)
	dest := filepath.Join(processedDir, base)
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		counter := 1
		for {
			candidate := filepath.Join(processedDir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
			if _, err := os.Stat(candidate); os.IsNotExist(err) {
				dest = candidate
				break
			}
			counter++
		}
	}

	if err := os.Rename(source, dest); err != nil {
		// Rename fails across filesystems; fall back to copy-and-remove.
		if err := copyFile(source, dest); err != nil {
			return "", err
		}
		if err := os.Remove(source); err != nil {
			return "", fmt.Errorf("failed to remove moved image: %w", err)
		}
	}
	return dest, nil
}

func copyFile(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open source image: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create destination image: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy image: %w", err)
	}
	return nil
}
