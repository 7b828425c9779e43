// Package pipeline drives a full processing run: classification of every
// input image, grouping, cross-run duplicate merging, listing generation,
// and the summary spreadsheet.
package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"sellsort/internal/catalog"
	"sellsort/internal/listing"
	"sellsort/internal/organize"
)

// Orchestrator turns one run's item groups into folders, listings, and
// catalog entries. It alone decides when catalog entries are created or
// extended.
type Orchestrator struct {
	Organizer *organize.Organizer
	Catalog   *catalog.Catalog
}

// OrganizeAndList processes every group in first-seen key order. Groups
// matching a catalogued item are merged into its existing folder; the
// rest get fresh folders and catalog entries. Returns one summary per
// processed group. Individual failures are logged and skipped; nothing
// here aborts the run.
func (o *Orchestrator) OrganizeAndList(analyses []listing.Analysis) []listing.Summary {
	groups := organize.GroupByKey(analyses)

	for _, warning := range organize.DetectSimilarGroups(groups) {
		slog.Warn(warning)
		fmt.Printf("  !  %s\n", warning)
	}

	today := time.Now().Format("2006-01-02")
	var summaries []listing.Summary

	for _, group := range groups {
		canonicalText := catalog.BuildCanonicalText(group.Key, group.Analyses)
		var imageNames []string
		for _, a := range group.Analyses {
			if a.ImageName != "" {
				imageNames = append(imageNames, a.ImageName)
			}
		}

		if summary, merged := o.mergeIntoExisting(group, canonicalText, imageNames, today); merged {
			summaries = append(summaries, summary)
			continue
		}

		// No catalog match (or the matched folder vanished): create a
		// new item, unless a finished folder for this exact key already
		// exists from an earlier run.
		if folder := o.Organizer.ExistingItemFolder(group.Key); folder != "" && o.Organizer.IsAlreadyProcessed(folder) {
			slog.Info("Skipping already-processed item", "key", group.Key)
			fmt.Printf("  >  Skipping (already processed): %s\n", group.Key)
			continue
		}

		summary, err := o.createNewItem(group, canonicalText, imageNames)
		if err != nil {
			slog.Error("Could not create item", "key", group.Key, "err", err)
			continue
		}
		summaries = append(summaries, summary)
	}

	return summaries
}

// mergeIntoExisting merges a group into a catalogued item when the
// similarity threshold is met and the item's folder still exists on
// disk. Reports whether the merge happened.
func (o *Orchestrator) mergeIntoExisting(group organize.Group, canonicalText string, imageNames []string, today string) (listing.Summary, bool) {
	entry, score := o.Catalog.FindMatch(canonicalText, group.Key)
	if entry == nil {
		return listing.Summary{}, false
	}

	folder := o.Organizer.ExistingItemFolder(entry.ItemKey)
	if folder == "" {
		// Catalog says duplicate but the folder is gone; treat the
		// group as new rather than dropping its images.
		slog.Warn("Matched catalog entry has no folder on disk, creating new item",
			"key", group.Key, "matched", entry.ItemKey)
		return listing.Summary{}, false
	}

	o.copyGroupImages(group, folder)

	merged := listing.Merge(group.Analyses)
	if _, err := listing.WriteUpdateNote(folder, entry.ItemKey, score, today, merged); err != nil {
		slog.Warn("Could not write update note", "folder", folder, "err", err)
	}

	o.Catalog.UpdateEntryImages(entry.ItemKey, imageNames)

	slog.Info("Merged into existing item",
		"key", group.Key, "existing", entry.ItemKey, "similarity", fmt.Sprintf("%.2f", score))
	fmt.Printf("  ~  Merged '%s' into existing '%s' (similarity: %.2f)\n", group.Key, entry.ItemKey, score)

	return listing.NewSummary(folder, group.Analyses), true
}

// createNewItem creates a collision-safe folder, copies the group's
// images, writes the canonical listing, and catalogs the item.
func (o *Orchestrator) createNewItem(group organize.Group, canonicalText string, imageNames []string) (listing.Summary, error) {
	folder, err := o.Organizer.CreateItemFolder(group.Key)
	if err != nil {
		return listing.Summary{}, err
	}

	o.copyGroupImages(group, folder)

	merged := listing.Merge(group.Analyses)
	if _, err := listing.WriteListing(folder, merged); err != nil {
		return listing.Summary{}, err
	}

	o.Catalog.AddEntry(group.Key, merged.Title, canonicalText, imageNames)

	itemName := group.Key
	if len(group.Analyses) > 0 && group.Analyses[0].ItemName != "" {
		itemName = group.Analyses[0].ItemName
	}
	fmt.Printf("  +  %s -> %s/\n", itemName, folder)

	return listing.NewSummary(folder, group.Analyses), nil
}

func (o *Orchestrator) copyGroupImages(group organize.Group, folder string) {
	for _, a := range group.Analyses {
		if _, err := os.Stat(a.ImagePath); err != nil {
			slog.Warn("Source image missing, not copied", "image", a.ImagePath)
			continue
		}
		if _, err := o.Organizer.CopyImageToFolder(a.ImagePath, folder); err != nil {
			slog.Warn("Could not copy image", "image", a.ImagePath, "folder", folder, "err", err)
		}
	}
}
