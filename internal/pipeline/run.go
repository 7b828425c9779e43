package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sellsort/internal/catalog"
	"sellsort/internal/config"
	"sellsort/internal/listing"
	"sellsort/internal/organize"
	"sellsort/internal/progress"
	"sellsort/internal/report"
	"sellsort/internal/vision"
)

// Classifier is the external vision service the run depends on. The real
// implementation is vision.Analyzer.
type Classifier interface {
	AnalyzeImage(ctx context.Context, imagePath string) (*listing.Analysis, error)
	SwitchModel(model string)
	Model() string
}

// Runner executes one full processing run.
type Runner struct {
	cfg config.Config
}

// NewRunner creates a runner for the given configuration.
func NewRunner(cfg config.Config) *Runner {
	return &Runner{cfg: cfg}
}

// Run discovers input images, classifies the ones not yet processed,
// organizes them into item folders with cross-run duplicate merging, and
// updates the catalog, spreadsheet, and progress file.
func (r *Runner) Run(ctx context.Context) error {
	cfg := r.cfg

	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}
	if _, err := os.Stat(cfg.InputFolder); err != nil {
		return fmt.Errorf("input folder not found: %s", cfg.InputFolder)
	}

	allImages, err := vision.SupportedImages(cfg.InputFolder)
	if err != nil {
		return err
	}
	if len(allImages) == 0 {
		fmt.Printf("No supported images found in %s/\n", cfg.InputFolder)
		return nil
	}

	if err := os.MkdirAll(cfg.OutputFolder, 0755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}
	if err := os.MkdirAll(cfg.ProcessedFolder, 0755); err != nil {
		return fmt.Errorf("failed to create processed folder: %w", err)
	}

	processedNames := processedImageNames(cfg.ProcessedFolder, cfg.OutputFolder)
	var remaining []string
	for _, image := range allImages {
		if _, done := processedNames[filepath.Base(image)]; !done {
			remaining = append(remaining, image)
		}
	}

	fmt.Printf("Input folder    : %s/\n", cfg.InputFolder)
	fmt.Printf("Output folder   : %s/\n", cfg.OutputFolder)
	fmt.Printf("Images found    : %d\n", len(allImages))
	fmt.Printf("Models          : %s\n", strings.Join(cfg.Models, ", "))
	fmt.Printf("Rate limit      : %d requests/minute\n\n", cfg.MaxRPM)

	if skipped := len(allImages) - len(remaining); skipped > 0 {
		fmt.Printf("Resuming: %d image(s) already processed, %d remaining.\n\n", skipped, len(remaining))
	}
	if len(remaining) == 0 {
		fmt.Println("All images have already been processed.")
		return nil
	}

	analyzer, err := vision.New(ctx, cfg.APIKey, cfg.Models[0], cfg.MaxRPM)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	organizer, err := organize.NewOrganizer(cfg.OutputFolder)
	if err != nil {
		return err
	}
	cat := catalog.New(filepath.Join(cfg.OutputFolder, cfg.CatalogFilename), cfg.MergeThreshold)

	slog.Info("Starting run", "model", cfg.Models[0], "images", len(remaining))
	fmt.Printf("Starting with model: %s\n", cfg.Models[0])
	fmt.Printf("Processing %d image(s)...\n\n", len(remaining))

	analyses, analyzed, modelsUsed, exhausted := classifyAll(ctx, analyzer, cfg.Models, remaining)

	var summaries []listing.Summary
	if len(analyses) > 0 {
		fmt.Println("\nOrganizing items and generating listings...")
		orchestrator := &Orchestrator{Organizer: organizer, Catalog: cat}
		summaries = orchestrator.OrganizeAndList(analyses)
		// Save right after the merge pass so an interrupted tail end of
		// the run cannot lose catalog mutations.
		cat.Save()
	}

	moved := 0
	for _, image := range analyzed {
		if _, err := organize.MoveToProcessed(image, cfg.ProcessedFolder); err != nil {
			slog.Warn("Could not move image to processed folder", "image", image, "err", err)
			continue
		}
		moved++
	}

	if len(summaries) > 0 {
		writer := report.NewWriter(cfg.OutputFolder, cfg.SummaryFormat)
		if path, err := writer.AppendOrUpdate(summaries); err != nil {
			slog.Warn("Could not write summary spreadsheet", "err", err)
		} else {
			fmt.Printf("\nSummary spreadsheet saved: %s\n", path)
		}
	} else if len(analyses) == 0 {
		fmt.Println("\nNo items were successfully processed.")
	}

	remainingAfter, _ := vision.SupportedImages(cfg.InputFolder)
	prog := progress.Load(cfg.ProgressFile)
	prog.RecordRun(len(analyzed), len(remainingAfter), time.Now().Format("2006-01-02"), modelsUsed)
	prog.Save(cfg.ProgressFile)

	fmt.Printf("\nProcessing complete!\n")
	fmt.Printf("   - Images processed this run: %d\n", len(analyzed))
	fmt.Printf("   - Images moved to %s/: %d\n", cfg.ProcessedFolder, moved)
	fmt.Printf("   - Images remaining in %s/: %d\n", cfg.InputFolder, len(remainingAfter))
	if exhausted {
		fmt.Println("   - All available models have reached their daily limits.")
		fmt.Println("   - Run again tomorrow to continue processing.")
	}
	return nil
}

// classifyAll classifies images strictly in order, rotating to the next
// model whenever the current one's quota is exhausted and retrying the
// same image. Stops early once every model is exhausted. Any other
// classification failure skips just that image.
func classifyAll(ctx context.Context, classifier Classifier, models []string, images []string) (analyses []listing.Analysis, analyzed []string, modelsUsed map[string]int, exhausted bool) {
	modelsUsed = make(map[string]int)
	modelIndex := 0

	for _, image := range images {
		if exhausted {
			break
		}
		for {
			result, err := classifier.AnalyzeImage(ctx, image)
			if err == nil {
				analyses = append(analyses, *result)
				analyzed = append(analyzed, image)
				modelsUsed[classifier.Model()]++
				break
			}

			var quotaErr *vision.QuotaError
			if !errors.As(err, &quotaErr) {
				slog.Warn("Skipping image, analysis failed", "image", filepath.Base(image), "err", err)
				break
			}

			slog.Warn("Rate limit hit for model", "model", quotaErr.Model)
			fmt.Printf("\nModel '%s' has hit its rate limit.\n", quotaErr.Model)
			modelIndex++
			if modelIndex >= len(models) {
				fmt.Println("All available models have reached their daily limits.")
				slog.Warn("All models exhausted")
				exhausted = true
				break
			}
			fmt.Printf("Switching to next model: '%s'\n\n", models[modelIndex])
			classifier.SwitchModel(models[modelIndex])
			// Retry the same image with the new model.
		}
	}
	return analyses, analyzed, modelsUsed, exhausted
}

// processedImageNames collects image filenames that earlier runs already
// handled, from both the processed pool and existing item folders.
func processedImageNames(processedDir, outputDir string) map[string]struct{} {
	names := make(map[string]struct{})

	if dirEntries, err := os.ReadDir(processedDir); err == nil {
		for _, entry := range dirEntries {
			if !entry.IsDir() && isImageName(entry.Name()) {
				names[entry.Name()] = struct{}{}
			}
		}
	}

	itemDirs, err := os.ReadDir(outputDir)
	if err != nil {
		return names
	}
	for _, itemDir := range itemDirs {
		if !itemDir.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(outputDir, itemDir.Name()))
		if err != nil {
			continue
		}
		for _, f := range files {
			if !f.IsDir() && isImageName(f.Name()) {
				names[f.Name()] = struct{}{}
			}
		}
	}
	return names
}

func isImageName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tiff", ".heic":
		return true
	}
	return false
}
