// Package config resolves tool configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultModels are tried in order; the driver advances to the next one
// when a model's quota is exhausted.
var DefaultModels = []string{"gemini-2.5-flash-lite", "gemini-3-flash", "gemini-2.5-flash"}

// Config is the resolved tool configuration.
type Config struct {
	APIKey          string   `yaml:"api_key"`
	InputFolder     string   `yaml:"input_folder"`
	OutputFolder    string   `yaml:"output_folder"`
	ProcessedFolder string   `yaml:"processed_folder"`
	MaxRPM          int      `yaml:"max_rpm"`
	Models          []string `yaml:"models"`
	MergeThreshold  float64  `yaml:"duplicate_merge_threshold"`
	CatalogFilename string   `yaml:"item_catalog_filename"`
	SummaryFormat   string   `yaml:"summary_format"`
	ProgressFile    string   `yaml:"progress_file"`
}

// Load builds the configuration: defaults, then sellsort.yaml (or the
// file named by SELLSORT_CONFIG) if present, then environment variables.
func Load() Config {
	cfg := Config{
		InputFolder:     "images_to_process",
		OutputFolder:    "output",
		ProcessedFolder: "processed_images",
		MaxRPM:          14,
		MergeThreshold:  0.80,
		CatalogFilename: "item_catalog.json",
		SummaryFormat:   "csv",
		ProgressFile:    "progress.json",
	}

	configPath := "sellsort.yaml"
	if envPath := os.Getenv("SELLSORT_CONFIG"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			slog.Warn("Could not parse config file, using defaults", "path", configPath, "err", err)
		} else {
			slog.Info("Loaded config file", "path", configPath)
		}
	}

	envOverride(&cfg.APIKey, "GEMINI_API_KEY")
	envOverride(&cfg.InputFolder, "INPUT_FOLDER")
	envOverride(&cfg.OutputFolder, "OUTPUT_FOLDER")
	envOverride(&cfg.ProcessedFolder, "PROCESSED_FOLDER")
	envOverride(&cfg.CatalogFilename, "ITEM_CATALOG_FILENAME")
	envOverride(&cfg.SummaryFormat, "SUMMARY_FORMAT")

	if raw := os.Getenv("MAX_RPM"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			cfg.MaxRPM = v
		}
	}
	if raw := os.Getenv("DUPLICATE_MERGE_THRESHOLD"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 && v <= 1 {
			cfg.MergeThreshold = v
		}
	}
	if raw := strings.TrimSpace(os.Getenv("GEMINI_MODELS")); raw != "" {
		var models []string
		for _, m := range strings.Split(raw, ",") {
			if m = strings.TrimSpace(m); m != "" {
				models = append(models, m)
			}
		}
		if len(models) > 0 {
			cfg.Models = models
		}
	} else if single := strings.TrimSpace(os.Getenv("GEMINI_MODEL")); single != "" {
		cfg.Models = []string{single}
	}
	if len(cfg.Models) == 0 {
		cfg.Models = DefaultModels
	}

	return cfg
}

func envOverride(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}
