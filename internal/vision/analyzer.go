// Package vision classifies item photographs with the Gemini API,
// producing one structured listing analysis per image.
package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"sellsort/internal/listing"
)

const analysisPrompt = `Analyze this image of a household item or collectible for a Facebook Marketplace listing.
Respond ONLY with a valid JSON object (no markdown, no extra text) with these exact fields:
{
  "item_name": "A descriptive name for the item (e.g., 'Vintage Wooden Rocking Chair')",
  "item_key": "snake_case_key (e.g., 'vintage_wooden_rocking_chair')",
  "description": "A detailed description suitable for a Facebook Marketplace listing (2-4 sentences)",
  "price": <recommended price as a number (no $ sign)>,
  "condition": "One of: New, Like New, Good, Fair, Poor",
  "category": "One of: Electronics, Home & Garden, Clothing & Accessories, Collectibles, Sports & Outdoors, Toys & Games, Furniture, Appliances, Tools, Books & Media, Antiques, Other"
}`

// supportedExtensions are the image formats the analyzer will pick up.
var supportedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".tiff": true, ".heic": true,
}

// QuotaError reports that a model has exhausted its rate or daily quota.
// The driver reacts by switching models and retrying the same image.
type QuotaError struct {
	Model string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("rate limit reached for model: %s", e.Model)
}

// Analyzer classifies images with a Gemini vision model, pacing requests
// to stay under the configured requests-per-minute limit.
type Analyzer struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

// New creates an analyzer for the given model.
func New(ctx context.Context, apiKey, model string, maxRPM int) (*Analyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if maxRPM <= 0 {
		maxRPM = 14
	}
	slog.Info("Analyzer initialized", "model", model, "max_rpm", maxRPM)
	return &Analyzer{
		client:  client,
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(float64(maxRPM)/60.0), 1),
	}, nil
}

// Close releases the underlying API client.
func (a *Analyzer) Close() error {
	return a.client.Close()
}

// Model returns the model currently in use.
func (a *Analyzer) Model() string {
	return a.model
}

// SwitchModel changes the model used for subsequent requests.
func (a *Analyzer) SwitchModel(model string) {
	a.model = model
	slog.Info("Switched to model", "model", model)
}

// AnalyzeImage classifies a single image. A *QuotaError is returned when
// the model's quota is exhausted; any other error means this image should
// be skipped.
func (a *Analyzer) AnalyzeImage(ctx context.Context, imagePath string) (*listing.Analysis, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter interrupted: %w", err)
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	model := a.client.GenerativeModel(a.model)
	resp, err := model.GenerateContent(ctx,
		genai.Text(analysisPrompt),
		genai.ImageData(imageFormat(imagePath), data),
	)
	if err != nil {
		if isQuotaExhausted(err) {
			return nil, &QuotaError{Model: a.model}
		}
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	raw, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	analysis, err := parseAnalysis(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model response for %s: %w", filepath.Base(imagePath), err)
	}

	analysis.ImageName = filepath.Base(imagePath)
	analysis.ImagePath = imagePath
	slog.Info("Analyzed image", "image", analysis.ImageName, "item", analysis.ItemName, "price", analysis.Price)
	return analysis, nil
}

// SupportedImages returns the supported image files in a folder, sorted
// by name.
func SupportedImages(folder string) ([]string, error) {
	dirEntries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to read input folder: %w", err)
	}

	var images []string
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			images = append(images, filepath.Join(folder, entry.Name()))
		}
	}
	sort.Strings(images)
	return images, nil
}

func imageFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "jpg" {
		return "jpeg"
	}
	return ext
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}
	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}
	return "", fmt.Errorf("unexpected response format from Gemini")
}

func isQuotaExhausted(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
