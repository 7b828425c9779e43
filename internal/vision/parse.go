package vision

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"sellsort/internal/listing"
)

var (
	fenceOpenRe  = regexp.MustCompile("(?m)^```(?:json)?\\s*")
	fenceCloseRe = regexp.MustCompile("(?m)\\s*```$")
	jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// rawAnalysis mirrors the JSON shape the model is prompted to produce.
// Price arrives as either a number or a string like "$25".
type rawAnalysis struct {
	ItemName    string          `json:"item_name"`
	ItemKey     string          `json:"item_key"`
	Description string          `json:"description"`
	Price       json.RawMessage `json:"price"`
	Condition   string          `json:"condition"`
	Category    string          `json:"category"`
}

// parseAnalysis decodes the model's JSON reply, tolerating markdown code
// fences and surrounding prose, and normalizes every field onto the
// closed domain sets.
func parseAnalysis(raw string) (*listing.Analysis, error) {
	text := fenceOpenRe.ReplaceAllString(raw, "")
	text = fenceCloseRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		match := jsonObjectRe.FindString(text)
		if match == "" {
			return nil, fmt.Errorf("no JSON object in response")
		}
		if err := json.Unmarshal([]byte(match), &parsed); err != nil {
			return nil, fmt.Errorf("invalid JSON in response: %w", err)
		}
	}

	itemName := strings.TrimSpace(parsed.ItemName)
	if itemName == "" {
		itemName = "Unknown Item"
	}
	rawKey := parsed.ItemKey
	if rawKey == "" {
		rawKey = itemName
	}

	return &listing.Analysis{
		ItemName:    itemName,
		ItemKey:     listing.NormalizeKey(rawKey),
		Description: strings.TrimSpace(parsed.Description),
		Price:       parsePrice(parsed.Price),
		Condition:   listing.NormalizeCondition(parsed.Condition),
		Category:    listing.NormalizeCategory(parsed.Category),
	}, nil
}

func parsePrice(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return listing.DefaultPrice
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		if number >= 0 {
			return number
		}
		return listing.DefaultPrice
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return listing.ParsePrice(text)
	}
	return listing.DefaultPrice
}
