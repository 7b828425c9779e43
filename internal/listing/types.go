// Package listing defines the marketplace listing domain: the per-image
// analysis record produced by the vision model, the closed condition and
// category sets, and the rules for merging several analyses of the same
// item into a single listing.
package listing

import (
	"regexp"
	"strconv"
	"strings"
)

// Analysis is the structured result of classifying one image.
// Produced by the vision client, immutable afterwards.
type Analysis struct {
	ImageName   string  `json:"image_name"`
	ImagePath   string  `json:"image_path"`
	ItemKey     string  `json:"item_key"`
	ItemName    string  `json:"item_name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Condition   string  `json:"condition"`
	Category    string  `json:"category"`
}

// Conditions is the closed set of accepted item conditions.
var Conditions = []string{"New", "Like New", "Good", "Fair", "Poor"}

// Categories is the closed set of accepted marketplace categories.
var Categories = []string{
	"Electronics",
	"Home & Garden",
	"Clothing & Accessories",
	"Collectibles",
	"Sports & Outdoors",
	"Toys & Games",
	"Furniture",
	"Appliances",
	"Tools",
	"Books & Media",
	"Antiques",
	"Other",
}

const (
	// DefaultCondition is used when the model returns an unrecognized condition.
	DefaultCondition = "Good"
	// DefaultCategory is used when the model returns an unrecognized category.
	DefaultCategory = "Other"
	// DefaultPrice is used when no valid price is available.
	DefaultPrice = 10.0
	// UnknownKey is the item key used when normalization yields nothing.
	UnknownKey = "unknown_item"
	// PlaceholderTitle is the listing title used when the item name is
	// empty or unrecognized.
	PlaceholderTitle = "Item for Sale"
)

var (
	keyStripRe    = regexp.MustCompile(`[^\w\s-]`)
	keyCollapseRe = regexp.MustCompile(`[\s-]+`)
)

// NormalizeKey converts an arbitrary name into a snake_case item key.
// Returns UnknownKey if nothing usable remains.
func NormalizeKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = keyStripRe.ReplaceAllString(key, "")
	key = keyCollapseRe.ReplaceAllString(key, "_")
	key = strings.Trim(key, "_")
	if key == "" {
		return UnknownKey
	}
	return key
}

// NormalizeCondition maps a raw condition string onto the closed set,
// case-insensitively, falling back to DefaultCondition.
func NormalizeCondition(raw string) string {
	for _, c := range Conditions {
		if c == raw {
			return c
		}
	}
	for _, c := range Conditions {
		if strings.EqualFold(c, raw) {
			return c
		}
	}
	return DefaultCondition
}

// NormalizeCategory maps a raw category string onto the closed set,
// case-insensitively, falling back to DefaultCategory.
func NormalizeCategory(raw string) string {
	for _, c := range Categories {
		if c == raw {
			return c
		}
	}
	for _, c := range Categories {
		if strings.EqualFold(c, raw) {
			return c
		}
	}
	return DefaultCategory
}

var priceCleanRe = regexp.MustCompile(`[^\d.]`)

// ParsePrice extracts a non-negative price from a raw string such as
// "$24.99", returning DefaultPrice when no valid number is present.
func ParsePrice(raw string) float64 {
	cleaned := priceCleanRe.ReplaceAllString(raw, "")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value < 0 {
		return DefaultPrice
	}
	return value
}
