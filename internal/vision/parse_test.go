package vision

import (
	"errors"
	"math"
	"testing"

	"google.golang.org/api/googleapi"

	"sellsort/internal/listing"
)

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(t *testing.T, a *listing.Analysis)
	}{
		{
			name: "plain json",
			raw: `{"item_name": "Vintage Wooden Rocking Chair", "item_key": "vintage_wooden_rocking_chair",
				"description": "A sturdy oak rocking chair.", "price": 85, "condition": "Good", "category": "Furniture"}`,
			check: func(t *testing.T, a *listing.Analysis) {
				if a.ItemName != "Vintage Wooden Rocking Chair" {
					t.Errorf("Unexpected item name: %s", a.ItemName)
				}
				if a.ItemKey != "vintage_wooden_rocking_chair" {
					t.Errorf("Unexpected item key: %s", a.ItemKey)
				}
				if a.Price != 85 {
					t.Errorf("Unexpected price: %f", a.Price)
				}
			},
		},
		{
			name: "markdown fences stripped",
			raw: "```json\n" +
				`{"item_name": "Blue Mug", "item_key": "blue_mug", "description": "d", "price": 12.5, "condition": "Good", "category": "Home & Garden"}` +
				"\n```",
			check: func(t *testing.T, a *listing.Analysis) {
				if a.ItemKey != "blue_mug" || a.Price != 12.5 {
					t.Errorf("Unexpected analysis: %+v", a)
				}
			},
		},
		{
			name: "json embedded in prose",
			raw:  `Sure! Here is the listing: {"item_name": "Brass Lamp", "item_key": "brass_lamp", "description": "d", "price": 30, "condition": "Fair", "category": "Home & Garden"} Hope that helps.`,
			check: func(t *testing.T, a *listing.Analysis) {
				if a.ItemKey != "brass_lamp" || a.Condition != "Fair" {
					t.Errorf("Unexpected analysis: %+v", a)
				}
			},
		},
		{
			name: "price as string",
			raw:  `{"item_name": "Blue Mug", "item_key": "blue_mug", "description": "d", "price": "$25.50", "condition": "Good", "category": "Other"}`,
			check: func(t *testing.T, a *listing.Analysis) {
				if math.Abs(a.Price-25.50) > 1e-9 {
					t.Errorf("Expected price 25.50, got %f", a.Price)
				}
			},
		},
		{
			name: "negative price falls back",
			raw:  `{"item_name": "Blue Mug", "item_key": "blue_mug", "description": "d", "price": -5, "condition": "Good", "category": "Other"}`,
			check: func(t *testing.T, a *listing.Analysis) {
				if a.Price != listing.DefaultPrice {
					t.Errorf("Expected default price, got %f", a.Price)
				}
			},
		},
		{
			name: "invalid fields normalized",
			raw:  `{"item_name": "Blue Mug", "item_key": "", "description": "d", "price": 5, "condition": "mint", "category": "Spaceships"}`,
			check: func(t *testing.T, a *listing.Analysis) {
				if a.ItemKey != "blue_mug" {
					t.Errorf("Expected key derived from name, got %s", a.ItemKey)
				}
				if a.Condition != listing.DefaultCondition || a.Category != listing.DefaultCategory {
					t.Errorf("Expected normalized condition/category, got %s/%s", a.Condition, a.Category)
				}
			},
		},
		{
			name: "empty name gets placeholder key",
			raw:  `{"item_name": "", "item_key": "", "description": "d", "price": 5, "condition": "Good", "category": "Other"}`,
			check: func(t *testing.T, a *listing.Analysis) {
				if a.ItemName != "Unknown Item" {
					t.Errorf("Expected Unknown Item, got %s", a.ItemName)
				}
				if a.ItemKey != "unknown_item" {
					t.Errorf("Expected unknown_item key, got %s", a.ItemKey)
				}
			},
		},
		{
			name:    "no json at all",
			raw:     "I could not identify the item in this image.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := parseAnalysis(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseAnalysis failed: %v", err)
			}
			tt.check(t, a)
		})
	}
}

func TestIsQuotaExhausted(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "googleapi 429",
			err:      &googleapi.Error{Code: 429, Message: "quota exceeded"},
			expected: true,
		},
		{
			name:     "resource exhausted text",
			err:      errors.New("rpc error: code = ResourceExhausted desc = RESOURCE_EXHAUSTED"),
			expected: true,
		},
		{
			name:     "plain failure",
			err:      errors.New("connection reset"),
			expected: false,
		},
		{
			name:     "googleapi server error",
			err:      &googleapi.Error{Code: 500, Message: "internal"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isQuotaExhausted(tt.err); got != tt.expected {
				t.Errorf("isQuotaExhausted(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestQuotaErrorCarriesModel(t *testing.T) {
	var err error = &QuotaError{Model: "gemini-2.5-flash"}

	var quotaErr *QuotaError
	if !errors.As(err, &quotaErr) {
		t.Fatal("Expected errors.As to match QuotaError")
	}
	if quotaErr.Model != "gemini-2.5-flash" {
		t.Errorf("Expected model name preserved, got %s", quotaErr.Model)
	}
}

func TestImageFormat(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"photo.jpg", "jpeg"},
		{"photo.JPG", "jpeg"},
		{"photo.jpeg", "jpeg"},
		{"photo.png", "png"},
		{"photo.webp", "webp"},
	}
	for _, tt := range tests {
		if got := imageFormat(tt.path); got != tt.expected {
			t.Errorf("imageFormat(%q) = %q, want %q", tt.path, got, tt.expected)
		}
	}
}
