package listing

import "strings"

// Merged is a single coherent listing built from every analysis of one item.
type Merged struct {
	Title       string
	Description string
	Price       float64
	Condition   string
	Category    string
	Images      string
}

// Merge combines multiple analyses of the same item into one listing.
//
// The first analysis is treated as the primary image: its item name seeds
// the title. The longest description wins, prices are averaged, and the
// most frequent condition and category are chosen with ties broken by
// first encounter.
func Merge(analyses []Analysis) Merged {
	if len(analyses) == 0 {
		return Merged{
			Title:       PlaceholderTitle,
			Description: "No description available.",
			Price:       DefaultPrice,
			Condition:   DefaultCondition,
			Category:    DefaultCategory,
			Images:      "N/A",
		}
	}

	base := analyses[0]

	bestDescription := ""
	for _, a := range analyses {
		if len(a.Description) > len(bestDescription) {
			bestDescription = a.Description
		}
	}
	if bestDescription == "" {
		bestDescription = "No description available."
	}

	var priceSum float64
	priceCount := 0
	for _, a := range analyses {
		if a.Price >= 0 {
			priceSum += a.Price
			priceCount++
		}
	}
	price := DefaultPrice
	if priceCount > 0 {
		price = priceSum / float64(priceCount)
	}

	conditions := make([]string, 0, len(analyses))
	categories := make([]string, 0, len(analyses))
	for _, a := range analyses {
		conditions = append(conditions, a.Condition)
		categories = append(categories, a.Category)
	}
	condition := mostFrequent(conditions, DefaultCondition)
	category := mostFrequent(categories, DefaultCategory)

	var imageNames []string
	for _, a := range analyses {
		if a.ImageName != "" {
			imageNames = append(imageNames, a.ImageName)
		}
	}
	images := "N/A"
	if len(imageNames) > 0 {
		images = strings.Join(imageNames, ", ")
	}

	return Merged{
		Title:       BuildTitle(base.ItemName, condition),
		Description: bestDescription,
		Price:       price,
		Condition:   condition,
		Category:    category,
		Images:      images,
	}
}

// BuildTitle builds a concise marketplace title from an item name,
// appending the condition unless the name already mentions it.
func BuildTitle(itemName, condition string) string {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" || strings.EqualFold(itemName, "unknown item") {
		return PlaceholderTitle
	}
	if !strings.Contains(strings.ToLower(itemName), strings.ToLower(condition)) {
		return itemName + " - " + condition + " Condition"
	}
	return itemName
}

// mostFrequent returns the most common value, breaking frequency ties in
// favor of the value encountered first. A later value only wins with a
// strictly greater count.
func mostFrequent(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	counts := make(map[string]int, len(values))
	best := values[0]
	bestCount := 0
	for _, v := range values {
		counts[v]++
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best
}

// Summary is one row of the run's summary spreadsheet.
type Summary struct {
	ItemName    string
	Title       string
	Description string
	Price       float64
	Condition   string
	Category    string
	ImageCount  int
	FolderPath  string
}

// NewSummary builds the spreadsheet row for an item group attributed to
// the given folder.
func NewSummary(folder string, analyses []Analysis) Summary {
	merged := Merge(analyses)
	itemName := "Unknown"
	if len(analyses) > 0 && analyses[0].ItemName != "" {
		itemName = analyses[0].ItemName
	}
	return Summary{
		ItemName:    itemName,
		Title:       merged.Title,
		Description: merged.Description,
		Price:       merged.Price,
		Condition:   merged.Condition,
		Category:    merged.Category,
		ImageCount:  len(analyses),
		FolderPath:  folder,
	}
}
