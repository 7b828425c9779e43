package listing

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ListingFilename is the canonical listing file written once per item
// folder. Its presence marks the folder as fully processed.
const ListingFilename = "listing.txt"

const listingTemplate = `TITLE: %s

DESCRIPTION:
%s

PRICE: $%.2f

CONDITION: %s

CATEGORY: %s

IMAGES: %s
`

// WriteListing writes the canonical listing file for an item into its
// folder and returns the file path.
func WriteListing(itemFolder string, merged Merged) (string, error) {
	path := filepath.Join(itemFolder, ListingFilename)
	text := fmt.Sprintf(listingTemplate,
		merged.Title, merged.Description, merged.Price,
		merged.Condition, merged.Category, merged.Images)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to write listing file: %w", err)
	}
	slog.Info("Generated listing", "path", path)
	return path, nil
}

// WriteUpdateNote writes a dated merge note into an existing item's folder.
// The canonical listing file is never touched; if a note for the same date
// already exists, a numeric counter starting at 2 is appended to the name.
func WriteUpdateNote(itemFolder, targetKey string, score float64, day string, merged Merged) (string, error) {
	path := filepath.Join(itemFolder, fmt.Sprintf("listing_update_%s.txt", day))
	if _, err := os.Stat(path); err == nil {
		counter := 2
		for {
			candidate := filepath.Join(itemFolder, fmt.Sprintf("listing_update_%s_%d.txt", day, counter))
			if _, err := os.Stat(candidate); os.IsNotExist(err) {
				path = candidate
				break
			}
			counter++
		}
	}

	text := fmt.Sprintf(`MERGED INTO: %s
SIMILARITY SCORE: %.4f
MERGE DATE: %s

--- New Analysis Summary ---
TITLE: %s

DESCRIPTION:
%s

PRICE: $%.2f
CONDITION: %s
CATEGORY: %s
IMAGES: %s
`, targetKey, score, day,
		merged.Title, merged.Description, merged.Price,
		merged.Condition, merged.Category, merged.Images)

	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to write update note: %w", err)
	}
	slog.Info("Wrote merge update note", "path", path)
	return path, nil
}
