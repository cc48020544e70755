package catalog

import (
	"nutrition-catalog/domain"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Merge reconciles source batches into one catalog. Items are ranked by
// Source (reference first), the first item per identity key is kept, and the
// result is ordered by name with ties broken by id. The output does not
// depend on the order of batches or of items within different sources.
func Merge(batches ...[]domain.CatalogItem) []domain.CatalogItem {
	var all []domain.CatalogItem
	for _, batch := range batches {
		all = append(all, batch...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Source < all[j].Source })

	seen := make(map[string]struct{}, len(all))
	merged := make([]domain.CatalogItem, 0, len(all))
	for _, item := range all {
		key := item.IdentityKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, item)
	}

	// a Collator keeps internal buffers, so each merge gets its own
	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(merged, func(i, j int) bool {
		if c := col.CompareString(merged[i].Name, merged[j].Name); c != 0 {
			return c < 0
		}
		return merged[i].ID < merged[j].ID
	})
	return merged
}

// Filter returns the items matching category (empty for any) whose name
// contains search, case-insensitively. Empty search matches everything.
func Filter(items []domain.CatalogItem, category domain.Category, search string) []domain.CatalogItem {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]domain.CatalogItem, 0, len(items))
	for _, item := range items {
		if category != "" && item.Category != category {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(item.Name), needle) {
			continue
		}
		out = append(out, item)
	}
	return out
}
