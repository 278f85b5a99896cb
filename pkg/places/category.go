package places

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCategory is returned for a category outside the whitelist.
var ErrInvalidCategory = errors.New("invalid place category")

// Categories are the place types accepted by nearby searches, in display order.
var Categories = []string{
	"hospital",
	"school",
	"restaurant",
	"shopping_mall",
	"atm",
	"bank",
	"gym",
	"park",
	"doctor",
	"pharmacy",
	"university",
	"library",
	"police",
	"fire_station",
	"grocery_or_supermarket",
}

// PropertyCategories is the narrower list a property may be tagged with in
// generalInfo.propertyType. "mall" is stored as-is and normalized at search time.
var PropertyCategories = []string{"hospital", "restaurant", "school", "mall", "park", "gym"}

var aliases = map[string]string{
	"mall": "shopping_mall",
}

var categorySet = toSet(Categories)

var propertyCategorySet = toSet(PropertyCategories)

// NormalizeCategory trims, lowercases and resolves aliases, then checks the whitelist.
func NormalizeCategory(category string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(category))
	if alias, ok := aliases[c]; ok {
		c = alias
	}
	if _, ok := categorySet[c]; !ok {
		return "", fmt.Errorf("%w %q: valid types are %s", ErrInvalidCategory, category, strings.Join(Categories, ", "))
	}
	return c, nil
}

// NormalizeCategories normalizes every entry, dropping repeats while keeping request order.
func NormalizeCategories(categories []string) ([]string, error) {
	seen := make(map[string]struct{}, len(categories))
	out := make([]string, 0, len(categories))
	for _, raw := range categories {
		c, err := NormalizeCategory(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// IsValidCategory reports whether category normalizes to a whitelisted type.
func IsValidCategory(category string) bool {
	_, err := NormalizeCategory(category)
	return err == nil
}

// IsPropertyCategory reports whether category may be stored on a property.
func IsPropertyCategory(category string) bool {
	_, ok := propertyCategorySet[category]
	return ok
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
