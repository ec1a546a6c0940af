// Package breadcrumb derives and renders the storefront breadcrumb trail:
// home link, one link per ancestor category, then the optional search term.
package breadcrumb

import (
	"sort"
	"strings"
	"unicode/utf16"
)

// departmentSuffix marks a top-level category link for the storefront router.
const departmentSuffix = "/d"

// NavigationItem is one link of the trail.
type NavigationItem struct {
	Name string `json:"name"`
	Href string `json:"href"`
}

type listConfig struct {
	preserveLabelCase bool
}

// ListOption tweaks how CategoryList labels its items.
type ListOption func(*listConfig)

// WithPreservedLabelCase keeps the leaf label exactly as it appears in the
// category path instead of lowercasing it.
func WithPreservedLabelCase() ListOption {
	return func(c *listConfig) { c.preserveLabelCase = true }
}

func newListConfig(opts []ListOption) listConfig {
	var cfg listConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// CategoryList maps raw category paths such as "/Department/Category/" to
// navigation items, one per input, shortest path first.
//
// Ordering is by path length, not by tree depth: two sibling paths of the
// same depth are ordered by how long their labels are. Length counts UTF-16
// code units, as browsers do, so a character outside the BMP counts twice.
func CategoryList(categories []string, opts ...ListOption) []NavigationItem {
	cfg := newListConfig(opts)

	sorted := make([]string, len(categories))
	copy(sorted, categories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return utf16Len(sorted[i]) < utf16Len(sorted[j])
	})

	items := make([]NavigationItem, 0, len(sorted))
	for _, category := range sorted {
		items = append(items, categoryItem(category, cfg))
	}
	return items
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func categoryItem(category string, cfg listConfig) NavigationItem {
	stripped := strings.TrimPrefix(category, "/")
	stripped = strings.TrimSuffix(stripped, "/")

	segments := strings.Split(stripped, "/")
	label := segments[len(segments)-1]
	if !cfg.preserveLabelCase {
		label = strings.ToLower(label)
	}

	href := "/" + Slugify(stripped)
	if len(segments) == 1 {
		href += departmentSuffix
	}

	return NavigationItem{Name: label, Href: href}
}
