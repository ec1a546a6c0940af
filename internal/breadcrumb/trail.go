package breadcrumb

import (
	"fmt"
	"strings"
)

// Mode selects between the two breadcrumb behaviours the storefront has
// shipped.
type Mode int

const (
	// ModeStandard accepts pre-built lists and renders a trail holding only
	// the search term when no category is known.
	ModeStandard Mode = iota
	// ModeLegacy derives the trail from raw categories only, always
	// lowercases labels and renders nothing without at least one category.
	ModeLegacy
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeLegacy:
		return "legacy"
	default:
		return "standard"
	}
}

// ParseMode maps a configuration name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return ModeStandard, nil
	case "legacy":
		return ModeLegacy, nil
	default:
		return ModeStandard, fmt.Errorf("unknown breadcrumb mode %q", s)
	}
}

// Props is the input of a single breadcrumb render.
//
// A nil Breadcrumb or CategoryTree means the list was not supplied; an
// empty non-nil slice is a supplied, empty list and still takes priority.
type Props struct {
	// Term is the search term or product name shown after the last link.
	Term string
	// Categories are raw category paths, e.g. "/Department/Category/".
	Categories []string
	// CategoryTree is a pre-built trail for category pages.
	CategoryTree []NavigationItem
	// Breadcrumb is a fully pre-built trail; it overrides everything else.
	Breadcrumb []NavigationItem
	// ShowOnMobile keeps the trail visible below the small breakpoint.
	ShowOnMobile bool
	// PreserveLabelCase keeps derived labels as written in the path.
	PreserveLabelCase bool
}

// Trail is the resolved breadcrumb for one render.
type Trail struct {
	Mode         Mode
	Items        []NavigationItem
	Term         string
	ShowOnMobile bool
	// Visible is false when nothing should be rendered at all.
	Visible bool
}

// Resolve derives the trail for p without caching.
func Resolve(p Props, mode Mode) Trail {
	return resolve(p, mode, CategoryList)
}

// Resolver resolves props like Resolve, deriving category lists through a
// shared Memo.
type Resolver struct {
	mode Mode
	memo *Memo
}

// NewResolver creates a resolver for the given mode. A nil memo disables
// caching.
func NewResolver(mode Mode, memo *Memo) *Resolver {
	return &Resolver{mode: mode, memo: memo}
}

// Mode returns the mode the resolver was created with.
func (r *Resolver) Mode() Mode {
	return r.mode
}

// Resolve derives the trail for p in the resolver's mode.
func (r *Resolver) Resolve(p Props) Trail {
	return r.ResolveMode(p, r.mode)
}

// ResolveMode derives the trail for p in an explicit mode.
func (r *Resolver) ResolveMode(p Props, mode Mode) Trail {
	if r.memo == nil {
		return Resolve(p, mode)
	}
	return resolve(p, mode, r.memo.CategoryList)
}

type listFunc func([]string, ...ListOption) []NavigationItem

func resolve(p Props, mode Mode, derive listFunc) Trail {
	if mode == ModeLegacy {
		items := derive(p.Categories)
		return Trail{
			Mode:    ModeLegacy,
			Items:   items,
			Term:    p.Term,
			Visible: len(p.Categories) > 0,
		}
	}

	var items []NavigationItem
	switch {
	case p.Breadcrumb != nil:
		items = p.Breadcrumb
	case p.CategoryTree != nil:
		items = p.CategoryTree
	default:
		var opts []ListOption
		if p.PreserveLabelCase {
			opts = append(opts, WithPreservedLabelCase())
		}
		items = derive(p.Categories, opts...)
	}

	return Trail{
		Mode:         ModeStandard,
		Items:        items,
		Term:         p.Term,
		ShowOnMobile: p.ShowOnMobile,
		Visible:      len(items) > 0 || p.Term != "",
	}
}
