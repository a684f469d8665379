// Package listview derives what a collection page shows from the cached
// items: the filtered and sorted view, the loaded window over it, and which
// item, if any, is being edited or adjusted.
package listview

import (
	"cmp"
	"slices"
	"strings"

	"github.com/vbonduro/restock/internal/domain"
)

// Filter selects items by a case-insensitive name substring and exact
// category and sector values. Zero fields match everything.
type Filter struct {
	Query    string
	Category string
	Sector   string
}

func (f Filter) Match(item domain.Item) bool {
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	if f.Sector != "" && item.Sector != f.Sector {
		return false
	}
	if f.Query != "" {
		return strings.Contains(strings.ToLower(item.Name), strings.ToLower(f.Query))
	}
	return true
}

type SortKey string

const (
	SortNone      SortKey = ""
	SortName      SortKey = "name"
	SortQuantity  SortKey = "quantity"
	SortCategory  SortKey = "category"
	SortCanonical SortKey = "canonical"
	SortSector    SortKey = "sector"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is a key chain plus a direction applied to the whole chain.
type Sort struct {
	Key       SortKey
	Direction Direction
}

// ParseSort reads the sort and dir query values. Unknown keys mean cache
// order; anything but "desc" is ascending.
func ParseSort(key, dir string) Sort {
	s := Sort{Direction: Asc}
	switch k := SortKey(key); k {
	case SortName, SortQuantity, SortCategory, SortCanonical, SortSector:
		s.Key = k
	}
	if Direction(dir) == Desc {
		s.Direction = Desc
	}
	return s
}

func byName(a, b domain.Item) int     { return strings.Compare(a.Name, b.Name) }
func byCategory(a, b domain.Item) int { return strings.Compare(a.Category, b.Category) }
func bySector(a, b domain.Item) int   { return strings.Compare(a.Sector, b.Sector) }
func byQuantity(a, b domain.Item) int { return cmp.Compare(a.CurrentQuantity, b.CurrentQuantity) }

func chain(cmps ...func(a, b domain.Item) int) func(a, b domain.Item) int {
	return func(a, b domain.Item) int {
		for _, c := range cmps {
			if r := c(a, b); r != 0 {
				return r
			}
		}
		return 0
	}
}

func (s Sort) compare() func(a, b domain.Item) int {
	var f func(a, b domain.Item) int
	switch s.Key {
	case SortName:
		f = byName
	case SortQuantity:
		f = chain(byQuantity, byName)
	case SortCategory:
		f = chain(byCategory, byName)
	case SortCanonical:
		f = chain(byCategory, bySector, byName)
	case SortSector:
		f = chain(bySector, byCategory, byName)
	default:
		return nil
	}
	if s.Direction == Desc {
		return func(a, b domain.Item) int { return f(b, a) }
	}
	return f
}

// Apply returns the items matching f, ordered by s. The input is not
// modified. Without a sort key the cache order is kept.
func Apply(items []domain.Item, f Filter, s Sort) []domain.Item {
	view := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if f.Match(item) {
			view = append(view, item)
		}
	}
	if cmpFn := s.compare(); cmpFn != nil {
		slices.SortStableFunc(view, cmpFn)
	}
	return view
}

// Canonical orders the whole collection by category, sector, then name, the
// order used for export.
func Canonical(items []domain.Item) []domain.Item {
	return Apply(items, Filter{}, Sort{Key: SortCanonical, Direction: Asc})
}

// Categories returns the distinct non-empty categories in first-seen order.
func Categories(items []domain.Item) []string {
	return distinct(items, func(i domain.Item) string { return i.Category })
}

// Sectors returns the distinct non-empty sectors in first-seen order.
func Sectors(items []domain.Item) []string {
	return distinct(items, func(i domain.Item) string { return i.Sector })
}

func distinct(items []domain.Item, field func(domain.Item) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range items {
		v := field(item)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
