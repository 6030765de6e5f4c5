package domain

import (
	"cmp"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

type groupKey struct {
	id       string
	category string
}

type group struct {
	first   Record
	ratings []float64
}

// Aggregate reduces review rows to one Entity per group key. Name and
// coordinates come from the first row seen for the group; AvgRating is the
// arithmetic mean of the group's ratings and ReviewCount its row count.
func Aggregate(records []Record, by GroupBy) []Entity {
	groups := make(map[groupKey]*group)
	for _, r := range records {
		k := groupKey{id: r.ID}
		if by == GroupByIDAndCategory {
			k.category = r.Category
		}
		g, ok := groups[k]
		if !ok {
			g = &group{first: r}
			groups[k] = g
		}
		g.ratings = append(g.ratings, r.Rating)
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b groupKey) int {
		if c := compareIDs(a.id, b.id); c != 0 {
			return c
		}
		return cmp.Compare(a.category, b.category)
	})

	entities := make([]Entity, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		entities = append(entities, Entity{
			ID:          k.id,
			Category:    k.category,
			Name:        g.first.Name,
			Lat:         g.first.Lat,
			Lng:         g.first.Lng,
			AvgRating:   stat.Mean(g.ratings, nil),
			ReviewCount: len(g.ratings),
		})
	}
	return entities
}

// compareIDs orders integer ids numerically and everything else lexically.
// Integers sort before non-integers so mixed columns stay stable. Distinct
// spellings of the same integer ("1", "01") fall back to lexical order, so
// the order is total over distinct ids.
func compareIDs(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		if c := cmp.Compare(ai, bi); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}
