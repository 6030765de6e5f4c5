package domain

import "fmt"

// DefaultRatingRange is the band of average ratings that make it onto the map.
var DefaultRatingRange = RatingRange{Min: 4, Max: 5}

// RatingRange is an inclusive [Min, Max] band of average ratings.
type RatingRange struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the range, bounds included.
func (r RatingRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r RatingRange) String() string {
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}

// FilterByRating returns the entities whose AvgRating lies in r, preserving order.
func FilterByRating(entities []Entity, r RatingRange) []Entity {
	out := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if r.Contains(e.AvgRating) {
			out = append(out, e)
		}
	}
	return out
}
