package domain

import "strconv"

// Known entity categories in the category dataset.
const (
	CategoryRestaurant    = "Restaurant"
	CategoryAttraction    = "Attraction"
	CategoryPOI           = "POI"
	CategoryAccommodation = "Accommodation"
)

// Categories lists the categories that get their own map layer, in layer order.
var Categories = []string{
	CategoryRestaurant,
	CategoryAttraction,
	CategoryPOI,
	CategoryAccommodation,
}

// Record is a single review row.
type Record struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Rating   float64 `json:"rating"`
}

// Entity is the per-point-of-interest summary produced by Aggregate.
type Entity struct {
	ID          string  `json:"id"`
	Category    string  `json:"category,omitempty"`
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	AvgRating   float64 `json:"avg_rating"`
	ReviewCount int     `json:"review_count"`
	Cluster     *int    `json:"cluster,omitempty"`

	// Geocoding enrichment fields.
	Address   string `json:"address,omitempty"`
	PlaceName string `json:"place_name,omitempty"`
}

// Key identifies the entity: the id, or "id|category" when a category is set.
func (e Entity) Key() string {
	if e.Category == "" {
		return e.ID
	}
	return e.ID + "|" + e.Category
}

// ClusterLabel returns the cluster label and whether one was assigned.
func (e Entity) ClusterLabel() (int, bool) {
	if e.Cluster == nil {
		return 0, false
	}
	return *e.Cluster, true
}

// GroupBy selects the aggregation key.
type GroupBy int

const (
	// GroupByID aggregates all rows sharing an id.
	GroupByID GroupBy = iota
	// GroupByIDAndCategory aggregates rows sharing both id and category.
	GroupByIDAndCategory
)

func (g GroupBy) String() string {
	switch g {
	case GroupByID:
		return "id"
	case GroupByIDAndCategory:
		return "id+category"
	default:
		return "groupby(" + strconv.Itoa(int(g)) + ")"
	}
}
