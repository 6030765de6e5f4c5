// Package leaflet renders entities as a self-contained Leaflet map page with
// density-clustered circle markers.
package leaflet

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/poi-rating-map/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// ErrNoEntities is returned when a map center must be computed from an empty set.
var ErrNoEntities = errors.New("no entities to center the map on")

// Marker radius per review.
const (
	CategoryRadiusFactor = 2.0
	ClusterRadiusFactor  = 1.5
)

// clusterPalette colors markers by k-means label; labels past the end use the last entry.
var clusterPalette = []string{"blue", "green", "red", "purple"}

// Map is the serializable description of a rendered map.
type Map struct {
	Center       [2]float64 `json:"center"`
	Zoom         int        `json:"zoom"`
	Tiles        TileLayer  `json:"tiles"`
	Layers       []Layer    `json:"layers"`
	LayerControl bool       `json:"layerControl"`
}

// TileLayer is the base map.
type TileLayer struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
}

// Layer is one marker cluster group. A named layer is wrapped in a feature
// group that the layer control can toggle; an unnamed one sits on the map.
type Layer struct {
	Name    string   `json:"name,omitempty"`
	Markers []Marker `json:"markers"`
}

// Marker is a circle marker with a plain-text popup, one entry per line.
type Marker struct {
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Radius      float64  `json:"radius"`
	Color       string   `json:"color"`
	FillColor   string   `json:"fillColor"`
	FillOpacity float64  `json:"fillOpacity"`
	Popup       []string `json:"popup"`
}

// OpenStreetMap is the default base layer.
var OpenStreetMap = TileLayer{
	Name:        "openstreetmap",
	URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
	Attribution: "&copy; OpenStreetMap contributors",
}

// Radius scales a marker linearly with the review count.
func Radius(reviewCount int, factor float64) float64 {
	return float64(reviewCount) * factor
}

// ClusterColor maps a k-means label to a palette color.
func ClusterColor(label int) string {
	if label >= 0 && label < len(clusterPalette) {
		return clusterPalette[label]
	}
	return clusterPalette[len(clusterPalette)-1]
}

// CategoryMap builds one togglable layer per known category, in
// domain.Categories order. Entities in other categories are not drawn.
func CategoryMap(entities []domain.Entity, lat, lng float64, zoom int) Map {
	byCategory := make(map[string][]Marker, len(domain.Categories))
	for _, e := range entities {
		byCategory[e.Category] = append(byCategory[e.Category], categoryMarker(e))
	}

	layers := make([]Layer, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		markers := byCategory[c]
		if markers == nil {
			markers = []Marker{}
		}
		layers = append(layers, Layer{Name: c, Markers: markers})
	}

	return Map{
		Center:       [2]float64{lat, lng},
		Zoom:         zoom,
		Tiles:        OpenStreetMap,
		Layers:       layers,
		LayerControl: true,
	}
}

// ClusterMap builds a single cluster group colored by k-means label and
// centered on the mean position of the entities.
func ClusterMap(entities []domain.Entity, zoom int) (Map, error) {
	if len(entities) == 0 {
		return Map{}, ErrNoEntities
	}
	lat, lng := MeanCenter(entities)
	return ClusterMapAt(entities, lat, lng, zoom), nil
}

// ClusterMapAt is ClusterMap with an explicit center.
func ClusterMapAt(entities []domain.Entity, lat, lng float64, zoom int) Map {
	markers := make([]Marker, 0, len(entities))
	for _, e := range entities {
		markers = append(markers, clusterMarker(e))
	}
	return Map{
		Center: [2]float64{lat, lng},
		Zoom:   zoom,
		Tiles:  OpenStreetMap,
		Layers: []Layer{{Markers: markers}},
	}
}

// MeanCenter returns the mean latitude and longitude of the entities.
func MeanCenter(entities []domain.Entity) (lat, lng float64) {
	lats := make([]float64, len(entities))
	lngs := make([]float64, len(entities))
	for i, e := range entities {
		lats[i] = e.Lat
		lngs[i] = e.Lng
	}
	return stat.Mean(lats, nil), stat.Mean(lngs, nil)
}

func categoryMarker(e domain.Entity) Marker {
	popup := []string{
		e.Name,
		fmt.Sprintf("Avg Rating: %.2f", e.AvgRating),
		fmt.Sprintf("Reviews: %d", e.ReviewCount),
	}
	return Marker{
		Lat:         e.Lat,
		Lng:         e.Lng,
		Radius:      Radius(e.ReviewCount, CategoryRadiusFactor),
		Color:       "blue",
		FillColor:   "blue",
		FillOpacity: 0.2,
		Popup:       withAddress(popup, e),
	}
}

func clusterMarker(e domain.Entity) Marker {
	label, _ := e.ClusterLabel()
	color := ClusterColor(label)
	popup := []string{
		"Restaurant: " + e.Name,
		fmt.Sprintf("Avg. Rating: %.2f", e.AvgRating),
		fmt.Sprintf("Reviews: %d", e.ReviewCount),
		fmt.Sprintf("Cluster: %d", label),
	}
	return Marker{
		Lat:         e.Lat,
		Lng:         e.Lng,
		Radius:      Radius(e.ReviewCount, ClusterRadiusFactor),
		Color:       color,
		FillColor:   color,
		FillOpacity: 0.6,
		Popup:       withAddress(popup, e),
	}
}

func withAddress(popup []string, e domain.Entity) []string {
	if e.Address == "" {
		return popup
	}
	return append(popup, "Address: "+e.Address)
}
