// Command genreviews writes a deterministic synthetic reviews CSV around
// central Amsterdam so both map pipelines can run without private data. It
// runs the real aggregation and filter over the generated rows and prints how
// many entities each map would draw.
//
// Usage:
//
//	go run ./cmd/genreviews -out everything.csv -category
//	go run ./cmd/genreviews -out "Restaurants - Sheet1.csv" -seed 7 -entities 120
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/poi-rating-map/internal/domain"
)

// Amsterdam Centraal area; entities scatter within roughly 3 km.
const (
	baseLat = 52.370216
	baseLng = 4.895168
	spread  = 0.03
)

var namePrefixes = map[string][]string{
	domain.CategoryRestaurant:    {"Cafe", "Bistro", "Eetcafe", "Brasserie", "Pannenkoekenhuis"},
	domain.CategoryAttraction:    {"Museum", "Gallery", "Tower", "Church", "Market"},
	domain.CategoryPOI:           {"Square", "Park", "Bridge", "Canal view", "Windmill"},
	domain.CategoryAccommodation: {"Hotel", "Hostel", "Boathouse", "Guesthouse", "B&B"},
}

var nameSuffixes = []string{"de Jaren", "Prinsengracht", "Jordaan", "Oost", "Pijp", "Vondel", "Dam", "Noord", "Plantage", "Westerpark"}

// options controls a generation run.
type options struct {
	seed       uint64
	entities   int
	maxReviews int
	category   bool
}

// entity is a generated place before its reviews are expanded into rows.
type entity struct {
	id       int
	name     string
	category string
	lat, lng float64
	quality  float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the reviews CSV")
	seed := flag.Uint64("seed", 1, "random seed")
	entities := flag.Int("entities", 60, "number of distinct entities")
	maxReviews := flag.Int("max-reviews", 8, "maximum reviews per entity")
	category := flag.Bool("category", false, "include a Category column and all categories (category map input)")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *entities <= 0 || *maxReviews <= 0 {
		return fmt.Errorf("-entities and -max-reviews must be positive")
	}

	opts := options{seed: *seed, entities: *entities, maxReviews: *maxReviews, category: *category}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	records, err := generate(f, opts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	log.Printf("wrote %d reviews to %s", len(records), *out)

	printStats(records, opts.category)
	return nil
}

// generate writes the CSV to w and returns the rows it wrote. The same options
// always produce the same bytes.
func generate(w io.Writer, opts options) ([]domain.Record, error) {
	rng := rand.New(rand.NewPCG(opts.seed, 0x5eed))

	categories := []string{domain.CategoryRestaurant}
	if opts.category {
		categories = domain.Categories
	}

	cw := csv.NewWriter(w)
	header := []string{"id", "name", "lat", "lng", "rating"}
	if opts.category {
		header = []string{"id", "name", "Category", "lat", "lng", "rating"}
	}
	if err := cw.Write(header); err != nil {
		return nil, err
	}

	var records []domain.Record //nolint:prealloc // review count is random
	for i := range opts.entities {
		e := newEntity(rng, i+1, categories[i%len(categories)])
		n := 1 + rng.IntN(opts.maxReviews)
		for range n {
			rec := domain.Record{
				ID:     strconv.Itoa(e.id),
				Name:   e.name,
				Lat:    e.lat,
				Lng:    e.lng,
				Rating: review(rng, e.quality),
			}
			row := []string{rec.ID, rec.Name, formatCoord(rec.Lat), formatCoord(rec.Lng), strconv.FormatFloat(rec.Rating, 'f', -1, 64)}
			if opts.category {
				rec.Category = e.category
				row = []string{rec.ID, rec.Name, rec.Category, row[2], row[3], row[4]}
			}
			if err := cw.Write(row); err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
	}
	cw.Flush()
	return records, cw.Error()
}

func newEntity(rng *rand.Rand, id int, category string) entity {
	prefixes := namePrefixes[category]
	return entity{
		id:       id,
		name:     prefixes[rng.IntN(len(prefixes))] + " " + nameSuffixes[rng.IntN(len(nameSuffixes))],
		category: category,
		lat:      roundCoord(baseLat + (rng.Float64()*2-1)*spread),
		lng:      roundCoord(baseLng + (rng.Float64()*2-1)*spread*1.6),
		quality:  1.5 + rng.Float64()*3.5,
	}
}

// review draws a whole-star rating centered on the entity's quality.
func review(rng *rand.Rand, quality float64) float64 {
	r := math.Round(quality + rng.NormFloat64()*0.7)
	return math.Max(1, math.Min(5, r))
}

// roundCoord keeps six decimals so a coordinate survives the CSV round trip.
func roundCoord(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func printStats(records []domain.Record, byCategory bool) {
	by := domain.GroupByID
	if byCategory {
		by = domain.GroupByIDAndCategory
	}
	aggregated := domain.Aggregate(records, by)
	retained := domain.FilterByRating(aggregated, domain.DefaultRatingRange)
	log.Printf("entities: %d aggregated, %d retained in %s", len(aggregated), len(retained), domain.DefaultRatingRange)

	if !byCategory {
		return
	}
	counts := map[string]int{}
	for _, e := range retained {
		counts[e.Category]++
	}
	for _, c := range domain.Categories {
		log.Printf("  %-14s %d", c, counts[c])
	}
}
