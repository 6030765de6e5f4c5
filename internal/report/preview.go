// Package report prints console summaries of a pipeline run.
package report

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/couchcryptid/poi-rating-map/internal/domain"
)

var previewColumns = []string{"name", "lat", "lng", "rating", "review_count", "cluster"}

// Preview writes a table of the first n entities with their aggregated rating,
// review count and cluster label. Entities without a label show "-".
func Preview(w io.Writer, entities []domain.Entity, n int) error {
	if n <= 0 {
		return nil
	}
	if n > len(entities) {
		n = len(entities)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, col := range previewColumns {
		sep := "\t"
		if i == len(previewColumns)-1 {
			sep = "\n"
		}
		fmt.Fprint(tw, col, sep)
	}
	for _, e := range entities[:n] {
		cluster := "-"
		if label, ok := e.ClusterLabel(); ok {
			cluster = strconv.Itoa(label)
		}
		fmt.Fprintf(tw, "%s\t%.6f\t%.6f\t%.2f\t%d\t%s\n",
			e.Name, e.Lat, e.Lng, e.AvgRating, e.ReviewCount, cluster)
	}
	return tw.Flush()
}
