// Package domain models reviewed points of interest and the pure stages that
// turn raw review rows into mappable entities.
//
// # Data Source
//
// Reviews arrive as one CSV row per review. Every row names the entity it
// reviews (id, name, lat, lng) and carries a single score:
//
//	id,name,Category,lat,lng,rating
//	1,Cafe de Jaren,Restaurant,52.3681,4.8966,5
//	1,Cafe de Jaren,Restaurant,52.3681,4.8966,4
//
// The Category column is only present in the category dataset. Ratings are
// integers or decimals, assumed (not checked) to lie in [1, 5].
//
// # Stages
//
//	Aggregate       rows -> one Entity per (id[, category]) with mean rating and count
//	KMeans.Assign   Entity -> Entity with a cluster label over (lat, lng, avg_rating)
//	FilterByRating  Entity -> Entity kept when AvgRating is inside an inclusive range
//
// Each stage returns a new slice; entities are never mutated in place.
//
// # Ordering
//
// Aggregate emits entities sorted by key. IDs compare numerically when both
// sides are integers and lexically otherwise, then by category. Output order
// is therefore independent of row order, which keeps cluster seeding
// reproducible for a fixed seed.
package domain
