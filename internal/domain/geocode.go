package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding attaches a street address to an entity with
// coordinates. A nil geocoder, missing coordinates or a failed lookup leave
// the entity unchanged.
func EnrichWithGeocoding(ctx context.Context, entity Entity, geocoder Geocoder, logger *slog.Logger) Entity {
	if geocoder == nil {
		return entity
	}
	if entity.Lat == 0 && entity.Lng == 0 {
		return entity
	}

	result, err := geocoder.ReverseGeocode(ctx, entity.Lat, entity.Lng)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"entity", entity.Key(),
			"lat", entity.Lat,
			"lng", entity.Lng,
			"error", err,
		)
		return entity
	}
	if result.FormattedAddress != "" {
		entity.Address = result.FormattedAddress
		entity.PlaceName = result.PlaceName
	}
	return entity
}
