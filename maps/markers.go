package maps

import (
	"math"

	"roadtrip/models"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
)

// EarthRadiusMeters is the sphere radius used for every distance and radius conversion.
const EarthRadiusMeters = 6378100.0

// Marker is one plottable place on the trip map.
type Marker struct {
	Key        string  `json:"key"`
	Name       string  `json:"name"`
	DataSource string  `json:"dataSource"`
	Longitude  float64 `json:"longitude"`
	Latitude   float64 `json:"latitude"`
	Waypoint   bool    `json:"waypoint,omitempty"`
}

// MarkerFor reports false when the POI has no usable point.
func MarkerFor(p models.POI) (Marker, bool) {
	lng, lat, ok := p.Location.LngLat()
	if !ok {
		return Marker{}, false
	}
	return Marker{
		Key:        p.ProvenanceKey(),
		Name:       p.Name,
		DataSource: p.DataSource,
		Longitude:  lng,
		Latitude:   lat,
	}, true
}

// FeatureCollection encodes markers as GeoJSON point features.
func FeatureCollection(markers []Marker) *gjson.FeatureCollection {
	fc := &gjson.FeatureCollection{Features: make([]*gjson.Feature, 0, len(markers))}
	for _, m := range markers {
		props := map[string]any{
			"name":       m.Name,
			"dataSource": m.DataSource,
		}
		if m.Waypoint {
			props["waypoint"] = true
		}
		fc.Features = append(fc.Features, &gjson.Feature{
			ID:         m.Key,
			Geometry:   geom.NewPointFlat(geom.XY, []float64{m.Longitude, m.Latitude}),
			Properties: props,
		})
	}
	return fc
}

func degToRad(d float64) float64 {
	return d * (math.Pi / 180)
}

// HaversineMeters is the great-circle distance between two lng/lat points.
func HaversineMeters(lng1, lat1, lng2, lat2 float64) float64 {
	dLat := degToRad(lat2 - lat1)
	dLon := degToRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degToRad(lat1))*math.Cos(degToRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}
