package models

import "time"

// Provenance tags.
const (
	DataSourceGooglePlaces = "google-places"
	DataSourceCatalogLieux = "datatourisme-lieux"
)

type POI struct {
	OriginalID         string     `json:"originalId" bson:"originalId"`
	DataSource         string     `json:"dataSource" bson:"dataSource"`
	Name               string     `json:"name" bson:"name"`
	Types              []string   `json:"types" bson:"types"`
	ShortDescription   string     `json:"shortDescription,omitempty" bson:"shortDescription,omitempty"`
	Description        string     `json:"description,omitempty" bson:"description,omitempty"`
	Address            Address    `json:"address" bson:"address"`
	Location           *GeoPoint  `json:"location,omitempty" bson:"location,omitempty"`
	LastUpdateInternal time.Time  `json:"lastUpdateInternal,omitempty" bson:"lastUpdateInternal,omitempty"`
	LastUpdateSource   *time.Time `json:"lastUpdateSource,omitempty" bson:"lastUpdateSource,omitempty"`

	// Populated for externally sourced places only.
	PlaceID          string   `json:"placeId,omitempty" bson:"placeId,omitempty"`
	AddressString    string   `json:"addressString,omitempty" bson:"addressString,omitempty"`
	Rating           float32  `json:"rating,omitempty" bson:"rating,omitempty"`
	UserRatingsTotal int      `json:"userRatingsTotal,omitempty" bson:"userRatingsTotal,omitempty"`
	Photos           []Photo  `json:"photos,omitempty" bson:"photos,omitempty"`
	OpenNow          *bool    `json:"openNow,omitempty" bson:"openNow,omitempty"`
	PriceLevel       int      `json:"priceLevel,omitempty" bson:"priceLevel,omitempty"`
	Icon             string   `json:"icon,omitempty" bson:"icon,omitempty"`
}

type Address struct {
	StreetAddress string `json:"streetAddress,omitempty" bson:"streetAddress,omitempty"`
	PostalCode    string `json:"postalCode,omitempty" bson:"postalCode,omitempty"`
	Locality      string `json:"locality,omitempty" bson:"locality,omitempty"`
	City          string `json:"city,omitempty" bson:"city,omitempty"`
}

// GeoPoint is a GeoJSON point; Coordinates holds [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

type Photo struct {
	PhotoReference   string   `json:"photo_reference" bson:"photo_reference"`
	Height           int      `json:"height" bson:"height"`
	Width            int      `json:"width" bson:"width"`
	HTMLAttributions []string `json:"html_attributions,omitempty" bson:"html_attributions,omitempty"`
}

// PoiPage is the paginated envelope shared by catalog and external searches.
type PoiPage struct {
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	TotalPois   int64 `json:"totalPois"`
	Pois        []POI `json:"pois"`
}

func NewPoint(longitude, latitude float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: []float64{longitude, latitude}}
}

// LngLat reports the point's coordinates, ok is false for a missing or malformed point.
func (g *GeoPoint) LngLat() (lng, lat float64, ok bool) {
	if g == nil || len(g.Coordinates) < 2 {
		return 0, 0, false
	}
	return g.Coordinates[0], g.Coordinates[1], true
}

// ProvenanceKey is the identity used to deduplicate places on the client:
// the place id for external results, the original id for catalog records.
func (p POI) ProvenanceKey() string {
	if p.DataSource == DataSourceGooglePlaces {
		return p.PlaceID
	}
	return p.OriginalID
}
