package places

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roadtrip/models"

	"github.com/sirupsen/logrus"
	gmaps "googlemaps.github.io/maps"
)

// LocationBias is a circle results are biased towards.
type LocationBias struct {
	Latitude  float64
	Longitude float64
	Radius    int
}

func (b *LocationBias) String() string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("circle:%d@%g,%g", b.Radius, b.Latitude, b.Longitude)
}

// Finder runs a free-text place search against an external provider.
type Finder interface {
	FindPlaces(ctx context.Context, query string, bias *LocationBias) ([]models.POI, error)
}

// GoogleFinder uses the Places Text Search API.
type GoogleFinder struct {
	client *gmaps.Client
}

func NewGoogleFinder(apiKey string) (*GoogleFinder, error) {
	client, err := gmaps.NewClient(gmaps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("google maps client: %w", err)
	}
	return &GoogleFinder{client: client}, nil
}

func (g *GoogleFinder) FindPlaces(ctx context.Context, query string, bias *LocationBias) ([]models.POI, error) {
	req := &gmaps.TextSearchRequest{Query: query}
	if bias != nil {
		req.Location = &gmaps.LatLng{Lat: bias.Latitude, Lng: bias.Longitude}
		req.Radius = uint(bias.Radius)
	}

	logrus.WithFields(logrus.Fields{"query": query, "bias": bias.String()}).Debug("places text search")
	resp, err := g.client.TextSearch(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make([]models.POI, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, fromGoogle(r))
	}
	return out, nil
}

func fromGoogle(r gmaps.PlacesSearchResult) models.POI {
	locality := r.Vicinity
	if locality == "" {
		locality = cityFromAddress(r.FormattedAddress)
	}

	poi := models.POI{
		PlaceID:            r.PlaceID,
		OriginalID:         r.PlaceID,
		DataSource:         models.DataSourceGooglePlaces,
		Name:               r.Name,
		AddressString:      r.FormattedAddress,
		Address:            models.Address{StreetAddress: r.FormattedAddress, Locality: locality, City: locality},
		Types:              r.Types,
		Rating:             r.Rating,
		UserRatingsTotal:   r.UserRatingsTotal,
		PriceLevel:         r.PriceLevel,
		Icon:               r.Icon,
		LastUpdateInternal: time.Now().UTC(),
	}
	if r.Geometry.Location.Lat != 0 || r.Geometry.Location.Lng != 0 {
		poi.Location = models.NewPoint(r.Geometry.Location.Lng, r.Geometry.Location.Lat)
	}
	if r.OpeningHours != nil {
		poi.OpenNow = r.OpeningHours.OpenNow
	}
	for _, p := range r.Photos {
		poi.Photos = append(poi.Photos, models.Photo{
			PhotoReference:   p.PhotoReference,
			Height:           p.Height,
			Width:            p.Width,
			HTMLAttributions: p.HTMLAttributions,
		})
	}
	return poi
}

// cityFromAddress picks the third-from-last comma separated part of a
// formatted address, where the provider usually puts the city.
func cityFromAddress(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) < 3 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-3])
}

// Unconfigured is used when no API key is set. It finds nothing.
type Unconfigured struct{}

func (Unconfigured) FindPlaces(context.Context, string, *LocationBias) ([]models.POI, error) {
	logrus.Warn("external place search is not configured, returning no results")
	return []models.POI{}, nil
}
