package pois

import (
	"net/url"
	"regexp"
	"strings"

	"roadtrip/globals"
	"roadtrip/utils"
)

const (
	DefaultSortBy  = "name"
	SortByDistance = "distance"
)

// Fields the free-text search runs across.
var searchFields = []string{"name", "shortDescription", "description", "address.city", "address.locality", "types"}

// Type lists behind the suggestion endpoints.
const (
	EnjoyTypes  = "CulturalSite,EntertainmentAndEvent,Activity,Event,SportingEvent,ParkAndGarden,Museum"
	TravelTypes = "Transport,Parking,ElectricVehicleChargingPoint"
)

// Query is the parsed form of the catalog search parameters.
type Query struct {
	Types      []string
	City       string
	Locality   string
	Search     string
	Geo        *Within
	Pagination utils.Pagination
	SortBy     string
	Desc       bool
}

func ParseQuery(q url.Values) (Query, error) {
	pg, err := utils.ParsePagination(q)
	if err != nil {
		return Query{}, err
	}

	query := Query{
		Types:      splitTypes(q.Get("type")),
		City:       strings.TrimSpace(q.Get("city")),
		Locality:   strings.TrimSpace(q.Get("locality")),
		Search:     strings.TrimSpace(q.Get("search")),
		Pagination: pg,
		SortBy:     strings.TrimSpace(q.Get("sortBy")),
		Desc:       q.Get("sortOrder") == "desc",
	}
	if query.SortBy == "" {
		query.SortBy = DefaultSortBy
	}

	lng, hasLng, err := utils.OptionalFloat(q, "longitude")
	if err != nil {
		return Query{}, err
	}
	lat, hasLat, err := utils.OptionalFloat(q, "latitude")
	if err != nil {
		return Query{}, err
	}
	dist, hasDist, err := utils.OptionalFloat(q, "maxDistance")
	if err != nil {
		return Query{}, err
	}
	if hasLng && hasLat && hasDist {
		query.Geo = &Within{Field: "location", Longitude: lng, Latitude: lat, MaxDistance: dist}
	}
	return query, nil
}

// splitTypes keeps the order of the comma-separated terms, dropping blanks.
func splitTypes(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var terms []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// Filter is the predicate shared by the count and the fetch.
func (q Query) Filter() And {
	filter := And{NewPattern("dataSource", globals.CatalogSourcePattern)}

	if len(q.Types) > 0 {
		patterns := make([]string, len(q.Types))
		for i, t := range q.Types {
			patterns[i] = regexp.QuoteMeta(t)
		}
		filter = append(filter, NewAnyPattern("types", patterns))
	}
	if q.City != "" {
		filter = append(filter, Contains("address.city", q.City))
	}
	if q.Locality != "" {
		filter = append(filter, Contains("address.locality", q.Locality))
	}
	if q.Geo != nil {
		filter = append(filter, *q.Geo)
	}
	if q.Search != "" {
		alts := make(Or, 0, len(searchFields))
		for _, f := range searchFields {
			alts = append(alts, Contains(f, q.Search))
		}
		filter = append(filter, alts)
	}
	return filter
}

// NearestFirst reports whether results are ordered by distance instead of SortBy.
func (q Query) NearestFirst() bool {
	return q.Geo != nil && q.SortBy == SortByDistance
}

// FetchFilter is Filter with the radius bound swapped for its ordering form
// when nearest-first ordering was asked for.
func (q Query) FetchFilter() And {
	filter := q.Filter()
	if !q.NearestFirst() {
		return filter
	}
	for i, p := range filter {
		if w, ok := p.(Within); ok {
			filter[i] = Near{Within: w}
		}
	}
	return filter
}

func (q Query) FindOptions() FindOptions {
	opts := FindOptions{
		Skip:  q.Pagination.Skip(),
		Limit: int64(q.Pagination.Limit),
	}
	if !q.NearestFirst() {
		opts.SortBy = q.SortBy
		opts.Desc = q.Desc
	}
	return opts
}

// WithDefaultTypes fills the type filter only when the caller left it empty.
func WithDefaultTypes(q url.Values, types string) url.Values {
	if q.Get("type") != "" {
		return q
	}
	out := url.Values{}
	for k, v := range q {
		out[k] = v
	}
	out.Set("type", types)
	return out
}
