package pois

import (
	"regexp"
	"strings"

	"roadtrip/maps"
	"roadtrip/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Predicate is one node of a POI filter. BSON renders it for MongoDB, Match
// evaluates the same condition against a decoded record.
type Predicate interface {
	BSON() bson.D
	Match(p *models.POI) bool
}

// Pattern is a case-insensitive regular expression on one field.
type Pattern struct {
	Field   string
	Pattern string
	re      *regexp.Regexp
}

// NewPattern compiles pattern once for in-process matching.
func NewPattern(field, pattern string) Pattern {
	re, _ := compile(pattern)
	return Pattern{Field: field, Pattern: pattern, re: re}
}

// Contains builds a substring Pattern from user text.
func Contains(field, text string) Pattern {
	return NewPattern(field, regexp.QuoteMeta(text))
}

func (p Pattern) BSON() bson.D {
	return bson.D{{Key: p.Field, Value: primitive.Regex{Pattern: p.Pattern, Options: "i"}}}
}

func (p Pattern) Match(poi *models.POI) bool {
	re := p.re
	if re == nil {
		var err error
		if re, err = compile(p.Pattern); err != nil {
			return false
		}
	}
	return matchAny(re, fieldValues(poi, p.Field))
}

// AnyPattern matches when any value of Field matches any of Patterns.
type AnyPattern struct {
	Field    string
	Patterns []string
	res      []*regexp.Regexp
}

func NewAnyPattern(field string, patterns []string) AnyPattern {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := compile(p); err == nil {
			res = append(res, re)
		}
	}
	return AnyPattern{Field: field, Patterns: patterns, res: res}
}

func (a AnyPattern) BSON() bson.D {
	in := make(bson.A, 0, len(a.Patterns))
	for _, p := range a.Patterns {
		in = append(in, primitive.Regex{Pattern: p, Options: "i"})
	}
	return bson.D{{Key: a.Field, Value: bson.D{{Key: "$in", Value: in}}}}
}

func (a AnyPattern) Match(poi *models.POI) bool {
	if a.res == nil {
		a = NewAnyPattern(a.Field, a.Patterns)
	}
	values := fieldValues(poi, a.Field)
	for _, re := range a.res {
		if matchAny(re, values) {
			return true
		}
	}
	return false
}

func matchAny(re *regexp.Regexp, values []string) bool {
	for _, v := range values {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}

// Equals is an exact match on one field.
type Equals struct {
	Field string
	Value string
}

func (e Equals) BSON() bson.D {
	return bson.D{{Key: e.Field, Value: e.Value}}
}

func (e Equals) Match(poi *models.POI) bool {
	for _, v := range fieldValues(poi, e.Field) {
		if v == e.Value {
			return true
		}
	}
	return false
}

// Within bounds results to MaxDistance metres around a point.
type Within struct {
	Field       string
	Longitude   float64
	Latitude    float64
	MaxDistance float64
}

func (w Within) BSON() bson.D {
	return bson.D{{Key: w.Field, Value: bson.D{{Key: "$geoWithin", Value: bson.D{
		{Key: "$centerSphere", Value: bson.A{
			bson.A{w.Longitude, w.Latitude},
			w.MaxDistance / maps.EarthRadiusMeters,
		}},
	}}}}}
}

func (w Within) Match(poi *models.POI) bool {
	lng, lat, ok := poi.Location.LngLat()
	if !ok {
		return false
	}
	return maps.HaversineMeters(w.Longitude, w.Latitude, lng, lat) <= w.MaxDistance
}

// Near is the ordering form of Within. The store returns matches nearest
// first, so it is only valid in a fetch, never in a count.
type Near struct {
	Within
}

func (n Near) BSON() bson.D {
	return bson.D{{Key: n.Field, Value: bson.D{{Key: "$near", Value: bson.D{
		{Key: "$geometry", Value: bson.D{
			{Key: "type", Value: "Point"},
			{Key: "coordinates", Value: bson.A{n.Longitude, n.Latitude}},
		}},
		{Key: "$maxDistance", Value: n.MaxDistance},
	}}}}}
}

// nearest finds the ordering node of a tree, if any.
func nearest(p Predicate) (Near, bool) {
	switch v := p.(type) {
	case Near:
		return v, true
	case And:
		for _, c := range v {
			if n, ok := nearest(c); ok {
				return n, true
			}
		}
	}
	return Near{}, false
}

// And requires every child. Children must constrain distinct keys.
type And []Predicate

func (a And) BSON() bson.D {
	d := bson.D{}
	for _, p := range a {
		d = append(d, p.BSON()...)
	}
	return d
}

func (a And) Match(poi *models.POI) bool {
	for _, p := range a {
		if !p.Match(poi) {
			return false
		}
	}
	return true
}

// Or requires at least one child.
type Or []Predicate

func (o Or) BSON() bson.D {
	alts := make(bson.A, 0, len(o))
	for _, p := range o {
		alts = append(alts, p.BSON())
	}
	return bson.D{{Key: "$or", Value: alts}}
}

func (o Or) Match(poi *models.POI) bool {
	for _, p := range o {
		if p.Match(poi) {
			return true
		}
	}
	return false
}

func compile(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + pattern)
}

// fieldValues flattens a dotted field path into the strings stored there.
func fieldValues(poi *models.POI, field string) []string {
	switch field {
	case "name":
		return []string{poi.Name}
	case "dataSource":
		return []string{poi.DataSource}
	case "originalId":
		return []string{poi.OriginalID}
	case "types":
		return poi.Types
	case "shortDescription":
		return []string{poi.ShortDescription}
	case "description":
		return []string{poi.Description}
	case "address.city":
		return []string{poi.Address.City}
	case "address.locality":
		return []string{poi.Address.Locality}
	case "address.postalCode":
		return []string{poi.Address.PostalCode}
	case "address.streetAddress":
		return []string{poi.Address.StreetAddress}
	}
	return nil
}

// sortValue is the comparable form of a field for in-memory ordering,
// byte-wise like the store's default collation.
func sortValue(poi *models.POI, field string) string {
	return strings.Join(fieldValues(poi, field), ",")
}
