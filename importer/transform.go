package importer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"roadtrip/models"
)

// Item is one decoded @graph node.
type Item map[string]any

// Transform turns an item into a POI. A nil POI with a nil error means the
// item is deliberately skipped.
type Transform func(Item) (*models.POI, error)

const preferredLanguage = "fr"

var errMissingID = errors.New("item missing @id")

func (it Item) id() string {
	s, _ := it["@id"].(string)
	return s
}

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// localized picks the preferred language value of a JSON-LD literal, which
// may be a plain string, a {@value, @language} object, or a list of those.
func localized(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		s, _ := val["@value"].(string)
		return s
	case []any:
		for _, entry := range val {
			if m := object(entry); m != nil && m["@language"] == preferredLanguage {
				s, _ := m["@value"].(string)
				return s
			}
		}
		if len(val) > 0 {
			if m := object(val[0]); m != nil {
				s, _ := m["@value"].(string)
				return s
			}
		}
	}
	return ""
}

// scalar reads a string or number, unwrapping {@value} and taking the first list entry.
func scalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case map[string]any:
		return scalar(val["@value"])
	case []any:
		if len(val) > 0 {
			return scalar(val[0])
		}
	}
	return ""
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

func geoPoint(geo map[string]any) *models.GeoPoint {
	if geo == nil {
		return nil
	}
	lat, latOK := parseFloat(scalar(geo["schema:latitude"]))
	lon, lonOK := parseFloat(scalar(geo["schema:longitude"]))
	if !latOK || !lonOK {
		parts := strings.Split(scalar(geo["latlon"]), "#")
		if len(parts) != 2 {
			return nil
		}
		lat, latOK = parseFloat(parts[0])
		lon, lonOK = parseFloat(parts[1])
		if !latOK || !lonOK {
			return nil
		}
	}
	return models.NewPoint(lon, lat)
}

func cleanTypes(v any) []string {
	list, _ := v.([]any)
	types := []string{}
	for _, raw := range list {
		s, _ := raw.(string)
		s = strings.ReplaceAll(s, "schema:", "")
		s = strings.ReplaceAll(s, "urn:resource", "")
		if s == "" || s == "PointOfInterest" || s == "PlaceOfInterest" {
			continue
		}
		types = append(types, s)
	}
	return types
}

func sourceTimestamp(it Item) *time.Time {
	raw := scalar(it["lastUpdateDatatourisme"])
	if raw == "" {
		raw = scalar(it["lastUpdate"])
	}
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// TransformLieu maps a catalog place record.
func TransformLieu(it Item) (*models.POI, error) {
	id := it.id()
	if id == "" {
		return nil, errMissingID
	}
	name := localized(it["rdfs:label"])
	if name == "" {
		return nil, fmt.Errorf("item %s missing name", id)
	}

	locatedAt := object(it["isLocatedAt"])
	addr := object(locatedAt["schema:address"])
	if addr == nil {
		return nil, fmt.Errorf("item %s missing essential isLocatedAt or schema:address information", id)
	}

	locality := scalar(addr["schema:addressLocality"])
	city := locality
	if c := object(addr["hasAddressCity"]); c != nil {
		city = localized(c["rdfs:label"])
	}
	if locality == "" && city == "" {
		return nil, fmt.Errorf("item %s missing both locality and city in address", id)
	}

	street := scalar(addr["schema:streetAddress"])
	if lines, ok := addr["schema:streetAddress"].([]any); ok {
		parts := make([]string, 0, len(lines))
		for _, l := range lines {
			parts = append(parts, scalar(l))
		}
		street = strings.Join(parts, ", ")
	}

	short := localized(it["rdfs:comment"])
	if top := object(it["owl_topObjectProperty"]); top != nil && top["shortDescription"] != nil {
		short = localized(top["shortDescription"])
	}
	description := localized(it["rdfs:comment"])
	if description == short {
		description = ""
	}

	return &models.POI{
		OriginalID:       id,
		DataSource:       models.DataSourceCatalogLieux,
		Name:             name,
		Types:            cleanTypes(it["@type"]),
		ShortDescription: short,
		Description:      description,
		Address: models.Address{
			StreetAddress: street,
			PostalCode:    scalar(addr["schema:postalCode"]),
			Locality:      locality,
			City:          city,
		},
		Location:         geoPoint(object(locatedAt["schema:geo"])),
		LastUpdateSource: sourceTimestamp(it),
	}, nil
}

// TransformUnsupported validates the item and skips it; event and product
// records have no mapping yet.
func TransformUnsupported(it Item) (*models.POI, error) {
	if it.id() == "" {
		return nil, errMissingID
	}
	return nil, nil
}
