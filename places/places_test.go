package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"roadtrip/models"
	"roadtrip/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmaps "googlemaps.github.io/maps"
)

type stubFinder struct {
	results []models.POI
	err     error
	calls   int
	query   string
	bias    *LocationBias
}

func (s *stubFinder) FindPlaces(_ context.Context, query string, bias *LocationBias) ([]models.POI, error) {
	s.calls++
	s.query, s.bias = query, bias
	return s.results, s.err
}

func values(raw string) url.Values {
	v, _ := url.ParseQuery(raw)
	return v
}

func TestComposeQuery(t *testing.T) {
	q, bias, err := ComposeQuery(values("latitude=48.85&longitude=2.35&radius=1500&search=cheap"), KeywordHotels)
	require.NoError(t, err)
	assert.Equal(t, "cheap lodging", q)
	assert.Equal(t, "circle:1500@48.85,2.35", bias.String())

	q, bias, err = ComposeQuery(values("location=Lyon"), KeywordRestaurants)
	require.NoError(t, err)
	assert.Equal(t, "restaurant in Lyon", q)
	assert.Nil(t, bias)

	q, _, err = ComposeQuery(values("location=Lyon&search=vegan"), KeywordRestaurants)
	require.NoError(t, err)
	assert.Equal(t, "vegan restaurant in Lyon", q)

	q, _, err = ComposeQuery(values("search=rooftop"), KeywordBars)
	require.NoError(t, err)
	assert.Equal(t, "rooftop bar", q)

	_, _, err = ComposeQuery(values("latitude=48.85"), KeywordBars)
	assert.EqualError(t, err, "Please provide a location (text or lat/lng+radius) or a search term.")
}

func manyPlaces(n int) []models.POI {
	out := make([]models.POI, n)
	for i := range out {
		out[i] = models.POI{PlaceID: fmt.Sprintf("g%d", i), DataSource: models.DataSourceGooglePlaces}
	}
	return out
}

func serve(h *Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.GetHotelSuggestions(rec, httptest.NewRequest(http.MethodGet, target, nil), nil)
	return rec
}

func TestHandlerPaginatesClientSide(t *testing.T) {
	finder := &stubFinder{results: manyPlaces(25)}
	rec := serve(NewHandler(finder), "/api/google/hotels?location=Paris&page=2&limit=20")
	require.Equal(t, http.StatusOK, rec.Code)

	var page models.PoiPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, int64(25), page.TotalPois)
	require.Len(t, page.Pois, 5)
	assert.Equal(t, "g20", page.Pois[0].PlaceID)
	assert.Equal(t, "lodging in Paris", finder.query)
}

func TestHandlerRejectsOverflowingPage(t *testing.T) {
	finder := &stubFinder{results: manyPlaces(3)}
	rec := serve(NewHandler(finder), "/api/google/hotels?location=Paris&page=9223372036854775807&limit=2")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, finder.calls)

	rec = serve(NewHandler(finder), "/api/google/hotels?location=Paris&page=1000000&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var page models.PoiPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Empty(t, page.Pois)
	assert.Equal(t, int64(3), page.TotalPois)
}

func TestPaginateIgnoresNegativeOffset(t *testing.T) {
	page := Paginate(manyPlaces(3), utils.Pagination{Page: math.MaxInt, Limit: 2})
	assert.Empty(t, page.Pois)
	assert.Equal(t, int64(3), page.TotalPois)
}

func TestHandlerEmptyResults(t *testing.T) {
	rec := serve(NewHandler(&stubFinder{}), "/api/google/hotels?search=x")
	var page models.PoiPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 0, page.TotalPages)
	assert.Empty(t, page.Pois)
}

func TestHandlerErrors(t *testing.T) {
	rec := serve(NewHandler(&stubFinder{}), "/api/google/hotels")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(NewHandler(&stubFinder{err: errors.New("OVER_QUERY_LIMIT")}), "/api/google/hotels?location=Paris")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Error fetching lodging from Google Places.","error":"OVER_QUERY_LIMIT"}`, rec.Body.String())
}

type mapCache struct {
	data map[string][]byte
	fail bool
}

func (m *mapCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	if m.fail {
		return false, errors.New("cache down")
	}
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *mapCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	if m.fail {
		return errors.New("cache down")
	}
	raw, err := json.Marshal(value)
	m.data[key] = raw
	return err
}

func TestCachedFinder(t *testing.T) {
	next := &stubFinder{results: manyPlaces(2)}
	cached := NewCachedFinder(next, &mapCache{data: map[string][]byte{}}, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := cached.FindPlaces(context.Background(), "bar in Lyon", nil)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	}
	assert.Equal(t, 1, next.calls)

	_, err := cached.FindPlaces(context.Background(), "bar in Lyon", &LocationBias{Latitude: 1, Longitude: 2, Radius: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedFinderFallsThrough(t *testing.T) {
	next := &stubFinder{results: manyPlaces(1)}
	cached := NewCachedFinder(next, &mapCache{fail: true}, time.Minute)
	got, err := cached.FindPlaces(context.Background(), "bar", nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFromGoogle(t *testing.T) {
	open := true
	poi := fromGoogle(gmaps.PlacesSearchResult{
		PlaceID:          "ChIJ123",
		Name:             "Hotel Lutetia",
		FormattedAddress: "45 Bd Raspail, 75006 Paris, France",
		Geometry:         gmaps.AddressGeometry{Location: gmaps.LatLng{Lat: 48.851, Lng: 2.327}},
		Types:            []string{"lodging"},
		Rating:           4.6,
		OpeningHours:     &gmaps.OpeningHours{OpenNow: &open},
	})

	assert.Equal(t, models.DataSourceGooglePlaces, poi.DataSource)
	assert.Equal(t, "ChIJ123", poi.ProvenanceKey())
	assert.Equal(t, "45 Bd Raspail", poi.Address.City)
	lng, lat, ok := poi.Location.LngLat()
	require.True(t, ok)
	assert.Equal(t, 2.327, lng)
	assert.Equal(t, 48.851, lat)
	require.NotNil(t, poi.OpenNow)
	assert.True(t, *poi.OpenNow)
}
