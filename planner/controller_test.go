package planner

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"roadtrip/apiclient"
	"roadtrip/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type call struct {
	path   string
	params url.Values
}

type fakeAPI struct {
	mu       sync.Mutex
	calls    []call
	pages    map[string]models.PoiPage
	err      error
	trips    []models.SavedTrip
	saved    []apiclient.TripRequest
	deleted  []string
	loginErr error
	// hook runs inside Search before it returns.
	hook func()
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{pages: map[string]models.PoiPage{}}
}

func (f *fakeAPI) Search(_ context.Context, path string, params url.Values) (models.PoiPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{path: path, params: params})
	page, err, hook := f.pages[path], f.err, f.hook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return page, err
}

func (f *fakeAPI) Register(_ context.Context, username, _ string) (apiclient.AuthResult, error) {
	return apiclient.AuthResult{Message: "User registered successfully", Session: apiclient.Session{UserID: "u1", Username: username}}, nil
}

func (f *fakeAPI) Login(_ context.Context, username, _ string) (apiclient.AuthResult, error) {
	if f.loginErr != nil {
		return apiclient.AuthResult{}, f.loginErr
	}
	return apiclient.AuthResult{Message: "Login successful", Session: apiclient.Session{UserID: "u1", Username: username, Token: "tok"}}, nil
}

func (f *fakeAPI) SaveTrip(_ context.Context, _ apiclient.Session, trip apiclient.TripRequest) (models.SavedTrip, error) {
	f.saved = append(f.saved, trip)
	saved := models.SavedTrip{ID: primitive.NewObjectID(), Name: trip.Name, Origin: trip.Origin, Destination: trip.Destination, Waypoints: trip.Waypoints}
	f.trips = append(f.trips, saved)
	return saved, nil
}

func (f *fakeAPI) Trips(context.Context, apiclient.Session) ([]models.SavedTrip, error) {
	return append([]models.SavedTrip{}, f.trips...), nil
}

func (f *fakeAPI) DeleteTrip(_ context.Context, _ apiclient.Session, id string) error {
	f.deleted = append(f.deleted, id)
	kept := f.trips[:0]
	for _, t := range f.trips {
		if t.ID.Hex() != id {
			kept = append(kept, t)
		}
	}
	f.trips = kept
	return nil
}

func TestFetchForOriginLoadsTab(t *testing.T) {
	api := newFakeAPI()
	api.pages["/db/search"] = models.PoiPage{Pois: []models.POI{located("a", 2, 48)}}
	c := NewController(api)

	require.NoError(t, c.FetchForOrigin(context.Background(), "Paris", CategoryPoi, "musée"))

	snap := c.Snapshot()
	require.Len(t, snap.Tabs, 1)
	assert.Equal(t, StatusLoaded, snap.Tabs[0].Status())
	assert.Len(t, snap.Tabs[0].Pois, 1)
	require.Len(t, api.calls, 1)
	assert.Equal(t, "Paris", api.calls[0].params.Get("locality"))
	assert.Equal(t, "musée", api.calls[0].params.Get("search"))
}

func TestFetchFailureMarksTab(t *testing.T) {
	api := newFakeAPI()
	api.err = errors.New("POI search /google/bars request failed with status 500: Error fetching bar from Google Places.")
	c := NewController(api)

	err := c.FetchForDestination(context.Background(), "Nice", CategoryBars, "")
	require.Error(t, err)

	tab := c.Snapshot().Tabs[0]
	assert.Equal(t, StatusErrored, tab.Status())
	assert.Equal(t, err.Error(), tab.Error)
	assert.Equal(t, "Nice", api.calls[0].params.Get("location"))
}

func TestResultsForRemovedTabAreDropped(t *testing.T) {
	api := newFakeAPI()
	api.pages["/suggest/enjoy"] = models.PoiPage{Pois: []models.POI{located("a", 2, 48)}}
	c := NewController(api)

	var id string
	api.hook = func() { c.RemoveTab(id) }

	c.mu.Lock()
	id = c.state.AddCustomSearch("Lyon", CategoryEvents)
	c.mu.Unlock()

	require.NoError(t, c.FetchTab(context.Background(), id, CategoryEvents, ""))
	assert.Empty(t, c.Snapshot().Tabs)
	assert.Empty(t, c.Markers())
}

func TestAddNewSearchLocation(t *testing.T) {
	api := newFakeAPI()
	c := NewController(api)

	id, err := c.AddNewSearchLocation(context.Background(), "Lyon", CategoryTransport, "")
	require.NoError(t, err)
	again, err := c.AddNewSearchLocation(context.Background(), "LYON", CategoryTransport, "")
	require.NoError(t, err)

	assert.Equal(t, id, again)
	assert.Equal(t, id, c.Snapshot().ActiveTabID)
	assert.Equal(t, "/suggest/travel", api.calls[1].path)

	assert.ErrorIs(t, c.FetchTab(context.Background(), "custom-nope", CategoryPoi, ""), ErrUnknownTab)
}

func TestTripsRequireLogin(t *testing.T) {
	c := NewController(newFakeAPI())
	c.SetOrigin("Paris")
	c.SetDestination("Nice")

	_, err := c.SaveTrip(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.ErrorIs(t, c.LoadSavedTrips(context.Background()), ErrNotLoggedIn)
	assert.ErrorIs(t, c.DeleteSavedTrip(context.Background(), "x"), ErrNotLoggedIn)
}

func TestSaveLoadDeleteTrip(t *testing.T) {
	api := newFakeAPI()
	c := NewController(api)
	c.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, "alice", "pw"))
	assert.Equal(t, "alice", c.Snapshot().User.Username)

	_, err := c.SaveTrip(ctx, "")
	assert.ErrorIs(t, err, ErrMissingEndpoint)

	c.SetOrigin("Paris")
	c.SetDestination("Nice")
	require.NoError(t, c.AddWaypoint(models.POI{PlaceID: "ChIJ1", Name: "Hotel", DataSource: models.DataSourceGooglePlaces, Location: models.NewPoint(7, 43)}))

	trip, err := c.SaveTrip(ctx, "  ")
	require.NoError(t, err)
	assert.Equal(t, "Trip from Paris to Nice on 2024-05-01", trip.Name)
	assert.Equal(t, "ChIJ1", api.saved[0].Waypoints[0].OriginalID)
	require.Len(t, c.Snapshot().SavedTrips, 1)

	c.Logout()
	assert.Nil(t, c.Snapshot().User)
	assert.Empty(t, c.Snapshot().Tabs)

	require.NoError(t, c.Login(ctx, "alice", "pw"))
	require.NoError(t, c.LoadSavedTrip(trip.ID.Hex()))
	snap := c.Snapshot()
	assert.Equal(t, "Paris", snap.Origin)
	assert.Len(t, snap.Waypoints, 1)
	assert.Len(t, c.FeatureCollection().Features, 1)
	assert.ErrorIs(t, c.LoadSavedTrip("missing"), ErrTripNotLoaded)

	require.NoError(t, c.DeleteSavedTrip(ctx, trip.ID.Hex()))
	assert.Empty(t, c.Snapshot().SavedTrips)
	assert.Equal(t, []string{trip.ID.Hex()}, api.deleted)
}

func TestLoginFailureKeepsLoggedOut(t *testing.T) {
	api := newFakeAPI()
	api.loginErr = &apiclient.RequestError{Service: "User Login", Status: 401, Message: "Invalid credentials (wrong password)."}
	c := NewController(api)

	err := c.Login(context.Background(), "alice", "nope")
	var reqErr *apiclient.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Nil(t, c.Snapshot().User)
}
