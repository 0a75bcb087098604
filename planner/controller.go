package planner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"roadtrip/apiclient"
	"roadtrip/maps"
	"roadtrip/models"

	"github.com/sirupsen/logrus"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
)

var (
	ErrNotLoggedIn     = errors.New("you must be logged in to manage trips")
	ErrMissingEndpoint = errors.New("origin and destination are required to save a trip")
	ErrTripNotLoaded   = errors.New("saved trip not found")
	ErrUnknownTab      = errors.New("search tab not found")
)

// API is the slice of the backend the planner talks to.
type API interface {
	Search(ctx context.Context, path string, params url.Values) (models.PoiPage, error)
	Register(ctx context.Context, username, password string) (apiclient.AuthResult, error)
	Login(ctx context.Context, username, password string) (apiclient.AuthResult, error)
	SaveTrip(ctx context.Context, session apiclient.Session, trip apiclient.TripRequest) (models.SavedTrip, error)
	Trips(ctx context.Context, session apiclient.Session) ([]models.SavedTrip, error)
	DeleteTrip(ctx context.Context, session apiclient.Session, tripID string) error
}

// Controller serializes planner mutations and runs their backend calls.
// Locks are never held across a network call.
type Controller struct {
	mu    sync.Mutex
	state State
	api   API
	now   func() time.Time
}

func NewController(api API) *Controller {
	return &Controller{api: api, now: time.Now}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

func (c *Controller) SetOrigin(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SetOrigin(name)
}

func (c *Controller) SetDestination(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SetDestination(name)
}

// FetchForOrigin sets the origin and loads its tab with category results.
func (c *Controller) FetchForOrigin(ctx context.Context, name string, category Category, search string) error {
	c.mu.Lock()
	c.state.SetOrigin(name)
	c.mu.Unlock()
	return c.FetchTab(ctx, OriginID, category, search)
}

func (c *Controller) FetchForDestination(ctx context.Context, name string, category Category, search string) error {
	c.mu.Lock()
	c.state.SetDestination(name)
	c.mu.Unlock()
	return c.FetchTab(ctx, DestinationID, category, search)
}

// AddNewSearchLocation opens (or reuses) a custom tab and loads it.
func (c *Controller) AddNewSearchLocation(ctx context.Context, name string, category Category, search string) (string, error) {
	c.mu.Lock()
	id := c.state.AddCustomSearch(name, category)
	c.mu.Unlock()
	if id == "" {
		return "", nil
	}
	return id, c.FetchTab(ctx, id, category, search)
}

// FetchTab loads results into the tab that was id when the call was issued.
// A tab removed while the call is in flight drops its results.
func (c *Controller) FetchTab(ctx context.Context, id string, category Category, search string) error {
	c.mu.Lock()
	t := c.state.tab(id)
	if t == nil {
		c.mu.Unlock()
		return ErrUnknownTab
	}
	name := t.Name
	if strings.TrimSpace(name) == "" {
		c.mu.Unlock()
		return nil
	}
	c.state.BeginFetch(id, category)
	c.mu.Unlock()

	path, params := RequestFor(category, name, search)
	page, err := c.api.Search(ctx, path, params)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		logrus.WithFields(logrus.Fields{"tab": id, "category": category}).WithError(err).Warn("tab fetch failed")
		c.state.FailFetch(id, err.Error())
		return err
	}
	c.state.CompleteFetch(id, page.Pois)
	return nil
}

func (c *Controller) RemoveTab(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.RemoveTab(id)
}

// SelectTab makes id active when it names a tab; reconciliation still applies.
func (c *Controller) SelectTab(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ActiveTabID = id
	c.state.reconcile()
}

func (c *Controller) AddWaypoint(p models.POI) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.AddWaypoint(p)
}

func (c *Controller) RemoveWaypoint(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.RemoveWaypoint(key)
}

func (c *Controller) ReorderWaypoints(keys []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.ReorderWaypoints(keys)
}

// Register creates an account; the user still has to log in.
func (c *Controller) Register(ctx context.Context, username, password string) (apiclient.AuthResult, error) {
	return c.api.Register(ctx, username, password)
}

// Login stores the session and loads the user's saved trips.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	res, err := c.api.Login(ctx, username, password)
	if err != nil {
		return err
	}
	session := res.Session

	c.mu.Lock()
	c.state.User = &session
	c.mu.Unlock()

	return c.LoadSavedTrips(ctx)
}

// Logout drops the session along with everything planned under it.
func (c *Controller) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Reset()
}

func (c *Controller) session() (apiclient.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.User == nil {
		return apiclient.Session{}, ErrNotLoggedIn
	}
	return *c.state.User, nil
}

func (c *Controller) LoadSavedTrips(ctx context.Context) error {
	session, err := c.session()
	if err != nil {
		return err
	}
	trips, err := c.api.Trips(ctx, session)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SavedTrips = trips
	return nil
}

// SaveTrip saves origin, destination and waypoints under name, or under a
// dated default name when name is blank.
func (c *Controller) SaveTrip(ctx context.Context, name string) (models.SavedTrip, error) {
	c.mu.Lock()
	if c.state.User == nil {
		c.mu.Unlock()
		return models.SavedTrip{}, ErrNotLoggedIn
	}
	if c.state.Origin == "" || c.state.Destination == "" {
		c.mu.Unlock()
		return models.SavedTrip{}, ErrMissingEndpoint
	}
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Trip from %s to %s on %s", c.state.Origin, c.state.Destination, c.now().Format("2006-01-02"))
	}
	req := c.state.TripRequest(strings.TrimSpace(name))
	session := *c.state.User
	c.mu.Unlock()

	trip, err := c.api.SaveTrip(ctx, session, req)
	if err != nil {
		return models.SavedTrip{}, err
	}
	return trip, c.LoadSavedTrips(ctx)
}

func (c *Controller) DeleteSavedTrip(ctx context.Context, tripID string) error {
	session, err := c.session()
	if err != nil {
		return err
	}
	if err := c.api.DeleteTrip(ctx, session, tripID); err != nil {
		return err
	}
	return c.LoadSavedTrips(ctx)
}

// LoadSavedTrip restores one of the already listed saved trips.
func (c *Controller) LoadSavedTrip(tripID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, trip := range c.state.SavedTrips {
		if trip.ID.Hex() == tripID {
			c.state.LoadSavedTrip(trip)
			return nil
		}
	}
	return ErrTripNotLoaded
}

func (c *Controller) Markers() []maps.Marker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Markers()
}

func (c *Controller) FeatureCollection() *gjson.FeatureCollection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.FeatureCollection()
}
