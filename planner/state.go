package planner

import (
	"errors"
	"strings"

	"roadtrip/apiclient"
	"roadtrip/maps"
	"roadtrip/models"
	"roadtrip/utils"

	gjson "github.com/twpayne/go-geom/encoding/geojson"
)

type Category string

const (
	CategoryPoi         Category = "poi"
	CategoryHotels      Category = "hotels"
	CategoryRestaurants Category = "restaurants"
	CategoryBars        Category = "bars"
	CategoryEvents      Category = "events"
	CategoryTransport   Category = "transport"
)

// ParseCategory maps free text onto a category, falling back to poi.
func ParseCategory(s string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryHotels, CategoryRestaurants, CategoryBars, CategoryEvents, CategoryTransport:
		return c
	}
	return CategoryPoi
}

// Reserved tab ids.
const (
	OriginID      = "origin"
	DestinationID = "destination"
)

const customPrefix = "custom-"

var (
	ErrNoWaypointKey = errors.New("waypoint is missing originalId or placeId")
	ErrBadOrder      = errors.New("new order must list every current waypoint exactly once")
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusErrored Status = "errored"
)

// Tab is one named search context with its own results.
type Tab struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Category  Category     `json:"category"`
	Pois      []models.POI `json:"pois"`
	IsLoading bool         `json:"isLoading"`
	Error     string       `json:"error,omitempty"`
	Loaded    bool         `json:"loaded"`
}

func (t Tab) Status() Status {
	switch {
	case t.IsLoading:
		return StatusLoading
	case t.Error != "":
		return StatusErrored
	case t.Loaded:
		return StatusLoaded
	}
	return StatusIdle
}

func (t Tab) named() bool { return strings.TrimSpace(t.Name) != "" }

func isReserved(id string) bool { return id == OriginID || id == DestinationID }

// State is everything the planner UI renders from.
type State struct {
	Origin      string             `json:"origin"`
	Destination string             `json:"destination"`
	Tabs        []Tab              `json:"tabs"`
	ActiveTabID string             `json:"activeTabId"`
	Waypoints   []models.POI       `json:"waypoints"`
	SavedTrips  []models.SavedTrip `json:"savedTrips"`
	User        *apiclient.Session `json:"user,omitempty"`
}

// ReconcileActive returns the tab that should be active: active itself when
// it names a present, named tab, else origin, destination, the first named
// custom tab, the first named tab, or nothing.
func ReconcileActive(tabs []Tab, active string) string {
	for _, t := range tabs {
		if t.ID == active && active != "" && t.named() {
			return active
		}
	}
	for _, id := range []string{OriginID, DestinationID} {
		for _, t := range tabs {
			if t.ID == id && t.named() {
				return id
			}
		}
	}
	for _, t := range tabs {
		if !isReserved(t.ID) && t.named() {
			return t.ID
		}
	}
	for _, t := range tabs {
		if t.named() {
			return t.ID
		}
	}
	return ""
}

// MapPois merges every tab's results with the waypoints, keeping the first
// item per provenance key and only items that can be placed on a map.
func MapPois(tabs []Tab, waypoints []models.POI) []models.POI {
	seen := make(map[string]bool)
	out := []models.POI{}
	add := func(p models.POI) {
		key := p.ProvenanceKey()
		if _, _, ok := p.Location.LngLat(); !ok || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, p)
	}
	for _, t := range tabs {
		for _, p := range t.Pois {
			add(p)
		}
	}
	for _, w := range waypoints {
		add(w)
	}
	return out
}

func (s *State) reconcile() {
	s.ActiveTabID = ReconcileActive(s.Tabs, s.ActiveTabID)
}

func (s *State) tab(id string) *Tab {
	for i := range s.Tabs {
		if s.Tabs[i].ID == id {
			return &s.Tabs[i]
		}
	}
	return nil
}

func (s *State) category(id string) Category {
	if t := s.tab(id); t != nil && t.Category != "" {
		return t.Category
	}
	return CategoryPoi
}

// SetOrigin handles an edit of the origin field.
func (s *State) SetOrigin(name string) {
	name = strings.TrimSpace(name)
	s.Origin = name
	s.setReserved(OriginID, name, s.category(OriginID))
}

// SetDestination handles an edit of the destination field.
func (s *State) SetDestination(name string) {
	name = strings.TrimSpace(name)
	s.Destination = name
	s.setReserved(DestinationID, name, s.category(DestinationID))
}

func (s *State) setReserved(id, name string, category Category) {
	if name == "" {
		if t := s.tab(id); t != nil {
			*t = Tab{ID: id, Category: t.Category, Pois: []models.POI{}}
		}
		s.reconcile()
		return
	}
	s.upsertReserved(id, name, category)
	s.ActiveTabID = id
	s.reconcile()
}

// upsertReserved keeps fetched results only when both name and category are unchanged.
func (s *State) upsertReserved(id, name string, category Category) {
	if t := s.tab(id); t != nil {
		if t.Name != name || t.Category != category {
			*t = Tab{ID: id, Name: name, Category: category, Pois: []models.POI{}}
		}
		return
	}

	fresh := Tab{ID: id, Name: name, Category: category, Pois: []models.POI{}}
	rest := make([]Tab, 0, len(s.Tabs)+1)
	switch id {
	case OriginID:
		rest = append(rest, fresh)
		rest = append(rest, s.Tabs...)
	case DestinationID:
		if o := s.tab(OriginID); o != nil {
			rest = append(rest, *o, fresh)
		} else {
			rest = append(rest, fresh)
		}
		for _, t := range s.Tabs {
			if t.ID != OriginID {
				rest = append(rest, t)
			}
		}
	}
	s.Tabs = rest
}

// AddCustomSearch reuses a custom tab with the same name and category or
// creates one, and makes it active. It returns the tab id.
func (s *State) AddCustomSearch(name string, category Category) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	for _, t := range s.Tabs {
		if !isReserved(t.ID) && t.Category == category && strings.EqualFold(t.Name, name) {
			s.ActiveTabID = t.ID
			return t.ID
		}
	}
	id := customPrefix + utils.GetUUID()
	s.Tabs = append(s.Tabs, Tab{ID: id, Name: name, Category: category, Pois: []models.POI{}})
	s.ActiveTabID = id
	return id
}

func (s *State) RemoveTab(id string) {
	kept := s.Tabs[:0:0]
	for _, t := range s.Tabs {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.Tabs = kept
	switch id {
	case OriginID:
		s.Origin = ""
	case DestinationID:
		s.Destination = ""
	}
	s.reconcile()
}

// BeginFetch moves a tab to loading and clears its results.
func (s *State) BeginFetch(id string, category Category) bool {
	t := s.tab(id)
	if t == nil {
		return false
	}
	t.Category = category
	t.Pois = []models.POI{}
	t.IsLoading = true
	t.Error = ""
	t.Loaded = false
	return true
}

// CompleteFetch stores results; results for a tab that is gone are dropped.
func (s *State) CompleteFetch(id string, pois []models.POI) bool {
	t := s.tab(id)
	if t == nil {
		return false
	}
	if pois == nil {
		pois = []models.POI{}
	}
	t.Pois = pois
	t.IsLoading = false
	t.Error = ""
	t.Loaded = true
	return true
}

func (s *State) FailFetch(id, msg string) bool {
	t := s.tab(id)
	if t == nil {
		return false
	}
	t.Pois = []models.POI{}
	t.IsLoading = false
	t.Error = msg
	t.Loaded = false
	return true
}

func (s *State) AddWaypoint(p models.POI) error {
	key := p.ProvenanceKey()
	if key == "" {
		return ErrNoWaypointKey
	}
	for _, w := range s.Waypoints {
		if w.ProvenanceKey() == key {
			return nil
		}
	}
	s.Waypoints = append(s.Waypoints, p)
	return nil
}

func (s *State) RemoveWaypoint(key string) {
	kept := s.Waypoints[:0:0]
	for _, w := range s.Waypoints {
		if w.ProvenanceKey() != key {
			kept = append(kept, w)
		}
	}
	s.Waypoints = kept
}

// ReorderWaypoints rearranges waypoints to follow keys.
func (s *State) ReorderWaypoints(keys []string) error {
	if len(keys) != len(s.Waypoints) {
		return ErrBadOrder
	}
	byKey := make(map[string]models.POI, len(s.Waypoints))
	for _, w := range s.Waypoints {
		byKey[w.ProvenanceKey()] = w
	}
	ordered := make([]models.POI, 0, len(keys))
	for _, k := range keys {
		w, ok := byKey[k]
		if !ok {
			return ErrBadOrder
		}
		delete(byKey, k)
		ordered = append(ordered, w)
	}
	s.Waypoints = ordered
	return nil
}

// LoadSavedTrip replaces the search context with a saved trip's.
func (s *State) LoadSavedTrip(trip models.SavedTrip) {
	s.Origin = trip.Origin
	s.Destination = trip.Destination

	s.Waypoints = make([]models.POI, 0, len(trip.Waypoints))
	for _, w := range trip.Waypoints {
		s.Waypoints = append(s.Waypoints, waypointPOI(w))
	}

	s.Tabs = []Tab{}
	if trip.Origin != "" {
		s.Tabs = append(s.Tabs, Tab{ID: OriginID, Name: trip.Origin, Category: CategoryPoi, Pois: []models.POI{}})
	}
	if trip.Destination != "" {
		s.Tabs = append(s.Tabs, Tab{ID: DestinationID, Name: trip.Destination, Category: CategoryPoi, Pois: []models.POI{}})
	}
	s.reconcile()
}

// Reset is the logged-out, empty planner.
func (s *State) Reset() {
	*s = State{}
}

// TripRequest captures the current trip for saving.
func (s *State) TripRequest(name string) apiclient.TripRequest {
	wps := make([]models.Waypoint, 0, len(s.Waypoints))
	for _, w := range s.Waypoints {
		id := w.OriginalID
		if id == "" {
			id = w.PlaceID
		}
		wps = append(wps, models.Waypoint{OriginalID: id, Name: w.Name, DataSource: w.DataSource, Location: w.Location})
	}
	return apiclient.TripRequest{Name: name, Origin: s.Origin, Destination: s.Destination, Waypoints: wps}
}

func waypointPOI(w models.Waypoint) models.POI {
	return models.POI{
		OriginalID: w.OriginalID,
		PlaceID:    w.OriginalID,
		Name:       w.Name,
		DataSource: w.DataSource,
		Location:   w.Location,
	}
}

// Markers is MapPois as map markers, waypoints flagged.
func (s *State) Markers() []maps.Marker {
	isWaypoint := make(map[string]bool, len(s.Waypoints))
	for _, w := range s.Waypoints {
		isWaypoint[w.ProvenanceKey()] = true
	}
	var out []maps.Marker
	for _, p := range MapPois(s.Tabs, s.Waypoints) {
		if m, ok := maps.MarkerFor(p); ok {
			m.Waypoint = isWaypoint[m.Key]
			out = append(out, m)
		}
	}
	return out
}

func (s *State) FeatureCollection() *gjson.FeatureCollection {
	return maps.FeatureCollection(s.Markers())
}

// Clone deep-copies the slices a caller could mutate.
func (s State) Clone() State {
	out := s
	out.Tabs = make([]Tab, len(s.Tabs))
	for i, t := range s.Tabs {
		t.Pois = append([]models.POI(nil), t.Pois...)
		out.Tabs[i] = t
	}
	out.Waypoints = append([]models.POI(nil), s.Waypoints...)
	out.SavedTrips = append([]models.SavedTrip(nil), s.SavedTrips...)
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}
