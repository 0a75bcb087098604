package trips

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"roadtrip/models"
	"roadtrip/mq"
	"roadtrip/users"
	"roadtrip/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

type Handler struct {
	users users.Store
	bus   mq.Publisher
	now   func() time.Time
}

func NewHandler(store users.Store, bus mq.Publisher) *Handler {
	if bus == nil {
		bus = mq.Noop{}
	}
	return &Handler{users: store, bus: bus, now: time.Now}
}

type saveTripRequest struct {
	Name        string            `json:"name"`
	Origin      string            `json:"origin"`
	Destination string            `json:"destination"`
	Waypoints   []models.Waypoint `json:"waypoints"`
}

// NewTrip applies the defaults a saved trip gets when appended.
func NewTrip(name, origin, destination string, waypoints []models.Waypoint, at time.Time) models.SavedTrip {
	if strings.TrimSpace(name) == "" {
		name = "Trip to " + destination
	}
	if waypoints == nil {
		waypoints = []models.Waypoint{}
	}
	return models.SavedTrip{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Origin:      origin,
		Destination: destination,
		Waypoints:   waypoints,
		CreatedAt:   at.UTC(),
	}
}

func (h *Handler) loadUser(ctx context.Context, r *http.Request, failure string) (*models.User, error) {
	user, err := h.users.FindByID(ctx, utils.GetUserIDFromRequest(r))
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, utils.NotFoundError("User not found.")
	}
	if err != nil {
		return nil, utils.StoreError(failure, err)
	}
	return user, nil
}

// POST /api/trips
func (h *Handler) SaveTrip(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in saveTripRequest
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if in.Origin == "" || in.Destination == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Origin and destination are required to save a trip.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.loadUser(ctx, r, "Error saving trip")
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	trip := NewTrip(in.Name, in.Origin, in.Destination, in.Waypoints, h.now())
	if err := h.users.SetTrips(ctx, user.ID, append(user.SavedTrips, trip)); err != nil {
		utils.RespondWithAppError(w, utils.StoreError("Error saving trip", err))
		return
	}

	mq.Emit(ctx, h.bus, mq.TripSaved, mq.TripEvent{
		UserID:     user.ID.Hex(),
		TripID:     trip.ID.Hex(),
		Name:       trip.Name,
		OccurredAt: trip.CreatedAt,
	})
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"message": "Trip saved successfully", "trip": trip})
}

// GET /api/trips
func (h *Handler) GetTrips(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.loadUser(ctx, r, "Error fetching saved trips")
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	trips := user.SavedTrips
	if trips == nil {
		trips = []models.SavedTrip{}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"trips": trips})
}

// DELETE /api/trips/:tripId
func (h *Handler) DeleteTrip(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tripID := ps.ByName("tripId")
	if !objectIDPattern.MatchString(tripID) {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid trip ID format.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.loadUser(ctx, r, "Error deleting trip")
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	kept := make([]models.SavedTrip, 0, len(user.SavedTrips))
	for _, t := range user.SavedTrips {
		if t.ID.Hex() != tripID {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(user.SavedTrips) {
		utils.RespondWithError(w, http.StatusNotFound, "Trip not found for this user.")
		return
	}

	if err := h.users.SetTrips(ctx, user.ID, kept); err != nil {
		utils.RespondWithAppError(w, utils.StoreError("Error deleting trip", err))
		return
	}

	mq.Emit(ctx, h.bus, mq.TripDeleted, mq.TripEvent{
		UserID:     user.ID.Hex(),
		TripID:     tripID,
		OccurredAt: h.now().UTC(),
	})
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Trip deleted successfully."})
}
