package routes

import (
	"net/http"

	"roadtrip/auth"
	"roadtrip/autocom"
	"roadtrip/middleware"
	"roadtrip/places"
	"roadtrip/pois"
	"roadtrip/ratelim"
	"roadtrip/trips"
	"roadtrip/utils"

	"github.com/julienschmidt/httprouter"
)

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "ok"})
}

func AddHealthRoutes(router *httprouter.Router) {
	router.GET("/health", Index)
}

func AddPoiRoutes(router *httprouter.Router, h *pois.Handler) {
	router.GET("/api/db/search", h.GetPois)
	router.GET("/api/db/pois/:id", h.GetPoiByID)
	router.GET("/api/suggest/enjoy", h.GetEnjoySuggestions)
	router.GET("/api/suggest/travel", h.GetTravelSuggestions)
	router.GET("/api/maps/pois", h.GetPoiFeatures)
}

func AddLocalityRoutes(router *httprouter.Router, h *autocom.Handler) {
	router.GET("/api/db/localities", h.SuggestLocalities)
}

func AddPlaceRoutes(router *httprouter.Router, h *places.Handler) {
	router.GET("/api/google/hotels", h.GetHotelSuggestions)
	router.GET("/api/google/restaurants", h.GetRestaurantSuggestions)
	router.GET("/api/google/bars", h.GetBarSuggestions)
}

func AddAuthRoutes(router *httprouter.Router, h *auth.Handler, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rateLimiter.Limit(h.Register))
	router.POST("/api/auth/login", rateLimiter.Limit(h.Login))
}

func AddTripRoutes(router *httprouter.Router, h *trips.Handler, identity middleware.Identity) {
	router.POST("/api/trips", identity.Require(h.SaveTrip))
	router.GET("/api/trips", identity.Require(h.GetTrips))
	router.DELETE("/api/trips/:tripId", identity.Require(h.DeleteTrip))
}
