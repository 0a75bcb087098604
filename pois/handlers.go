package pois

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"roadtrip/maps"
	"roadtrip/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GET /api/db/search
func (h *Handler) GetPois(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.search(w, r, r.URL.Query())
}

// GET /api/suggest/enjoy
func (h *Handler) GetEnjoySuggestions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.search(w, r, WithDefaultTypes(r.URL.Query(), EnjoyTypes))
}

// GET /api/suggest/travel
func (h *Handler) GetTravelSuggestions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.search(w, r, WithDefaultTypes(r.URL.Query(), TravelTypes))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request, values url.Values) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	page, err := h.svc.SearchValues(ctx, values)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, page)
}

// GET /api/db/pois/:id
func (h *Handler) GetPoiByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := ps.ByName("id")
	if decoded, err := url.PathUnescape(id); err == nil {
		id = decoded
	}

	poi, err := h.svc.Get(ctx, id)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, poi)
}

// GET /api/maps/pois renders a search page as GeoJSON.
func (h *Handler) GetPoiFeatures(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	page, err := h.svc.SearchValues(ctx, r.URL.Query())
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	markers := make([]maps.Marker, 0, len(page.Pois))
	for _, p := range page.Pois {
		if m, ok := maps.MarkerFor(p); ok {
			markers = append(markers, m)
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, maps.FeatureCollection(markers))
}
