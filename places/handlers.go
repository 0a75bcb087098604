package places

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"roadtrip/models"
	"roadtrip/utils"

	"github.com/julienschmidt/httprouter"
)

// Provider keywords per category.
const (
	KeywordHotels      = "lodging"
	KeywordRestaurants = "restaurant"
	KeywordBars        = "bar"
)

type Handler struct {
	finder Finder
}

func NewHandler(finder Finder) *Handler {
	return &Handler{finder: finder}
}

// GET /api/google/hotels
func (h *Handler) GetHotelSuggestions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.byKeyword(w, r, KeywordHotels)
}

// GET /api/google/restaurants
func (h *Handler) GetRestaurantSuggestions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.byKeyword(w, r, KeywordRestaurants)
}

// GET /api/google/bars
func (h *Handler) GetBarSuggestions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.byKeyword(w, r, KeywordBars)
}

// ComposeQuery turns the request parameters into the provider query and bias.
func ComposeQuery(q url.Values, keyword string) (string, *LocationBias, error) {
	search := strings.TrimSpace(q.Get("search"))
	location := strings.TrimSpace(q.Get("location"))

	lat, hasLat, err := utils.OptionalFloat(q, "latitude")
	if err != nil {
		return "", nil, err
	}
	lng, hasLng, err := utils.OptionalFloat(q, "longitude")
	if err != nil {
		return "", nil, err
	}
	radius, hasRadius, err := utils.OptionalFloat(q, "radius")
	if err != nil {
		return "", nil, err
	}

	withSearch := func(s string) string {
		if search == "" {
			return s
		}
		return search + " " + s
	}

	switch {
	case hasLat && hasLng && hasRadius:
		return withSearch(keyword), &LocationBias{Latitude: lat, Longitude: lng, Radius: int(radius)}, nil
	case location != "":
		return withSearch(keyword + " in " + location), nil, nil
	case search != "":
		return withSearch(keyword), nil, nil
	}
	return "", nil, utils.ValidationError("Please provide a location (text or lat/lng+radius) or a search term.")
}

// Paginate slices an in-memory result list into the shared envelope.
func Paginate(results []models.POI, pg utils.Pagination) models.PoiPage {
	total := int64(len(results))
	page := []models.POI{}
	if start := pg.Skip(); start >= 0 && start < total {
		end := start + int64(pg.Limit)
		if end > total {
			end = total
		}
		page = results[start:end]
	}
	return models.PoiPage{
		TotalPages:  pg.TotalPages(total),
		CurrentPage: pg.Page,
		TotalPois:   total,
		Pois:        page,
	}
}

func (h *Handler) byKeyword(w http.ResponseWriter, r *http.Request, keyword string) {
	q := r.URL.Query()

	query, bias, err := ComposeQuery(q, keyword)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	pg, err := utils.ParsePagination(q)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	results, err := h.finder.FindPlaces(ctx, query, bias)
	if err != nil {
		utils.RespondWithAppError(w, utils.StoreError(fmt.Sprintf("Error fetching %s from Google Places.", keyword), err))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, Paginate(results, pg))
}
