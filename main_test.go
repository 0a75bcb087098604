package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"roadtrip/autocom"
	"roadtrip/config"
	"roadtrip/models"
	"roadtrip/mq"
	"roadtrip/places"
	"roadtrip/pois"
	"roadtrip/ratelim"
	"roadtrip/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(cfg config.Config) http.Handler {
	localities := autocom.NewMemoryIndex()
	_ = localities.Add(context.Background(), "Paris", "Pau", "Lyon")
	s := stores{
		pois: pois.NewMemoryStore(models.POI{
			OriginalID: "p1", DataSource: "datatourisme-lieux", Name: "Louvre",
			Types: []string{"Museum"}, Address: models.Address{City: "Paris"},
		}),
		users:      users.NewMemoryStore(),
		localities: localities,
	}
	return setupRouter(cfg, s, places.Unconfigured{}, mq.Noop{}, ratelim.NewRateLimiter(100))
}

func call(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestEndToEndTripFlow(t *testing.T) {
	h := testServer(config.Config{JWTSecret: "s", AuthHeaderIdentity: true})

	code, body := call(t, h, http.MethodPost, "/api/auth/register", `{"username":"Eve","password":"pw"}`, nil)
	require.Equal(t, http.StatusCreated, code)
	userID := body["userId"].(string)

	code, body = call(t, h, http.MethodPost, "/api/auth/login", `{"username":"eve","password":"pw"}`, nil)
	require.Equal(t, http.StatusOK, code)
	token := body["token"].(string)

	code, _ = call(t, h, http.MethodPost, "/api/trips", `{"origin":"Paris","destination":"Lyon"}`,
		map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusCreated, code)

	code, body = call(t, h, http.MethodGet, "/api/trips", "", map[string]string{"x-user-id": userID})
	require.Equal(t, http.StatusOK, code)
	trips := body["trips"].([]any)
	require.Len(t, trips, 1)
	assert.Equal(t, "Trip to Lyon", trips[0].(map[string]any)["name"])
}

func TestHeaderIdentityCanBeDisabled(t *testing.T) {
	h := testServer(config.Config{JWTSecret: "s", AuthHeaderIdentity: false})
	code, _ := call(t, h, http.MethodGet, "/api/trips", "", map[string]string{"x-user-id": "0123456789abcdef01234567"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCatalogAndPlacesWired(t *testing.T) {
	h := testServer(config.Config{JWTSecret: "s"})

	code, body := call(t, h, http.MethodGet, "/api/db/search?city=paris", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["totalPois"])

	code, body = call(t, h, http.MethodGet, "/api/google/bars?location=Paris", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["totalPages"])

	code, body = call(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestLocalitySuggestionsWired(t *testing.T) {
	h := testServer(config.Config{JWTSecret: "s"})

	code, body := call(t, h, http.MethodGet, "/api/db/localities?q=pa", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"Paris", "Pau"}, body["localities"])
}
