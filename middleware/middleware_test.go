package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roadtrip/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func echoUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"userId": utils.GetUserIDFromRequest(r)})
}

func serve(h httprouter.Handle, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, r, nil)
	return rec
}

func TestRequireMissingIdentity(t *testing.T) {
	id := Identity{Secret: secret, AllowHeader: true}
	rec := serve(id.Require(echoUser), httptest.NewRequest(http.MethodGet, "/trips", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Unauthorized: No user ID provided."}`, rec.Body.String())
}

func TestRequireHeaderIdentity(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/trips", nil)
	r.Header.Set("x-user-id", "abc123")

	rec := serve(Identity{Secret: secret, AllowHeader: true}.Require(echoUser), r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"userId":"abc123"}`, rec.Body.String())

	rec = serve(Identity{Secret: secret}.Require(echoUser), r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireTokenWinsOverHeader(t *testing.T) {
	token, err := IssueToken(secret, "from-token", "alice", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/trips", nil)
	r.Header.Set("x-user-id", "from-header")
	r.Header.Set("Authorization", "Bearer "+token)

	rec := serve(Identity{Secret: secret, AllowHeader: true}.Require(echoUser), r)
	assert.JSONEq(t, `{"userId":"from-token"}`, rec.Body.String())
}

func TestRequireRejectsBadTokens(t *testing.T) {
	expired, err := IssueToken(secret, "u1", "alice", -time.Minute)
	require.NoError(t, err)
	forged, err := IssueToken([]byte("other"), "u1", "alice", time.Hour)
	require.NoError(t, err)

	for _, token := range []string{expired, forged, "garbage"} {
		r := httptest.NewRequest(http.MethodGet, "/trips", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		rec := serve(Identity{Secret: secret, AllowHeader: true}.Require(echoUser), r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestLoggingSetsRequestID(t *testing.T) {
	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
