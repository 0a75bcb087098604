package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"roadtrip/globals"
	"roadtrip/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

// JWT claims
type Claims struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
	jwt.RegisteredClaims
}

func IssueToken(secret []byte, userID, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		UserID:   userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ValidateJWT verifies an HS256 token, with or without its "Bearer " prefix.
func ValidateJWT(secret []byte, tokenString string) (*Claims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	if tokenString == "" {
		return nil, fmt.Errorf("invalid token")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Identity resolves the caller of trip endpoints. A bearer token wins; the
// plain x-user-id header is accepted when AllowHeader is set.
type Identity struct {
	Secret      []byte
	AllowHeader bool
}

func (id Identity) Require(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		var userID string

		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			claims, err := ValidateJWT(id.Secret, auth)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized: Invalid token.")
				return
			}
			userID = claims.UserID
		} else if id.AllowHeader {
			userID = strings.TrimSpace(r.Header.Get(globals.UserIDHeader))
		}

		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized: No user ID provided.")
			return
		}

		ctx := context.WithValue(r.Context(), globals.UserIDKey, userID)
		next(w, r.WithContext(ctx), ps)
	}
}
