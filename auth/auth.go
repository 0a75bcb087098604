package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"roadtrip/middleware"
	"roadtrip/models"
	"roadtrip/users"
	"roadtrip/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 12 * time.Hour

type Handler struct {
	users  users.Store
	secret []byte
}

func NewHandler(store users.Store, secret []byte) *Handler {
	return &Handler{users: store, secret: secret}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func readCredentials(r *http.Request) (credentials, error) {
	var in credentials
	if err := utils.DecodeJSON(r, &in); err != nil {
		return in, utils.ValidationError("Invalid request body.")
	}
	in.Username = users.NormalizeUsername(in.Username)
	if in.Username == "" || in.Password == "" {
		return in, utils.ValidationError("Username and password are required.")
	}
	return in, nil
}

// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	in, err := readCredentials(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	_, err = h.users.FindByUsername(ctx, in.Username)
	switch {
	case err == nil:
		utils.RespondWithError(w, http.StatusBadRequest, "Username already exists.")
		return
	case !errors.Is(err, users.ErrUserNotFound):
		utils.RespondWithAppError(w, utils.StoreError("Error registering user", err))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondWithAppError(w, utils.StoreError("Error registering user", err))
		return
	}

	user := &models.User{Username: in.Username, Password: string(hash)}
	if err := h.users.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrUsernameTaken) {
			utils.RespondWithError(w, http.StatusBadRequest, "Username already exists.")
			return
		}
		utils.RespondWithAppError(w, utils.StoreError("Error registering user", err))
		return
	}

	logrus.WithField("username", user.Username).Info("user registered")
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message":  "User registered successfully",
		"userId":   user.ID.Hex(),
		"username": user.Username,
	})
}

// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	in, err := readCredentials(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.users.FindByUsername(ctx, in.Username)
	if errors.Is(err, users.ErrUserNotFound) {
		utils.RespondWithAppError(w, utils.UnauthorizedError("Invalid credentials (user not found)."))
		return
	}
	if err != nil {
		utils.RespondWithAppError(w, utils.StoreError("Error logging in", err))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		utils.RespondWithAppError(w, utils.UnauthorizedError("Invalid credentials (password incorrect)."))
		return
	}

	token, err := middleware.IssueToken(h.secret, user.ID.Hex(), user.Username, tokenTTL)
	if err != nil {
		utils.RespondWithAppError(w, utils.StoreError("Error logging in", err))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message":  "Login successful",
		"userId":   user.ID.Hex(),
		"username": user.Username,
		"token":    token,
	})
}
