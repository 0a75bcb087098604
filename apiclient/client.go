package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"roadtrip/globals"
	"roadtrip/models"

	"github.com/sirupsen/logrus"
)

// Backend endpoints, relative to the /api base.
const (
	PathSearch      = "/db/search"
	PathEnjoy       = "/suggest/enjoy"
	PathTravel      = "/suggest/travel"
	PathHotels      = "/google/hotels"
	PathRestaurants = "/google/restaurants"
	PathBars        = "/google/bars"
	PathRegister    = "/auth/register"
	PathLogin       = "/auth/login"
	PathTrips       = "/trips"
)

// Session identifies a logged-in user on trip calls.
type Session struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

type AuthResult struct {
	Message string `json:"message"`
	Session
}

type TripRequest struct {
	Name        string            `json:"name,omitempty"`
	Origin      string            `json:"origin"`
	Destination string            `json:"destination"`
	Waypoints   []models.Waypoint `json:"waypoints"`
}

// RequestError is a non-2xx answer from the backend.
type RequestError struct {
	Service string
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s request failed with status %d: %s", e.Service, e.Status, e.Message)
}

type Client struct {
	BaseURL string
	Client  *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, service, method, path string, params url.Values, body any, session *Session, out any) error {
	target := c.BaseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if session != nil {
		if session.UserID != "" {
			req.Header.Set(globals.UserIDHeader, session.UserID)
		}
		if session.Token != "" {
			req.Header.Set("Authorization", "Bearer "+session.Token)
		}
	}

	logrus.WithFields(logrus.Fields{"service": service, "method": method, "url": target}).Debug("backend request")
	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", service, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &payload) != nil || payload.Message == "" {
			payload.Message = http.StatusText(resp.StatusCode)
		}
		return &RequestError{Service: service, Status: resp.StatusCode, Message: payload.Message}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// Search calls one of the paginated POI endpoints.
func (c *Client) Search(ctx context.Context, path string, params url.Values) (models.PoiPage, error) {
	var page models.PoiPage
	err := c.do(ctx, "POI search "+path, http.MethodGet, path, params, nil, nil, &page)
	return page, err
}

func (c *Client) Register(ctx context.Context, username, password string) (AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, "User Registration", http.MethodPost, PathRegister, nil,
		map[string]string{"username": username, "password": password}, nil, &res)
	return res, err
}

func (c *Client) Login(ctx context.Context, username, password string) (AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, "User Login", http.MethodPost, PathLogin, nil,
		map[string]string{"username": username, "password": password}, nil, &res)
	return res, err
}

func (c *Client) SaveTrip(ctx context.Context, session Session, trip TripRequest) (models.SavedTrip, error) {
	var res struct {
		Trip models.SavedTrip `json:"trip"`
	}
	err := c.do(ctx, "Save User Trip", http.MethodPost, PathTrips, nil, trip, &session, &res)
	return res.Trip, err
}

func (c *Client) Trips(ctx context.Context, session Session) ([]models.SavedTrip, error) {
	var res struct {
		Trips []models.SavedTrip `json:"trips"`
	}
	if err := c.do(ctx, "Fetch User Saved Trips", http.MethodGet, PathTrips, nil, nil, &session, &res); err != nil {
		return nil, err
	}
	if res.Trips == nil {
		res.Trips = []models.SavedTrip{}
	}
	return res.Trips, nil
}

func (c *Client) DeleteTrip(ctx context.Context, session Session, tripID string) error {
	return c.do(ctx, "Delete User Saved Trip "+tripID, http.MethodDelete, PathTrips+"/"+url.PathEscape(tripID), nil, nil, &session, nil)
}
