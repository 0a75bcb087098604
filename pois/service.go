package pois

import (
	"context"
	"errors"
	"net/url"

	"roadtrip/globals"
	"roadtrip/models"
	"roadtrip/utils"
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Search counts and fetches one page. A store failure in either step fails
// the whole request.
func (s *Service) Search(ctx context.Context, q Query) (models.PoiPage, error) {
	count, err := s.store.Count(ctx, q.Filter())
	if err != nil {
		return models.PoiPage{}, utils.StoreError("Error fetching POIs from custom DB", err)
	}

	found, err := s.store.Find(ctx, q.FetchFilter(), q.FindOptions())
	if err != nil {
		return models.PoiPage{}, utils.StoreError("Error fetching POIs from custom DB", err)
	}
	if found == nil {
		found = []models.POI{}
	}

	return models.PoiPage{
		TotalPages:  q.Pagination.TotalPages(count),
		CurrentPage: q.Pagination.Page,
		TotalPois:   count,
		Pois:        found,
	}, nil
}

// SearchValues parses raw parameters and runs Search.
func (s *Service) SearchValues(ctx context.Context, values url.Values) (models.PoiPage, error) {
	q, err := ParseQuery(values)
	if err != nil {
		return models.PoiPage{}, err
	}
	return s.Search(ctx, q)
}

// Get looks a catalog record up by its original id.
func (s *Service) Get(ctx context.Context, originalID string) (*models.POI, error) {
	filter := And{
		Equals{Field: "originalId", Value: originalID},
		NewPattern("dataSource", globals.CatalogSourcePattern),
	}
	poi, err := s.store.FindOne(ctx, filter)
	if errors.Is(err, ErrNotFound) {
		return nil, utils.NotFoundError("POI not found in custom DB")
	}
	if err != nil {
		return nil, utils.StoreError("Error fetching POI by ID from custom DB", err)
	}
	return poi, nil
}
