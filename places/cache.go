package places

import (
	"context"
	"time"

	"roadtrip/models"

	"github.com/sirupsen/logrus"
)

// Cache is the subset of rdx.Cache the finder needs.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedFinder memoizes another Finder. Cache failures fall through to it.
type CachedFinder struct {
	next  Finder
	cache Cache
	ttl   time.Duration
}

func NewCachedFinder(next Finder, cache Cache, ttl time.Duration) *CachedFinder {
	return &CachedFinder{next: next, cache: cache, ttl: ttl}
}

func cacheKey(query string, bias *LocationBias) string {
	return query + "|" + bias.String()
}

func (c *CachedFinder) FindPlaces(ctx context.Context, query string, bias *LocationBias) ([]models.POI, error) {
	key := cacheKey(query, bias)

	var cached []models.POI
	found, err := c.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		logrus.WithError(err).Warn("places cache read failed")
	}
	if found {
		return cached, nil
	}

	results, err := c.next.FindPlaces(ctx, query, bias)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetJSON(ctx, key, results, c.ttl); err != nil {
		logrus.WithError(err).Warn("places cache write failed")
	}
	return results, nil
}
