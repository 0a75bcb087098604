package pois

import (
	"context"
	"errors"
	"sort"
	"sync"

	"roadtrip/db"
	"roadtrip/maps"
	"roadtrip/models"
	"roadtrip/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("poi not found")

// FindOptions bounds a fetch. An empty SortBy keeps the store's own order.
type FindOptions struct {
	SortBy string
	Desc   bool
	Skip   int64
	Limit  int64
}

type Store interface {
	Count(ctx context.Context, filter Predicate) (int64, error)
	Find(ctx context.Context, filter Predicate, opts FindOptions) ([]models.POI, error)
	FindOne(ctx context.Context, filter Predicate) (*models.POI, error)
}

// MongoStore reads the POI collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	if coll == nil {
		coll = db.POICollection
	}
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Count(ctx context.Context, filter Predicate) (int64, error) {
	return s.coll.CountDocuments(ctx, filter.BSON())
}

func (s *MongoStore) Find(ctx context.Context, filter Predicate, opts FindOptions) ([]models.POI, error) {
	findOpts := options.Find().SetSkip(opts.Skip)
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.SortBy != "" {
		order := 1
		if opts.Desc {
			order = -1
		}
		findOpts.SetSort(bson.D{{Key: opts.SortBy, Value: order}})
	}
	return utils.FindAndDecode[models.POI](ctx, s.coll, filter.BSON(), findOpts)
}

func (s *MongoStore) FindOne(ctx context.Context, filter Predicate) (*models.POI, error) {
	var poi models.POI
	err := s.coll.FindOne(ctx, filter.BSON()).Decode(&poi)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &poi, nil
}

// MemoryStore evaluates predicates in process. It backs STORE=memory and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	pois []models.POI
}

func NewMemoryStore(seed ...models.POI) *MemoryStore {
	return &MemoryStore{pois: append([]models.POI(nil), seed...)}
}

// Upsert replaces the record with the same (originalId, dataSource) or
// appends it, reporting whether it was new.
func (s *MemoryStore) Upsert(poi models.POI) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pois {
		if s.pois[i].OriginalID == poi.OriginalID && s.pois[i].DataSource == poi.DataSource {
			s.pois[i] = poi
			return false
		}
	}
	s.pois = append(s.pois, poi)
	return true
}

func (s *MemoryStore) Count(ctx context.Context, filter Predicate) (int64, error) {
	matched, err := s.match(ctx, filter)
	return int64(len(matched)), err
}

func (s *MemoryStore) Find(ctx context.Context, filter Predicate, opts FindOptions) ([]models.POI, error) {
	matched, err := s.match(ctx, filter)
	if err != nil {
		return nil, err
	}

	if near, ok := nearest(filter); ok {
		sort.SliceStable(matched, func(i, j int) bool {
			return distanceFrom(near, &matched[i]) < distanceFrom(near, &matched[j])
		})
	} else if opts.SortBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := sortValue(&matched[i], opts.SortBy), sortValue(&matched[j], opts.SortBy)
			if opts.Desc {
				return a > b
			}
			return a < b
		})
	}

	if opts.Skip < 0 || opts.Skip >= int64(len(matched)) {
		return []models.POI{}, nil
	}
	matched = matched[opts.Skip:]
	if opts.Limit > 0 && opts.Limit < int64(len(matched)) {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func (s *MemoryStore) FindOne(ctx context.Context, filter Predicate) (*models.POI, error) {
	matched, err := s.match(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, ErrNotFound
	}
	return &matched[0], nil
}

func (s *MemoryStore) match(ctx context.Context, filter Predicate) ([]models.POI, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []models.POI{}
	for i := range s.pois {
		if filter.Match(&s.pois[i]) {
			matched = append(matched, s.pois[i])
		}
	}
	return matched, nil
}

func distanceFrom(n Near, poi *models.POI) float64 {
	lng, lat, _ := poi.Location.LngLat()
	return maps.HaversineMeters(n.Longitude, n.Latitude, lng, lat)
}
