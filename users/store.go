package users

import (
	"context"
	"errors"
	"strings"
	"sync"

	"roadtrip/db"
	"roadtrip/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)

// Store persists users together with their saved trips.
type Store interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	SetTrips(ctx context.Context, id primitive.ObjectID, trips []models.SavedTrip) error
}

// NormalizeUsername is the stored and compared form of a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	if coll == nil {
		coll = db.UserCollection
	}
	return &MongoStore{coll: coll}
}

func (s *MongoStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": NormalizeUsername(username)})
}

// FindByID treats an id that is not an ObjectID as a user that does not exist.
func (s *MongoStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if user.SavedTrips == nil {
		user.SavedTrips = []models.SavedTrip{}
	}
	return &user, nil
}

func (s *MongoStore) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.SavedTrips == nil {
		user.SavedTrips = []models.SavedTrip{}
	}
	_, err := s.coll.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrUsernameTaken
	}
	return err
}

func (s *MongoStore) SetTrips(ctx context.Context, id primitive.ObjectID, trips []models.SavedTrip) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"savedTrips": trips}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

type MemoryStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[primitive.ObjectID]models.User)}
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	name := NormalizeUsername(username)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == name {
			return cloneUser(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[oid]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return ErrUsernameTaken
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.SavedTrips == nil {
		user.SavedTrips = []models.SavedTrip{}
	}
	s.users[user.ID] = *cloneUser(*user)
	return nil
}

func (s *MemoryStore) SetTrips(_ context.Context, id primitive.ObjectID, trips []models.SavedTrip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.SavedTrips = append([]models.SavedTrip{}, trips...)
	s.users[id] = u
	return nil
}

func cloneUser(u models.User) *models.User {
	u.SavedTrips = append([]models.SavedTrip{}, u.SavedTrips...)
	return &u
}
