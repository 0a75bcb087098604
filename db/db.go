package db

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	POICollection  *mongo.Collection
	UserCollection *mongo.Collection
	Client         *mongo.Client
)

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, nil
}

// Init connects and binds the package collections to database name.
func Init(ctx context.Context, uri, name string) error {
	client, err := Connect(ctx, uri)
	if err != nil {
		return err
	}
	Client = client
	database := client.Database(name)
	POICollection = database.Collection("pois")
	UserCollection = database.Collection("users")
	logrus.WithField("database", name).Info("connected to MongoDB")
	return EnsureIndexes(ctx)
}

func EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	poiIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "shortDescription", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "address.city", Value: "text"},
				{Key: "address.locality", Value: "text"},
			},
			Options: options.Index().SetName("poi_text").SetDefaultLanguage("french"),
		},
		{
			Keys:    bson.D{{Key: "originalId", Value: 1}, {Key: "dataSource", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "types", Value: 1}}},
		{Keys: bson.D{{Key: "address.city", Value: 1}}},
		{Keys: bson.D{{Key: "address.locality", Value: 1}}},
	}
	if _, err := POICollection.Indexes().CreateMany(ctx, poiIndexes); err != nil {
		return fmt.Errorf("create poi indexes: %w", err)
	}

	userIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := UserCollection.Indexes().CreateOne(ctx, userIndex); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func Disconnect(ctx context.Context) {
	if Client == nil {
		return
	}
	if err := Client.Disconnect(ctx); err != nil {
		logrus.WithError(err).Warn("mongodb disconnect")
	}
}
