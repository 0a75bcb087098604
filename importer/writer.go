package importer

import (
	"context"
	"time"

	"roadtrip/db"
	"roadtrip/models"
	"roadtrip/pois"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type WriteResult struct {
	Upserted int64
	Modified int64
}

// Writer persists a batch keyed by (originalId, dataSource).
type Writer interface {
	Write(ctx context.Context, batch []models.POI) (WriteResult, error)
}

type MongoWriter struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoWriter(coll *mongo.Collection) *MongoWriter {
	if coll == nil {
		coll = db.POICollection
	}
	return &MongoWriter{coll: coll, now: time.Now}
}

func (w *MongoWriter) Write(ctx context.Context, batch []models.POI) (WriteResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	stamp := w.now().UTC()
	ops := make([]mongo.WriteModel, 0, len(batch))
	for _, poi := range batch {
		poi.LastUpdateInternal = stamp
		ops = append(ops, mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "originalId", Value: poi.OriginalID}, {Key: "dataSource", Value: poi.DataSource}}).
			SetUpdate(bson.D{{Key: "$set", Value: poi}}).
			SetUpsert(true))
	}

	res, err := w.coll.BulkWrite(ctx, ops, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Upserted: res.UpsertedCount, Modified: res.ModifiedCount}, nil
}

// MemoryWriter loads batches into an in-process catalog.
type MemoryWriter struct {
	Store *pois.MemoryStore
}

func (w MemoryWriter) Write(_ context.Context, batch []models.POI) (WriteResult, error) {
	var out WriteResult
	for _, poi := range batch {
		if w.Store.Upsert(poi) {
			out.Upserted++
		} else {
			out.Modified++
		}
	}
	return out, nil
}
