package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pnodemon/config"
	"pnodemon/models"
)

const (
	CollectionSnapshots   = "network_snapshots"
	CollectionNodeRecords = "node_records"
)

// MongoStore persists sync output: one snapshot document per run plus
// an upsert-by-address node record collection. Disabled stores are
// valid and no-op, so the rest of the system starts without Mongo.
type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	enabled bool
}

func NewMongoStore(cfg *config.Config) (*MongoStore, error) {
	if !cfg.MongoDB.Enabled {
		log.Println("MongoDB is disabled in configuration")
		return &MongoStore{enabled: false}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	store := &MongoStore{
		client:  client,
		db:      client.Database(cfg.MongoDB.Database),
		enabled: true,
	}

	if err := store.createIndexes(ctx); err != nil {
		log.Printf("Warning: failed to create indexes: %v", err)
	}

	log.Printf("MongoDB connected to database %s", cfg.MongoDB.Database)
	return store, nil
}

func (m *MongoStore) createIndexes(ctx context.Context) error {
	_, err := m.db.Collection(CollectionSnapshots).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("timestamp_desc"),
	})
	if err != nil {
		return err
	}

	_, err = m.db.Collection(CollectionNodeRecords).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "address", Value: 1}},
		Options: options.Index().SetName("address").SetUnique(true),
	})
	return err
}

func (m *MongoStore) Enabled() bool {
	return m != nil && m.enabled
}

func (m *MongoStore) Close() error {
	if !m.Enabled() || m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// InsertSnapshot appends one flattened network snapshot.
func (m *MongoStore) InsertSnapshot(ctx context.Context, snapshot *models.SnapshotRecord) error {
	if !m.Enabled() {
		return nil
	}
	_, err := m.db.Collection(CollectionSnapshots).InsertOne(ctx, snapshot)
	return err
}

// UpsertNodeRecords writes the batch from one sync run, keyed by
// address, and returns how many documents were touched.
func (m *MongoStore) UpsertNodeRecords(ctx context.Context, records []models.NodeRecord) (int64, error) {
	if !m.Enabled() || len(records) == 0 {
		return 0, nil
	}

	writes := make([]mongo.WriteModel, 0, len(records))
	for _, r := range records {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"address": r.Address}).
			SetReplacement(r).
			SetUpsert(true))
	}

	result, err := m.db.Collection(CollectionNodeRecords).BulkWrite(ctx, writes,
		options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount + result.UpsertedCount, nil
}

// RecentSnapshots returns up to limit snapshots, newest first.
func (m *MongoStore) RecentSnapshots(ctx context.Context, limit int64) ([]models.SnapshotRecord, error) {
	if !m.Enabled() {
		return nil, fmt.Errorf("MongoDB not enabled")
	}
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cursor, err := m.db.Collection(CollectionSnapshots).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.SnapshotRecord
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// SnapshotsSince returns snapshots newer than since, oldest first, up
// to limit documents.
func (m *MongoStore) SnapshotsSince(ctx context.Context, since time.Time, limit int64) ([]models.SnapshotRecord, error) {
	if !m.Enabled() {
		return nil, fmt.Errorf("MongoDB not enabled")
	}
	if limit <= 0 {
		limit = 1000
	}

	filter := bson.M{"timestamp": bson.M{"$gte": since.Unix()}}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}).SetLimit(limit)

	cursor, err := m.db.Collection(CollectionSnapshots).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.SnapshotRecord
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}
