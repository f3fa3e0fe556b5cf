package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lanebid/drayage-portal/internal/infra/resilience"
	"github.com/lanebid/drayage-portal/internal/port"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// MongoOptions configures the MongoDB backend.
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

type mongoDocument struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Mongo stores each document as one record keyed by _id.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	guard  *resilience.Guard
	logger *zap.Logger
}

// NewMongo connects to MongoDB and verifies the connection.
func NewMongo(ctx context.Context, opts MongoOptions, cfg resilience.Config, logger *zap.Logger) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	collection := opts.Collection
	if collection == "" {
		collection = "documents"
	}

	logger.Info("mongo connected",
		zap.String("database", opts.Database),
		zap.String("collection", collection),
	)
	return &Mongo{
		client: client,
		coll:   client.Database(opts.Database).Collection(collection),
		guard:  resilience.NewGuard("mongo", cfg),
		logger: logger,
	}, nil
}

func (m *Mongo) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Mongo.Get")
	defer span.End()
	span.SetAttributes(attribute.String("kv.key", key))

	var doc mongoDocument
	err := m.guard.Do(ctx, "get", func(ctx context.Context) error {
		err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return resilience.Permanent(port.ErrKeyNotFound)
		}
		return err
	})
	if err != nil {
		if !errors.Is(err, port.ErrKeyNotFound) {
			m.logger.Error("mongo: get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, err
	}
	return doc.Value, nil
}

func (m *Mongo) Put(ctx context.Context, key string, value []byte) error {
	ctx, span := tracer.Start(ctx, "Mongo.Put")
	defer span.End()
	span.SetAttributes(attribute.String("kv.key", key), attribute.Int("kv.bytes", len(value)))

	doc := mongoDocument{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := m.guard.Do(ctx, "put", func(ctx context.Context) error {
		_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
		return err
	})
	if err != nil {
		m.logger.Error("mongo: put failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

func (m *Mongo) Delete(ctx context.Context, key string) error {
	return m.guard.Do(ctx, "delete", func(ctx context.Context) error {
		_, err := m.coll.DeleteOne(ctx, bson.M{"_id": key})
		return err
	})
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
