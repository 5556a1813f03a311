package notify

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSink appends undelivered messages to the failed_notifications collection
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoSink(ctx context.Context, uri, database string) (*MongoSink, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoSink{client: client, coll: client.Database(database).Collection("failed_notifications")}, nil
}

func (s *MongoSink) Record(ctx context.Context, msg Message, cause error, attempts int) error {
	errText := ""
	if cause != nil {
		errText = cause.Error()
	}
	now := time.Now().UTC()
	doc := bson.M{
		"target":      string(msg.Channel),
		"payload":     msg,
		"error":       errText,
		"attempts":    attempts,
		"status":      "pending",
		"createdAt":   now,
		"lastTriedAt": now,
	}
	_, err := s.coll.InsertOne(ctx, doc)
	return err
}

func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
