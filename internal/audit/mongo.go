// Package audit records admin actions (fulfillment, tracking sync,
// cancellation) in mongo so operator activity survives outside request logs.
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Entry struct {
	ID        string    `bson:"_id,omitempty"`
	Actor     string    `bson:"actor"` // admin user id
	Action    string    `bson:"action"`
	OrderID   string    `bson:"order_id"`
	Details   bson.M    `bson:"details,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

type Trail struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func Connect(ctx context.Context, uri, database string) (*Trail, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return &Trail{
		client:     client,
		collection: client.Database(database).Collection("admin_audit"),
	}, nil
}

func (t *Trail) Ping(ctx context.Context) error {
	return t.client.Ping(ctx, nil)
}

func (t *Trail) Close(ctx context.Context) error {
	return t.client.Disconnect(ctx)
}

func (t *Trail) Record(ctx context.Context, e Entry) error {
	e.CreatedAt = time.Now()
	_, err := t.collection.InsertOne(ctx, e)
	return err
}

func (t *Trail) ForOrder(ctx context.Context, orderID string, limit int64) ([]Entry, error) {
	filter := bson.M{"order_id": orderID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := t.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
