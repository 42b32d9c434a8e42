package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/akeren/rankly-signals/internal/log"
	"github.com/akeren/rankly-signals/internal/models"
	"github.com/akeren/rankly-signals/pkg/retry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const emailLowerIndexName = "emailLower_unique"

type mongoHandle struct {
	client   *mongo.Client
	db       *mongo.Database
	waitlist *mongoWaitlist
	events   *mongoEvents
}

func newMongoHandle(client *mongo.Client, db *mongo.Database) *mongoHandle {
	return &mongoHandle{
		client:   client,
		db:       db,
		waitlist: &mongoWaitlist{coll: db.Collection(models.WaitlistCollection)},
		events:   &mongoEvents{coll: db.Collection(models.EventsCollection)},
	}
}

// ConnectMongo dials the deployment, pings the primary and ensures the unique
// emailLower index.
func ConnectMongo(ctx context.Context, target Target, cfg Config, logger *log.Logger) (Handle, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(target.DSN).SetAppName("rankly-signals"))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	policy := retry.NewExponentialBackoff(&retry.Config{
		MaxAttempts: cfg.ConnectAttempts,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2,
	})

	if err := policy.Execute(ctx, func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	h := newMongoHandle(client, client.Database(cfg.DatabaseName))

	if err := h.ensureSchema(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("MongoDB ready", "database", cfg.DatabaseName)
	return h, nil
}

func (h *mongoHandle) ensureSchema(ctx context.Context) error {
	_, err := h.waitlist.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "emailLower", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(emailLowerIndexName),
	})
	if err != nil {
		return fmt.Errorf("mongo ensure waitlist index: %w", err)
	}
	return nil
}

func (h *mongoHandle) Backend() Backend {
	return BackendMongo
}

func (h *mongoHandle) Waitlist() WaitlistCollection {
	return h.waitlist
}

func (h *mongoHandle) Events() EventCollection {
	return h.events
}

func (h *mongoHandle) Ping(ctx context.Context) error {
	return h.client.Ping(ctx, readpref.Primary())
}

func (h *mongoHandle) Close(ctx context.Context) error {
	return h.client.Disconnect(ctx)
}

type mongoWaitlist struct {
	coll *mongo.Collection
}

func (w *mongoWaitlist) InsertIfAbsent(ctx context.Context, entry *models.WaitlistEntry) (bool, error) {
	filter := bson.M{"emailLower": entry.EmailLower}
	update := bson.M{
		"$setOnInsert": bson.M{
			"email":      entry.Email,
			"emailLower": entry.EmailLower,
			"createdAt":  entry.CreatedAt,
			"userAgent":  entry.UserAgent,
			"referrer":   entry.Referrer,
			"source":     entry.Source,
		},
	}

	res, err := w.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}

	return res.UpsertedCount == 1, nil
}

func (w *mongoWaitlist) EstimatedCount(ctx context.Context) (int64, error) {
	return w.coll.EstimatedDocumentCount(ctx)
}

type mongoEvents struct {
	coll *mongo.Collection
}

func (e *mongoEvents) Insert(ctx context.Context, event *models.Event) error {
	_, err := e.coll.InsertOne(ctx, bson.M{
		"type":      event.Type,
		"path":      event.Path,
		"createdAt": event.CreatedAt,
		"userAgent": event.UserAgent,
		"referrer":  event.Referrer,
	})
	return err
}

func (e *mongoEvents) CountByType(ctx context.Context, eventType string) (int64, error) {
	return e.coll.CountDocuments(ctx, bson.M{"type": eventType})
}
