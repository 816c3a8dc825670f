package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartsprint/smartsprint/internal/core/domain"
)

const collectionAuthEvents = "auth_events"

// AuditRepository appends auth events to the auth_events collection.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAuthEvents)}
}

func (r *AuditRepository) SaveEvent(ctx context.Context, e domain.AuthEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"type":        string(e.Type),
		"email":       e.Email,
		"occurred_at": e.OccurredAt.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if e.UserID != "" {
		doc["user_id"] = e.UserID
	}
	if e.ActorID != "" {
		doc["actor_id"] = e.ActorID
	}

	_, err := r.col.InsertOne(ctx, doc)
	return err
}

// EnsureIndexes indexes events by user for per-account history lookups.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "occurred_at", Value: 1}}},
	})
	return err
}
