package tokenstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository implements Repository on a Mongo collection, used when no
// Redis is configured. Passive expiry is delegated to a TTL index on
// expiresAt; because the TTL reaper runs periodically, Get additionally
// treats past-expiry documents as absent.
type MongoRepository struct {
	col *mongo.Collection
}

type tokenDoc struct {
	Credential string `bson:"credential"`
	TokenRecord `bson:",inline"`
}

// NewMongoRepository wraps the collection and ensures the TTL and lookup
// indexes exist.
func NewMongoRepository(ctx context.Context, col *mongo.Collection) (*MongoRepository, error) {
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "credential", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create token indexes: %w", err)
	}
	return &MongoRepository{col: col}, nil
}

func (r *MongoRepository) Put(ctx context.Context, credential string, rec *TokenRecord, ttl time.Duration) error {
	doc := tokenDoc{Credential: credential, TokenRecord: *rec}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"credential": credential}, doc, opts); err != nil {
		return fmt.Errorf("put token record: %w", err)
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, credential string) (*TokenRecord, error) {
	var doc tokenDoc
	if err := r.col.FindOne(ctx, bson.M{"credential": credential}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("get token record: %w", err)
	}
	// TTL reaper lag: a lapsed document may still be present
	if time.Now().UTC().After(doc.ExpiresAt) {
		_, _ = r.col.DeleteOne(ctx, bson.M{"credential": credential})
		return nil, nil
	}
	rec := doc.TokenRecord
	return &rec, nil
}

// IndexAdd is a no-op: the record document itself carries userId, so the
// per-user index is realized by the userId lookup index.
func (r *MongoRepository) IndexAdd(ctx context.Context, userID, credential string) error {
	return nil
}

func (r *MongoRepository) IndexMembers(ctx context.Context, userID string) ([]string, error) {
	cur, err := r.col.Find(ctx, bson.M{"userId": userID},
		options.Find().SetProjection(bson.M{"credential": 1}))
	if err != nil {
		return nil, fmt.Errorf("read token index: %w", err)
	}
	defer cur.Close(ctx)
	var members []string
	for cur.Next(ctx) {
		var doc tokenDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode token index entry: %w", err)
		}
		members = append(members, doc.Credential)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("read token index: %w", err)
	}
	return members, nil
}

func (r *MongoRepository) Revoke(ctx context.Context, credential string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"credential": credential},
		bson.M{"$set": bson.M{"status": StatusRevoked}})
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *MongoRepository) Touch(ctx context.Context, credential string, at time.Time) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"credential": credential},
		bson.M{"$set": bson.M{"lastUsedAt": at}})
	if err != nil {
		return fmt.Errorf("touch token: %w", err)
	}
	return nil
}
