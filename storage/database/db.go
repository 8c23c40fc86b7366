package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trezcool/roster/core"
)

// Collections
const (
	AccountsCollection = "users"
	StudentsCollection = "students"
	PostsCollection    = "posts"
	CommentsCollection = "comments"
)

// Open connects to the document store and waits for it to answer.
func Open(ctx context.Context, conf *core.Config) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(conf.Database.URI).
		SetAppName(conf.AppName).
		SetTimeout(conf.Database.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, errors.Wrap(err, "connecting to mongo")
	}
	if err = ping(ctx, client); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, client.Database(conf.Database.Name), nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, client *mongo.Client) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = client.Ping(ctx, readpref.Primary())
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// EnsureIndexes creates the indexes backing the uniqueness invariants and the listing queries.
// It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	uniqueEmail := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	}

	indexes := map[string][]mongo.IndexModel{
		AccountsCollection: {uniqueEmail},
		StudentsCollection: {
			uniqueEmail,
			{Keys: bson.D{{Key: "createdAt", Value: 1}}, Options: options.Index().SetName("created_at")},
			{Keys: bson.D{{Key: "mobileNumber", Value: 1}}, Options: options.Index().SetName("mobile_number")},
		},
		CommentsCollection: {
			{Keys: bson.D{{Key: "postId", Value: 1}}, Options: options.Index().SetName("post_id")},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}
