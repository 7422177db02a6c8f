package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trezcool/shule/core"
)

// Collection names
const (
	TenantCollection  = "tenants"
	UserCollection    = "users"
	StudentCollection = "students"
	StaffCollection   = "staff"
)

func Open(ctx context.Context, conf *core.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, conf.Database.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Database.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}
	if err = ping(ctx, client); err != nil {
		return nil, err
	}
	return client.Database(conf.Database.Name), nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, client *mongo.Client) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = client.Ping(ctx, readpref.Primary()); err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// EnsureIndexes creates the unique indexes the application relies on. The
// compound (tenantId, identifier) indexes are the last line of defense
// against concurrent issuance of the same identifier; entity identifiers are
// only unique within a tenant, never globally.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}

	_, err := db.Collection(TenantCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique(bson.D{{Key: "subdomain", Value: 1}}),
	})
	if err != nil {
		return errors.Wrap(err, "creating tenant indexes")
	}

	_, err = db.Collection(UserCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique(bson.D{{Key: "tenantId", Value: 1}, {Key: "email", Value: 1}}),
	})
	if err != nil {
		return errors.Wrap(err, "creating user indexes")
	}

	// roll numbers only exist for students with a class assignment; the
	// partial filter keeps unassigned students out of the unique constraint
	rollOpts := options.Index().
		SetUnique(true).
		SetPartialFilterExpression(bson.M{"rollNo": bson.M{"$gt": ""}})
	_, err = db.Collection(StudentCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique(bson.D{{Key: "tenantId", Value: 1}, {Key: "admissionNo", Value: 1}}),
		unique(bson.D{{Key: "tenantId", Value: 1}, {Key: "registrationNo", Value: 1}}),
		{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "rollNo", Value: 1}}, Options: rollOpts},
	})
	if err != nil {
		return errors.Wrap(err, "creating student indexes")
	}

	_, err = db.Collection(StaffCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique(bson.D{{Key: "tenantId", Value: 1}, {Key: "staffNo", Value: 1}}),
	})
	return errors.Wrap(err, "creating staff indexes")
}
