package mongorepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage/database"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	TenantID     string    `bson:"tenantId"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	IsActive     *bool     `bson:"isActive"`
	Roles        []string  `bson:"roles,omitempty"`
	PasswordHash []byte    `bson:"passwordHash"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
	LastLogin    time.Time `bson:"lastLogin,omitempty"`
}

type userRepository struct {
	coll *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *mongo.Database) *userRepository {
	return &userRepository{coll: db.Collection(database.UserCollection)}
}

func (repo userRepository) doc(usr user.User) userDoc {
	return userDoc{
		ID:           usr.ID,
		TenantID:     usr.TenantID,
		Name:         usr.Name,
		Email:        usr.Email,
		IsActive:     usr.IsActive,
		Roles:        usr.Roles,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    usr.LastLogin.UTC(),
	}
}

func (repo userRepository) undoc(d userDoc) user.User {
	return user.User{
		ID:           d.ID,
		TenantID:     d.TenantID,
		Name:         d.Name,
		Email:        d.Email,
		IsActive:     d.IsActive,
		Roles:        d.Roles,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		LastLogin:    d.LastLogin,
	}
}

// trapNoDocsErr maps mongo "no documents" err to user.ErrNotFound
func (repo userRepository) trapNoDocsErr(err error, msg string) error {
	if err == mongo.ErrNoDocuments {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, tenantID, email string, excludedUsers ...user.User) error {
	filter := bson.M{"tenantId": tenantID, "email": email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		filter["_id"] = bson.M{"$nin": ids}
	}

	cnt, err := repo.coll.CountDocuments(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if cnt > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	d := repo.doc(usr)
	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.undoc(d), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var d userDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return user.User{}, repo.trapNoDocsErr(err, "finding user by ID")
	}
	return repo.undoc(d), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var d userDoc
	if err := repo.coll.FindOne(ctx, bson.M{"email": email}).Decode(&d); err != nil {
		return user.User{}, repo.trapNoDocsErr(err, "finding user by email")
	}
	return repo.undoc(d), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, tenantID string) ([]user.User, error) {
	cur, err := repo.coll.Find(ctx, bson.M{"tenantId": tenantID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	var docs []userDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding users")
	}
	users := make([]user.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, repo.undoc(d))
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	set := bson.M{"updatedAt": usr.UpdatedAt.UTC()}
	if usr.Name != "" {
		set["name"] = usr.Name
	}
	if usr.Email != "" {
		set["email"] = usr.Email
	}
	if usr.Roles != nil {
		set["roles"] = usr.Roles
	}
	if usr.PasswordHash != nil {
		set["passwordHash"] = usr.PasswordHash
	}
	if !usr.LastLogin.IsZero() {
		set["lastLogin"] = usr.LastLogin.UTC()
	}
	if isActive != nil {
		set["isActive"] = *isActive
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d userDoc
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": usr.ID}, bson.M{"$set": set}, opts).Decode(&d)
	if err != nil {
		return user.User{}, repo.trapNoDocsErr(err, "updating user")
	}
	return repo.undoc(d), nil
}
