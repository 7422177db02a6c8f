package mongorepos

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/shule/core/staff"
	"github.com/trezcool/shule/storage/database"
)

type staffDoc struct {
	ID          string    `bson:"_id"`
	TenantID    string    `bson:"tenantId"`
	Name        string    `bson:"name"`
	Email       string    `bson:"email,omitempty"`
	StaffNo     string    `bson:"staffNo"`
	Designation string    `bson:"designation,omitempty"`
	IsActive    *bool     `bson:"isActive"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

type staffRepository struct {
	coll *mongo.Collection
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *mongo.Database) *staffRepository {
	return &staffRepository{coll: db.Collection(database.StaffCollection)}
}

func (repo staffRepository) doc(s staff.Staff) staffDoc {
	return staffDoc{
		ID:          s.ID,
		TenantID:    s.TenantID,
		Name:        s.Name,
		Email:       s.Email,
		StaffNo:     s.StaffNo,
		Designation: s.Designation,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt.UTC(),
		UpdatedAt:   s.UpdatedAt.UTC(),
	}
}

func (repo staffRepository) undoc(d staffDoc) staff.Staff {
	return staff.Staff{
		ID:          d.ID,
		TenantID:    d.TenantID,
		Name:        d.Name,
		Email:       d.Email,
		StaffNo:     d.StaffNo,
		Designation: d.Designation,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (repo staffRepository) CreateStaff(ctx context.Context, s staff.Staff) (staff.Staff, error) {
	s.ID = uuid.New().String()
	d := repo.doc(s)
	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return staff.Staff{}, staff.ErrDuplicateIdentifier
		}
		return staff.Staff{}, errors.Wrap(err, "inserting staff member")
	}
	return repo.undoc(d), nil
}

func (repo staffRepository) QueryStaff(ctx context.Context, tenantID string) ([]staff.Staff, error) {
	cur, err := repo.coll.Find(ctx, bson.M{"tenantId": tenantID}, options.Find().SetSort(bson.D{{Key: "staffNo", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying staff")
	}
	var docs []staffDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding staff")
	}
	members := make([]staff.Staff, 0, len(docs))
	for _, d := range docs {
		members = append(members, repo.undoc(d))
	}
	return members, nil
}

func (repo staffRepository) GetStaffByID(ctx context.Context, tenantID, id string) (staff.Staff, error) {
	var d staffDoc
	err := repo.coll.FindOne(ctx, bson.M{"_id": id, "tenantId": tenantID}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return staff.Staff{}, staff.ErrNotFound
		}
		return staff.Staff{}, errors.Wrap(err, "finding staff member by ID")
	}
	return repo.undoc(d), nil
}

func (repo staffRepository) LastStaffNo(ctx context.Context, tenantID, prefix string) (string, error) {
	filter := bson.M{
		"tenantId": tenantID,
		"staffNo":  primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)},
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "staffNo", Value: -1}}).
		SetProjection(bson.M{"staffNo": 1})

	var d bson.M
	if err := repo.coll.FindOne(ctx, filter, opts).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", nil
		}
		return "", errors.Wrap(err, "scanning last staff number")
	}
	last, _ := d["staffNo"].(string)
	return last, nil
}
