package mongorepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/shule/core/tenant"
	"github.com/trezcool/shule/storage/database"
)

type tenantDoc struct {
	ID           string          `bson:"_id"`
	Name         string          `bson:"name"`
	Subdomain    string          `bson:"subdomain"`
	IsActive     *bool           `bson:"isActive"`
	IsSystem     bool            `bson:"isSystem"`
	Subscription subscriptionDoc `bson:"subscription"`
	CreatedAt    time.Time       `bson:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt"`
}

type subscriptionDoc struct {
	Status string `bson:"status"`
	Plan   string `bson:"plan"`
}

type tenantRepository struct {
	coll *mongo.Collection
}

var _ tenant.Repository = (*tenantRepository)(nil) // interface compliance check

func NewTenantRepository(db *mongo.Database) *tenantRepository {
	return &tenantRepository{coll: db.Collection(database.TenantCollection)}
}

func (repo tenantRepository) doc(t tenant.Tenant) tenantDoc {
	return tenantDoc{
		ID:        t.ID,
		Name:      t.Name,
		Subdomain: t.Subdomain,
		IsActive:  t.IsActive,
		IsSystem:  t.IsSystem,
		Subscription: subscriptionDoc{
			Status: t.Subscription.Status,
			Plan:   t.Subscription.Plan,
		},
		CreatedAt: t.CreatedAt.UTC(),
		UpdatedAt: t.UpdatedAt.UTC(),
	}
}

func (repo tenantRepository) undoc(d tenantDoc) tenant.Tenant {
	return tenant.Tenant{
		ID:        d.ID,
		Name:      d.Name,
		Subdomain: d.Subdomain,
		IsActive:  d.IsActive,
		IsSystem:  d.IsSystem,
		Subscription: tenant.Subscription{
			Status: d.Subscription.Status,
			Plan:   d.Subscription.Plan,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// trapNoDocsErr maps mongo "no documents" err to tenant.ErrNotFound
func (repo tenantRepository) trapNoDocsErr(err error, msg string) error {
	if err == mongo.ErrNoDocuments {
		return tenant.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo tenantRepository) CheckSubdomainUniqueness(ctx context.Context, subdomain string, excludedTenants ...tenant.Tenant) error {
	filter := bson.M{"subdomain": subdomain}
	if len(excludedTenants) > 0 {
		ids := make([]string, 0, len(excludedTenants))
		for _, t := range excludedTenants {
			ids = append(ids, t.ID)
		}
		filter["_id"] = bson.M{"$nin": ids}
	}

	cnt, err := repo.coll.CountDocuments(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "checking subdomain uniqueness")
	}
	if cnt > 0 {
		return tenant.ErrSubdomainExists
	}
	return nil
}

func (repo tenantRepository) CreateTenant(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	t.ID = uuid.New().String()
	d := repo.doc(t)
	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return tenant.Tenant{}, tenant.ErrSubdomainExists
		}
		return tenant.Tenant{}, errors.Wrap(err, "inserting tenant")
	}
	return repo.undoc(d), nil
}

func (repo tenantRepository) QueryAllTenants(ctx context.Context) ([]tenant.Tenant, error) {
	cur, err := repo.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying tenants")
	}
	var docs []tenantDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding tenants")
	}
	tenants := make([]tenant.Tenant, 0, len(docs))
	for _, d := range docs {
		tenants = append(tenants, repo.undoc(d))
	}
	return tenants, nil
}

func (repo tenantRepository) GetTenantByID(ctx context.Context, id string) (tenant.Tenant, error) {
	var d tenantDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return tenant.Tenant{}, repo.trapNoDocsErr(err, "finding tenant by ID")
	}
	return repo.undoc(d), nil
}

func (repo tenantRepository) GetTenantBySubdomain(ctx context.Context, subdomain string) (tenant.Tenant, error) {
	var d tenantDoc
	if err := repo.coll.FindOne(ctx, bson.M{"subdomain": subdomain}).Decode(&d); err != nil {
		return tenant.Tenant{}, repo.trapNoDocsErr(err, "finding tenant by subdomain")
	}
	return repo.undoc(d), nil
}

func (repo tenantRepository) UpdateTenant(ctx context.Context, t tenant.Tenant, isActive *bool) (tenant.Tenant, error) {
	// only save set fields; status/plan changes are last-write-wins
	set := bson.M{"updatedAt": t.UpdatedAt.UTC()}
	if t.Name != "" {
		set["name"] = t.Name
	}
	if t.Subscription.Status != "" {
		set["subscription.status"] = t.Subscription.Status
	}
	if t.Subscription.Plan != "" {
		set["subscription.plan"] = t.Subscription.Plan
	}
	if isActive != nil {
		set["isActive"] = *isActive
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d tenantDoc
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": t.ID}, bson.M{"$set": set}, opts).Decode(&d)
	if err != nil {
		return tenant.Tenant{}, repo.trapNoDocsErr(err, "updating tenant")
	}
	return repo.undoc(d), nil
}

func (repo tenantRepository) UpsertSystemTenant(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	d := repo.doc(t)
	d.ID = uuid.New().String()

	// keyed on the unique subdomain: concurrent upserts converge on one
	// record, losers read the winner's document back
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out tenantDoc
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"subdomain": t.Subdomain}, bson.M{"$setOnInsert": d}, opts).Decode(&out)
	if err != nil {
		return tenant.Tenant{}, errors.Wrap(err, "upserting system tenant")
	}
	return repo.undoc(out), nil
}
