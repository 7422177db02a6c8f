package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core/tenant"
)

type tenantRepository struct {
	db *tenantTable
}

var _ tenant.Repository = (*tenantRepository)(nil)

func NewTenantRepository(db *DB) *tenantRepository {
	return &tenantRepository{db: db.tenant}
}

func (repo *tenantRepository) query() []tenant.Tenant {
	tenants := make([]tenant.Tenant, 0, len(repo.db.table))
	for _, t := range repo.db.table {
		tenants = append(tenants, *t)
	}
	return tenants
}

func (repo *tenantRepository) CheckSubdomainUniqueness(ctx context.Context, subdomain string, excludedTenants ...tenant.Tenant) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, t := range repo.query() {
		if t.Subdomain == subdomain && !tenantExcluded(t, excludedTenants) {
			return tenant.ErrSubdomainExists
		}
	}
	return nil
}

func (repo *tenantRepository) CreateTenant(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.table {
		if existing.Subdomain == t.Subdomain {
			return tenant.Tenant{}, tenant.ErrSubdomainExists
		}
	}
	t.ID = uuid.New().String()
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *tenantRepository) QueryAllTenants(ctx context.Context) ([]tenant.Tenant, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *tenantRepository) GetTenantByID(ctx context.Context, id string) (tenant.Tenant, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.table[id]; ok {
		return *t, nil
	}
	return tenant.Tenant{}, tenant.ErrNotFound
}

func (repo *tenantRepository) GetTenantBySubdomain(ctx context.Context, subdomain string) (tenant.Tenant, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if subdomain != "" {
		for _, t := range repo.query() {
			if t.Subdomain == subdomain {
				return t, nil
			}
		}
	}
	return tenant.Tenant{}, tenant.ErrNotFound
}

func (repo *tenantRepository) UpdateTenant(ctx context.Context, t tenant.Tenant, isActive *bool) (tenant.Tenant, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	orig, ok := repo.db.table[t.ID]
	if !ok {
		return tenant.Tenant{}, tenant.ErrNotFound
	}
	if t.Name != "" {
		orig.Name = t.Name
	}
	if t.Subscription.Status != "" {
		orig.Subscription.Status = t.Subscription.Status
	}
	if t.Subscription.Plan != "" {
		orig.Subscription.Plan = t.Subscription.Plan
	}
	if isActive != nil {
		orig.IsActive = isActive
	}
	orig.UpdatedAt = t.UpdatedAt

	repo.db.table[t.ID] = orig
	return *orig, nil
}

func (repo *tenantRepository) UpsertSystemTenant(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.table {
		if existing.Subdomain == t.Subdomain {
			return *existing, nil
		}
	}
	t.ID = uuid.New().String()
	repo.db.table[t.ID] = &t
	return t, nil
}

func tenantExcluded(t tenant.Tenant, excluded []tenant.Tenant) bool {
	for _, e := range excluded {
		if e.ID == t.ID {
			return true
		}
	}
	return false
}
