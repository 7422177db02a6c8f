package tenant

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound = errors.New("tenant not found")
	// ErrSubscriptionInactive means the tenant exists and is active but its
	// subscription does not allow requests; distinct from ErrNotFound so the
	// API can tell the caller to contact support instead of hiding the tenant.
	ErrSubscriptionInactive = errors.New("subscription is not active, please contact support")
	// ErrLookupFailed wraps infrastructure failures during resolution; it is
	// never caused by client input.
	ErrLookupFailed    = errors.New("tenant lookup failed")
	ErrSubdomainExists = errors.New("a tenant with this subdomain already exists")
)

type (
	Repository interface {
		CheckSubdomainUniqueness(ctx context.Context, subdomain string, excludedTenants ...Tenant) error
		CreateTenant(ctx context.Context, t Tenant) (Tenant, error)
		QueryAllTenants(ctx context.Context) ([]Tenant, error)
		GetTenantByID(ctx context.Context, id string) (Tenant, error)
		GetTenantBySubdomain(ctx context.Context, subdomain string) (Tenant, error)
		UpdateTenant(ctx context.Context, t Tenant, isActive *bool) (Tenant, error)
		// UpsertSystemTenant atomically gets or creates the tenant with the
		// given subdomain. Concurrent callers must converge on one record;
		// the unique index on subdomain is the backstop.
		UpsertSystemTenant(ctx context.Context, t Tenant) (Tenant, error)
	}

	ServiceInterface interface {
		CheckSubdomainUniqueness(ctx context.Context, subdomain string, excludedTenants ...Tenant) error
		Create(ctx context.Context, nt NewTenant) (Tenant, error)
		QueryAll(ctx context.Context) ([]Tenant, error)
		GetByID(ctx context.Context, id string) (Tenant, error)
		GetBySubdomain(ctx context.Context, subdomain string) (Tenant, error)
		Update(ctx context.Context, id string, ut UpdateTenant) (Tenant, error)
		GetOrCreateSystem(ctx context.Context) (Tenant, error)
		Resolve(ctx context.Context, req RequestInfo) (Resolution, error)
	}

	Service struct {
		repo Repository
		conf *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{repo: repo, conf: conf}
}

func (svc *Service) CheckSubdomainUniqueness(ctx context.Context, subdomain string, exclTenants ...Tenant) error {
	if err := svc.repo.CheckSubdomainUniqueness(ctx, subdomain, exclTenants...); err != nil {
		if err == ErrSubdomainExists {
			return core.NewValidationError(err, core.FieldError{Field: "subdomain", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nt NewTenant) (Tenant, error) {
	now := time.Now().UTC()
	active := true
	plan := nt.Plan
	if plan == "" {
		plan = PlanTrial
	}
	t := Tenant{
		Name:      nt.Name,
		Subdomain: nt.Subdomain,
		IsActive:  &active,
		Subscription: Subscription{
			Status: StatusActive,
			Plan:   plan,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateTenant(ctx, t)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Tenant, error) {
	return svc.repo.QueryAllTenants(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Tenant, error) {
	return svc.repo.GetTenantByID(ctx, id)
}

func (svc *Service) GetBySubdomain(ctx context.Context, subdomain string) (Tenant, error) {
	return svc.repo.GetTenantBySubdomain(ctx, core.CleanString(subdomain, true /* lower */))
}

func (svc *Service) Update(ctx context.Context, id string, ut UpdateTenant) (Tenant, error) {
	t := Tenant{
		ID:   id,
		Name: ut.Name,
		Subscription: Subscription{
			Status: ut.Status,
			Plan:   ut.Plan,
		},
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateTenant(ctx, t, ut.IsActive)
}

// GetOrCreateSystem returns the reserved tenant hosting super-admin accounts,
// creating it on first use. Safe to call concurrently: the upsert keys on the
// subdomain so concurrent creators converge on a single record.
func (svc *Service) GetOrCreateSystem(ctx context.Context) (Tenant, error) {
	now := time.Now().UTC()
	active := true
	t := Tenant{
		Name:      svc.conf.AppName + " System",
		Subdomain: svc.conf.Tenant.SystemSubdomain,
		IsActive:  &active,
		IsSystem:  true,
		Subscription: Subscription{
			Status: StatusActive,
			Plan:   PlanEnterprise,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	sys, err := svc.repo.UpsertSystemTenant(ctx, t)
	if err != nil {
		return Tenant{}, pkgerrors.Wrap(err, "upserting system tenant")
	}
	return sys, nil
}
