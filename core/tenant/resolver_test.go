package tenant_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/tenant"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	testutil "github.com/trezcool/shule/tests"
)

const loginPath = "/v1/auth/login"

func setup(t *testing.T) (tenant.Repository, *tenant.Service) {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	repo := inmemdb.NewTenantRepository(db)
	return repo, tenant.NewService(repo, testutil.NewConfig())
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	repo, svc := setup(t)

	acme := testutil.CreateTenant(t, repo, "Acme High", "acme", tenant.StatusActive, tenant.PlanBasic, true)
	beta := testutil.CreateTenant(t, repo, "Beta Academy", "beta", tenant.StatusActive, tenant.PlanBasic, true)
	_ = testutil.CreateTenant(t, repo, "Gamma School", "gamma", tenant.StatusSuspended, tenant.PlanBasic, true)
	trial := testutil.CreateTenant(t, repo, "Delta School", "delta", tenant.StatusSuspended, tenant.PlanTrial, true)
	inactive := testutil.CreateTenant(t, repo, "Omega School", "omega", tenant.StatusActive, tenant.PlanBasic, false)

	tests := []struct {
		name         string
		req          tenant.RequestInfo
		wantTenant   string // expected tenant ID; "" for none
		wantDeferred bool
		wantErr      error
	}{
		{
			name:       "subdomain match",
			req:        tenant.RequestInfo{Host: "acme.shule.app", Path: "/v1/students"},
			wantTenant: acme.ID,
		},
		{
			name:    "unknown subdomain and no other signal",
			req:     tenant.RequestInfo{Host: "nope.shule.app", Path: "/v1/students"},
			wantErr: tenant.ErrNotFound,
		},
		{
			name:    "no signal at all",
			req:     tenant.RequestInfo{Host: "localhost:8000", Path: "/v1/students"},
			wantErr: tenant.ErrNotFound,
		},
		{
			name:    "inactive tenant looks absent",
			req:     tenant.RequestInfo{Host: "omega.shule.app", Path: "/v1/students"},
			wantErr: tenant.ErrNotFound,
		},
		{
			name:    "suspended subscription is rejected",
			req:     tenant.RequestInfo{Host: "gamma.shule.app", Path: "/v1/students"},
			wantErr: tenant.ErrSubscriptionInactive,
		},
		{
			name:       "suspended but on trial passes",
			req:        tenant.RequestInfo{Host: "delta.shule.app", Path: "/v1/students"},
			wantTenant: trial.ID,
		},
		{
			name:       "header match",
			req:        tenant.RequestInfo{Host: "localhost:8000", Path: "/v1/students", Header: beta.ID},
			wantTenant: beta.ID,
		},
		{
			name:    "unknown header falls through",
			req:     tenant.RequestInfo{Host: "localhost:8000", Path: "/v1/students", Header: "bogus"},
			wantErr: tenant.ErrNotFound,
		},
		{
			name:    "header for inactive tenant falls through",
			req:     tenant.RequestInfo{Host: "localhost:8000", Path: "/v1/students", Header: inactive.ID},
			wantErr: tenant.ErrNotFound,
		},
		{
			name:       "subdomain wins over header",
			req:        tenant.RequestInfo{Host: "acme.shule.app", Path: "/v1/students", Header: beta.ID},
			wantTenant: acme.ID,
		},
		{
			name:       "query param match",
			req:        tenant.RequestInfo{Host: "localhost:8000", Path: "/v1/students", QueryParam: beta.ID},
			wantTenant: beta.ID,
		},
		{
			name:       "header wins over query param",
			req:        tenant.RequestInfo{Host: "localhost:8000", Path: "/v1/students", Header: acme.ID, QueryParam: beta.ID},
			wantTenant: acme.ID,
		},
		{
			name:         "login with no signal defers",
			req:          tenant.RequestInfo{Host: "localhost:8000", Path: loginPath, LoginPath: loginPath},
			wantDeferred: true,
		},
		{
			name:       "login with subdomain does not defer",
			req:        tenant.RequestInfo{Host: "acme.shule.app", Path: loginPath, LoginPath: loginPath},
			wantTenant: acme.ID,
		},
		{
			name:    "non-login path never defers",
			req:     tenant.RequestInfo{Host: "localhost:8000", Path: "/v1/students", LoginPath: loginPath},
			wantErr: tenant.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Resolve(ctx, tt.req)
			if tt.wantErr != nil {
				if errors.Cause(err) != tt.wantErr {
					t.Fatalf("Resolve() err = %v; want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() failed: %v", err)
			}
			if res.Deferred != tt.wantDeferred {
				t.Errorf("Resolve() deferred = %v; want %v", res.Deferred, tt.wantDeferred)
			}
			if tt.wantTenant == "" {
				if res.Tenant != nil {
					t.Errorf("Resolve() tenant = %v; want none", res.Tenant.ID)
				}
				return
			}
			if res.Tenant == nil || res.Tenant.ID != tt.wantTenant {
				t.Errorf("Resolve() tenant = %+v; want ID %v", res.Tenant, tt.wantTenant)
			}
		})
	}
}

func TestResolveSuperAdminLogin(t *testing.T) {
	ctx := context.Background()
	_, svc := setup(t)

	req := tenant.RequestInfo{
		Host:      "localhost:8000",
		Path:      loginPath,
		LoginPath: loginPath,
		BodyRole:  tenant.RoleSuperAdmin,
	}
	res, err := svc.Resolve(ctx, req)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if res.Tenant == nil || !res.Tenant.IsSystem {
		t.Fatalf("Resolve() tenant = %+v; want system tenant", res.Tenant)
	}

	// resolving again must reuse the same system tenant
	res2, err := svc.Resolve(ctx, req)
	if err != nil {
		t.Fatalf("Resolve() failed on second call: %v", err)
	}
	if res2.Tenant == nil || res2.Tenant.ID != res.Tenant.ID {
		t.Errorf("Resolve() created a second system tenant: %+v vs %+v", res2.Tenant, res.Tenant)
	}

	// a non-super-admin login body does not get the exemption
	req.BodyRole = "teacher"
	res3, err := svc.Resolve(ctx, req)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if !res3.Deferred || res3.Tenant != nil {
		t.Errorf("Resolve() = %+v; want deferral", res3)
	}
}

// failingRepo simulates storage outages on selected lookups.
type failingRepo struct {
	tenant.Repository
	failBySubdomain bool
	failByID        bool
}

var errStorageDown = errors.New("storage down")

func (r *failingRepo) GetTenantBySubdomain(ctx context.Context, subdomain string) (tenant.Tenant, error) {
	if r.failBySubdomain {
		return tenant.Tenant{}, errStorageDown
	}
	return r.Repository.GetTenantBySubdomain(ctx, subdomain)
}

func (r *failingRepo) GetTenantByID(ctx context.Context, id string) (tenant.Tenant, error) {
	if r.failByID {
		return tenant.Tenant{}, errStorageDown
	}
	return r.Repository.GetTenantByID(ctx, id)
}

func TestResolveLookupFailures(t *testing.T) {
	ctx := context.Background()
	repo, _ := setup(t)
	acme := testutil.CreateTenant(t, repo, "Acme High", "acme", tenant.StatusActive, tenant.PlanBasic, true)

	t.Run("subdomain lookup failure propagates", func(t *testing.T) {
		svc := tenant.NewService(&failingRepo{Repository: repo, failBySubdomain: true}, testutil.NewConfig())
		_, err := svc.Resolve(ctx, tenant.RequestInfo{Host: "acme.shule.app", Path: "/v1/students"})
		if errors.Cause(err) != tenant.ErrLookupFailed {
			t.Errorf("Resolve() err = %v; want ErrLookupFailed", err)
		}
	})

	t.Run("header lookup failure degrades to no match", func(t *testing.T) {
		svc := tenant.NewService(&failingRepo{Repository: repo, failByID: true}, testutil.NewConfig())
		_, err := svc.Resolve(ctx, tenant.RequestInfo{Host: "localhost:8000", Path: "/v1/students", Header: acme.ID})
		if errors.Cause(err) != tenant.ErrNotFound {
			t.Errorf("Resolve() err = %v; want ErrNotFound", err)
		}
	})

	t.Run("query param lookup failure propagates", func(t *testing.T) {
		svc := tenant.NewService(&failingRepo{Repository: repo, failByID: true}, testutil.NewConfig())
		_, err := svc.Resolve(ctx, tenant.RequestInfo{Host: "localhost:8000", Path: "/v1/students", QueryParam: acme.ID})
		if errors.Cause(err) != tenant.ErrLookupFailed {
			t.Errorf("Resolve() err = %v; want ErrLookupFailed", err)
		}
	})
}
