package staff_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/staff"
	"github.com/trezcool/shule/core/tenant"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	testutil "github.com/trezcool/shule/tests"
)

func setup(t *testing.T) (tenant.Repository, *staff.Service) {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	return inmemdb.NewTenantRepository(db),
		staff.NewService(inmemdb.NewStaffRepository(db), testutil.NewConfig())
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()
	tenantRepo, svc := setup(t)
	acme := testutil.CreateTenant(t, tenantRepo, "Acme High", "acme", tenant.StatusActive, tenant.PlanBasic, true)

	year := time.Now().UTC().Year()
	for i := 1; i <= 2; i++ {
		stf, err := svc.Create(ctx, acme, staff.NewStaff{
			Name:        fmt.Sprintf("Teacher %d", i),
			Designation: "Mathematics",
		})
		if err != nil {
			t.Fatalf("Create() #%d failed: %v", i, err)
		}
		if want := fmt.Sprintf("TCH-%d-ACM-%04d", year, i); stf.StaffNo != want {
			t.Errorf("StaffNo = %q; want %q", stf.StaffNo, want)
		}
		if stf.IsActive == nil || !*stf.IsActive {
			t.Error("Create() staff member not active")
		}
	}
}

func TestServiceQueryAndRetrieve(t *testing.T) {
	ctx := context.Background()
	tenantRepo, svc := setup(t)
	acme := testutil.CreateTenant(t, tenantRepo, "Acme High", "acme", tenant.StatusActive, tenant.PlanBasic, true)
	beta := testutil.CreateTenant(t, tenantRepo, "Beta Academy", "beta", tenant.StatusActive, tenant.PlanBasic, true)

	stf, err := svc.Create(ctx, acme, staff.NewStaff{Name: "Ms. Patel"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	members, err := svc.Query(ctx, acme)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(members) != 1 {
		t.Errorf("Query() returned %d members; want 1", len(members))
	}

	if _, err = svc.GetByID(ctx, beta, stf.ID); errors.Cause(err) != staff.ErrNotFound {
		t.Errorf("GetByID() across tenants err = %v; want ErrNotFound", err)
	}
	if _, err = svc.GetByID(ctx, acme, stf.ID); err != nil {
		t.Errorf("GetByID() failed: %v", err)
	}
}
