package tenant_test

import (
	"context"
	"testing"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/tenant"
	testutil "github.com/trezcool/shule/tests"
)

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()
	_, svc := setup(t)

	tent, err := svc.Create(ctx, tenant.NewTenant{Name: "Acme High", Subdomain: "acme"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if tent.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if !tent.Active() {
		t.Error("Create() tenant not active")
	}
	// new tenants default to an active trial
	if tent.Subscription.Status != tenant.StatusActive || tent.Subscription.Plan != tenant.PlanTrial {
		t.Errorf("Create() subscription = %+v; want active trial", tent.Subscription)
	}

	// a second tenant on the same subdomain is refused
	if _, err = svc.Create(ctx, tenant.NewTenant{Name: "Imposter", Subdomain: "acme"}); err == nil {
		t.Error("Create() accepted a duplicate subdomain")
	}
}

func TestServiceCheckSubdomainUniqueness(t *testing.T) {
	ctx := context.Background()
	repo, svc := setup(t)
	testutil.CreateTenant(t, repo, "Acme High", "acme", tenant.StatusActive, tenant.PlanBasic, true)

	if err := svc.CheckSubdomainUniqueness(ctx, "beta"); err != nil {
		t.Errorf("CheckSubdomainUniqueness() failed for free subdomain: %v", err)
	}

	err := svc.CheckSubdomainUniqueness(ctx, "acme")
	if err == nil {
		t.Fatal("CheckSubdomainUniqueness() passed for taken subdomain")
	}
	if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("CheckSubdomainUniqueness() err type = %T; want *core.ValidationError", err)
	}
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()
	repo, svc := setup(t)
	tent := testutil.CreateTenant(t, repo, "Acme High", "acme", tenant.StatusActive, tenant.PlanBasic, true)

	inactive := false
	got, err := svc.Update(ctx, tent.ID, tenant.UpdateTenant{
		Status:   tenant.StatusSuspended,
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if got.Subscription.Status != tenant.StatusSuspended {
		t.Errorf("Update() status = %q; want suspended", got.Subscription.Status)
	}
	if got.Active() {
		t.Error("Update() tenant still active")
	}
	// unset fields are left alone
	if got.Name != tent.Name || got.Subscription.Plan != tent.Subscription.Plan {
		t.Errorf("Update() touched unset fields: %+v", got)
	}

	if _, err = svc.Update(ctx, "nope", tenant.UpdateTenant{Name: "X"}); err != tenant.ErrNotFound {
		t.Errorf("Update() err = %v; want ErrNotFound", err)
	}
}

func TestServiceGetOrCreateSystem(t *testing.T) {
	ctx := context.Background()
	_, svc := setup(t)

	sys, err := svc.GetOrCreateSystem(ctx)
	if err != nil {
		t.Fatalf("GetOrCreateSystem() failed: %v", err)
	}
	if !sys.IsSystem || !sys.Active() || !sys.SubscriptionOK() {
		t.Errorf("GetOrCreateSystem() = %+v; want active system tenant", sys)
	}
	if sys.Subdomain != "system" {
		t.Errorf("GetOrCreateSystem() subdomain = %q; want %q", sys.Subdomain, "system")
	}

	again, err := svc.GetOrCreateSystem(ctx)
	if err != nil {
		t.Fatalf("GetOrCreateSystem() failed on second call: %v", err)
	}
	if again.ID != sys.ID {
		t.Errorf("GetOrCreateSystem() not idempotent: %v vs %v", again.ID, sys.ID)
	}
}
