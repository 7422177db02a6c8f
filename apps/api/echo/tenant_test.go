package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/trezcool/shule/core/tenant"
	"github.com/trezcool/shule/core/user"
	testutil "github.com/trezcool/shule/tests"
)

func TestTenantAPI(t *testing.T) {
	app := setup(t)

	sys, err := app.tenantSvc.GetOrCreateSystem(context.Background())
	if err != nil {
		t.Fatalf("GetOrCreateSystem() failed: %v", err)
	}
	root := testutil.CreateUser(t, app.userRepo, sys.ID, "Root", "root@shule.test", "s3cr3t!", []string{user.RoleSuperAdmin}, true)
	rootToken := getToken(t, app.conf, root)

	acme := testutil.CreateTenant(t, app.tenantRepo, "Acme High", "acme", tenant.StatusActive, tenant.PlanBasic, true)
	acmeAdmin := testutil.CreateUser(t, app.userRepo, acme.ID, "Jane", "jane@acme.test", "s3cr3t!", []string{user.RoleAdmin}, true)

	// super-admin requests resolve the system tenant via the explicit header

	t.Run("super admin provisions a tenant", func(t *testing.T) {
		body := marshalObj(t, map[string]string{"name": "Beta Academy", "subdomain": "beta"})
		req, rec := newAuthRequest(http.MethodPost, "http://localhost:8000/v1/tenants", rootToken, body)
		req.Header.Set(app.conf.Tenant.Header, sys.ID)
		app.do(req, rec)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body: %s", rec.Code, rec.Body.String())
		}
		var got tenant.Tenant
		decodeBody(t, rec, &got)
		if got.Subdomain != "beta" || got.Subscription.Plan != tenant.PlanTrial {
			t.Errorf("created tenant = %+v; want beta on trial", got)
		}
	})

	t.Run("duplicate subdomain is refused", func(t *testing.T) {
		body := marshalObj(t, map[string]string{"name": "Imposter", "subdomain": "acme"})
		req, rec := newAuthRequest(http.MethodPost, "http://localhost:8000/v1/tenants", rootToken, body)
		req.Header.Set(app.conf.Tenant.Header, sys.ID)
		app.do(req, rec)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want 400 (body: %s)", rec.Code, rec.Body.String())
		}
	})

	t.Run("invalid subdomain is refused", func(t *testing.T) {
		body := marshalObj(t, map[string]string{"name": "Bad", "subdomain": "Not A Subdomain!"})
		req, rec := newAuthRequest(http.MethodPost, "http://localhost:8000/v1/tenants", rootToken, body)
		req.Header.Set(app.conf.Tenant.Header, sys.ID)
		app.do(req, rec)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want 400 (body: %s)", rec.Code, rec.Body.String())
		}
	})

	t.Run("tenant admin cannot provision tenants", func(t *testing.T) {
		body := marshalObj(t, map[string]string{"name": "Rogue", "subdomain": "rogue"})
		req, rec := newAuthRequest(http.MethodPost, "http://acme.shule.test/v1/tenants", getToken(t, app.conf, acmeAdmin), body)
		app.do(req, rec)
		checkError(t, rec, http.StatusForbidden, "permission denied")
	})

	t.Run("super admin suspends a tenant", func(t *testing.T) {
		body := marshalObj(t, map[string]string{"status": tenant.StatusSuspended})
		req, rec := newAuthRequest(http.MethodPut, "http://localhost:8000/v1/tenants/"+acme.ID, rootToken, body)
		req.Header.Set(app.conf.Tenant.Header, sys.ID)
		app.do(req, rec)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body: %s", rec.Code, rec.Body.String())
		}

		// suspension takes effect on the tenant's very next request
		req, rec = newAuthRequest(http.MethodGet, "http://acme.shule.test/v1/tenants/current", getToken(t, app.conf, acmeAdmin))
		app.do(req, rec)
		checkError(t, rec, http.StatusForbidden, tenant.ErrSubscriptionInactive.Error())
	})

	t.Run("super admin lists tenants", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "http://localhost:8000/v1/tenants", rootToken)
		req.Header.Set(app.conf.Tenant.Header, sys.ID)
		app.do(req, rec)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body: %s", rec.Code, rec.Body.String())
		}
		var got []tenant.Tenant
		decodeBody(t, rec, &got)
		if len(got) < 3 { // system, acme, beta
			t.Errorf("listed %d tenants; want at least 3", len(got))
		}
	})
}
