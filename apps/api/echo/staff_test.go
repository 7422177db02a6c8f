package echoapi_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/shule/core/staff"
	"github.com/trezcool/shule/core/tenant"
	"github.com/trezcool/shule/core/user"
	testutil "github.com/trezcool/shule/tests"
)

func TestStaffAPI(t *testing.T) {
	app := setup(t)

	acme := testutil.CreateTenant(t, app.tenantRepo, "Acme High", "acme", tenant.StatusActive, tenant.PlanBasic, true)
	admin := testutil.CreateUser(t, app.userRepo, acme.ID, "Jane", "jane@acme.test", "s3cr3t!", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, app.userRepo, acme.ID, "Bob", "bob@acme.test", "s3cr3t!", []string{user.RoleTeacher}, true)

	adminToken := getToken(t, app.conf, admin)

	body := marshalObj(t, map[string]string{
		"name":        "Ms. Patel",
		"email":       "patel@acme.test",
		"designation": "Mathematics",
	})

	t.Run("admin required to register", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "http://acme.shule.test/v1/staff", getToken(t, app.conf, teacher), body)
		app.do(req, rec)
		checkError(t, rec, http.StatusForbidden, "permission denied")
	})

	t.Run("registration issues a staff number", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "http://acme.shule.test/v1/staff", adminToken, body)
		app.do(req, rec)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body: %s", rec.Code, rec.Body.String())
		}
		var got staff.Staff
		decodeBody(t, rec, &got)
		if want := fmt.Sprintf("TCH-%d-ACM-0001", time.Now().UTC().Year()); got.StaffNo != want {
			t.Errorf("StaffNo = %q; want %q", got.StaffNo, want)
		}
	})

	t.Run("list staff", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "http://acme.shule.test/v1/staff", getToken(t, app.conf, teacher))
		app.do(req, rec)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body: %s", rec.Code, rec.Body.String())
		}
		var got []staff.Staff
		decodeBody(t, rec, &got)
		if len(got) != 1 {
			t.Errorf("listed %d members; want 1", len(got))
		}
	})
}
