package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/tenant"
	"github.com/trezcool/shule/core/user"
)

// NewConfig returns a self-contained test configuration; no env vars, no
// .env files.
func NewConfig() *core.Config {
	return &core.Config{
		AppName:   "Shule",
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		SecretKey: "secret",
		Server: core.ServerConfig{
			JWTExpirationDelta: 1 * time.Hour,
		},
		Tenant: core.TenantConfig{
			Header:          "X-Tenant-ID",
			QueryParam:      "tenantId",
			AllowQueryParam: true,
			SystemSubdomain: "system",
			FallbackCode:    "SCH",
		},
	}
}

func CreateTenant(t *testing.T, repo tenant.Repository, name, subdomain, status, plan string, isActive bool) tenant.Tenant {
	t.Helper()

	now := time.Now().UTC()
	tent, err := repo.CreateTenant(context.Background(), tenant.Tenant{
		Name:      name,
		Subdomain: subdomain,
		IsActive:  &isActive,
		Subscription: tenant.Subscription{
			Status: status,
			Plan:   plan,
		},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateTenant() failed: %v", err)
	}
	return tent
}

func CreateUser(t *testing.T, repo user.Repository, tenantID, name, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		TenantID:  tenantID,
		Name:      name,
		Email:     email,
		IsActive:  &isActive,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// NopLogger discards everything; handler tests do not care about log output.
type NopLogger struct{}

var _ core.Logger = (*NopLogger)(nil)

func (NopLogger) Enable(bool)                  {}
func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}
