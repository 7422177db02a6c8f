package tenant

import "testing"

func TestTenantCode(t *testing.T) {
	tests := []struct {
		name   string
		tenant Tenant
		want   string
	}{
		{name: "from subdomain", tenant: Tenant{Subdomain: "acmehigh"}, want: "ACM"},
		{name: "short subdomain is padded", tenant: Tenant{Subdomain: "ab"}, want: "ABX"},
		{name: "from name when no subdomain", tenant: Tenant{Name: "St. Mary's"}, want: "STM"},
		{name: "name is stripped of non-letters", tenant: Tenant{Name: "A B"}, want: "ABX"},
		{name: "digits in name are dropped", tenant: Tenant{Name: "7 Hills"}, want: "HIL"},
		{name: "short name is padded", tenant: Tenant{Name: "Jo"}, want: "JOX"},
		{name: "no letters at all falls back", tenant: Tenant{Name: "42"}, want: "SCH"},
		{name: "empty tenant falls back", tenant: Tenant{}, want: "SCH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tenant.Code("SCH"); got != tt.want {
				t.Errorf("Code() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestTenantSubscriptionOK(t *testing.T) {
	tests := []struct {
		name   string
		tenant Tenant
		want   bool
	}{
		{name: "active subscription", tenant: Tenant{Subscription: Subscription{Status: StatusActive, Plan: PlanBasic}}, want: true},
		{name: "suspended on trial", tenant: Tenant{Subscription: Subscription{Status: StatusSuspended, Plan: PlanTrial}}, want: true},
		{name: "suspended on basic", tenant: Tenant{Subscription: Subscription{Status: StatusSuspended, Plan: PlanBasic}}, want: false},
		{name: "cancelled premium", tenant: Tenant{Subscription: Subscription{Status: StatusCancelled, Plan: PlanPremium}}, want: false},
		{name: "system tenant always ok", tenant: Tenant{IsSystem: true, Subscription: Subscription{Status: StatusCancelled}}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tenant.SubscriptionOK(); got != tt.want {
				t.Errorf("SubscriptionOK() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestTenantActive(t *testing.T) {
	active := true
	inactive := false
	if (&Tenant{}).Active() {
		t.Error("Active() = true for unset IsActive")
	}
	if (&Tenant{IsActive: &inactive}).Active() {
		t.Error("Active() = true for inactive tenant")
	}
	if !(&Tenant{IsActive: &active}).Active() {
		t.Error("Active() = false for active tenant")
	}
}

func TestSubdomainLabel(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{host: "acme.shule.app", want: "acme"},
		{host: "ACME.shule.app", want: "acme"},
		{host: "acme.localhost:8000", want: "acme"},
		{host: "localhost", want: ""},
		{host: "localhost:8000", want: ""},
		{host: "www.shule.app", want: ""},
		{host: "", want: ""},
		{host: ".shule.app", want: ""},
	}
	for _, tt := range tests {
		if got := SubdomainLabel(tt.host); got != tt.want {
			t.Errorf("SubdomainLabel(%q) = %q; want %q", tt.host, got, tt.want)
		}
	}
}
