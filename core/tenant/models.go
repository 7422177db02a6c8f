package tenant

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Subscription statuses
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusCancelled = "cancelled"
)

// Subscription plans
const (
	PlanTrial      = "trial"
	PlanBasic      = "basic"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

const codeWidth = 3

type Subscription struct {
	Status string `json:"status"`
	Plan   string `json:"plan"`
}

type Tenant struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Subdomain    string       `json:"subdomain"`
	IsActive     *bool        `json:"is_active"`
	IsSystem     bool         `json:"is_system"`
	Subscription Subscription `json:"subscription"`
	CreatedAt    time.Time    `json:"created_at"` // UTC
	UpdatedAt    time.Time    `json:"updated_at"` // UTC
}

func (t *Tenant) Active() bool {
	return t.IsActive != nil && *t.IsActive
}

// SubscriptionOK reports whether requests for this tenant may proceed.
// The system tenant and tenants on trial are always let through; everyone
// else needs an active subscription.
func (t *Tenant) SubscriptionOK() bool {
	if t.IsSystem {
		return true
	}
	return t.Subscription.Status == StatusActive || t.Subscription.Plan == PlanTrial
}

// Code derives the short label embedded in generated identifiers: the first
// three characters of the subdomain upper-cased, or the first three letters
// of the name with non-alphabetic characters stripped. Codes shorter than
// three characters are right-padded with 'X'; fallback is used when neither
// source yields a single character. Codes are not unique across tenants;
// identifier uniqueness is always scoped by tenant id.
func (t *Tenant) Code(fallback string) string {
	src := t.Subdomain
	if src == "" {
		src = stripNonAlpha(t.Name)
	}
	if src == "" {
		return fallback
	}
	if len(src) > codeWidth {
		src = src[:codeWidth]
	}
	code := []byte(src)
	for i, c := range code {
		if 'a' <= c && c <= 'z' {
			code[i] = c - ('a' - 'A')
		}
	}
	for len(code) < codeWidth {
		code = append(code, 'X')
	}
	return string(code)
}

func stripNonAlpha(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			out = append(out, c)
		}
	}
	return string(out)
}

// NewTenant contains information needed to create a new Tenant.
type NewTenant struct {
	Name      string `json:"name" validate:"required"`
	Subdomain string `json:"subdomain" validate:"required,min=2,max=63,subdomain"`
	Plan      string `json:"plan" validate:"omitempty,oneof=trial basic premium enterprise"`
}

func (nt *NewTenant) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Subdomain = core.CleanString(nt.Subdomain, true /* lower */)

	if err := validate.Struct(nt); err != nil {
		return err
	}
	return svc.CheckSubdomainUniqueness(ctx, nt.Subdomain)
}

// UpdateTenant defines what information may be provided to modify an existing Tenant.
// Status/plan changes are operator-driven and last-write-wins.
type UpdateTenant struct {
	Name     string `json:"name"`
	Status   string `json:"status" validate:"omitempty,oneof=active suspended cancelled"`
	Plan     string `json:"plan" validate:"omitempty,oneof=trial basic premium enterprise"`
	IsActive *bool  `json:"is_active"`
}

func (ut *UpdateTenant) Validate(validate *validator.Validate) error {
	ut.Name = core.CleanString(ut.Name)
	return validate.Struct(ut)
}
