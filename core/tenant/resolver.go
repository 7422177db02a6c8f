package tenant

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// RoleSuperAdmin is the role a login request must declare to be hosted on
// the system tenant.
const RoleSuperAdmin = "super_admin"

// RequestInfo is the slice of an inbound request that tenant resolution
// looks at. The transport layer extracts it so resolution stays independent
// of the HTTP framework.
type RequestInfo struct {
	Host       string // request host header, e.g. "acme.shule.app"
	Path       string // request path
	LoginPath  string // path of the login endpoint, eligible for deferral
	Header     string // value of the tenant id header, if any
	QueryParam string // value of the tenant id query param, if any
	BodyRole   string // "role" declared in the request body; login only
}

// Resolution is the per-request outcome. It must never be cached across
// requests: tenant status can change at any time and must be re-checked.
type Resolution struct {
	Tenant *Tenant
	// Deferred is the one legitimate "no tenant yet" state: a login request
	// whose tenant will be discovered from the submitted credentials.
	Deferred bool
}

// strategy inspects the request and either yields a tenant, yields nothing
// (nil, nil: fall through to the next strategy), or fails resolution.
type strategy func(ctx context.Context, req RequestInfo) (*Tenant, error)

// Resolve maps an inbound request to exactly one active tenant, or defers
// for the login endpoint, or fails with ErrNotFound. Strategies run in
// order; first match wins. Resolved tenants that are not active are
// indistinguishable from absent ones.
func (svc *Service) Resolve(ctx context.Context, req RequestInfo) (Resolution, error) {
	strategies := []strategy{
		svc.resolveSubdomain,
		svc.resolveHeader,
		svc.resolveQueryParam,
		svc.resolveSuperAdminLogin,
	}
	for _, strat := range strategies {
		t, err := strat(ctx, req)
		if err != nil {
			return Resolution{}, err
		}
		if t == nil {
			continue
		}
		if !t.SubscriptionOK() {
			return Resolution{}, ErrSubscriptionInactive
		}
		return Resolution{Tenant: t}, nil
	}

	// login may proceed without a tenant; the login handler discovers the
	// user's tenant from their email and re-checks status itself.
	if req.Path == req.LoginPath {
		return Resolution{Deferred: true}, nil
	}
	return Resolution{}, ErrNotFound
}

// resolveSubdomain matches the leading label of the host header against
// tenant subdomains. Unlike the header strategy, infrastructure failures
// here abort resolution.
func (svc *Service) resolveSubdomain(ctx context.Context, req RequestInfo) (*Tenant, error) {
	label := SubdomainLabel(req.Host)
	if label == "" {
		return nil, nil
	}
	t, err := svc.repo.GetTenantBySubdomain(ctx, label)
	if err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, errors.Wrapf(ErrLookupFailed, "by subdomain %q: %v", label, err)
	}
	if !t.Active() {
		return nil, nil
	}
	return &t, nil
}

// resolveHeader matches the explicit tenant id header. Header lookups are
// advisory: any lookup error, infrastructure included, degrades to "no
// match" and the chain continues.
// TODO: product to confirm whether header lookup failures should propagate
// like subdomain ones do.
func (svc *Service) resolveHeader(ctx context.Context, req RequestInfo) (*Tenant, error) {
	if req.Header == "" {
		return nil, nil
	}
	t, err := svc.repo.GetTenantByID(ctx, req.Header)
	if err != nil || !t.Active() {
		return nil, nil
	}
	return &t, nil
}

// resolveQueryParam matches the tenant id query param. Non-production
// convenience only; disabled unless explicitly allowed.
func (svc *Service) resolveQueryParam(ctx context.Context, req RequestInfo) (*Tenant, error) {
	if !svc.conf.Tenant.AllowQueryParam || req.QueryParam == "" {
		return nil, nil
	}
	t, err := svc.repo.GetTenantByID(ctx, req.QueryParam)
	if err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, errors.Wrapf(ErrLookupFailed, "by query param %q: %v", req.QueryParam, err)
	}
	if !t.Active() {
		return nil, nil
	}
	return &t, nil
}

// resolveSuperAdminLogin hosts super-admin logins on the reserved system
// tenant. The only strategy allowed to create a tenant as a side effect.
func (svc *Service) resolveSuperAdminLogin(ctx context.Context, req RequestInfo) (*Tenant, error) {
	if req.Path != req.LoginPath || req.BodyRole != RoleSuperAdmin {
		return nil, nil
	}
	sys, err := svc.GetOrCreateSystem(ctx)
	if err != nil {
		return nil, errors.Wrapf(ErrLookupFailed, "system tenant: %v", err)
	}
	return &sys, nil
}

// SubdomainLabel extracts the leading host label usable for tenant lookup.
// Returns "" for hosts that cannot carry a tenant subdomain: bare
// localhost, www, empty labels and labels with a port separator.
func SubdomainLabel(host string) string {
	label := host
	if i := strings.IndexByte(host, '.'); i >= 0 {
		label = host[:i]
	}
	label = strings.ToLower(strings.TrimSpace(label))
	switch {
	case label == "", label == "localhost", label == "www":
		return ""
	case strings.IndexByte(label, ':') >= 0:
		return ""
	}
	return label
}
