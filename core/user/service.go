package user

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/tenant"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, tenantID, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		// GetUserByEmail looks the user up across all tenants; deferred
		// login discovers the tenant from this record.
		GetUserByEmail(ctx context.Context, email string) (User, error)
		QueryUsers(ctx context.Context, tenantID string) ([]User, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, t tenant.Tenant, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		QueryAll(ctx context.Context, t tenant.Tenant) ([]User, error)
		Authenticate(ctx context.Context, email, pwd string) (User, tenant.Tenant, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo      Repository
		tenantSvc tenant.ServiceInterface
		conf      *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, tenantSvc tenant.ServiceInterface, conf *core.Config) *Service {
	return &Service{repo: repo, tenantSvc: tenantSvc, conf: conf}
}

func (svc *Service) checkUniqueness(ctx context.Context, tenantID, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, tenantID, email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, t tenant.Tenant, nu NewUser) (User, error) {
	if err := svc.checkUniqueness(ctx, t.ID, nu.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	active := true
	usr := User{
		TenantID:  t.ID,
		Name:      nu.Name,
		Email:     nu.Email,
		IsActive:  &active,
		Roles:     nu.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context, t tenant.Tenant) ([]User, error) {
	return svc.repo.QueryUsers(ctx, t.ID)
}

// Authenticate verifies credentials and performs the deferred tenant
// discovery for logins that carried no tenant signal: the user's own tenant
// is looked up and re-checked for active/subscription status, exactly like
// request-time resolution would.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, tenant.Tenant, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return User{}, tenant.Tenant{}, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, tenant.Tenant{}, ErrNotFound
	}

	t, err := svc.tenantSvc.GetByID(ctx, usr.TenantID)
	if err != nil {
		if err == tenant.ErrNotFound {
			return User{}, tenant.Tenant{}, tenant.ErrNotFound
		}
		return User{}, tenant.Tenant{}, pkgerrors.Wrap(err, "finding user tenant")
	}
	if !t.Active() {
		return User{}, tenant.Tenant{}, tenant.ErrNotFound
	}
	if !t.SubscriptionOK() {
		return User{}, tenant.Tenant{}, tenant.ErrSubscriptionInactive
	}
	return usr, t, nil
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	usr.UpdatedAt = usr.LastLogin
	return svc.repo.UpdateUser(ctx, usr, nil)
}
