package staff

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/ident"
	"github.com/trezcool/shule/core/tenant"
)

var (
	// errors
	ErrNotFound            = errors.New("staff member not found")
	ErrDuplicateIdentifier = errors.New("identifier already taken, please retry")
)

const createAttempts = 3

type (
	Repository interface {
		CreateStaff(ctx context.Context, s Staff) (Staff, error)
		QueryStaff(ctx context.Context, tenantID string) ([]Staff, error)
		GetStaffByID(ctx context.Context, tenantID, id string) (Staff, error)
		// LastStaffNo returns the highest already-issued staff number
		// starting with prefix within the tenant scope, or "" when none.
		LastStaffNo(ctx context.Context, tenantID, prefix string) (string, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, t tenant.Tenant, ns NewStaff) (Staff, error)
		Query(ctx context.Context, t tenant.Tenant) ([]Staff, error)
		GetByID(ctx context.Context, t tenant.Tenant, id string) (Staff, error)
	}

	Service struct {
		repo Repository
		conf *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{repo: repo, conf: conf}
}

// Create registers a staff member with a freshly issued staff number; same
// generate→insert retry contract as student enrollment.
func (svc *Service) Create(ctx context.Context, t tenant.Tenant, ns NewStaff) (Staff, error) {
	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		now := time.Now().UTC()
		year := now.Year()
		code := t.Code(svc.conf.Tenant.FallbackCode)

		last, err := svc.repo.LastStaffNo(ctx, t.ID, ident.Staff.PrefixFor(year, code))
		if err != nil {
			return Staff{}, pkgerrors.Wrap(err, "scanning last staff number")
		}
		staffNo, err := ident.Staff.Next(year, code, last)
		if err != nil {
			return Staff{}, err
		}

		active := true
		created, err := svc.repo.CreateStaff(ctx, Staff{
			TenantID:    t.ID,
			Name:        ns.Name,
			Email:       ns.Email,
			StaffNo:     staffNo,
			Designation: ns.Designation,
			IsActive:    &active,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err == nil {
			return created, nil
		}
		if pkgerrors.Cause(err) != ErrDuplicateIdentifier {
			return Staff{}, pkgerrors.Wrap(err, "inserting staff member")
		}
		lastErr = err
	}
	return Staff{}, lastErr
}

func (svc *Service) Query(ctx context.Context, t tenant.Tenant) ([]Staff, error) {
	return svc.repo.QueryStaff(ctx, t.ID)
}

func (svc *Service) GetByID(ctx context.Context, t tenant.Tenant, id string) (Staff, error) {
	return svc.repo.GetStaffByID(ctx, t.ID, id)
}
