package student

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
	ErrNotFound = errors.New("student not found")
	// ErrDuplicateIdentifier surfaces a lost generate→insert race: a
	// concurrent enrollment claimed the proposed identifier first. Retryable.
	ErrDuplicateIdentifier = errors.New("identifier already taken, please retry")
)

// createAttempts bounds the generate→insert retry loop. The unique index is
// the correctness backstop; retrying is for user convenience only.
const createAttempts = 3

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		QueryStudents(ctx context.Context, tenantID string, filter *QueryFilter) ([]Student, error)
		GetStudentByID(ctx context.Context, tenantID, id string) (Student, error)
		UpdateStudent(ctx context.Context, s Student, isActive *bool) (Student, error)
		// Last* return the highest already-issued identifier starting with
		// prefix within the tenant scope, or "" when none exists.
		LastAdmissionNo(ctx context.Context, tenantID, prefix string) (string, error)
		LastRegistrationNo(ctx context.Context, tenantID, prefix string) (string, error)
		LastRollNo(ctx context.Context, tenantID, prefix string) (string, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, t tenant.Tenant, ns NewStudent) (Student, error)
		Query(ctx context.Context, t tenant.Tenant, filter *QueryFilter) ([]Student, error)
		GetByID(ctx context.Context, t tenant.Tenant, id string) (Student, error)
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

// Create enrolls a student, issuing their admission number, registration
// number and (when class and section are known) roll number. Identifier
// proposals are previews, not reservations: between the max-scan and the
// insert another enrollment may claim the same value, in which case the
// insert fails on the unique index and the whole generate→insert cycle is
// retried a bounded number of times.
func (svc *Service) Create(ctx context.Context, t tenant.Tenant, ns NewStudent) (Student, error) {
	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		stu, err := svc.propose(ctx, t, ns)
		if err != nil {
			return Student{}, err
		}
		created, err := svc.repo.CreateStudent(ctx, stu)
		if err == nil {
			return created, nil
		}
		if pkgerrors.Cause(err) != ErrDuplicateIdentifier {
			return Student{}, pkgerrors.Wrap(err, "inserting student")
		}
		lastErr = err
	}
	return Student{}, lastErr
}

// propose builds the student record with freshly generated identifiers.
func (svc *Service) propose(ctx context.Context, t tenant.Tenant, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	year := now.Year()
	code := t.Code(svc.conf.Tenant.FallbackCode)

	lastAdm, err := svc.repo.LastAdmissionNo(ctx, t.ID, ident.Student.PrefixFor(year, code))
	if err != nil {
		return Student{}, pkgerrors.Wrap(err, "scanning last admission number")
	}
	admissionNo, err := ident.Student.Next(year, code, lastAdm)
	if err != nil {
		return Student{}, err
	}

	lastReg, err := svc.repo.LastRegistrationNo(ctx, t.ID, ident.Registration.PrefixFor(year, code))
	if err != nil {
		return Student{}, pkgerrors.Wrap(err, "scanning last registration number")
	}
	registrationNo, err := ident.Registration.Next(year, code, lastReg)
	if err != nil {
		return Student{}, err
	}

	var rollNo string
	if prefix := ident.RollPrefix(ns.ClassSuffix, ns.Section); prefix != "" {
		lastRoll, err := svc.repo.LastRollNo(ctx, t.ID, prefix)
		if err != nil {
			return Student{}, pkgerrors.Wrap(err, "scanning last roll number")
		}
		if rollNo, err = ident.NextRoll(ns.ClassSuffix, ns.Section, lastRoll); err != nil {
			return Student{}, err
		}
	}

	active := true
	return Student{
		TenantID:       t.ID,
		Name:           ns.Name,
		Email:          ns.Email,
		AdmissionNo:    admissionNo,
		RegistrationNo: registrationNo,
		RollNo:         rollNo,
		ClassSuffix:    ns.ClassSuffix,
		Section:        ns.Section,
		IsActive:       &active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (svc *Service) Query(ctx context.Context, t tenant.Tenant, filter *QueryFilter) ([]Student, error) {
	if filter != nil {
		filter.Clean()
		if filter.IsEmpty() {
			filter = nil
		}
	}
	return svc.repo.QueryStudents(ctx, t.ID, filter)
}

func (svc *Service) GetByID(ctx context.Context, t tenant.Tenant, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, t.ID, id)
}
