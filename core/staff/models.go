package staff

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

type Staff struct {
	ID       string `json:"id"`
	TenantID string `json:"-"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	// StaffNo is the tenant-scoped staff number, e.g. "TCH-2021-ACM-0001".
	StaffNo     string    `json:"staff_no"`
	Designation string    `json:"designation,omitempty"`
	IsActive    *bool     `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewStaff contains information needed to register a new Staff member.
type NewStaff struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	Designation string `json:"designation" validate:"omitempty,alphanum_"`
}

func (ns *NewStaff) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Designation = core.CleanString(ns.Designation)
	return validate.Struct(ns)
}
