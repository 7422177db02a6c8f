package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

type Student struct {
	ID       string `json:"id"`
	TenantID string `json:"-"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	// AdmissionNo is the tenant-scoped admission number, e.g. "STU-2021-ACM-0001".
	AdmissionNo string `json:"admission_no"`
	// RegistrationNo is the HEMIS-style registration number, e.g. "HEMIS-2021-ACM-00001".
	RegistrationNo string `json:"registration_no"`
	// RollNo is scoped to class+section, e.g. "10A-B-001"; empty when the
	// student has no class assignment yet.
	RollNo      string    `json:"roll_no,omitempty"`
	ClassSuffix string    `json:"class_suffix,omitempty"`
	Section     string    `json:"section,omitempty"`
	IsActive    *bool     `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewStudent contains information needed to enroll a new Student.
// ClassSuffix and Section are optional; without both, no roll number is issued.
type NewStudent struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	ClassSuffix string `json:"class_suffix" validate:"omitempty,alphanum"`
	Section     string `json:"section" validate:"omitempty,alphanum"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.ClassSuffix = core.CleanString(ns.ClassSuffix)
	ns.Section = core.CleanString(ns.Section)
	return validate.Struct(ns)
}

type QueryFilter struct {
	Search      string `query:"search"`
	ClassSuffix string `query:"class_suffix"`
	Section     string `query:"section"`
	IsActive    *bool  `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.ClassSuffix == "" && qf.Section == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.ClassSuffix = core.CleanString(qf.ClassSuffix)
	qf.Section = core.CleanString(qf.Section)
}
