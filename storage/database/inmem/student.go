package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) query(tenantID string) []student.Student {
	students := make([]student.Student, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		if s.TenantID == tenantID {
			students = append(students, *s)
		}
	}
	return students
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// same constraints as the store's compound unique indexes
	for _, existing := range repo.db.table {
		if existing.TenantID != s.TenantID {
			continue
		}
		if existing.AdmissionNo == s.AdmissionNo ||
			existing.RegistrationNo == s.RegistrationNo ||
			(s.RollNo != "" && existing.RollNo == s.RollNo) {
			return student.Student{}, student.ErrDuplicateIdentifier
		}
	}
	s.ID = uuid.New().String()
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, tenantID string, filter *student.QueryFilter) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := repo.query(tenantID)
	if filter == nil {
		return students, nil
	}

	matched := make([]student.Student, 0, len(students))
	search := strings.ToLower(filter.Search)
	for _, s := range students {
		if search != "" &&
			!strings.Contains(strings.ToLower(s.Name), search) &&
			!strings.Contains(strings.ToLower(s.Email), search) &&
			!strings.Contains(strings.ToLower(s.AdmissionNo), search) {
			continue
		}
		if filter.ClassSuffix != "" && s.ClassSuffix != filter.ClassSuffix {
			continue
		}
		if filter.Section != "" && s.Section != filter.Section {
			continue
		}
		if filter.IsActive != nil && (s.IsActive == nil || *s.IsActive != *filter.IsActive) {
			continue
		}
		matched = append(matched, s)
	}
	return matched, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, tenantID, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.table[id]; ok && s.TenantID == tenantID {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student, isActive *bool) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[s.ID]
	if !ok || orig.TenantID != s.TenantID {
		return student.Student{}, student.ErrNotFound
	}
	if s.Name != "" {
		orig.Name = s.Name
	}
	if s.Email != "" {
		orig.Email = s.Email
	}
	if isActive != nil {
		orig.IsActive = isActive
	}
	orig.UpdatedAt = s.UpdatedAt

	repo.db.table[s.ID] = orig
	return *orig, nil
}

func (repo *studentRepository) LastAdmissionNo(ctx context.Context, tenantID, prefix string) (string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var last string
	for _, s := range repo.query(tenantID) {
		last = maxWithPrefix(last, s.AdmissionNo, prefix)
	}
	return last, nil
}

func (repo *studentRepository) LastRegistrationNo(ctx context.Context, tenantID, prefix string) (string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var last string
	for _, s := range repo.query(tenantID) {
		last = maxWithPrefix(last, s.RegistrationNo, prefix)
	}
	return last, nil
}

func (repo *studentRepository) LastRollNo(ctx context.Context, tenantID, prefix string) (string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var last string
	for _, s := range repo.query(tenantID) {
		if s.RollNo == "" {
			continue
		}
		last = maxWithPrefix(last, s.RollNo, prefix)
	}
	return last, nil
}
