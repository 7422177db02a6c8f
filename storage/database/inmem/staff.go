package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core/staff"
)

type staffRepository struct {
	db *staffTable
}

var _ staff.Repository = (*staffRepository)(nil)

func NewStaffRepository(db *DB) *staffRepository {
	return &staffRepository{db: db.staff}
}

func (repo *staffRepository) query(tenantID string) []staff.Staff {
	members := make([]staff.Staff, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		if s.TenantID == tenantID {
			members = append(members, *s)
		}
	}
	return members
}

func (repo *staffRepository) CreateStaff(ctx context.Context, s staff.Staff) (staff.Staff, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.table {
		if existing.TenantID == s.TenantID && existing.StaffNo == s.StaffNo {
			return staff.Staff{}, staff.ErrDuplicateIdentifier
		}
	}
	s.ID = uuid.New().String()
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *staffRepository) QueryStaff(ctx context.Context, tenantID string) ([]staff.Staff, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(tenantID), nil
}

func (repo *staffRepository) GetStaffByID(ctx context.Context, tenantID, id string) (staff.Staff, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.table[id]; ok && s.TenantID == tenantID {
		return *s, nil
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) LastStaffNo(ctx context.Context, tenantID, prefix string) (string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var last string
	for _, s := range repo.query(tenantID) {
		last = maxWithPrefix(last, s.StaffNo, prefix)
	}
	return last, nil
}
