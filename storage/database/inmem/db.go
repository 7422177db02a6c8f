// Package inmemdb provides in-memory repository implementations used by
// tests. They enforce the same uniqueness constraints as the document
// store's unique indexes, duplicate-identifier surfacing included.
package inmemdb

import (
	"strings"
	"sync"

	"github.com/trezcool/shule/core/staff"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/tenant"
	"github.com/trezcool/shule/core/user"
)

type DB struct {
	tenant  *tenantTable
	user    *userTable
	student *studentTable
	staff   *staffTable
}

func Open() (*DB, error) {
	return &DB{
		tenant:  &tenantTable{table: make(map[string]*tenant.Tenant)},
		user:    &userTable{table: make(map[string]*user.User)},
		student: &studentTable{table: make(map[string]*student.Student)},
		staff:   &staffTable{table: make(map[string]*staff.Staff)},
	}, nil
}

type (
	tenantTable struct {
		mutex sync.RWMutex
		table map[string]*tenant.Tenant
	}
	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}
	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student
	}
	staffTable struct {
		mutex sync.RWMutex
		table map[string]*staff.Staff
	}
)

// maxWithPrefix keeps the lexicographically greatest candidate starting with
// prefix; zero-padded sequences make that the numerically greatest too.
func maxWithPrefix(curr, candidate, prefix string) string {
	if !strings.HasPrefix(candidate, prefix) {
		return curr
	}
	if candidate > curr {
		return candidate
	}
	return curr
}
