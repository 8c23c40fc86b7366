package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

// emailTaken must be called with the lock held.
func (repo *studentRepository) emailTaken(email, excludedID string) bool {
	for id, s := range repo.db.table {
		if s.Email == email && id != excludedID {
			return true
		}
	}
	return false
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.emailTaken(s.Email, "") {
		return student.Student{}, student.ErrEmailExists
	}
	s.ID = newID()
	repo.db.table[s.ID] = &s
	return s, nil
}

func matches(s student.Student, filter student.QueryFilter) bool {
	if filter.Search == "" {
		return true
	}
	term := strings.ToLower(filter.Search)
	if strings.Contains(strings.ToLower(s.FirstName), term) ||
		strings.Contains(strings.ToLower(s.LastName), term) ||
		strings.Contains(strings.ToLower(s.Email), term) {
		return true
	}
	return filter.IsNumeric() && s.MobileNumber == filter.Search
}

// less compares two students on ordering, defaulting to creation order.
func less(a, b student.Student, ordering []core.DBOrdering) bool {
	for _, ord := range ordering {
		var cmp int
		switch ord.Field {
		case "firstName":
			cmp = strings.Compare(a.FirstName, b.FirstName)
		case "lastName":
			cmp = strings.Compare(a.LastName, b.LastName)
		case "email":
			cmp = strings.Compare(a.Email, b.Email)
		case "standard":
			cmp = a.Standard - b.Standard
		case "createdAt":
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		}
		if cmp == 0 {
			continue
		}
		if ord.Ascending {
			return cmp < 0
		}
		return cmp > 0
	}
	return createdBefore(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
}

func (repo *studentRepository) QueryStudents(
	_ context.Context,
	filter student.QueryFilter,
	page core.Pagination,
	ordering []core.DBOrdering,
) ([]student.Student, int64, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var found []student.Student
	for _, s := range repo.db.table {
		if matches(*s, filter) {
			found = append(found, *s)
		}
	}
	sort.Slice(found, func(i, j int) bool { return less(found[i], found[j], ordering) })

	total := int64(len(found))
	start := page.Skip()
	if start >= total {
		return []student.Student{}, total, nil
	}
	end := total
	if int64(page.Limit) < total-start {
		end = start + int64(page.Limit)
	}
	return found[start:end], total, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[s.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	if repo.emailTaken(s.Email, s.ID) {
		return student.Student{}, student.ErrEmailExists
	}
	s.CreatedAt = orig.CreatedAt
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id string) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s, ok := repo.db.table[id]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	delete(repo.db.table, id)
	return *s, nil
}
