package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/assignment"
)

type assignmentRepository struct {
	db *assignmentTable
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db.assignment}
}

func copyAssignment(a assignment.Assignment) *assignment.Assignment {
	if a.UserID != nil {
		a.UserID = assignment.StrPtr(*a.UserID)
	}
	if a.ArticleID != nil {
		a.ArticleID = assignment.IntPtr(*a.ArticleID)
	}
	return &a
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pk++
	a.ID = repo.db.pk
	repo.db.table[a.ID] = copyAssignment(a)
	return a, nil
}

func (repo *assignmentRepository) GetAssignment(_ context.Context, id int) (assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return *copyAssignment(*a), nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func matches(a *assignment.Assignment, filter assignment.QueryFilter) bool {
	if filter.CourseID != 0 && a.CourseID != filter.CourseID {
		return false
	}
	if filter.UserID != nil {
		if *filter.UserID == "" && a.Claimed() {
			return false
		}
		if *filter.UserID != "" && !a.OwnedBy(*filter.UserID) {
			return false
		}
	}
	if filter.ArticleTitle != "" && a.ArticleTitle != filter.ArticleTitle {
		return false
	}
	if filter.Role != nil && a.Role != *filter.Role {
		return false
	}
	if filter.WikiID != 0 && a.WikiID != filter.WikiID {
		return false
	}
	return true
}

func (repo *assignmentRepository) QueryAssignments(_ context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var found []assignment.Assignment
	for _, a := range repo.db.table {
		if matches(a, filter) {
			found = append(found, *copyAssignment(*a))
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return lessAssignment(found[i], found[j], filter.Orderings) })
	return found, nil
}

// lessAssignment compares on each ordering in turn, then on ID.
func lessAssignment(a, b assignment.Assignment, orderings []core.DBOrdering) bool {
	for _, ord := range orderings {
		var cmp int
		switch ord.Field {
		case "id":
			cmp = compareInts(a.ID, b.ID)
		case "article_title":
			cmp = strings.Compare(a.ArticleTitle, b.ArticleTitle)
		case "role":
			cmp = compareInts(a.Role, b.Role)
		case "status":
			cmp = strings.Compare(a.Status, b.Status)
		case "created_at":
			cmp = compareTimes(a.CreatedAt, b.CreatedAt)
		case "updated_at":
			cmp = compareTimes(a.UpdatedAt, b.UpdatedAt)
		}
		if cmp != 0 {
			return (cmp < 0) == ord.Ascending
		}
	}
	return a.ID < b.ID
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func (repo *assignmentRepository) UpdateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[a.ID]; !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	repo.db.table[a.ID] = copyAssignment(a)
	return a, nil
}

func (repo *assignmentRepository) DeleteAssignment(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return assignment.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
