package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/coursedash/core/course"
)

type courseRepository struct {
	db   *courseTable
	cuDB *coursesUsersTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course, cuDB: db.coursesUsers}
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.Slug == c.Slug {
			return course.Course{}, course.ErrSlugExists
		}
	}
	repo.db.pk++
	c.ID = repo.db.pk
	repo.db.table[c.ID] = &c
	return c, nil
}

// DeleteCourse also drops the course's enrollments.
func (repo *courseRepository) DeleteCourse(_ context.Context, id int) error {
	repo.db.Lock()
	if _, ok := repo.db.table[id]; !ok {
		repo.db.Unlock()
		return course.ErrNotFound
	}
	delete(repo.db.table, id)
	repo.db.Unlock()

	repo.cuDB.Lock()
	defer repo.cuDB.Unlock()
	for pk, cu := range repo.cuDB.table {
		if cu.CourseID == id {
			delete(repo.cuDB.table, pk)
		}
	}
	return nil
}

func (repo *courseRepository) GetCourse(_ context.Context, filter course.GetFilter) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != 0 {
		if c, ok := repo.db.table[filter.ID]; ok {
			return *c, nil
		}
		return course.Course{}, course.ErrNotFound
	}
	for _, c := range repo.db.table {
		if filter.Slug != "" && c.Slug == filter.Slug {
			return *c, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[c.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) AddCourseUser(_ context.Context, cu course.CoursesUsers) (course.CoursesUsers, error) {
	repo.cuDB.Lock()
	defer repo.cuDB.Unlock()

	repo.cuDB.pk++
	cu.ID = repo.cuDB.pk
	repo.cuDB.table[cu.ID] = &cu
	return cu, nil
}

func (repo *courseRepository) QueryCourseUsers(_ context.Context, courseID int, userID string, roles ...int) ([]course.CoursesUsers, error) {
	repo.cuDB.RLock()
	defer repo.cuDB.RUnlock()

	hasRole := func(role int) bool {
		if len(roles) == 0 {
			return true
		}
		for _, r := range roles {
			if r == role {
				return true
			}
		}
		return false
	}

	var cus []course.CoursesUsers
	for _, cu := range repo.cuDB.table {
		if cu.CourseID == courseID && (userID == "" || cu.UserID == userID) && hasRole(cu.Role) {
			cus = append(cus, *cu)
		}
	}
	sort.Slice(cus, func(i, j int) bool { return cus[i].ID < cus[j].ID })
	return cus, nil
}
