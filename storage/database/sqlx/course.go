package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/course"
)

const courseColumns = `id, slug, title, school, term, submitted, home_wiki_id, retain_available_articles, created_at, updated_at`

type courseRepository struct {
	db core.DBExecutor
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db core.DBExecutor) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q := `INSERT INTO course (slug, title, school, term, submitted, home_wiki_id, retain_available_articles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := repo.db.GetContext(ctx, &c.ID, q,
		c.Slug, c.Title, c.School, c.Term, c.Submitted, c.HomeWikiID, c.RetainAvailableArticles, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return course.Course{}, course.ErrSlugExists
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

// DeleteCourse relies on the schema's foreign keys to drop what belongs to the course.
func (repo *courseRepository) DeleteCourse(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrNotFound
	}
	return nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, filter course.GetFilter) (course.Course, error) {
	var (
		c     course.Course
		where string
		arg   interface{}
	)
	switch {
	case filter.ID != 0:
		where, arg = "id = $1", filter.ID
	case filter.Slug != "":
		where, arg = "slug = $1", filter.Slug
	default:
		return course.Course{}, course.ErrNotFound
	}

	if err := repo.db.GetContext(ctx, &c, `SELECT `+courseColumns+` FROM course WHERE `+where, arg); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "selecting course")
	}
	return c, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q := `UPDATE course SET slug = $2, title = $3, school = $4, term = $5, submitted = $6, home_wiki_id = $7,
		retain_available_articles = $8, updated_at = $9 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		c.ID, c.Slug, c.Title, c.School, c.Term, c.Submitted, c.HomeWikiID, c.RetainAvailableArticles, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return course.Course{}, course.ErrSlugExists
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return c, nil
}

func (repo *courseRepository) AddCourseUser(ctx context.Context, cu course.CoursesUsers) (course.CoursesUsers, error) {
	q := `INSERT INTO courses_users (course_id, user_id, role, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := repo.db.GetContext(ctx, &cu.ID, q, cu.CourseID, cu.UserID, cu.Role, cu.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return course.CoursesUsers{}, course.ErrAlreadyEnrolled
		}
		return course.CoursesUsers{}, errors.Wrap(err, "inserting course user")
	}
	return cu, nil
}

func (repo *courseRepository) QueryCourseUsers(ctx context.Context, courseID int, userID string, roles ...int) ([]course.CoursesUsers, error) {
	q := `SELECT id, course_id, user_id, role, created_at FROM courses_users
		WHERE course_id = $1 AND ($2 = '' OR user_id::text = $2) AND (cardinality($3::int[]) = 0 OR role = ANY($3))
		ORDER BY id`
	roleIDs := make(pq.Int64Array, 0, len(roles))
	for _, role := range roles {
		roleIDs = append(roleIDs, int64(role))
	}

	var cus []course.CoursesUsers
	if err := repo.db.SelectContext(ctx, &cus, q, courseID, userID, roleIDs); err != nil {
		return nil, errors.Wrap(err, "selecting course users")
	}
	return cus, nil
}
