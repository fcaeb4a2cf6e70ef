package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/assignment"
)

const assignmentColumns = `id, course_id, user_id, article_id, article_title, wiki_id, role,
	available_article, sandbox_url, status, created_at, updated_at`

type assignmentRow struct {
	ID               int            `db:"id"`
	CourseID         int            `db:"course_id"`
	UserID           sql.NullString `db:"user_id"`
	ArticleID        sql.NullInt64  `db:"article_id"`
	ArticleTitle     string         `db:"article_title"`
	WikiID           int            `db:"wiki_id"`
	Role             int            `db:"role"`
	AvailableArticle bool           `db:"available_article"`
	SandboxURL       string         `db:"sandbox_url"`
	Status           string         `db:"status"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (row assignmentRow) toAssignment() assignment.Assignment {
	a := assignment.Assignment{
		ID:           row.ID,
		CourseID:     row.CourseID,
		ArticleTitle: row.ArticleTitle,
		WikiID:       row.WikiID,
		Role:         row.Role,
		Flags:        assignment.Flags{AvailableArticle: row.AvailableArticle},
		SandboxURL:   row.SandboxURL,
		Status:       row.Status,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.UserID.Valid {
		a.UserID = assignment.StrPtr(row.UserID.String)
	}
	if row.ArticleID.Valid {
		a.ArticleID = assignment.IntPtr(int(row.ArticleID.Int64))
	}
	return a
}

func assignmentArgs(a assignment.Assignment) []interface{} {
	var (
		userID    sql.NullString
		articleID sql.NullInt64
	)
	if a.Claimed() {
		userID = nullString(*a.UserID)
	}
	if a.ArticleID != nil {
		articleID = sql.NullInt64{Int64: int64(*a.ArticleID), Valid: true}
	}
	return []interface{}{
		a.CourseID, userID, articleID, a.ArticleTitle, a.WikiID, a.Role,
		a.Flags.AvailableArticle, a.SandboxURL, a.Status, a.CreatedAt, a.UpdatedAt,
	}
}

type assignmentRepository struct {
	db core.DBExecutor
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db core.DBExecutor) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	q := `INSERT INTO assignment (course_id, user_id, article_id, article_title, wiki_id, role,
		available_article, sandbox_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	if err := repo.db.GetContext(ctx, &a.ID, q, assignmentArgs(a)...); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id int) (assignment.Assignment, error) {
	var row assignmentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+assignmentColumns+` FROM assignment WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "selecting assignment")
	}
	return row.toAssignment(), nil
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	var (
		conds []string
		args  []interface{}
	)
	where := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.CourseID != 0 {
		where("course_id = $%d", filter.CourseID)
	}
	if filter.UserID != nil {
		if *filter.UserID == "" {
			conds = append(conds, "user_id IS NULL")
		} else {
			where("user_id::text = $%d", *filter.UserID)
		}
	}
	if filter.ArticleTitle != "" {
		where("article_title = $%d", filter.ArticleTitle)
	}
	if filter.Role != nil {
		where("role = $%d", *filter.Role)
	}
	if filter.WikiID != 0 {
		where("wiki_id = $%d", filter.WikiID)
	}

	q := `SELECT ` + assignmentColumns + ` FROM assignment`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(filter.Orderings, assignment.OrderingFields, "id ASC")

	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting assignments")
	}
	found := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		found = append(found, row.toAssignment())
	}
	return found, nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	q := `UPDATE assignment SET course_id = $2, user_id = $3, article_id = $4, article_title = $5, wiki_id = $6, role = $7,
		available_article = $8, sandbox_url = $9, status = $10, created_at = $11, updated_at = $12 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, append([]interface{}{a.ID}, assignmentArgs(a)...)...)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return a, nil
}

func (repo *assignmentRepository) DeleteAssignment(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM assignment WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.ErrNotFound
	}
	return nil
}
