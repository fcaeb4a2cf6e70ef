package sqlxrepos

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/assignment"
)

var assignmentCols = []string{
	"id", "course_id", "user_id", "article_id", "article_title", "wiki_id", "role",
	"available_article", "sandbox_url", "status", "created_at", "updated_at",
}

func TestAssignmentRepository_GetAssignment(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("available article", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM assignment WHERE id = \$1`).
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows(assignmentCols).
				AddRow(3, 1, nil, 7, "Pizza", 1, 0, true, "", assignment.StatusNotYetStarted, now, now))

		a, err := repo.GetAssignment(ctx, 3)
		require.NoError(t, err)
		assert.Nil(t, a.UserID)
		assert.False(t, a.Claimed())
		if assert.NotNil(t, a.ArticleID) {
			assert.Equal(t, 7, *a.ArticleID)
		}
		assert.True(t, a.Flags.AvailableArticle)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM assignment WHERE id = \$1`).
			WithArgs(4).
			WillReturnRows(sqlmock.NewRows(assignmentCols))

		_, err := repo.GetAssignment(ctx, 4)
		assert.Equal(t, assignment.ErrNotFound, err)
	})
}

func TestAssignmentRepository_QueryAssignments(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	tests := []struct {
		name      string
		filter    assignment.QueryFilter
		wantQuery string
		wantArgs  []driver.Value
	}{
		{
			name:      "course",
			filter:    assignment.QueryFilter{CourseID: 1},
			wantQuery: "FROM assignment WHERE course_id = $1 ORDER BY id ASC",
			wantArgs:  []driver.Value{1},
		},
		{
			name:      "unclaimed",
			filter:    assignment.QueryFilter{CourseID: 1, UserID: assignment.StrPtr(""), ArticleTitle: "Pizza", Role: assignment.IntPtr(0)},
			wantQuery: "WHERE course_id = $1 AND user_id IS NULL AND article_title = $2 AND role = $3 ORDER BY id ASC",
			wantArgs:  []driver.Value{1, "Pizza", 0},
		},
		{
			name:      "user on wiki",
			filter:    assignment.QueryFilter{UserID: assignment.StrPtr(userID), WikiID: 2},
			wantQuery: "WHERE user_id::text = $1 AND wiki_id = $2 ORDER BY id ASC",
			wantArgs:  []driver.Value{userID, 2},
		},
		{
			name: "ordered",
			filter: assignment.QueryFilter{CourseID: 1, Orderings: []core.DBOrdering{
				{Field: "article_title"}, {Field: "lol; DROP TABLE assignment"}, {Field: "created_at", Ascending: true},
			}},
			wantQuery: `WHERE course_id = $1 ORDER BY "article_title" DESC, "created_at" ASC, id ASC`,
			wantArgs:  []driver.Value{1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectQuery(regexp.QuoteMeta(tt.wantQuery)).
				WithArgs(tt.wantArgs...).
				WillReturnRows(sqlmock.NewRows(assignmentCols).
					AddRow(1, 1, userID, nil, "Pizza", 2, 0, false, "", assignment.StatusInProgress, now, now))

			found, err := repo.QueryAssignments(ctx, tt.filter)
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.True(t, found[0].OwnedBy(userID))
			assert.Nil(t, found[0].ArticleID)
		})
	}
}

func TestAssignmentRepository_CreateAssignment(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssignmentRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO assignment (.+) RETURNING id`).
		WithArgs(1, nil, 7, "Pizza", 2, 0, true, "", assignment.StatusNotYetStarted, now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	a, err := repo.CreateAssignment(context.Background(), assignment.Assignment{
		CourseID: 1, UserID: assignment.StrPtr(""), ArticleID: assignment.IntPtr(7), ArticleTitle: "Pizza", WikiID: 2,
		Flags: assignment.Flags{AvailableArticle: true}, Status: assignment.StatusNotYetStarted, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, a.ID)
}

func TestAssignmentRepository_UpdateAndDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE assignment SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	_, err := repo.UpdateAssignment(ctx, assignment.Assignment{ID: 1, Status: assignment.StatusInProgress})
	assert.NoError(t, err)

	mock.ExpectExec(`DELETE FROM assignment WHERE id = \$1`).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.DeleteAssignment(ctx, 1))

	mock.ExpectExec(`DELETE FROM assignment WHERE id = \$1`).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.Equal(t, assignment.ErrNotFound, repo.DeleteAssignment(ctx, 1))
}
