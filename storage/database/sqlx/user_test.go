package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/user"
)

var userCols = []string{"id", "name", "username", "email", "is_active", "roles", "password_hash", "created_at", "updated_at", "last_login"}

const userID = "9b2d5a4e-3c1f-4f5e-8a36-0f3b8c1d2e4f"

func TestUserRepository_GetUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(userCols).
			AddRow(userID, "Prof", "prof", nil, false, "{instructor:}", []byte("hash"), now, now, nil)
		mock.ExpectQuery(`SELECT (.+) FROM "user" WHERE \(username = \$1 OR email = \$1\)`).
			WithArgs("prof").
			WillReturnRows(rows)

		usr, err := repo.GetUser(ctx, user.GetFilter{UsernameOrEmail: "prof"})
		require.NoError(t, err)
		assert.Equal(t, userID, usr.ID)
		assert.Equal(t, "prof", usr.Username)
		assert.Empty(t, usr.Email)
		assert.False(t, usr.Active())
		assert.True(t, usr.IsInstructor())
		assert.True(t, usr.LastLogin.IsZero())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM "user" WHERE id = \$1`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(userCols))

		_, err := repo.GetUser(ctx, user.GetFilter{ID: userID})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := repo.GetUser(ctx, user.GetFilter{ID: "lol"})
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func TestUserRepository_CheckUsernameUniqueness(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "user"`).
		WithArgs("prof", "prof@test.cd", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	assert.Equal(t, user.ErrUserExists, repo.CheckUsernameUniqueness(context.Background(), "prof", "prof@test.cd"))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "user"`).
		WithArgs("prof", "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	assert.NoError(t, repo.CheckUsernameUniqueness(context.Background(), "prof", "", user.User{ID: userID}))
}

func TestUserRepository_CreateUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("created", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO "user"`).WillReturnResult(sqlmock.NewResult(0, 1))

		usr, err := repo.CreateUser(ctx, user.User{Name: "Prof", Username: "prof", Roles: []string{user.RoleInstructor}})
		require.NoError(t, err)
		assert.Len(t, usr.ID, 36)
	})

	t.Run("duplicate", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO "user"`).WillReturnError(&pq.Error{Code: uniqueViolation})

		_, err := repo.CreateUser(ctx, user.User{Name: "Prof", Username: "prof"})
		assert.Equal(t, user.ErrUserExists, err)
	})
}

func TestUserRepository_GetUsersByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT (.+) FROM "user" WHERE id::text = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(userID, "Prof", "prof", "prof@test.cd", true, "{}", nil, now, now, now))

	users, err := repo.GetUsersByID(context.Background(), userID, "not-a-uuid")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "prof@test.cd", users[0].Email)
	assert.Empty(t, users[0].Roles)
	assert.Equal(t, now, users[0].LastLogin)

	// nothing to look up
	users, err = repo.GetUsersByID(context.Background(), "not-a-uuid")
	assert.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserRepository_UpdateUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE "user" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	_, err := repo.UpdateUser(context.Background(), user.User{ID: userID, Name: "Prof"})
	assert.Equal(t, user.ErrNotFound, err)
}

func TestUserRepository_QueryUsers(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("all", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM "user" ORDER BY created_at$`).
			WillReturnRows(sqlmock.NewRows(userCols))

		users, err := repo.QueryUsers(ctx, user.QueryFilter{})
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("filtered and ordered", func(t *testing.T) {
		active := true
		mock.ExpectQuery(`SELECT (.+) FROM "user" WHERE \(name ILIKE \$1 OR username ILIKE \$1 OR email ILIKE \$1\) `+
			`AND roles && \$2 AND is_active = \$3 ORDER BY "name" DESC, created_at`).
			WithArgs("%prof%", sqlmock.AnyArg(), true).
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(userID, "Prof", "prof", "prof@test.cd", true, "{instructor:}", nil, now, now, nil))

		users, err := repo.QueryUsers(ctx,
			user.QueryFilter{Search: "prof", Roles: []string{user.RoleInstructor}, IsActive: &active},
			core.DBOrdering{Field: "name"}, core.DBOrdering{Field: "password_hash", Ascending: true},
		)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, userID, users[0].ID)
		assert.True(t, users[0].IsInstructor())
	})
}

func TestUserRepository_DeleteUsersByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`DELETE FROM "user" WHERE id::text = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.DeleteUsersByID(context.Background(), userID, "not-a-uuid"))

	// nothing to delete
	assert.NoError(t, repo.DeleteUsersByID(context.Background(), "not-a-uuid"))
}
