package course_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursedash/core"
	. "github.com/trezcool/coursedash/core/course"
	"github.com/trezcool/coursedash/core/user"
	"github.com/trezcool/coursedash/tests"
)

func TestService_CreateTaughtBy(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv()
	prof := testutil.CreateUser(t, env.UserRepo, "Prof", "prof", "prof@test.cd", "", []string{user.RoleInstructor}, true)
	nc := NewCourse{Title: "Course", Slug: "School/Course_(term)"}

	t.Run("unknown instructor leaves no course behind", func(t *testing.T) {
		_, err := env.CourseSvc.CreateTaughtBy(ctx, nc, "unknown")
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "want a validation error, got %v", err)

		_, err = env.CourseSvc.GetBySlug(ctx, nc.Slug)
		assert.Equal(t, ErrNotFound, err)
	})

	t.Run("creator is enrolled as instructor", func(t *testing.T) {
		c, err := env.CourseSvc.CreateTaughtBy(ctx, nc, prof.ID)
		require.NoError(t, err)
		assert.Equal(t, nc.Slug, c.Slug)

		instructors, err := env.CourseSvc.Instructors(ctx, c)
		require.NoError(t, err)
		require.Len(t, instructors, 1)
		assert.Equal(t, prof.ID, instructors[0].ID)
	})

	t.Run("slug taken", func(t *testing.T) {
		_, err := env.CourseSvc.CreateTaughtBy(ctx, nc, prof.ID)
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "want a validation error, got %v", err)
		assert.Equal(t, "slug", vErr.Fields[0].Field)
	})
}
