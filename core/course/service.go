package course

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/user"
	"github.com/trezcool/coursedash/core/wiki"
)

var (
	// errors
	ErrNotFound         = errors.New("course not found")
	ErrSlugExists       = errors.New("a course with this slug already exists")
	ErrAlreadyEnrolled  = errors.New("user already has this role in the course")
	errNoPermsToEnroll  = "not enough rights to enroll users in this course"
	errNoPermsToPromote = "only admins can grant this role"
)

type (
	GetFilter struct {
		ID   int
		Slug string
	}

	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id int) error
		GetCourse(ctx context.Context, filter GetFilter) (Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		AddCourseUser(ctx context.Context, cu CoursesUsers) (CoursesUsers, error)
		// QueryCourseUsers returns the enrollments of a course, optionally narrowed to a user and/or roles.
		QueryCourseUsers(ctx context.Context, courseID int, userID string, roles ...int) ([]CoursesUsers, error)
	}

	Service struct {
		repo    Repository
		wikiSvc *wiki.Service
		usrSvc  *user.Service
	}
)

func NewService(repo Repository, wikiSvc *wiki.Service, usrSvc *user.Service) *Service {
	return &Service{repo: repo, wikiSvc: wikiSvc, usrSvc: usrSvc}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	if _, err := svc.repo.GetCourse(ctx, GetFilter{Slug: nc.Slug}); err == nil {
		return Course{}, core.NewValidationError(ErrSlugExists, core.FieldError{Field: "slug", Error: ErrSlugExists.Error()})
	} else if err != ErrNotFound {
		return Course{}, errors.Wrap(err, "checking course slug")
	}

	homeWiki, err := svc.wikiSvc.Get(ctx, nc.Language, nc.Project)
	if err != nil {
		if err == wiki.ErrInvalidWiki {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "project", Error: err.Error()})
		}
		return Course{}, errors.Wrap(err, "getting home wiki")
	}

	now := core.NowFunc()
	return svc.repo.CreateCourse(ctx, Course{
		Slug:                    nc.Slug,
		Title:                   nc.Title,
		School:                  nc.School,
		Term:                    nc.Term,
		Submitted:               nc.Submitted,
		HomeWikiID:              homeWiki.ID,
		RetainAvailableArticles: nc.RetainAvailableArticles,
		CreatedAt:               now,
		UpdatedAt:               now,
	})
}

// CreateTaughtBy creates the course with instructorID enrolled as its instructor.
// The course is removed again when the enrollment fails.
func (svc *Service) CreateTaughtBy(ctx context.Context, nc NewCourse, instructorID string) (Course, error) {
	c, err := svc.Create(ctx, nc)
	if err != nil {
		return Course{}, err
	}
	if _, err = svc.AddUser(ctx, c, instructorID, RoleInstructor); err != nil {
		if delErr := svc.repo.DeleteCourse(ctx, c.ID); delErr != nil {
			return Course{}, errors.Wrapf(delErr, "removing course %d after failed enrollment (%v)", c.ID, err)
		}
		return Course{}, errors.Wrap(err, "enrolling instructor")
	}
	return c, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, GetFilter{ID: id})
}

func (svc *Service) GetBySlug(ctx context.Context, slug string) (Course, error) {
	return svc.repo.GetCourse(ctx, GetFilter{Slug: core.CleanString(slug)})
}

// Enroll adds usr to the course with the given role.
// Admins may grant any role; course editors may only add students.
func (svc *Service) Enroll(ctx context.Context, c Course, actor user.User, e Enrollment) (CoursesUsers, error) {
	if !actor.IsAdmin() {
		canEdit, err := svc.CanEdit(ctx, c, actor)
		if err != nil {
			return CoursesUsers{}, err
		}
		if !canEdit {
			return CoursesUsers{}, core.NewRuleError(core.KindForbidden, errNoPermsToEnroll)
		}
		if e.Role != RoleStudent {
			return CoursesUsers{}, core.NewRuleError(core.KindForbidden, errNoPermsToPromote)
		}
	}
	return svc.AddUser(ctx, c, e.UserID, e.Role)
}

// AddUser enrolls the user without permission checks.
func (svc *Service) AddUser(ctx context.Context, c Course, userID string, role int) (CoursesUsers, error) {
	if _, err := svc.usrSvc.GetByID(ctx, userID); err != nil {
		if err == user.ErrNotFound {
			return CoursesUsers{}, core.NewValidationError(err, core.FieldError{Field: "user_id", Error: err.Error()})
		}
		return CoursesUsers{}, errors.Wrap(err, "finding user")
	}

	existing, err := svc.repo.QueryCourseUsers(ctx, c.ID, userID, role)
	if err != nil {
		return CoursesUsers{}, errors.Wrap(err, "querying course users")
	}
	if len(existing) > 0 {
		return CoursesUsers{}, core.NewRuleError(core.KindConflict, ErrAlreadyEnrolled.Error())
	}

	return svc.repo.AddCourseUser(ctx, CoursesUsers{
		CourseID:  c.ID,
		UserID:    userID,
		Role:      role,
		CreatedAt: core.NowFunc(),
	})
}

// UserRoles returns the roles usr holds in the course.
func (svc *Service) UserRoles(ctx context.Context, c Course, usr user.User) ([]int, error) {
	cus, err := svc.repo.QueryCourseUsers(ctx, c.ID, usr.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying course users")
	}
	roles := make([]int, 0, len(cus))
	for _, cu := range cus {
		roles = append(roles, cu.Role)
	}
	return roles, nil
}

// IsMember reports whether usr is enrolled in the course with any role.
func (svc *Service) IsMember(ctx context.Context, c Course, usr user.User) (bool, error) {
	roles, err := svc.UserRoles(ctx, c, usr)
	return len(roles) > 0, err
}

// CanEdit reports whether usr may manage the course: admins and every non-student role.
func (svc *Service) CanEdit(ctx context.Context, c Course, usr user.User) (bool, error) {
	if usr.IsAdmin() {
		return true, nil
	}
	roles, err := svc.UserRoles(ctx, c, usr)
	if err != nil {
		return false, err
	}
	for _, role := range roles {
		if role != RoleStudent {
			return true, nil
		}
	}
	return false, nil
}

func (svc *Service) Instructors(ctx context.Context, c Course) ([]user.User, error) {
	cus, err := svc.repo.QueryCourseUsers(ctx, c.ID, "", RoleInstructor)
	if err != nil {
		return nil, errors.Wrap(err, "querying course instructors")
	}
	ids := make([]string, 0, len(cus))
	for _, cu := range cus {
		ids = append(ids, cu.UserID)
	}
	return svc.usrSvc.GetMany(ctx, ids...)
}

func (svc *Service) HomeWiki(ctx context.Context, c Course) (wiki.Wiki, error) {
	return svc.wikiSvc.GetByID(ctx, c.HomeWikiID)
}
