package assignment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/article"
	"github.com/trezcool/coursedash/core/course"
	"github.com/trezcool/coursedash/core/user"
	"github.com/trezcool/coursedash/core/wiki"
)

var (
	// errors
	ErrNotFound = errors.New("assignment not found")

	errNotAuthorized   = "not authorized to manage this assignment"
	errNotInCourse     = "user is not enrolled in this course"
	errAlreadyClaimed  = "this article is already assigned to another user"
	errAlreadyAssigned = "this article is already assigned to the user"
	errStatusRequired  = "status is required"
	errInvalidStatus   = "%q is not a valid status for this assignment"
	errInvalidWiki     = "Invalid assignment: %s.%s is not a valid wiki"
	errInvalidTitle    = "%s is not a valid article title"
	errDuplicate       = "%s is already assigned in this course"
	errCourseNotFound  = "course not found"
	errNewURLRequired  = "newUrl is required"
	errInvalidOrdering = "cannot order by %q"
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignment(ctx context.Context, id int) (Assignment, error)
		QueryAssignments(ctx context.Context, filter QueryFilter) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		DeleteAssignment(ctx context.Context, id int) error
	}

	// WikiEditor mirrors assignment changes onto the course pages of the wiki.
	WikiEditor interface {
		RemoveAssignment(ctx context.Context, c course.Course, a Assignment) error
		UpdateAssignments(ctx context.Context, c course.Course) error
		UpdateCourse(ctx context.Context, c course.Course) error
	}

	Service struct {
		repo       Repository
		courseSvc  *course.Service
		wikiSvc    *wiki.Service
		articleSvc *article.Service
		usrSvc     *user.Service
		editor     WikiEditor
		logger     core.Logger
	}
)

func NewService(
	repo Repository,
	courseSvc *course.Service,
	wikiSvc *wiki.Service,
	articleSvc *article.Service,
	usrSvc *user.Service,
	editor WikiEditor,
	logger core.Logger,
) *Service {
	return &Service{
		repo:       repo,
		courseSvc:  courseSvc,
		wikiSvc:    wikiSvc,
		articleSvc: articleSvc,
		usrSvc:     usrSvc,
		editor:     editor,
		logger:     logger,
	}
}

func unauthorized() error { return core.NewRuleError(core.KindUnauthorized, errNotAuthorized) }

func (svc *Service) getCourseBySlug(ctx context.Context, slug string) (course.Course, error) {
	c, err := svc.courseSvc.GetBySlug(ctx, slug)
	if err != nil {
		if err == course.ErrNotFound {
			return course.Course{}, core.NewRuleError(core.KindNotFound, errCourseNotFound)
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return c, nil
}

// canManage reports whether actor owns the assignment or can edit its course.
func (svc *Service) canManage(ctx context.Context, c course.Course, a Assignment, actor user.User) (bool, error) {
	if a.OwnedBy(actor.ID) {
		return true, nil
	}
	return svc.courseSvc.CanEdit(ctx, c, actor)
}

func (svc *Service) exists(ctx context.Context, filter QueryFilter) (bool, error) {
	found, err := svc.repo.QueryAssignments(ctx, filter)
	if err != nil {
		return false, errors.Wrap(err, "querying assignments")
	}
	return len(found) > 0, nil
}

// syncWiki pushes the course's assignments to the wiki. Failures are logged, never returned.
func (svc *Service) syncWiki(ctx context.Context, c course.Course) {
	if err := svc.editor.UpdateAssignments(ctx, c); err != nil {
		svc.logger.Error(fmt.Sprintf("updating assignments on wiki: %v", err), err)
	}
	if err := svc.editor.UpdateCourse(ctx, c); err != nil {
		svc.logger.Error(fmt.Sprintf("updating course on wiki: %v", err), err)
	}
}

func (svc *Service) sandboxURL(ctx context.Context, w wiki.Wiki, userID, title string) (string, error) {
	usr, err := svc.usrSvc.GetByID(ctx, userID)
	if err != nil {
		if err == user.ErrNotFound {
			return "", core.NewValidationError(err, core.FieldError{Field: "user_id", Error: err.Error()})
		}
		return "", errors.Wrap(err, "finding assignee")
	}
	return SandboxURL(w, usr.Username, title), nil
}

// Create assigns an article to a user, or lists it as available when na.UserID is empty.
func (svc *Service) Create(ctx context.Context, actor user.User, na NewAssignment) (Assignment, error) {
	c, err := svc.getCourseBySlug(ctx, na.CourseSlug)
	if err != nil {
		return Assignment{}, err
	}

	// users may assign themselves; anything else requires edit rights on the course
	if na.UserID == "" || na.UserID != actor.ID {
		canEdit, err := svc.courseSvc.CanEdit(ctx, c, actor)
		if err != nil {
			return Assignment{}, errors.Wrap(err, "checking permissions")
		}
		if !canEdit {
			return Assignment{}, unauthorized()
		}
	}

	var w wiki.Wiki
	if na.Language == "" && na.Project == "" {
		w, err = svc.courseSvc.HomeWiki(ctx, c)
	} else {
		w, err = svc.wikiSvc.Get(ctx, na.Language, na.Project)
	}
	if err != nil {
		if err == wiki.ErrInvalidWiki {
			return Assignment{}, core.NewRuleError(core.KindNotFound, fmt.Sprintf(errInvalidWiki, na.Language, na.Project))
		}
		return Assignment{}, errors.Wrap(err, "getting wiki")
	}

	title, err := article.NormalizeTitle(na.Title, w)
	if err != nil {
		return Assignment{}, core.NewRuleError(core.KindInvalidRecord, fmt.Sprintf(errInvalidTitle, na.Title))
	}

	dup, err := svc.exists(ctx, QueryFilter{
		CourseID:     c.ID,
		UserID:       StrPtr(na.UserID),
		ArticleTitle: title,
		Role:         IntPtr(na.Role),
		WikiID:       w.ID,
	})
	if err != nil {
		return Assignment{}, err
	}
	if dup {
		return Assignment{}, core.NewRuleError(core.KindInvalidRecord, fmt.Sprintf(errDuplicate, title))
	}

	art, err := svc.articleSvc.FindOrImport(ctx, w, title)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "finding article")
	}

	now := core.NowFunc()
	a := Assignment{
		CourseID:     c.ID,
		ArticleID:    &art.ID,
		ArticleTitle: title,
		WikiID:       w.ID,
		Role:         na.Role,
		Flags:        Flags{AvailableArticle: na.UserID == ""},
		Status:       DefaultStatus(na.Role),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if na.UserID != "" {
		if a.SandboxURL, err = svc.sandboxURL(ctx, w, na.UserID, title); err != nil {
			return Assignment{}, err
		}
		a.UserID = StrPtr(na.UserID)
	}

	a, err = svc.repo.CreateAssignment(ctx, a)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "creating assignment")
	}
	svc.syncWiki(ctx, c)
	return a, nil
}

func (svc *Service) Get(ctx context.Context, id int) (Assignment, error) {
	a, err := svc.repo.GetAssignment(ctx, id)
	if err == ErrNotFound {
		return Assignment{}, core.NewRuleError(core.KindNotFound, err.Error())
	}
	return a, errors.Wrap(err, "finding assignment")
}

// Find resolves an assignment from its raw ID, falling back to lookup when the ID is not numeric.
// Clients that just created an assignment may not know its ID yet.
func (svc *Service) Find(ctx context.Context, rawID string, lookup Lookup) (Assignment, error) {
	if id, err := strconv.Atoi(rawID); err == nil {
		return svc.Get(ctx, id)
	}

	c, err := svc.getCourseBySlug(ctx, lookup.CourseSlug)
	if err != nil {
		return Assignment{}, err
	}
	// every attribute is matched; an empty user_id only matches unclaimed assignments
	title := core.CleanString(lookup.ArticleTitle)
	if title == "" {
		return Assignment{}, core.NewRuleError(core.KindNotFound, ErrNotFound.Error())
	}
	filter := QueryFilter{
		CourseID:     c.ID,
		UserID:       StrPtr(core.CleanString(lookup.UserID)),
		ArticleTitle: title,
		Role:         IntPtr(lookup.Role),
	}
	found, err := svc.repo.QueryAssignments(ctx, filter)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "querying assignments")
	}
	if len(found) == 0 {
		return Assignment{}, core.NewRuleError(core.KindNotFound, ErrNotFound.Error())
	}
	return found[0], nil
}

// Destroy deletes the assignment, or releases it when it is a claimed available article.
func (svc *Service) Destroy(ctx context.Context, actor user.User, a Assignment) error {
	c, err := svc.courseSvc.GetByID(ctx, a.CourseID)
	if err != nil {
		return errors.Wrap(err, "finding course")
	}
	ok, err := svc.canManage(ctx, c, a, actor)
	if err != nil {
		return errors.Wrap(err, "checking permissions")
	}
	if !ok {
		return unauthorized()
	}

	if a.Flags.AvailableArticle && a.Claimed() {
		a.UserID = nil
		a.SandboxURL = ""
		a.Status = DefaultStatus(a.Role)
		a.UpdatedAt = core.NowFunc()
		if _, err = svc.repo.UpdateAssignment(ctx, a); err != nil {
			return errors.Wrap(err, "unclaiming assignment")
		}
	} else {
		if err = svc.repo.DeleteAssignment(ctx, a.ID); err != nil {
			return errors.Wrap(err, "deleting assignment")
		}
		if err = svc.editor.RemoveAssignment(ctx, c, a); err != nil {
			svc.logger.Error(fmt.Sprintf("removing assignment from wiki: %v", err), err)
		}
	}
	svc.syncWiki(ctx, c)
	return nil
}

// Claim assigns an available article to userID (the actor when empty).
func (svc *Service) Claim(ctx context.Context, actor user.User, a Assignment, userID string) (Assignment, error) {
	c, err := svc.courseSvc.GetByID(ctx, a.CourseID)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "finding course")
	}

	if userID == "" {
		userID = actor.ID
	}
	claimant := actor
	if userID != actor.ID {
		canEdit, err := svc.courseSvc.CanEdit(ctx, c, actor)
		if err != nil {
			return Assignment{}, errors.Wrap(err, "checking permissions")
		}
		if !canEdit {
			return Assignment{}, unauthorized()
		}
		if claimant, err = svc.usrSvc.GetByID(ctx, userID); err != nil {
			if err == user.ErrNotFound {
				return Assignment{}, core.NewRuleError(core.KindUnauthorized, errNotInCourse)
			}
			return Assignment{}, errors.Wrap(err, "finding claimant")
		}
	}

	member, err := svc.courseSvc.IsMember(ctx, c, claimant)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "checking enrollment")
	}
	if !member {
		return Assignment{}, core.NewRuleError(core.KindUnauthorized, errNotInCourse)
	}

	if a.Claimed() {
		return Assignment{}, core.NewRuleError(core.KindConflict, errAlreadyClaimed)
	}
	dup, err := svc.exists(ctx, QueryFilter{
		CourseID:     c.ID,
		UserID:       StrPtr(claimant.ID),
		ArticleTitle: a.ArticleTitle,
		Role:         IntPtr(a.Role),
		WikiID:       a.WikiID,
	})
	if err != nil {
		return Assignment{}, err
	}
	if dup {
		return Assignment{}, core.NewRuleError(core.KindConflict, errAlreadyAssigned)
	}

	w, err := svc.wikiSvc.GetByID(ctx, a.WikiID)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "finding wiki")
	}

	now := core.NowFunc()
	claimed := a
	claimed.UserID = StrPtr(claimant.ID)
	claimed.SandboxURL = SandboxURL(w, claimant.Username, a.ArticleTitle)
	claimed.Status = DefaultStatus(a.Role)
	claimed.UpdatedAt = now

	if c.RetainAvailableArticles {
		// the available article stays listed; the claimant gets their own copy
		claimed.ID = 0
		claimed.Flags = Flags{}
		claimed.CreatedAt = now
		claimed, err = svc.repo.CreateAssignment(ctx, claimed)
	} else {
		claimed, err = svc.repo.UpdateAssignment(ctx, claimed)
	}
	if err != nil {
		return Assignment{}, errors.Wrap(err, "claiming assignment")
	}
	svc.syncWiki(ctx, c)
	return claimed, nil
}

func (svc *Service) UpdateStatus(ctx context.Context, a Assignment, status string) (Assignment, error) {
	status = core.CleanString(status)
	if status == "" {
		return Assignment{}, core.NewRuleError(core.KindUnprocessable, errStatusRequired)
	}
	if !ValidStatus(a.Role, status) {
		return Assignment{}, core.NewRuleError(core.KindUnprocessable, fmt.Sprintf(errInvalidStatus, status))
	}
	a.Status = status
	a.UpdatedAt = core.NowFunc()
	a, err := svc.repo.UpdateAssignment(ctx, a)
	return a, errors.Wrap(err, "updating assignment status")
}

func (svc *Service) UpdateSandboxURL(ctx context.Context, actor user.User, a Assignment, newURL string) (Assignment, error) {
	c, err := svc.courseSvc.GetByID(ctx, a.CourseID)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "finding course")
	}
	ok, err := svc.canManage(ctx, c, a, actor)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "checking permissions")
	}
	if !ok {
		return Assignment{}, unauthorized()
	}

	newURL = core.CleanString(newURL)
	if newURL == "" {
		return Assignment{}, core.NewRuleError(core.KindBadRequest, errNewURLRequired)
	}
	w, err := svc.wikiSvc.GetByID(ctx, a.WikiID)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "finding wiki")
	}
	switch err = ValidateSandboxURL(newURL, w); err {
	case nil:
	case ErrSandboxURLFormat:
		return Assignment{}, core.NewRuleError(core.KindBadRequest, err.Error())
	default:
		return Assignment{}, core.NewRuleError(core.KindUnprocessable, err.Error())
	}

	a.SandboxURL = newURL
	a.UpdatedAt = core.NowFunc()
	a, err = svc.repo.UpdateAssignment(ctx, a)
	return a, errors.Wrap(err, "updating sandbox url")
}

// QueryByCourse lists the assignments of a course, by ID unless orderings are given.
func (svc *Service) QueryByCourse(ctx context.Context, courseSlug string, orderings ...core.DBOrdering) ([]Assignment, error) {
	c, err := svc.getCourseBySlug(ctx, courseSlug)
	if err != nil {
		return nil, err
	}
	for _, ord := range orderings {
		if !ValidOrderingField(ord.Field) {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "ordering", Error: fmt.Sprintf(errInvalidOrdering, ord.Field)})
		}
	}
	found, err := svc.repo.QueryAssignments(ctx, QueryFilter{CourseID: c.ID, Orderings: orderings})
	return found, errors.Wrap(err, "querying assignments")
}
