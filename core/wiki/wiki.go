package wiki

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/coursedash/core"
)

const (
	ProjectWikipedia  = "wikipedia"
	ProjectWiktionary = "wiktionary"
	ProjectWikimedia  = "wikimedia"
	ProjectWikidata   = "wikidata"
)

var (
	Projects = []string{
		"wikibooks", ProjectWikidata, ProjectWikimedia, "wikinews", ProjectWikipedia,
		"wikiquote", "wikisource", "wikiversity", "wikivoyage", ProjectWiktionary,
	}

	// wikimedia only hosts these multilingual wikis
	wikimediaLanguages = []string{"commons", "incubator", "meta", "outreach", "species"}

	languageRegex = regexp.MustCompile(`^[a-z][a-z0-9-]{1,11}$`)

	// errors
	ErrInvalidWiki = errors.New("invalid wiki")
	ErrNotFound    = errors.New("wiki not found")
)

type Wiki struct {
	ID       int    `json:"id" db:"id"`
	Language string `json:"language" db:"language"`
	Project  string `json:"project" db:"project"`
}

func (w Wiki) Domain() string {
	return w.Language + "." + w.Project + ".org"
}

func (w Wiki) BaseURL() string {
	return "https://" + w.Domain()
}

func (w Wiki) String() string {
	return w.Language + "." + w.Project
}

// CaseSensitive reports whether the first letter of a title is significant on this wiki.
func (w Wiki) CaseSensitive() bool {
	return w.Project == ProjectWiktionary
}

func contains(sorted []string, s string) bool {
	i := sort.SearchStrings(sorted, s)
	return i < len(sorted) && sorted[i] == s
}

// Validate checks that language and project name an existing wiki.
func Validate(language, project string) error {
	if !contains(Projects, project) {
		return ErrInvalidWiki
	}
	if project == ProjectWikimedia {
		if !contains(wikimediaLanguages, language) {
			return ErrInvalidWiki
		}
		return nil
	}
	if !languageRegex.MatchString(language) {
		return ErrInvalidWiki
	}
	return nil
}

// Parse splits a "<language>.<project>" string.
func Parse(s string) (language, project string, err error) {
	parts := strings.SplitN(core.CleanString(s, true /* lower */), ".", 2)
	if len(parts) != 2 {
		return "", "", ErrInvalidWiki
	}
	if err := Validate(parts[0], parts[1]); err != nil {
		return "", "", err
	}
	return parts[0], parts[1], nil
}

type (
	Repository interface {
		GetWiki(ctx context.Context, language, project string) (Wiki, error)
		GetWikiByID(ctx context.Context, id int) (Wiki, error)
		CreateWiki(ctx context.Context, w Wiki) (Wiki, error)
	}

	Service struct {
		repo        Repository
		defaultWiki string
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{repo: repo, defaultWiki: conf.DefaultWiki}
}

// Get returns the wiki for language and project, creating its record on first use.
// Empty language and project resolve to the default wiki.
func (svc *Service) Get(ctx context.Context, language, project string) (Wiki, error) {
	language = core.CleanString(language, true /* lower */)
	project = core.CleanString(project, true /* lower */)
	if language == "" && project == "" {
		var err error
		if language, project, err = Parse(svc.defaultWiki); err != nil {
			return Wiki{}, errors.Wrap(err, "parsing default wiki")
		}
	}
	if err := Validate(language, project); err != nil {
		return Wiki{}, err
	}

	w, err := svc.repo.GetWiki(ctx, language, project)
	if err == nil {
		return w, nil
	}
	if err != ErrNotFound {
		return Wiki{}, errors.Wrap(err, "finding wiki")
	}
	w, err = svc.repo.CreateWiki(ctx, Wiki{Language: language, Project: project})
	return w, errors.Wrap(err, "creating wiki")
}

func (svc *Service) Default(ctx context.Context) (Wiki, error) {
	return svc.Get(ctx, "", "")
}

func (svc *Service) GetByID(ctx context.Context, id int) (Wiki, error) {
	return svc.repo.GetWikiByID(ctx, id)
}
