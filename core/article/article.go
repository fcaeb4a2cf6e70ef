package article

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/wiki"
)

// MaxTitleLen is the longest title, in bytes, an article can be stored with.
const MaxTitleLen = 255

// Namespaces
const (
	NamespaceMainspace = 0
	NamespaceUser      = 2
	NamespaceDraft     = 118
)

var (
	// characters MediaWiki never allows in page titles
	invalidTitleRegex = regexp.MustCompile(`[#<>\[\]|{}]`)
	whitespaceRegex   = regexp.MustCompile(`[\s_]+`)

	// errors
	ErrNotFound     = errors.New("article not found")
	ErrInvalidTitle = errors.New("not a valid article title")
)

type Article struct {
	ID        int       `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	WikiID    int       `json:"wiki_id" db:"wiki_id"`
	Namespace int       `json:"namespace" db:"namespace"`
	Rating    *string   `json:"rating" db:"rating"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// NormalizeTitle turns user input into a wiki page title: whitespace becomes underscores and,
// except on case-sensitive wikis, the first letter is upper-cased.
func NormalizeTitle(title string, w wiki.Wiki) (string, error) {
	if !utf8.ValidString(title) {
		return "", ErrInvalidTitle
	}
	title = core.CleanString(title)
	title = strings.Trim(whitespaceRegex.ReplaceAllString(title, "_"), "_")
	if title == "" || len(title) > MaxTitleLen || invalidTitleRegex.MatchString(title) {
		return "", ErrInvalidTitle
	}
	if w.CaseSensitive() {
		return title, nil
	}
	first, size := utf8.DecodeRuneInString(title)
	return string(unicode.ToUpper(first)) + title[size:], nil
}

// DisplayTitle is the human-readable form of a page title.
func DisplayTitle(title string) string {
	return strings.ReplaceAll(title, "_", " ")
}

type (
	Repository interface {
		GetArticle(ctx context.Context, title string, wikiID, namespace int) (Article, error)
		CreateArticle(ctx context.Context, a Article) (Article, error)
	}

	// Importer fetches article metadata from a wiki. It is a black box to the rest of the application.
	Importer interface {
		Import(ctx context.Context, w wiki.Wiki, title string) (Article, error)
	}

	Service struct {
		repo     Repository
		importer Importer
	}
)

func NewService(repo Repository, importer Importer) *Service {
	return &Service{repo: repo, importer: importer}
}

// FindOrImport returns the mainspace article with the (normalized) title, importing it when unknown.
func (svc *Service) FindOrImport(ctx context.Context, w wiki.Wiki, title string) (Article, error) {
	a, err := svc.repo.GetArticle(ctx, title, w.ID, NamespaceMainspace)
	if err == nil {
		return a, nil
	}
	if err != ErrNotFound {
		return Article{}, errors.Wrap(err, "finding article")
	}

	a, err = svc.importer.Import(ctx, w, title)
	if err != nil {
		return Article{}, errors.Wrap(err, "importing article")
	}
	a.Title = title
	a.WikiID = w.ID
	a.Namespace = NamespaceMainspace
	now := core.NowFunc()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	a, err = svc.repo.CreateArticle(ctx, a)
	return a, errors.Wrap(err, "creating article")
}

// localImporter records articles without contacting the wiki.
type localImporter struct{}

func NewLocalImporter() Importer {
	return localImporter{}
}

func (localImporter) Import(_ context.Context, w wiki.Wiki, title string) (Article, error) {
	return Article{Title: title, WikiID: w.ID, Namespace: NamespaceMainspace}, nil
}
