package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/wiki"
)

type wikiRepository struct {
	db core.DBExecutor
}

var _ wiki.Repository = (*wikiRepository)(nil)

func NewWikiRepository(db core.DBExecutor) *wikiRepository {
	return &wikiRepository{db: db}
}

func (repo *wikiRepository) get(ctx context.Context, q string, args ...interface{}) (wiki.Wiki, error) {
	var w wiki.Wiki
	if err := repo.db.GetContext(ctx, &w, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return wiki.Wiki{}, wiki.ErrNotFound
		}
		return wiki.Wiki{}, errors.Wrap(err, "selecting wiki")
	}
	return w, nil
}

func (repo *wikiRepository) GetWiki(ctx context.Context, language, project string) (wiki.Wiki, error) {
	return repo.get(ctx, `SELECT id, language, project FROM wiki WHERE language = $1 AND project = $2`, language, project)
}

func (repo *wikiRepository) GetWikiByID(ctx context.Context, id int) (wiki.Wiki, error) {
	return repo.get(ctx, `SELECT id, language, project FROM wiki WHERE id = $1`, id)
}

// CreateWiki returns the existing record when another request created the wiki first.
func (repo *wikiRepository) CreateWiki(ctx context.Context, w wiki.Wiki) (wiki.Wiki, error) {
	q := `INSERT INTO wiki (language, project) VALUES ($1, $2)
		ON CONFLICT (language, project) DO UPDATE SET language = EXCLUDED.language
		RETURNING id`
	if err := repo.db.GetContext(ctx, &w.ID, q, w.Language, w.Project); err != nil {
		return wiki.Wiki{}, errors.Wrap(err, "inserting wiki")
	}
	return w, nil
}
