package inmemdb

import (
	"context"

	"github.com/trezcool/coursedash/core/wiki"
)

type wikiRepository struct {
	db *wikiTable
}

var _ wiki.Repository = (*wikiRepository)(nil)

func NewWikiRepository(db *DB) *wikiRepository {
	return &wikiRepository{db: db.wiki}
}

func (repo *wikiRepository) GetWiki(_ context.Context, language, project string) (wiki.Wiki, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, w := range repo.db.table {
		if w.Language == language && w.Project == project {
			return *w, nil
		}
	}
	return wiki.Wiki{}, wiki.ErrNotFound
}

func (repo *wikiRepository) GetWikiByID(_ context.Context, id int) (wiki.Wiki, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if w, ok := repo.db.table[id]; ok {
		return *w, nil
	}
	return wiki.Wiki{}, wiki.ErrNotFound
}

func (repo *wikiRepository) CreateWiki(_ context.Context, w wiki.Wiki) (wiki.Wiki, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pk++
	w.ID = repo.db.pk
	repo.db.table[w.ID] = &w
	return w, nil
}
