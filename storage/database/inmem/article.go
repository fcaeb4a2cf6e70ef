package inmemdb

import (
	"context"

	"github.com/trezcool/coursedash/core/article"
)

type articleRepository struct {
	db *articleTable
}

var _ article.Repository = (*articleRepository)(nil)

func NewArticleRepository(db *DB) *articleRepository {
	return &articleRepository{db: db.article}
}

func (repo *articleRepository) GetArticle(_ context.Context, title string, wikiID, namespace int) (article.Article, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, a := range repo.db.table {
		if a.Title == title && a.WikiID == wikiID && a.Namespace == namespace {
			return *a, nil
		}
	}
	return article.Article{}, article.ErrNotFound
}

func (repo *articleRepository) CreateArticle(_ context.Context, a article.Article) (article.Article, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pk++
	a.ID = repo.db.pk
	repo.db.table[a.ID] = &a
	return a, nil
}
