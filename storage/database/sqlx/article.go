package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/article"
)

const articleColumns = `id, title, wiki_id, namespace, rating, created_at, updated_at`

type articleRepository struct {
	db core.DBExecutor
}

var _ article.Repository = (*articleRepository)(nil)

func NewArticleRepository(db core.DBExecutor) *articleRepository {
	return &articleRepository{db: db}
}

func (repo *articleRepository) GetArticle(ctx context.Context, title string, wikiID, namespace int) (article.Article, error) {
	var a article.Article
	q := `SELECT ` + articleColumns + ` FROM article WHERE title = $1 AND wiki_id = $2 AND namespace = $3`
	if err := repo.db.GetContext(ctx, &a, q, title, wikiID, namespace); err != nil {
		if err == sql.ErrNoRows {
			return article.Article{}, article.ErrNotFound
		}
		return article.Article{}, errors.Wrap(err, "selecting article")
	}
	return a, nil
}

func (repo *articleRepository) CreateArticle(ctx context.Context, a article.Article) (article.Article, error) {
	q := `INSERT INTO article (title, wiki_id, namespace, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := repo.db.GetContext(ctx, &a.ID, q, a.Title, a.WikiID, a.Namespace, a.Rating, a.CreatedAt, a.UpdatedAt); err != nil {
		return article.Article{}, errors.Wrap(err, "inserting article")
	}
	return a, nil
}
