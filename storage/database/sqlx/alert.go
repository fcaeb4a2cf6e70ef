package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/alert"
)

const alertColumns = `id, type, course_id, user_id, subject, message, bcc_to_salesforce, status, error, email_sent_at, created_at`

type alertRow struct {
	ID              int            `db:"id"`
	Type            string         `db:"type"`
	CourseID        int            `db:"course_id"`
	UserID          sql.NullString `db:"user_id"`
	Subject         string         `db:"subject"`
	Message         string         `db:"message"`
	BccToSalesforce bool           `db:"bcc_to_salesforce"`
	Status          string         `db:"status"`
	Error           string         `db:"error"`
	EmailSentAt     sql.NullTime   `db:"email_sent_at"`
	CreatedAt       time.Time      `db:"created_at"`
}

func (row alertRow) toAlert() alert.Alert {
	a := alert.Alert{
		ID:              row.ID,
		Type:            row.Type,
		CourseID:        row.CourseID,
		UserID:          row.UserID.String,
		Subject:         row.Subject,
		Message:         row.Message,
		BccToSalesforce: row.BccToSalesforce,
		Status:          row.Status,
		Error:           row.Error,
		CreatedAt:       row.CreatedAt.UTC(),
	}
	if row.EmailSentAt.Valid {
		sentAt := row.EmailSentAt.Time.UTC()
		a.EmailSentAt = &sentAt
	}
	return a
}

type alertRepository struct {
	db core.DBExecutor
}

var _ alert.Repository = (*alertRepository)(nil)

func NewAlertRepository(db core.DBExecutor) *alertRepository {
	return &alertRepository{db: db}
}

func (repo *alertRepository) CreateAlert(ctx context.Context, a alert.Alert) (alert.Alert, error) {
	q := `INSERT INTO alert (type, course_id, user_id, subject, message, bcc_to_salesforce, status, error, email_sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	err := repo.db.GetContext(ctx, &a.ID, q,
		a.Type, a.CourseID, nullString(a.UserID), a.Subject, a.Message, a.BccToSalesforce,
		a.Status, a.Error, nullTimePtr(a.EmailSentAt), a.CreatedAt,
	)
	if err != nil {
		return alert.Alert{}, errors.Wrap(err, "inserting alert")
	}
	return a, nil
}

// UpdateAlert records the outcome of a send.
func (repo *alertRepository) UpdateAlert(ctx context.Context, a alert.Alert) (alert.Alert, error) {
	q := `UPDATE alert SET status = $2, error = $3, email_sent_at = $4 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, a.ID, a.Status, a.Error, nullTimePtr(a.EmailSentAt))
	if err != nil {
		return alert.Alert{}, errors.Wrap(err, "updating alert")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return alert.Alert{}, alert.ErrNotFound
	}
	return a, nil
}

// QueryAlerts returns the alerts of a course, newest first.
func (repo *alertRepository) QueryAlerts(ctx context.Context, courseID int) ([]alert.Alert, error) {
	var rows []alertRow
	q := `SELECT ` + alertColumns + ` FROM alert WHERE course_id = $1 ORDER BY id DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, courseID); err != nil {
		return nil, errors.Wrap(err, "selecting alerts")
	}
	alerts := make([]alert.Alert, 0, len(rows))
	for _, row := range rows {
		alerts = append(alerts, row.toAlert())
	}
	return alerts, nil
}
