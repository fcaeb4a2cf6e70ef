package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/coursedash/core/alert"
)

type alertRepository struct {
	db *alertTable
}

var _ alert.Repository = (*alertRepository)(nil)

func NewAlertRepository(db *DB) *alertRepository {
	return &alertRepository{db: db.alert}
}

func (repo *alertRepository) CreateAlert(_ context.Context, a alert.Alert) (alert.Alert, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pk++
	a.ID = repo.db.pk
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *alertRepository) UpdateAlert(_ context.Context, a alert.Alert) (alert.Alert, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[a.ID]; !ok {
		return alert.Alert{}, alert.ErrNotFound
	}
	repo.db.table[a.ID] = &a
	return a, nil
}

// QueryAlerts returns the alerts of a course, newest first.
func (repo *alertRepository) QueryAlerts(_ context.Context, courseID int) ([]alert.Alert, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var alerts []alert.Alert
	for _, a := range repo.db.table {
		if a.CourseID == courseID {
			alerts = append(alerts, *a)
		}
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].ID > alerts[j].ID })
	return alerts, nil
}
