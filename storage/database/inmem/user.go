package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/coursedash/core"
	"github.com/trezcool/coursedash/core/user"
)

type userRepository struct {
	db  *userTable
	all *DB // for the cascades of DeleteUsersByID
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.user, all: db}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = true
	}
	for _, usr := range repo.db.table {
		if excluded[usr.ID] {
			continue
		}
		if (username != "" && usr.Username == username) || (email != "" && usr.Email == email) {
			return user.ErrUserExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr.ID = uuid.New().String()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

// DeleteUsersByID mirrors the foreign keys of the postgres schema: memberships are deleted,
// assignments and alerts keep their row with the user unset.
func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	deleted := make(map[string]bool, len(ids))
	repo.db.Lock()
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			deleted[id] = true
		}
	}
	repo.db.Unlock()
	if len(deleted) == 0 {
		return nil
	}

	members := repo.all.coursesUsers
	members.Lock()
	for pk, cu := range members.table {
		if deleted[cu.UserID] {
			delete(members.table, pk)
		}
	}
	members.Unlock()

	assignments := repo.all.assignment
	assignments.Lock()
	for _, a := range assignments.table {
		if a.UserID != nil && deleted[*a.UserID] {
			a.UserID = nil
		}
	}
	assignments.Unlock()

	alerts := repo.all.alert
	alerts.Lock()
	for _, a := range alerts.table {
		if deleted[a.UserID] {
			a.UserID = ""
		}
	}
	alerts.Unlock()
	return nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.table[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.query() {
		switch {
		case filter.Username != "" && usr.Username == filter.Username,
			filter.Email != "" && usr.Email == filter.Email,
			filter.UsernameOrEmail != "" && (usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail):
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUsersByID(_ context.Context, ids ...string) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0, len(ids))
	for _, id := range ids {
		if usr, ok := repo.db.table[id]; ok {
			users = append(users, *usr)
		}
	}
	return users, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var found []user.User
	for _, usr := range repo.query() {
		if filter.Match(usr) {
			found = append(found, usr)
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return lessUser(found[i], found[j], orderings) })
	return found, nil
}

// lessUser compares on each ordering in turn; ties keep the creation order.
func lessUser(a, b user.User, orderings []core.DBOrdering) bool {
	for _, ord := range orderings {
		var cmp int
		switch ord.Field {
		case "name":
			cmp = strings.Compare(a.Name, b.Name)
		case "username":
			cmp = strings.Compare(a.Username, b.Username)
		case "email":
			cmp = strings.Compare(a.Email, b.Email)
		case "created_at":
			cmp = compareTimes(a.CreatedAt, b.CreatedAt)
		case "last_login":
			cmp = compareTimes(a.LastLogin, b.LastLogin)
		}
		if cmp != 0 {
			return (cmp < 0) == ord.Ascending
		}
	}
	return false
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}
