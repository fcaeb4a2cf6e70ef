package inmemdb

import (
	"sync"

	"github.com/trezcool/coursedash/core/alert"
	"github.com/trezcool/coursedash/core/article"
	"github.com/trezcool/coursedash/core/assignment"
	"github.com/trezcool/coursedash/core/course"
	"github.com/trezcool/coursedash/core/user"
	"github.com/trezcool/coursedash/core/wiki"
)

type (
	// DB is a process-local store used by tests and the "inmem" database engine.
	DB struct {
		user         *userTable
		wiki         *wikiTable
		article      *articleTable
		course       *courseTable
		coursesUsers *coursesUsersTable
		assignment   *assignmentTable
		alert        *alertTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	wikiTable struct {
		sync.RWMutex
		pk    int
		table map[int]*wiki.Wiki
	}

	articleTable struct {
		sync.RWMutex
		pk    int
		table map[int]*article.Article
	}

	courseTable struct {
		sync.RWMutex
		pk    int
		table map[int]*course.Course
	}

	coursesUsersTable struct {
		sync.RWMutex
		pk    int
		table map[int]*course.CoursesUsers
	}

	assignmentTable struct {
		sync.RWMutex
		pk    int
		table map[int]*assignment.Assignment
	}

	alertTable struct {
		sync.RWMutex
		pk    int
		table map[int]*alert.Alert
	}
)

func Open() *DB {
	return &DB{
		user:         &userTable{table: make(map[string]*user.User)},
		wiki:         &wikiTable{table: make(map[int]*wiki.Wiki)},
		article:      &articleTable{table: make(map[int]*article.Article)},
		course:       &courseTable{table: make(map[int]*course.Course)},
		coursesUsers: &coursesUsersTable{table: make(map[int]*course.CoursesUsers)},
		assignment:   &assignmentTable{table: make(map[int]*assignment.Assignment)},
		alert:        &alertTable{table: make(map[int]*alert.Alert)},
	}
}
