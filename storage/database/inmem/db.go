// Package inmemdb implements every repository in memory. It backs tests and database-less dev runs.
package inmemdb

import (
	"sync"

	"github.com/trezcool/freetime/core/event"
	"github.com/trezcool/freetime/core/group"
	"github.com/trezcool/freetime/core/profile"
	"github.com/trezcool/freetime/core/schedule"
	"github.com/trezcool/freetime/core/user"
)

type (
	memberKey struct {
		groupID string
		userID  string
	}

	responseKey struct {
		eventID string
		userID  string
	}

	// DB holds all tables behind one lock so that multi-table writes stay atomic.
	DB struct {
		mutex     sync.RWMutex
		users     map[string]user.User
		profiles  map[string]profile.Profile
		schedules map[string]schedule.Schedule
		groups    map[string]group.Group
		members   map[memberKey]group.Member
		events    map[string]event.Event
		responses map[responseKey]event.Response
	}
)

func Open() *DB {
	db := new(DB)
	db.reset()
	return db
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.reset()
}

func (db *DB) reset() {
	db.users = make(map[string]user.User)
	db.profiles = make(map[string]profile.Profile)
	db.schedules = make(map[string]schedule.Schedule)
	db.groups = make(map[string]group.Group)
	db.members = make(map[memberKey]group.Member)
	db.events = make(map[string]event.Event)
	db.responses = make(map[responseKey]event.Response)
}
