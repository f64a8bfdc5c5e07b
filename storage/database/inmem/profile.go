package inmemdb

import (
	"context"

	"github.com/trezcool/freetime/core"
	"github.com/trezcool/freetime/core/profile"
)

type profileRepository struct {
	db *DB
}

var _ profile.Repository = (*profileRepository)(nil)

func NewProfileRepository(db *DB) profile.Repository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) GetProfile(_ context.Context, userID string) (profile.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.profiles[userID]; ok {
		return p, nil
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) QueryProfiles(_ context.Context, userIDs ...string) ([]profile.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	profiles := make([]profile.Profile, 0, len(userIDs))
	for id, p := range repo.db.profiles {
		if core.ContainsString(userIDs, id) {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}

func (repo *profileRepository) UpsertProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.profiles[p.UserID] = p
	return p, nil
}
