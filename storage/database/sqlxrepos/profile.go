package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/freetime/core/profile"
)

const profileColumns = `user_id, display_name, avatar_url, updated_at`

type profileRow struct {
	UserID      string      `db:"user_id"`
	DisplayName null.String `db:"display_name"`
	AvatarURL   null.String `db:"avatar_url"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r profileRow) toProfile() profile.Profile {
	return profile.Profile{
		UserID:      r.UserID,
		DisplayName: r.DisplayName.String,
		AvatarURL:   r.AvatarURL.String,
		UpdatedAt:   r.UpdatedAt,
	}
}

type profileRepository struct {
	db *sqlx.DB
}

var _ profile.Repository = (*profileRepository)(nil)

func NewProfileRepository(db *sqlx.DB) profile.Repository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) GetProfile(ctx context.Context, userID string) (profile.Profile, error) {
	var row profileRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+profileColumns+` FROM profile WHERE user_id = $1`, userID); err != nil {
		return profile.Profile{}, trapNoRowsErr(err, profile.ErrNotFound, "selecting profile")
	}
	return row.toProfile(), nil
}

func (repo *profileRepository) QueryProfiles(ctx context.Context, userIDs ...string) ([]profile.Profile, error) {
	if len(userIDs) == 0 {
		return []profile.Profile{}, nil
	}
	var rows []profileRow
	if err := selectIn(ctx, repo.db, &rows, `SELECT `+profileColumns+` FROM profile WHERE user_id IN (?)`, userIDs); err != nil {
		return nil, errors.Wrap(err, "selecting profiles")
	}
	profiles := make([]profile.Profile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, r.toProfile())
	}
	return profiles, nil
}

func (repo *profileRepository) UpsertProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	row := profileRow{
		UserID:      p.UserID,
		DisplayName: null.NewString(p.DisplayName, p.DisplayName != ""),
		AvatarURL:   null.NewString(p.AvatarURL, p.AvatarURL != ""),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO profile (`+profileColumns+`)
		VALUES (:user_id, :display_name, :avatar_url, :updated_at)
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name, avatar_url = EXCLUDED.avatar_url, updated_at = EXCLUDED.updated_at`, row)
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "upserting profile")
	}
	return row.toProfile(), nil
}
