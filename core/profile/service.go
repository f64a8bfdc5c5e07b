package profile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/freetime/core"
)

// MaxAvatarSize is the largest avatar accepted, in bytes.
const MaxAvatarSize = 5 << 20

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("profile not found")
	ErrUnsupportedImage = errors.New("only jpg, jpeg, png, gif and webp images are allowed")
	ErrImageTooLarge    = errors.Errorf("image must not exceed %d MiB", MaxAvatarSize>>20)

	avatarExtensions = []string{"jpg", "jpeg", "png", "gif", "webp"}
)

type (
	Repository interface {
		// GetProfile returns ErrNotFound when the user never saved a profile.
		GetProfile(ctx context.Context, userID string) (Profile, error)
		QueryProfiles(ctx context.Context, userIDs ...string) ([]Profile, error)
		UpsertProfile(ctx context.Context, p Profile) (Profile, error)
	}

	// ObjectStore stores public files and returns their URL.
	ObjectStore interface {
		Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	}

	Service interface {
		Get(ctx context.Context, userID string) (Profile, error)
		Update(ctx context.Context, userID string, up UpdateProfile) (Profile, error)
		UploadAvatar(ctx context.Context, userID, filename string, r io.Reader) (Profile, error)
		ProfilesFor(ctx context.Context, userIDs ...string) (map[string]Profile, error)
	}

	service struct {
		repo  Repository
		store ObjectStore
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, store ObjectStore) Service {
	return &service{repo: repo, store: store}
}

func (svc *service) Get(ctx context.Context, userID string) (Profile, error) {
	p, err := svc.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Profile{UserID: userID}, nil
		}
		return Profile{}, errors.Wrap(err, "getting profile")
	}
	return p, nil
}

func (svc *service) Update(ctx context.Context, userID string, up UpdateProfile) (Profile, error) {
	p, err := svc.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	p.DisplayName = up.DisplayName
	p.UpdatedAt = time.Now().UTC()
	return svc.repo.UpsertProfile(ctx, p)
}

func (svc *service) UploadAvatar(ctx context.Context, userID, filename string, r io.Reader) (Profile, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !core.ContainsString(avatarExtensions, ext) {
		return Profile{}, core.NewValidationError(ErrUnsupportedImage, core.FieldError{Field: "file", Error: ErrUnsupportedImage.Error()})
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxAvatarSize+1))
	if err != nil {
		return Profile{}, errors.Wrap(err, "reading avatar")
	}
	if len(data) > MaxAvatarSize {
		return Profile{}, core.NewValidationError(ErrImageTooLarge, core.FieldError{Field: "file", Error: ErrImageTooLarge.Error()})
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return Profile{}, core.NewValidationError(ErrUnsupportedImage, core.FieldError{Field: "file", Error: ErrUnsupportedImage.Error()})
	}

	key := fmt.Sprintf("%s/avatar.%s", userID, ext)
	url, err := svc.store.Put(ctx, key, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Profile{}, errors.Wrap(err, "storing avatar")
	}

	p, err := svc.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	p.AvatarURL = url
	p.UpdatedAt = time.Now().UTC()
	return svc.repo.UpsertProfile(ctx, p)
}

// ProfilesFor returns the profile of every given user, zero profiles included.
func (svc *service) ProfilesFor(ctx context.Context, userIDs ...string) (map[string]Profile, error) {
	profiles := make(map[string]Profile, len(userIDs))
	if len(userIDs) == 0 {
		return profiles, nil
	}
	stored, err := svc.repo.QueryProfiles(ctx, userIDs...)
	if err != nil {
		return nil, errors.Wrap(err, "querying profiles")
	}
	for _, id := range userIDs {
		profiles[id] = Profile{UserID: id}
	}
	for _, p := range stored {
		profiles[p.UserID] = p
	}
	return profiles, nil
}
