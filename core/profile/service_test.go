package profile_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/freetime/core"
	"github.com/trezcool/freetime/core/profile"
	inmemdb "github.com/trezcool/freetime/storage/database/inmem"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type storeMock struct {
	puts map[string][]byte
	err  error
}

func (st *storeMock) Put(_ context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if st.err != nil {
		return "", st.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if int64(len(data)) != size || !strings.HasPrefix(contentType, "image/") {
		return "", errors.Errorf("unexpected object %s (%d bytes)", contentType, size)
	}
	st.puts[key] = data
	return "https://cdn.test/" + key, nil
}

func setup() (profile.Service, *storeMock) {
	store := &storeMock{puts: make(map[string][]byte)}
	return profile.NewService(inmemdb.NewProfileRepository(inmemdb.Open()), store), store
}

func TestService_GetUpdate(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()

	p, err := svc.Get(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, profile.Profile{UserID: "jane"}, p)

	p, err = svc.Update(ctx, "jane", profile.UpdateProfile{DisplayName: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "Jane", p.DisplayName)
	assert.False(t, p.UpdatedAt.IsZero())

	got, err := svc.Get(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.DisplayName)
}

func TestService_UploadAvatar(t *testing.T) {
	svc, store := setup()
	ctx := context.Background()

	tests := []struct {
		name     string
		filename string
		content  []byte
		wantErr  error
	}{
		{name: "no extension", filename: "me", content: pngHeader, wantErr: profile.ErrUnsupportedImage},
		{name: "unsupported extension", filename: "me.svg", content: pngHeader, wantErr: profile.ErrUnsupportedImage},
		{name: "not an image", filename: "me.png", content: []byte("hello"), wantErr: profile.ErrUnsupportedImage},
		{name: "too large", filename: "me.png", content: append(append([]byte{}, pngHeader...), make([]byte, profile.MaxAvatarSize)...), wantErr: profile.ErrImageTooLarge},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadAvatar(ctx, "jane", tt.filename, bytes.NewReader(tt.content))
			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr), "want a validation error, got %v", err)
			assert.Equal(t, tt.wantErr, verr.Err)
			assert.Equal(t, "file", verr.Fields[0].Field)
		})
	}
	assert.Empty(t, store.puts)

	t.Run("success keeps the display name", func(t *testing.T) {
		_, err := svc.Update(ctx, "jane", profile.UpdateProfile{DisplayName: "Jane"})
		require.NoError(t, err)

		p, err := svc.UploadAvatar(ctx, "jane", "Me.PNG", bytes.NewReader(pngHeader))
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.test/jane/avatar.png", p.AvatarURL)
		assert.Equal(t, "Jane", p.DisplayName)
		assert.Equal(t, pngHeader, store.puts["jane/avatar.png"])
	})

	t.Run("store failure", func(t *testing.T) {
		store.err = errors.New("bucket on fire")
		defer func() { store.err = nil }()

		_, err := svc.UploadAvatar(ctx, "john", "me.png", bytes.NewReader(pngHeader))
		assert.EqualError(t, err, "storing avatar: bucket on fire")
	})
}

func TestService_ProfilesFor(t *testing.T) {
	svc, _ := setup()
	ctx := context.Background()

	_, err := svc.Update(ctx, "jane", profile.UpdateProfile{DisplayName: "Jane"})
	require.NoError(t, err)

	profiles, err := svc.ProfilesFor(ctx, "jane", "john")
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "Jane", profiles["jane"].Label())
	assert.Equal(t, profile.Profile{UserID: "john"}, profiles["john"])

	profiles, err = svc.ProfilesFor(ctx)
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestProfile_Label(t *testing.T) {
	tests := []struct {
		p    profile.Profile
		want string
	}{
		{p: profile.Profile{UserID: "0f3a9c1e-2222-4444-8888-000000000000", DisplayName: "Jane"}, want: "Jane"},
		{p: profile.Profile{UserID: "0f3a9c1e-2222-4444-8888-000000000000"}, want: "0f3a9c1e..."},
		{p: profile.Profile{UserID: "short"}, want: "short"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.p.Label())
	}
}
