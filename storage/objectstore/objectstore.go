// Package objectstore stores public files (avatars) on S3 compatible storage or on the local disk.
package objectstore

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/freetime/core"
)

// Store puts objects and returns their public URL.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// New returns the Store selected by conf.ObjectStore.Driver.
func New(ctx context.Context, conf *core.Config) (Store, error) {
	switch conf.ObjectStore.Driver {
	case "s3":
		return NewS3Store(ctx, conf.ObjectStore)
	case "local", "":
		return NewLocalStore(conf.ObjectStore.LocalDir, conf.ObjectStore.PublicBaseURL)
	default:
		return nil, errors.Errorf("unknown object store driver %q", conf.ObjectStore.Driver)
	}
}

func publicURL(baseURL, key string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(key, "/")
}
