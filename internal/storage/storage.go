package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotFound     = errors.New("storage: object not found")
	ErrInvalidKey   = errors.New("storage: invalid key")
	ErrAccessDenied = errors.New("storage: access denied")
)

// Storage is read-only access to source images kept in an object store.
// The editor never writes outputs back.
type Storage interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	HealthCheck(ctx context.Context) error
}

type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}
