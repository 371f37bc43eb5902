package metrics

import (
	"context"
	"io"
	"time"

	"github.com/abdul-hamid-achik/imgedit/internal/storage"
)

// InstrumentedStorage records operation counts, latency and bytes read for
// every call to the wrapped store.
type InstrumentedStorage struct {
	storage.Storage
}

func NewInstrumentedStorage(s storage.Storage) *InstrumentedStorage {
	return &InstrumentedStorage{Storage: s}
}

func (s *InstrumentedStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()

	reader, err := s.Storage.Download(ctx, key)
	observeStorage("download", start, err)
	if err != nil {
		return nil, err
	}

	return &instrumentedReadCloser{ReadCloser: reader}, nil
}

func (s *InstrumentedStorage) Stat(ctx context.Context, key string) (storage.ObjectInfo, error) {
	start := time.Now()
	info, err := s.Storage.Stat(ctx, key)
	observeStorage("stat", start, err)
	return info, err
}

func observeStorage(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	StorageOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

type instrumentedReadCloser struct {
	io.ReadCloser
	bytesRead int64
}

func (r *instrumentedReadCloser) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	r.bytesRead += int64(n)
	return n, err
}

func (r *instrumentedReadCloser) Close() error {
	StorageBytesTotal.WithLabelValues("download").Add(float64(r.bytesRead))
	return r.ReadCloser.Close()
}
