package metrics

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/abdul-hamid-achik/imgedit/internal/storage"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentedStorage(t *testing.T) {
	mem := storage.NewMemoryStorage()
	mem.Put("photos/cat.png", []byte("0123456789"), "image/png")
	s := NewInstrumentedStorage(mem)
	ctx := context.Background()

	okBefore := testutil.ToFloat64(StorageOperationsTotal.WithLabelValues("download", "success"))
	errBefore := testutil.ToFloat64(StorageOperationsTotal.WithLabelValues("download", "error"))
	bytesBefore := testutil.ToFloat64(StorageBytesTotal.WithLabelValues("download"))

	rc, err := s.Download(ctx, "photos/cat.png")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if _, err := io.Copy(io.Discard, rc); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := rc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := s.Download(ctx, "missing.png"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Download(missing) error = %v, want ErrNotFound", err)
	}

	if got := testutil.ToFloat64(StorageOperationsTotal.WithLabelValues("download", "success")) - okBefore; got != 1 {
		t.Errorf("download success delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(StorageOperationsTotal.WithLabelValues("download", "error")) - errBefore; got != 1 {
		t.Errorf("download error delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(StorageBytesTotal.WithLabelValues("download")) - bytesBefore; got != 10 {
		t.Errorf("bytes delta = %v, want 10", got)
	}

	info, err := s.Stat(ctx, "photos/cat.png")
	if err != nil || info.Size != 10 {
		t.Errorf("Stat() = %+v, %v; want size 10", info, err)
	}
}
