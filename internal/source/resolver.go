package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/imgedit/internal/storage"
	"github.com/abdul-hamid-achik/imgedit/internal/tracing"
	"github.com/abdul-hamid-achik/imgedit/internal/transform"
)

// Resolver maps reference strings to sources. The store is optional; without
// it object references fail to resolve.
type Resolver struct {
	opts    Options
	client  *http.Client
	breaker *HostBreaker
	store   storage.Storage
	stdin   io.Reader
}

func NewResolver(opts Options, store storage.Storage) *Resolver {
	return &Resolver{
		opts:    opts,
		client:  tracing.HTTPClient(opts.FetchTimeout),
		breaker: NewHostBreaker(3, 30*time.Second),
		store:   store,
		stdin:   os.Stdin,
	}
}

func (r *Resolver) WithHTTPClient(c *http.Client) *Resolver {
	r.client = c
	return r
}

func (r *Resolver) WithStdin(in io.Reader) *Resolver {
	r.stdin = in
	return r
}

func (r *Resolver) Options() Options {
	return r.opts
}

// KindOf classifies a reference without opening it.
func KindOf(ref string) Kind {
	lower := strings.ToLower(ref)
	switch {
	case ref == "-":
		return KindStdin
	case strings.HasPrefix(lower, "data:"):
		return KindData
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return KindHTTP
	case strings.HasPrefix(lower, "s3://"), strings.HasPrefix(lower, "object://"):
		return KindObject
	default:
		return KindFile
	}
}

func (r *Resolver) Resolve(ref string) (transform.Source, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: %w: empty reference", transform.ErrSourceLoad, ErrUnsupported)
	}

	switch KindOf(ref) {
	case KindStdin:
		return r.fromStdin(), nil
	case KindData:
		return r.fromDataURI(ref)
	case KindHTTP:
		return r.fromURL(ref), nil
	case KindObject:
		return r.fromObject(ref)
	default:
		return r.fromFile(ref)
	}
}

func (r *Resolver) fromStdin() transform.Source {
	in := r.stdin
	return &encoded{
		kind: KindStdin,
		ref:  "-",
		opts: r.opts,
		open: func(context.Context) (io.ReadCloser, error) {
			if in == nil {
				return nil, fmt.Errorf("stdin is not available")
			}
			return io.NopCloser(in), nil
		},
	}
}

// fromDataURI decodes data:[<mediatype>][;base64],<payload>. The payload is
// decoded eagerly so malformed URIs fail at resolve time.
func (r *Resolver) fromDataURI(ref string) (transform.Source, error) {
	data, mediaType, err := ParseDataURI(ref)
	if err != nil {
		return nil, err
	}
	src := Bytes(data, r.opts).(*encoded)
	src.kind = KindData
	src.ref = mediaType
	return src, nil
}

// ParseDataURI returns the payload and media type of a data URI.
func ParseDataURI(ref string) ([]byte, string, error) {
	rest, ok := cutPrefixFold(ref, "data:")
	if !ok {
		return nil, "", fmt.Errorf("%w: %w: not a data URI", transform.ErrSourceLoad, ErrUnsupported)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: data URI has no payload separator", transform.ErrSourceLoad)
	}

	isBase64 := false
	mediaType := "text/plain"
	for i, part := range strings.Split(header, ";") {
		switch {
		case i == 0 && part != "":
			mediaType = strings.ToLower(part)
		case strings.EqualFold(part, "base64"):
			isBase64 = true
		}
	}

	if !isBase64 {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", fmt.Errorf("%w: data URI payload: %v", transform.ErrSourceLoad, err)
		}
		return []byte(decoded), mediaType, nil
	}

	payload = strings.TrimRight(strings.Join(strings.Fields(payload), ""), "=")
	data, err := base64.RawStdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: data URI base64: %v", transform.ErrSourceLoad, err)
	}
	return data, mediaType, nil
}

func (r *Resolver) fromURL(ref string) transform.Source {
	client := r.client
	breaker := r.breaker
	limit := r.opts.MaxBytes
	return &encoded{
		kind: KindHTTP,
		ref:  ref,
		opts: r.opts,
		open: func(ctx context.Context) (io.ReadCloser, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Accept", "image/*")

			host := req.URL.Host
			if !breaker.Allow(host) {
				return nil, fmt.Errorf("%w: %s", ErrHostUnavailable, host)
			}

			resp, err := client.Do(req)
			if err != nil {
				if ctx.Err() != nil {
					breaker.Release(host)
					return nil, ctx.Err()
				}
				breaker.RecordFailure(host)
				return nil, err
			}
			if resp.StatusCode >= http.StatusInternalServerError {
				breaker.RecordFailure(host)
			} else {
				breaker.RecordSuccess(host)
			}
			if resp.StatusCode != http.StatusOK {
				_ = resp.Body.Close()
				return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
			}
			if limit > 0 && resp.ContentLength > limit {
				_ = resp.Body.Close()
				return nil, fmt.Errorf("%w: content length %d > %d", ErrTooLarge, resp.ContentLength, limit)
			}
			return resp.Body, nil
		},
	}
}

func (r *Resolver) fromObject(ref string) (transform.Source, error) {
	key, ok := cutPrefixFold(ref, "s3://")
	if !ok {
		key, _ = cutPrefixFold(ref, "object://")
	}
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return nil, fmt.Errorf("%w: %w: object reference without key", transform.ErrSourceLoad, ErrUnsupported)
	}
	if r.store == nil {
		return nil, fmt.Errorf("%w: object storage is not configured for %s", transform.ErrSourceLoad, ref)
	}

	store := r.store
	limit := r.opts.MaxBytes
	return &encoded{
		kind: KindObject,
		ref:  key,
		opts: r.opts,
		open: func(ctx context.Context) (io.ReadCloser, error) {
			info, err := store.Stat(ctx, key)
			if err != nil {
				return nil, err
			}
			if err := checkSize(info.Size, limit); err != nil {
				return nil, err
			}
			return store.Download(ctx, key)
		},
	}, nil
}

func (r *Resolver) fromFile(ref string) (transform.Source, error) {
	path := ref
	if rest, ok := cutPrefixFold(ref, "file://"); ok {
		u, err := url.Parse("file://" + rest)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid file URL %q: %v", transform.ErrSourceLoad, ref, err)
		}
		path = u.Path
	}
	if strings.Contains(path, "://") {
		return nil, fmt.Errorf("%w: %w: %q", transform.ErrSourceLoad, ErrUnsupported, ref)
	}

	limit := r.opts.MaxBytes
	return &encoded{
		kind: KindFile,
		ref:  path,
		opts: r.opts,
		open: func(context.Context) (io.ReadCloser, error) {
			info, err := os.Stat(path)
			if err != nil {
				return nil, err
			}
			if info.IsDir() {
				return nil, fmt.Errorf("%s is a directory", path)
			}
			if err := checkSize(info.Size(), limit); err != nil {
				return nil, err
			}
			return os.Open(path)
		},
	}, nil
}

// checkSize rejects a source whose stored size already exceeds limit, before
// any byte is transferred. A non-positive limit disables the check.
func checkSize(size, limit int64) error {
	if limit > 0 && size > limit {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, size, limit)
	}
	return nil
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}
