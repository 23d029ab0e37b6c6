package share

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"github.com/KaramelBytes/chartloom/internal/utils"
)

const shareExt = ".json"

// FSStore writes one JSON document per share under a base URL. Any afs
// scheme works: a local directory, file://, s3://, gs:// or mem://.
type FSStore struct {
	fs      afs.Service
	baseURL string
	now     func() time.Time
}

// NewFSStore targets baseURL. The location is created lazily on first Put.
func NewFSStore(baseURL string) *FSStore {
	return &FSStore{fs: afs.New(), baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

func (f *FSStore) location(token string) string {
	return url.Join(f.baseURL, token+shareExt)
}

func (f *FSStore) Put(ctx context.Context, s *Share) error {
	if !validToken(s.Token) {
		return fmt.Errorf("invalid share token %q", s.Token)
	}
	data, err := utils.PrettyJSON(s)
	if err != nil {
		return err
	}
	if err := f.fs.Upload(ctx, f.location(s.Token), 0o644, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("store share: %w", err)
	}
	return nil
}

func (f *FSStore) Get(ctx context.Context, token string) (*Share, error) {
	if !validToken(token) {
		return nil, ErrNotFound
	}
	loc := f.location(token)
	ok, err := f.fs.Exists(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("check share: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	data, err := f.fs.DownloadWithURL(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("read share: %w", err)
	}
	var s Share
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse share: %w", err)
	}
	if s.Expired(f.now()) {
		_ = f.fs.Delete(ctx, loc)
		return nil, ErrNotFound
	}
	return &s, nil
}

func (f *FSStore) Delete(ctx context.Context, token string) error {
	if !validToken(token) {
		return ErrNotFound
	}
	loc := f.location(token)
	ok, err := f.fs.Exists(ctx, loc)
	if err != nil {
		return fmt.Errorf("check share: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return f.fs.Delete(ctx, loc)
}

// Cleanup reads every share under the base URL and deletes the expired ones.
// Unreadable entries are skipped.
func (f *FSStore) Cleanup(ctx context.Context) (int, error) {
	ok, err := f.fs.Exists(ctx, f.baseURL)
	if err != nil || !ok {
		return 0, err
	}
	objects, err := f.fs.List(ctx, f.baseURL)
	if err != nil {
		return 0, fmt.Errorf("list shares: %w", err)
	}
	now := f.now()
	n := 0
	for _, obj := range objects {
		if obj.IsDir() || !strings.HasSuffix(obj.Name(), shareExt) {
			continue
		}
		data, err := f.fs.DownloadWithURL(ctx, obj.URL())
		if err != nil {
			continue
		}
		var s Share
		if json.Unmarshal(data, &s) != nil || !s.Expired(now) {
			continue
		}
		if err := f.fs.Delete(ctx, obj.URL()); err == nil {
			n++
		}
	}
	return n, nil
}
