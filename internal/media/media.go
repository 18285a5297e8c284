// Package media moves participant photos and videos out of chat platform
// CDNs into program-owned storage, addressed by stable keys.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store ingests one media item from a platform URL and returns the
// object key it is stored under.
type Store interface {
	Ingest(ctx context.Context, sourceURL, kind string) (string, error)
}

// Sink stores one media item supplied as a byte stream. Platforms whose
// download URLs require client-side auth (Slack) fetch the bytes themselves
// and hand them over here.
type Sink interface {
	Put(ctx context.Context, kind, ext string, r io.Reader) (string, error)
}

// maxFetchSize caps a single download; chat platforms limit uploads well
// below this anyway.
const maxFetchSize = 256 << 20

// FilePipeline is a filesystem-backed Store: objects land under root,
// keyed as <prefix>/<kind>/<uuid><ext>. The key scheme is storage
// agnostic so the backend can move to a bucket without rewriting keys.
type FilePipeline struct {
	root   string
	prefix string
	client *http.Client
}

// NewFilePipeline creates a FilePipeline rooted at dir.
func NewFilePipeline(dir, prefix string) (*FilePipeline, error) {
	if dir == "" {
		return nil, fmt.Errorf("media: storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: create storage dir: %w", err)
	}
	return &FilePipeline{
		root:   dir,
		prefix: strings.Trim(prefix, "/"),
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Ingest downloads the item and stores it under a fresh key.
func (p *FilePipeline) Ingest(ctx context.Context, sourceURL, kind string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("media: build fetch request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("media: fetch %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("media: fetch %s: status %d", sourceURL, resp.StatusCode)
	}
	return p.Put(ctx, kind, keyExt(sourceURL), resp.Body)
}

// Put stores a media item read from r under a fresh key.
func (p *FilePipeline) Put(ctx context.Context, kind, ext string, r io.Reader) (string, error) {
	if kind == "" {
		kind = "media"
	}
	key := path.Join(p.prefix, kind, uuid.NewString()+ext)

	dest := filepath.Join(p.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("media: create object dir: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("media: create object: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(r, maxFetchSize)); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("media: store object: %w", err)
	}
	return key, nil
}

// Open returns a reader for a stored object.
func (p *FilePipeline) Open(key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(p.root, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("media: open %s: %w", key, err)
	}
	return f, nil
}

// keyExt extracts a sane file extension from a platform URL, dropping any
// query string.
func keyExt(sourceURL string) string {
	base := sourceURL
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base = base[:i]
	}
	ext := strings.ToLower(path.Ext(base))
	if len(ext) > 8 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
