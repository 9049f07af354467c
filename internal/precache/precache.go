package precache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/quocanhngo/raven-push/internal/metrics"
	"github.com/quocanhngo/raven-push/internal/model"
	"github.com/quocanhngo/raven-push/pkg/storage"
	"go.uber.org/zap"
)

// RevisionParam is appended to the URL of revisioned entries to form their cache key
const RevisionParam = "__WB_REVISION__"

// LoadManifest reads a JSON manifest of precache entries
func LoadManifest(path string) ([]model.PrecacheEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read precache manifest: %w", err)
	}
	var entries []model.PrecacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("invalid precache manifest: %w", err)
	}
	return entries, nil
}

// CacheKey returns the key an entry is stored under
func CacheKey(e model.PrecacheEntry) string {
	if e.Revision == "" {
		return e.URL
	}
	sep := "?"
	if strings.Contains(e.URL, "?") {
		sep = "&"
	}
	return e.URL + sep + RevisionParam + "=" + url.QueryEscape(e.Revision)
}

// Precache keeps the assets of a manifest in a storage
type Precache struct {
	origin  string
	client  *http.Client
	store   storage.Storage
	logger  *zap.Logger
	byURL   map[string]string // request URL -> cache key
	entries []model.PrecacheEntry
}

// New creates a precache for the manifest entries. Assets are fetched from
// origin; client may be nil.
func New(entries []model.PrecacheEntry, origin string, client *http.Client, store storage.Storage, logger *zap.Logger) *Precache {
	if client == nil {
		client = http.DefaultClient
	}
	p := &Precache{
		origin:  strings.TrimRight(origin, "/"),
		client:  client,
		store:   store,
		logger:  logger.Named("precache"),
		byURL:   make(map[string]string, len(entries)),
		entries: entries,
	}
	for _, e := range entries {
		p.byURL[e.URL] = CacheKey(e)
	}
	return p
}

// Install fetches every entry that is not stored yet. A failing entry is
// logged and skipped; the error reports how many entries failed.
func (p *Precache) Install(ctx context.Context) error {
	failed := 0
	for _, e := range p.entries {
		key := CacheKey(e)
		if _, err := p.store.Get(ctx, key); err == nil {
			continue
		} else if !errors.Is(err, storage.ErrObjectNotFound) {
			p.logger.Warn("Failed to look up cached asset", zap.String("key", key), zap.Error(err))
		}

		obj, err := p.fetch(ctx, e.URL)
		if err != nil {
			failed++
			p.logger.Warn("Failed to fetch asset", zap.String("url", e.URL), zap.Error(err))
			continue
		}
		if err := p.store.Put(ctx, key, *obj); err != nil {
			failed++
			p.logger.Warn("Failed to store asset", zap.String("key", key), zap.Error(err))
			continue
		}
		p.logger.Debug("Asset precached", zap.String("key", key))
	}
	p.refreshGauge(ctx)

	if failed > 0 {
		return fmt.Errorf("%d of %d assets could not be precached", failed, len(p.entries))
	}
	return nil
}

// CleanupOutdated deletes stored keys that are not part of the manifest
func (p *Precache) CleanupOutdated(ctx context.Context) error {
	keys, err := p.store.Keys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cached assets: %w", err)
	}

	wanted := make(map[string]bool, len(p.entries))
	for _, e := range p.entries {
		wanted[CacheKey(e)] = true
	}

	for _, key := range keys {
		if wanted[key] {
			continue
		}
		if err := p.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		p.logger.Debug("Outdated asset removed", zap.String("key", key))
	}
	p.refreshGauge(ctx)
	return nil
}

// Match returns the cached asset for a request path, if it is precached
func (p *Precache) Match(ctx context.Context, path string) (*storage.Object, bool) {
	key, ok := p.byURL[path]
	if !ok {
		return nil, false
	}
	obj, err := p.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrObjectNotFound) {
			p.logger.Warn("Failed to read cached asset", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return obj, true
}

// Count returns the number of cached assets
func (p *Precache) Count(ctx context.Context) int {
	keys, err := p.store.Keys(ctx)
	if err != nil {
		return 0
	}
	return len(keys)
}

func (p *Precache) refreshGauge(ctx context.Context) {
	metrics.PrecachedAssets.Set(float64(p.Count(ctx)))
}

func (p *Precache) fetch(ctx context.Context, assetURL string) (*storage.Object, error) {
	target := assetURL
	if !strings.HasPrefix(assetURL, "http://") && !strings.HasPrefix(assetURL, "https://") {
		target = p.origin + "/" + strings.TrimLeft(assetURL, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &storage.Object{Data: data, ContentType: assetContentType(resp.Header.Get("Content-Type"), assetURL)}, nil
}

// assetContentType keeps the origin's type unless it is missing or generic,
// in which case the extension decides. Sniffing servers label scripts text/plain.
func assetContentType(header, assetURL string) string {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(header, ";", 2)[0]))
	switch mediaType {
	case "", "text/plain", "application/octet-stream", "binary/octet-stream":
		if detected := storage.DetectContentType(assetURL); detected != "application/octet-stream" {
			return detected
		}
	}
	if header == "" {
		return "application/octet-stream"
	}
	return header
}
