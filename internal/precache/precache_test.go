package precache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/quocanhngo/raven-push/internal/model"
	"github.com/quocanhngo/raven-push/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func assetOrigin(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/index.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>raven</html>"))
		case "/assets/app.js":
			_, _ = w.Write([]byte("console.log('raven')"))
		case "/assets/app.css":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte("body{}"))
		case "/notes.txt":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("raven"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "/index.html?__WB_REVISION__=abc", CacheKey(model.PrecacheEntry{URL: "/index.html", Revision: "abc"}))
	assert.Equal(t, "/a?v=1&__WB_REVISION__=abc", CacheKey(model.PrecacheEntry{URL: "/a?v=1", Revision: "abc"}))
	assert.Equal(t, "/assets/app.4f2c.js", CacheKey(model.PrecacheEntry{URL: "/assets/app.4f2c.js"}))
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"url":"/index.html","revision":"1"},{"url":"/assets/app.js"}]`), 0o644))

	entries, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, []model.PrecacheEntry{{URL: "/index.html", Revision: "1"}, {URL: "/assets/app.js"}}, entries)

	_, err = LoadManifest(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestPrecache_InstallMatchAndSkip(t *testing.T) {
	ctx := context.Background()
	var hits int32
	srv := assetOrigin(t, &hits)
	store := storage.NewMemory()

	entries := []model.PrecacheEntry{{URL: "/index.html", Revision: "1"}, {URL: "/assets/app.js"}}
	p := New(entries, srv.URL, srv.Client(), store, zap.NewNop())

	require.NoError(t, p.Install(ctx))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, 2, p.Count(ctx))

	obj, ok := p.Match(ctx, "/index.html")
	require.True(t, ok)
	assert.Equal(t, "<html>raven</html>", string(obj.Data))
	assert.Equal(t, "text/html", obj.ContentType)

	obj, ok = p.Match(ctx, "/assets/app.js")
	require.True(t, ok)
	assert.Equal(t, "text/javascript; charset=utf-8", obj.ContentType)

	_, ok = p.Match(ctx, "/not-precached.js")
	assert.False(t, ok)

	// second install finds everything stored
	require.NoError(t, p.Install(ctx))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestPrecache_InstallReportsFailures(t *testing.T) {
	ctx := context.Background()
	var hits int32
	srv := assetOrigin(t, &hits)

	p := New([]model.PrecacheEntry{{URL: "/missing.css"}, {URL: "/assets/app.js"}}, srv.URL, srv.Client(), storage.NewMemory(), zap.NewNop())

	err := p.Install(ctx)
	assert.Error(t, err)

	_, ok := p.Match(ctx, "/assets/app.js")
	assert.True(t, ok)
}

func TestPrecache_CleanupOutdated(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, store.Put(ctx, "/index.html?__WB_REVISION__=old", storage.Object{Data: []byte("old")}))
	require.NoError(t, store.Put(ctx, "/index.html?__WB_REVISION__=new", storage.Object{Data: []byte("new")}))

	p := New([]model.PrecacheEntry{{URL: "/index.html", Revision: "new"}}, "http://unused", nil, store, zap.NewNop())
	require.NoError(t, p.CleanupOutdated(ctx))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/index.html?__WB_REVISION__=new"}, keys)

	obj, ok := p.Match(ctx, "/index.html")
	require.True(t, ok)
	assert.Equal(t, "new", string(obj.Data))
}

func TestPrecache_GenericContentTypeUsesExtension(t *testing.T) {
	ctx := context.Background()
	var hits int32
	srv := assetOrigin(t, &hits)

	entries := []model.PrecacheEntry{{URL: "/assets/app.js"}, {URL: "/assets/app.css"}, {URL: "/index.html"}, {URL: "/notes.txt"}}
	p := New(entries, srv.URL, srv.Client(), storage.NewMemory(), zap.NewNop())
	require.NoError(t, p.Install(ctx))

	for url, want := range map[string]string{
		"/assets/app.js":  "text/javascript; charset=utf-8",
		"/assets/app.css": "text/css; charset=utf-8",
		"/index.html":     "text/html",
		"/notes.txt":      "text/plain; charset=utf-8",
	} {
		obj, ok := p.Match(ctx, url)
		require.True(t, ok, url)
		assert.Equal(t, want, obj.ContentType, url)
	}
}

func TestAssetContentType(t *testing.T) {
	assert.Equal(t, "text/javascript; charset=utf-8", assetContentType("text/plain; charset=utf-8", "/app.js"))
	assert.Equal(t, "image/png", assetContentType("application/octet-stream", "/logo.png?v=2"))
	assert.Equal(t, "image/svg+xml", assetContentType("", "/icon.svg"))
	assert.Equal(t, "application/wasm", assetContentType("application/wasm", "/module.wasm"))
	assert.Equal(t, "application/octet-stream", assetContentType("", "/blob.bin"))
}
