package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrObjectNotFound is returned by Get when the key is not stored
var ErrObjectNotFound = errors.New("object not found")

// Object is a stored blob with its content type
type Object struct {
	Data        []byte
	ContentType string
}

// Storage defines the interface for the asset cache storage
type Storage interface {
	Put(ctx context.Context, key string, obj Object) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// MemoryStorage keeps objects in process memory
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemory creates an empty in-memory storage
func NewMemory() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]Object)}
}

func (s *MemoryStorage) Put(_ context.Context, key string, obj Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := make([]byte, len(obj.Data))
	copy(data, obj.Data)
	s.objects[key] = Object{Data: data, ContentType: obj.ContentType}
	return nil
}

func (s *MemoryStorage) Get(_ context.Context, key string) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return &obj, nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Keys returns the stored keys in lexical order
func (s *MemoryStorage) Keys(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// DetectContentType returns MIME type based on file extension
func DetectContentType(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".js", ".mjs":
		return "text/javascript; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".json", ".webmanifest":
		return "application/json"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".ico":
		return "image/x-icon"
	case ".woff2":
		return "font/woff2"
	case ".mp3":
		return "audio/mpeg"
	case ".ogg":
		return "audio/ogg"
	case ".wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}
