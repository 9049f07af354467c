package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/quocanhngo/raven-push/pkg/auth"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(jwtManager *auth.JWTManager, rdb *redis.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ZapLogger(zap.NewNop()))
	r.GET("/whoami", AuthMiddleware(jwtManager, rdb), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	r := newRouter(jwtManager, nil)

	token, err := jwtManager.GenerateToken("alice@example.com", "Alice")
	require.NoError(t, err)

	w := get(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice@example.com", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Token "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer garbage").Code)
}

func TestAuthMiddleware_Blacklist(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	jwtManager := auth.NewJWTManager("secret", time.Hour)
	r := newRouter(jwtManager, rdb)

	token, err := jwtManager.GenerateToken("alice@example.com", "Alice")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(r, "Bearer "+token).Code)

	require.NoError(t, rdb.Set(context.Background(), "blacklist:"+token, "1", 0).Err())
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+token).Code)
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://chat.example.com"}))
	r.Use(ZapLogger(zap.NewNop()))
	r.DELETE("/api/v1/storage/:key", func(c *gin.Context) { c.Status(http.StatusOK) })

	preflight := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/storage/currentUser", nil)
		req.Header.Set("Origin", "https://chat.example.com")
		req.Header.Set("Access-Control-Request-Method", method)
		req.Header.Set("Access-Control-Request-Headers", "Authorization, X-Request-ID")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := preflight(http.MethodDelete)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
	assert.NotContains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), strings.ToLower(RequestIDHeader))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/storage/currentUser", nil)
	req.Header.Set("Origin", "https://chat.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Expose-Headers")), strings.ToLower(RequestIDHeader))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
