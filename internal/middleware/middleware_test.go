package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIPRateLimiter_WindowResets(t *testing.T) {
	l := NewIPRateLimiter(2, time.Minute)
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ok, _ := l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.Allow("10.0.0.1")
	assert.False(t, ok)

	ok, _ = l.Allow("10.0.0.2")
	assert.True(t, ok, "limits are per IP")

	now = now.Add(61 * time.Second)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)
}

func TestIPRateLimiter_Purge(t *testing.T) {
	l := NewIPRateLimiter(5, time.Minute)
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.Allow("a")
	l.Allow("b")

	assert.Zero(t, l.purge())
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, l.purge())
	assert.Empty(t, l.entries)
}

func TestIPRateLimiter_Middleware429(t *testing.T) {
	l := NewIPRateLimiter(1, time.Minute)
	r := gin.New()
	r.Use(l.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestActor(t *testing.T) {
	r := gin.New()
	var got []string
	r.GET("/anon", func(c *gin.Context) { got = append(got, Actor(c)) })
	r.GET("/auth", func(c *gin.Context) {
		c.Set(ClaimsKey, &JWTClaims{Email: "tech@shop.test", Role: RoleStaff})
		got = append(got, Actor(c))
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/anon", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/auth", nil))
	assert.Equal(t, []string{model.SystemActor, "tech@shop.test"}, got)
}

func TestRequestID_PropagatesOrGenerates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := serve(r, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Body.String(), 36)
}

func TestErrorHandler_HidesCause(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/", func(c *gin.Context) { _ = c.Error(errors.New("pq: password authentication failed")) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(*gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
