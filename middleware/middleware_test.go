package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vnkhanh/gforms-server/internal/testdb"
	"github.com/vnkhanh/gforms-server/models"
	"github.com/vnkhanh/gforms-server/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.ConfigureJWT("middleware-test", time.Hour)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(ResolveActor())
	final := func(c *gin.Context) {
		a := Actor(c)
		c.JSON(http.StatusOK, gin.H{"id": a.ID, "auth": a.Authenticated, "blocked": a.Blocked})
	}
	r.GET("/x", append(handlers, final)...)
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedUser(t *testing.T, db *gorm.DB, u models.User) string {
	t.Helper()
	require.NoError(t, db.Create(&u).Error)
	tok, err := utils.GenerateToken(u.ID, string(u.Role))
	require.NoError(t, err)
	return tok
}

func TestResolveActor(t *testing.T) {
	db := testdb.Open(t)
	tok := seedUser(t, db, models.User{Name: "A", Email: "a@x.io", Role: models.RoleUser})
	r := newRouter()

	w := get(r, tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"auth":true,"blocked":false}`, w.Body.String())

	w = get(r, "")
	assert.JSONEq(t, `{"id":0,"auth":false,"blocked":false}`, w.Body.String())

	w = get(r, "garbage")
	assert.JSONEq(t, `{"id":0,"auth":false,"blocked":false}`, w.Body.String())
}

func TestResolveActorSeesCurrentAccountState(t *testing.T) {
	db := testdb.Open(t)
	tok := seedUser(t, db, models.User{Name: "A", Email: "a@x.io", Role: models.RoleAdmin})
	r := newRouter(RequireAdmin())

	assert.Equal(t, http.StatusOK, get(r, tok).Code)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", 1).Update("role", models.RoleUser).Error)
	assert.Equal(t, http.StatusForbidden, get(r, tok).Code)
}

func TestRequireAuth(t *testing.T) {
	db := testdb.Open(t)
	ok := seedUser(t, db, models.User{Name: "A", Email: "a@x.io", Role: models.RoleUser})
	blocked := seedUser(t, db, models.User{Name: "B", Email: "b@x.io", Role: models.RoleUser, IsBlocked: true})
	r := newRouter(RequireAuth())

	assert.Equal(t, http.StatusOK, get(r, ok).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusForbidden, get(r, blocked).Code)
}

func TestRequireAdmin(t *testing.T) {
	db := testdb.Open(t)
	user := seedUser(t, db, models.User{Name: "A", Email: "a@x.io", Role: models.RoleUser})
	super := seedUser(t, db, models.User{Name: "S", Email: "s@x.io", Role: models.RoleSuperAdmin})
	r := newRouter(RequireAdmin())

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusForbidden, get(r, user).Code)
	assert.Equal(t, http.StatusOK, get(r, super).Code)
}

func TestLoadForm(t *testing.T) {
	db := testdb.Open(t)
	seedUser(t, db, models.User{Name: "A", Email: "a@x.io"})
	require.NoError(t, db.Create(&models.Form{Title: "F", OwnerID: 1}).Error)

	r := gin.New()
	r.GET("/forms/:id", LoadForm(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"title": FormFrom(c).Title})
	})

	for path, code := range map[string]int{"/forms/1": 200, "/forms/2": 404, "/forms/abc": 400, "/forms/0": 400} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, code, w.Code, path)
	}
}

func TestRateLimitByIP(t *testing.T) {
	rl := NewIPRateLimiter(1, 2, time.Minute)
	defer rl.Stop()

	r := gin.New()
	r.GET("/x", RateLimitByIP(rl), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{204, 204, 429}, codes)
	assert.Equal(t, "61", hitFromFirstIP(r).Header().Get("Retry-After"))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func hitFromFirstIP(r http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestEvictIdle(t *testing.T) {
	rl := NewIPRateLimiter(10, 5, time.Minute)
	defer rl.Stop()

	rl.Allow("1.1.1.1")
	rl.evictIdle(time.Now().Add(2 * time.Minute))
	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.clients)
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
	assert.Contains(t, buf.String(), `"request_id":"abc-123"`)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, w.Header().Get(HeaderRequestID), 36)
}
