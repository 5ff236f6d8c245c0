package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/internship-tracker/internal/auth"
	"github.com/justsurfingit/internship-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(tokens *auth.TokenIssuer) *gin.Engine {
	r := gin.New()
	r.GET("/private", Authenticate(tokens), AuthorizeRoles(models.RoleCompany, models.RoleAdmin), func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	r.GET("/public", OptionalAuthenticate(tokens), func(c *gin.Context) {
		if who := CurrentIdentity(c); who != nil {
			c.JSON(http.StatusOK, gin.H{"role": who.Role})
			return
		}
		c.JSON(http.StatusOK, gin.H{"role": "anonymous"})
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenIssuer("secret", time.Hour)
	r := setupRouter(tokens)

	w := do(r, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Missing token"}`, w.Body.String())

	w = do(r, "/private", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Invalid token"}`, w.Body.String())

	student, err := tokens.Issue(auth.TokenUser{UserID: "s1", Role: models.RoleStudent})
	require.NoError(t, err)
	w = do(r, "/private", student)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"message":"Forbidden"}`, w.Body.String())

	company, err := tokens.Issue(auth.TokenUser{UserID: "c1", Role: models.RoleCompany})
	require.NoError(t, err)
	w = do(r, "/private", company)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"c1"}`, w.Body.String())
}

func TestOptionalAuthenticate(t *testing.T) {
	tokens := auth.NewTokenIssuer("secret", time.Hour)
	r := setupRouter(tokens)

	assert.JSONEq(t, `{"role":"anonymous"}`, do(r, "/public", "").Body.String())
	assert.JSONEq(t, `{"role":"anonymous"}`, do(r, "/public", "bad").Body.String())

	faculty, err := tokens.Issue(auth.TokenUser{UserID: "f1", Role: models.RoleFaculty})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"faculty"}`, do(r, "/public", faculty).Body.String())
}

func TestMemoryLimiter(t *testing.T) {
	l := NewMemoryLimiter()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("ip", 3, time.Minute), "request %d", i)
	}
	assert.False(t, l.Allow("ip", 3, time.Minute))
	assert.True(t, l.Allow("other", 3, time.Minute))

	now = now.Add(time.Minute)
	assert.True(t, l.Allow("ip", 3, time.Minute))
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(NewMemoryLimiter(), 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestNilRedisLimiterAllows(t *testing.T) {
	var l *RedisLimiter
	assert.True(t, l.Allow("k", 1, time.Second))
	assert.Nil(t, NewRedisLimiter(nil))
}
