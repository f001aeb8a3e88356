package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Logger())
	r.GET("/me", RequireAuth(testSecret), func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})
	return r
}

func TestRequireAuthBearer(t *testing.T) {
	uid := "7b61d0ed-1111-4c3e-9d93-aaaaaaaaaaaa"
	tok, err := GenerateToken(uid, testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set(RequestIDHeader, "rid-1")
	w := httptest.NewRecorder()
	newAuthRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uid, w.Body.String())
	assert.Equal(t, "rid-1", w.Header().Get(RequestIDHeader))
}

func TestRequireAuthCookie(t *testing.T) {
	uid := "7b61d0ed-1111-4c3e-9d93-aaaaaaaaaaaa"
	tok, err := GenerateToken(uid, testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: tok})
	w := httptest.NewRecorder()
	newAuthRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequireAuthRejects(t *testing.T) {
	wrongSecret, err := GenerateToken("7b61d0ed-1111-4c3e-9d93-aaaaaaaaaaaa", "other", time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken("7b61d0ed-1111-4c3e-9d93-aaaaaaaaaaaa", testSecret, -time.Minute)
	require.NoError(t, err)
	notUUID, err := GenerateToken("42", testSecret, time.Hour)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":      "",
		"wrong secret": "Bearer " + wrongSecret,
		"expired":      "Bearer " + expired,
		"not uuid":     "Bearer " + notUUID,
		"garbage":      "Bearer abc.def.ghi",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			newAuthRouter().ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestShouldRefresh(t *testing.T) {
	tok, err := GenerateToken("7b61d0ed-1111-4c3e-9d93-aaaaaaaaaaaa", testSecret, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	newAuthRouter().ServeHTTP(w, req)

	// 刚签发的 Token 不刷新
	assert.Empty(t, w.Result().Cookies())
}

func TestRequireAuthSlidingRefresh(t *testing.T) {
	uid := "7b61d0ed-1111-4c3e-9d93-aaaaaaaaaaaa"
	issued := time.Now().Add(-40 * time.Minute)
	old, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+old)
	w := httptest.NewRecorder()
	newAuthRouter().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.NotEqual(t, old, cookies[0].Value)

	// 新 Token 可以直接使用
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+cookies[0].Value)
	w = httptest.NewRecorder()
	newAuthRouter().ServeHTTP(w, req)
	assert.Equal(t, uid, w.Body.String())
}
