package auth

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/NordCoder/Restora/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newEngine(secret []byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity(secret))
	r.GET("/open", func(c *gin.Context) {
		uid, ok := UserIDFromCtx(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"uid": uid, "ok": ok})
	})
	r.GET("/closed", Required(), func(c *gin.Context) {
		uid, _ := UserIDFromCtx(c.Request.Context())
		c.String(http.StatusOK, strconv.FormatInt(uid, 10))
	})
	return r
}

func do(r http.Handler, path string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdentityHeader(t *testing.T) {
	r := newEngine(nil)

	w := do(r, "/closed", map[string]string{HeaderUserID: "7"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "7", w.Body.String())

	w = do(r, "/closed", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/open", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"uid":0,"ok":false}`, w.Body.String())

	w = do(r, "/open", map[string]string{HeaderUserID: "abc"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentityBearer(t *testing.T) {
	secret := []byte("k")
	r := newEngine(secret)

	token, err := auth.NewAccessClaims(9, time.Now(), time.Minute).SignedString(secret)
	require.NoError(t, err)

	w := do(r, "/closed", map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "9", w.Body.String())

	w = do(r, "/closed", map[string]string{"Authorization": "Bearer garbage"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHeaderIgnoredWithSecret(t *testing.T) {
	secret := []byte("k")
	r := newEngine(secret)

	w := do(r, "/closed", map[string]string{HeaderUserID: "7"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/open", map[string]string{HeaderUserID: "7"})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"uid":0,"ok":false}`, w.Body.String())

	token, err := auth.NewAccessClaims(9, time.Now(), time.Minute).SignedString(secret)
	require.NoError(t, err)
	w = do(r, "/closed", map[string]string{"Authorization": "Bearer " + token, HeaderUserID: "7"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "9", w.Body.String())
}

func TestBearerIgnoredWithoutSecret(t *testing.T) {
	r := newEngine(nil)
	w := do(r, "/closed", map[string]string{"Authorization": "Bearer x", HeaderUserID: "3"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "3", w.Body.String())
}
