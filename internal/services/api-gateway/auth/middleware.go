package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/NordCoder/Restora/internal/auth"
	"github.com/gin-gonic/gin"
)

// HeaderUserID is set by the upstream auth proxy.
const HeaderUserID = "X-User-ID"

type ctxKey int

const userIDKey ctxKey = 1

func UserIDFromCtx(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// Identity resolves the caller from a bearer token when secret is not empty,
// and from X-User-ID otherwise. The header is ignored once a secret is set.
// Requests without an identity pass through anonymous; malformed identities
// are rejected.
func Identity(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok, err := resolve(c.Request, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid identity"})
			return
		}
		if ok {
			c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), uid))
		}
		c.Next()
	}
}

// Required aborts anonymous requests with 401.
func Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserIDFromCtx(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
			return
		}
		c.Next()
	}
}

func resolve(r *http.Request, secret []byte) (int64, bool, error) {
	if len(secret) > 0 {
		token := bearer(r)
		if token == "" {
			return 0, false, nil
		}
		claims, err := auth.ParseAndValidate(token, secret)
		if err != nil {
			return 0, false, err
		}
		id, err := claims.UserID()
		return id, err == nil, err
	}
	raw := r.Header.Get(HeaderUserID)
	if raw == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, auth.ErrTokenInvalid
	}
	return id, true, nil
}

func bearer(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
