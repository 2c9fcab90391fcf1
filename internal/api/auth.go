package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userKey = "user_id"

// AuthOptions resolves the calling user. Tokens maps bearer tokens to user ids;
// when it is empty the TrustedHeader, set by an authenticating proxy, is used.
type AuthOptions struct {
	Tokens        map[string]string
	TrustedHeader string
}

func identify(opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := resolveUser(c.Request, opts)
		if !ok {
			writeError(c, http.StatusUnauthorized, "unauthenticated")
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func resolveUser(r *http.Request, opts AuthOptions) (string, bool) {
	if len(opts.Tokens) > 0 {
		token, ok := bearerToken(r)
		if !ok {
			return "", false
		}
		for known, user := range opts.Tokens {
			if subtle.ConstantTimeCompare([]byte(known), []byte(token)) == 1 {
				return user, true
			}
		}
		return "", false
	}
	if opts.TrustedHeader == "" {
		return "", false
	}
	user := strings.TrimSpace(r.Header.Get(opts.TrustedHeader))
	return user, user != ""
}

// bearerToken reads "Authorization: Bearer <token>". Browsers cannot set headers
// on a WebSocket handshake, so the access_token query parameter is accepted too.
func bearerToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", false
		}
		return strings.TrimSpace(token), true
	}
	if t := r.URL.Query().Get("access_token"); t != "" {
		return t, true
	}
	return "", false
}

func userOf(c *gin.Context) string {
	return c.GetString(userKey)
}
