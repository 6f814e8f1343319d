package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/jobfinder-mcp/pkg/errors"
)

type grantKey struct{}

// WithGrant returns a copy of ctx carrying grant.
func WithGrant(ctx context.Context, grant *AccessGrant) context.Context {
	return context.WithValue(ctx, grantKey{}, grant)
}

// GrantFromContext returns the grant stored by Middleware, if any.
func GrantFromContext(ctx context.Context) (*AccessGrant, bool) {
	grant, ok := ctx.Value(grantKey{}).(*AccessGrant)
	return grant, ok && grant != nil
}

// BearerToken extracts the credential from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}

	return strings.TrimSpace(h[7:]), true
}

/*
Middleware wraps h and rejects every request whose bearer token the
authenticator denies. A nil authenticator disables the check.
*/
func Middleware(a Authenticator, h http.Handler) http.Handler {
	if a == nil {
		return h
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)

		var grant *AccessGrant
		if ok {
			grant, ok = a.Authenticate(r.Context(), token)
		}

		if !ok {
			log.Warn("rejected request", "remote", r.RemoteAddr, "path", r.URL.Path)

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write(errors.ErrAuthRejected.Envelope())
			return
		}

		h.ServeHTTP(w, r.WithContext(WithGrant(r.Context(), grant)))
	})
}
