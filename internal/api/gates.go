package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/student-ally/ally-core/internal/auth"
)

// defaultCookieName carries the access token for browser clients.
const defaultCookieName = "token"

const ctxKeyClaims contextKey = "claims"

// tokenFromRequest returns the bearer token from the Authorization header,
// falling back to the access-token cookie.
func (s *Server) tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); token != "" {
			return token
		}
	}
	if c, err := r.Cookie(s.secCfg.Cookie.Name); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

// authenticate verifies the access token and attaches its claims to the
// request context. Every verification failure looks the same to the client.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.tokenFromRequest(r)
		if token == "" {
			writeUnauthorized(w, msgNoToken)
			return
		}

		claims, err := s.tokens.VerifyAccess(token)
		if err != nil {
			s.logger.Debug("access token rejected",
				"kind", auth.KindOf(err).String(),
				"path", r.URL.Path,
				"request_id", r.Context().Value(ctxKeyRequestID),
			)
			writeUnauthorized(w, msgInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRoles admits only identities whose role is in allow. It must run
// after authenticate.
func (s *Server) requireRoles(allow ...auth.Role) func(http.Handler) http.Handler {
	if len(allow) == 0 {
		panic("api: requireRoles needs at least one role")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromContext(r.Context())
			if claims == nil {
				writeUnauthorized(w, msgUnauthorized)
				return
			}
			if err := auth.Authorize(claims.Role, allow); err != nil {
				s.logger.Debug("role not permitted",
					"error", err,
					"path", r.URL.Path,
				)
				writeForbidden(w, msgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// claimsFromContext returns the claims attached by authenticate, or nil.
func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(ctxKeyClaims).(*auth.Claims)
	return claims
}
