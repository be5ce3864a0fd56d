package middleware

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Mylifeforrent/react-management-backend/pkg/auth"
	"github.com/Mylifeforrent/react-management-backend/pkg/contextkeys"
	"github.com/Mylifeforrent/react-management-backend/pkg/httputil"
	"github.com/Mylifeforrent/react-management-backend/pkg/models"
	"github.com/Mylifeforrent/react-management-backend/pkg/observability"
	"github.com/Mylifeforrent/react-management-backend/pkg/store"
)

// AuthMiddleware gates handlers behind token authentication and role
// checks. The gates are pure request-scoped checks: a handler never runs
// before its gate has fully passed.
type AuthMiddleware struct {
	tokens  *auth.TokenService
	users   store.UserStore
	log     logrus.FieldLogger
	metrics *observability.Metrics
}

// NewAuthMiddleware creates the authorization gate chain. A nil metrics
// disables rejection counting.
func NewAuthMiddleware(tokens *auth.TokenService, users store.UserStore, log logrus.FieldLogger, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, log: log, metrics: metrics}
}

func (m *AuthMiddleware) reject(reason string) {
	if m.metrics != nil {
		m.metrics.RecordAuthRejection(reason)
	}
}

// authenticate runs the base gate: extract the token, verify it, load
// the referenced user, and re-check account status. It writes the
// failure response itself and returns nil when the request is rejected.
func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request) *models.User {
	header := r.Header.Get("Authorization")
	if header == "" {
		m.reject("missing_token")
		httputil.WriteUnauthorized(w, "missing authentication token")
		return nil
	}

	token := auth.ExtractFromHeader(header)
	if token == "" {
		m.reject("malformed_header")
		httputil.WriteUnauthorized(w, "malformed authorization header")
		return nil
	}

	claims, err := m.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			m.reject("token_expired")
			httputil.WriteUnauthorized(w, "token expired")
			return nil
		}
		m.reject("token_invalid")
		httputil.WriteUnauthorized(w, "invalid token")
		return nil
	}

	user, err := m.users.FindByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// User deleted since the token was issued
			m.reject("token_invalid")
			httputil.WriteUnauthorized(w, "invalid token")
			return nil
		}
		m.log.WithError(err).Error("user lookup failed during authentication")
		httputil.WriteInternalError(w, "authentication failed")
		return nil
	}

	// Status is re-checked on every request so an account disabled
	// mid-session is rejected on its next call.
	if !user.IsActive() {
		m.reject("account_disabled")
		auth.LogSecurityEvent(m.log, auth.EventAccessDenied, user.Username, httputil.ClientIP(r),
			logrus.Fields{"reason": "account disabled"})
		httputil.WriteForbidden(w, "account disabled")
		return nil
	}

	return user
}

// RequireAuth admits any authenticated, active user
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := m.authenticate(w, r)
		if user == nil {
			return
		}
		next.ServeHTTP(w, r.WithContext(contextkeys.WithUser(r.Context(), user)))
	})
}

// RequireAdmin admits only authenticated admins
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole(models.RoleAdmin)(next)
}

// RequireRole admits authenticated users holding the required role.
// Admin satisfies every role requirement.
func (m *AuthMiddleware) RequireRole(required models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := m.authenticate(w, r)
			if user == nil {
				return
			}
			if !user.Role.Satisfies(required) {
				m.reject("insufficient_role")
				auth.LogSecurityEvent(m.log, auth.EventAccessDenied, user.Username, httputil.ClientIP(r),
					logrus.Fields{"required_role": string(required), "role": string(user.Role)})
				httputil.WriteForbidden(w, "insufficient privileges")
				return
			}
			next.ServeHTTP(w, r.WithContext(contextkeys.WithUser(r.Context(), user)))
		})
	}
}

// CurrentUser returns the authenticated user attached by a gate, or nil
// when the request did not pass through one
func CurrentUser(r *http.Request) *models.User {
	return contextkeys.UserFrom(r.Context())
}
