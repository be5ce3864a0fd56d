package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Mylifeforrent/react-management-backend/pkg/auth"
	"github.com/Mylifeforrent/react-management-backend/pkg/httputil"
	"github.com/Mylifeforrent/react-management-backend/pkg/middleware"
	"github.com/Mylifeforrent/react-management-backend/pkg/models"
	"github.com/Mylifeforrent/react-management-backend/pkg/observability"
	"github.com/Mylifeforrent/react-management-backend/pkg/store"
)

// credentialErrMsg is deliberately identical for unknown-username and
// wrong-password failures to avoid user enumeration.
const credentialErrMsg = "username or password incorrect"

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	users   store.UserStore
	tokens  *auth.TokenService
	prehash *auth.PreHashVerifier
	replay  auth.ReplayGuard
	metrics *observability.Metrics
	log     logrus.FieldLogger
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(users store.UserStore, tokens *auth.TokenService, prehash *auth.PreHashVerifier,
	replay auth.ReplayGuard, metrics *observability.Metrics, log logrus.FieldLogger) *AuthHandlers {
	return &AuthHandlers{
		users:   users,
		tokens:  tokens,
		prehash: prehash,
		replay:  replay,
		metrics: metrics,
		log:     log,
	}
}

// RegisterRoutes registers authentication routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router, gates *middleware.AuthMiddleware) {
	router.HandleFunc("/api/auth/login", h.login).Methods("POST")
	router.HandleFunc("/api/auth/register", h.register).Methods("POST")
	router.HandleFunc("/api/auth/logout", h.logout).Methods("POST")
	router.HandleFunc("/api/auth/refresh", h.refresh).Methods("POST")
	router.Handle("/api/auth/profile", gates.RequireAuth(http.HandlerFunc(h.profile))).Methods("GET")
	router.Handle("/api/auth/change-password", gates.RequireAuth(http.HandlerFunc(h.changePassword))).Methods("POST")
	router.HandleFunc("/api/auth/password-reset/request", h.requestPasswordReset).Methods("POST")
	router.HandleFunc("/api/auth/password-reset/confirm", h.confirmPasswordReset).Methods("POST")
}

func (h *AuthHandlers) recordLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordLogin(outcome)
	}
}

// login handles POST /api/auth/login. The password field carries the
// client-side pre-hash, never the plaintext. Nonce and timestamp are
// optional anti-replay hardening; the guard only runs when both are
// present.
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		Password  string `json:"password"`
		Nonce     string `json:"nonce"`
		Timestamp int64  `json:"timestamp"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireFields(w, map[string]string{
		"username": req.Username,
		"password": req.Password,
	}, "username", "password") {
		return
	}

	sourceIP := httputil.ClientIP(r)
	h.log.WithFields(logrus.Fields{"username": req.Username, "source_ip": sourceIP}).
		Info("login attempt")

	if req.Nonce != "" && req.Timestamp != 0 {
		if err := h.replay.Check(r.Context(), req.Nonce, req.Timestamp); err != nil {
			auth.LogSecurityEvent(h.log, auth.EventReplayDetected, req.Username, sourceIP,
				logrus.Fields{"reason": err.Error()})
			h.recordLogin("replay")
			httputil.WriteBadRequest(w, "request verification failed, please log in again")
			return
		}
	}

	// Username and email are interchangeable at login
	user, err := h.users.FindByUsername(r.Context(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		user, err = h.users.FindByEmail(r.Context(), req.Username)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			auth.LogSecurityEvent(h.log, auth.EventLoginFailed, req.Username, sourceIP,
				logrus.Fields{"reason": "unknown user"})
			h.recordLogin("failed")
			httputil.WriteUnauthorized(w, credentialErrMsg)
			return
		}
		h.log.WithError(err).Error("user lookup failed during login")
		httputil.WriteInternalError(w, "login failed, please try again later")
		return
	}

	if !h.prehash.Verify(user, req.Password, req.Username) {
		auth.LogSecurityEvent(h.log, auth.EventLoginFailed, req.Username, sourceIP,
			logrus.Fields{"reason": "bad password"})
		h.recordLogin("failed")
		httputil.WriteUnauthorized(w, credentialErrMsg)
		return
	}

	if !user.IsActive() {
		auth.LogSecurityEvent(h.log, auth.EventLoginFailed, req.Username, sourceIP,
			logrus.Fields{"reason": "account disabled"})
		h.recordLogin("disabled")
		httputil.WriteForbidden(w, "account disabled, please contact an administrator")
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.log.WithError(err).Error("token issuance failed")
		httputil.WriteInternalError(w, "login failed, please try again later")
		return
	}

	// Advisory metadata; last writer wins under concurrent logins
	now := time.Now().UTC()
	user.LastLoginAt = &now
	if err := h.users.Update(r.Context(), user); err != nil {
		h.log.WithError(err).Warn("failed to persist last login time")
	}

	auth.LogSecurityEvent(h.log, auth.EventLoginSuccess, user.Username, sourceIP, nil)
	h.recordLogin("success")

	httputil.WriteSuccess(w, "login successful", map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// register handles POST /api/auth/register. Self-registered accounts
// always start as an active regular user.
func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		RealName string `json:"real_name"`
		Phone    string `json:"phone"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireFields(w, map[string]string{
		"username": req.Username,
		"email":    req.Email,
		"password": req.Password,
	}, "username", "email", "password") {
		return
	}

	if _, err := h.users.FindByUsername(r.Context(), req.Username); err == nil {
		httputil.WriteBadRequest(w, "username already exists")
		return
	}
	if _, err := h.users.FindByEmail(r.Context(), req.Email); err == nil {
		httputil.WriteBadRequest(w, "email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.WithError(err).Error("password hashing failed")
		httputil.WriteInternalError(w, "registration failed, please try again later")
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		RealName:     req.RealName,
		Phone:        req.Phone,
		Role:         models.RoleUser,
		Status:       models.StatusActive,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httputil.WriteBadRequest(w, "username already exists")
			return
		}
		h.log.WithError(err).Error("user creation failed")
		httputil.WriteInternalError(w, "registration failed, please try again later")
		return
	}

	httputil.WriteSuccess(w, "registration successful", map[string]interface{}{"user": user})
}

// logout handles POST /api/auth/logout. Tokens are stateless, so the
// server cannot invalidate them; the real logout happens client-side and
// this endpoint only records the event.
func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	username := ""
	if header := r.Header.Get("Authorization"); header != "" {
		if token := auth.ExtractFromHeader(header); token != "" {
			if claims, err := h.tokens.Verify(token); err == nil {
				username = claims.Username
			}
		}
	}
	auth.LogSecurityEvent(h.log, auth.EventLogout, username, httputil.ClientIP(r), nil)
	httputil.WriteSuccess(w, "logout successful", nil)
}

// refresh handles POST /api/auth/refresh. The old token may be expired;
// only its signature and the referenced account are checked.
func (h *AuthHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	oldToken := req.Token
	if oldToken == "" {
		oldToken = auth.ExtractFromHeader(r.Header.Get("Authorization"))
	}
	if oldToken == "" {
		httputil.WriteBadRequest(w, "missing required fields: token")
		return
	}

	fresh, err := h.tokens.Refresh(r.Context(), oldToken)
	if err != nil {
		httputil.WriteUnauthorized(w, "invalid token")
		return
	}
	httputil.WriteSuccess(w, "token refreshed", map[string]interface{}{"token": fresh})
}

// profile handles GET /api/auth/profile
func (h *AuthHandlers) profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	httputil.WriteSuccess(w, "profile retrieved", map[string]interface{}{"user": user})
}

// changePassword handles POST /api/auth/change-password. Unlike login,
// this endpoint receives plaintext passwords: the caller already holds a
// valid session and the current password is re-verified against the
// stored bcrypt digest.
func (h *AuthHandlers) changePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)

	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireFields(w, map[string]string{
		"old_password": req.OldPassword,
		"new_password": req.NewPassword,
	}, "old_password", "new_password") {
		return
	}

	if !auth.VerifyPassword(req.OldPassword, user.PasswordHash) {
		httputil.WriteBadRequest(w, "current password incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.log.WithError(err).Error("password hashing failed")
		httputil.WriteInternalError(w, "password change failed")
		return
	}
	user.PasswordHash = hash
	if err := h.users.Update(r.Context(), user); err != nil {
		h.log.WithError(err).Error("password update failed")
		httputil.WriteInternalError(w, "password change failed")
		return
	}

	auth.LogSecurityEvent(h.log, auth.EventPasswordChange, user.Username, httputil.ClientIP(r), nil)
	httputil.WriteSuccess(w, "password changed", nil)
}

// requestPasswordReset handles POST /api/auth/password-reset/request.
// There is no mail delivery; the reset token is returned directly in the
// response. The response is identical whether or not the account exists.
func (h *AuthHandlers) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireFields(w, map[string]string{"username": req.Username}, "username") {
		return
	}

	user, err := h.users.FindByUsername(r.Context(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		user, err = h.users.FindByEmail(r.Context(), req.Username)
	}
	if err != nil {
		// Do not reveal whether the account exists
		httputil.WriteSuccess(w, "if the account exists, a reset token has been issued", nil)
		return
	}

	token, err := h.tokens.IssueResetToken(user, 0)
	if err != nil {
		h.log.WithError(err).Error("reset token issuance failed")
		httputil.WriteInternalError(w, "password reset failed")
		return
	}

	auth.LogSecurityEvent(h.log, auth.EventPasswordReset, user.Username, httputil.ClientIP(r),
		logrus.Fields{"stage": "requested"})
	httputil.WriteSuccess(w, "if the account exists, a reset token has been issued",
		map[string]interface{}{"reset_token": token})
}

// confirmPasswordReset handles POST /api/auth/password-reset/confirm
func (h *AuthHandlers) confirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireFields(w, map[string]string{
		"token":        req.Token,
		"new_password": req.NewPassword,
	}, "token", "new_password") {
		return
	}

	user, err := h.tokens.VerifyResetToken(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			httputil.WriteUnauthorized(w, "token expired")
			return
		}
		httputil.WriteUnauthorized(w, "invalid token")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.log.WithError(err).Error("password hashing failed")
		httputil.WriteInternalError(w, "password reset failed")
		return
	}
	user.PasswordHash = hash
	if err := h.users.Update(r.Context(), user); err != nil {
		h.log.WithError(err).Error("password update failed")
		httputil.WriteInternalError(w, "password reset failed")
		return
	}

	auth.LogSecurityEvent(h.log, auth.EventPasswordReset, user.Username, httputil.ClientIP(r),
		logrus.Fields{"stage": "confirmed"})
	httputil.WriteSuccess(w, "password reset", nil)
}
