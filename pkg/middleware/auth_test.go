package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mylifeforrent/react-management-backend/pkg/auth"
	"github.com/Mylifeforrent/react-management-backend/pkg/httputil"
	"github.com/Mylifeforrent/react-management-backend/pkg/models"
	"github.com/Mylifeforrent/react-management-backend/pkg/observability"
	"github.com/Mylifeforrent/react-management-backend/pkg/store"
)

var testSecret = []byte("middleware-test-secret")

func newTestGate(t *testing.T) (*AuthMiddleware, *store.MemoryStore, *auth.TokenService) {
	t.Helper()
	users := store.NewMemoryStore()
	tokens := auth.NewTokenService(testSecret, users)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewAuthMiddleware(tokens, users, log, observability.NewMetrics()), users, tokens
}

func seedUser(t *testing.T, users *store.MemoryStore, username string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		Status:   models.StatusActive,
	}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

// okHandler records whether the gate let the request through and what
// user the gate attached.
func okHandler(called *bool, got **models.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if got != nil {
			*got = CurrentUser(r)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(t *testing.T, h http.Handler, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func envelopeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env httputil.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Message
}

func TestRequireAuthAdmitsActiveUser(t *testing.T) {
	gate, users, tokens := newTestGate(t)
	user := seedUser(t, users, "alice", models.RoleUser)
	token, err := tokens.Issue(user)
	require.NoError(t, err)

	var called bool
	var got *models.User
	rec := doRequest(t, gate.RequireAuth(okHandler(&called, &got)), "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "alice", got.Username)
}

func TestRequireAuthRejections(t *testing.T) {
	gate, users, tokens := newTestGate(t)
	user := seedUser(t, users, "bob", models.RoleUser)
	valid, err := tokens.Issue(user)
	require.NoError(t, err)

	expired := signedToken(t, user.ID, user.Username, -time.Minute)
	wrongKey := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: user.ID,
	})
	forged, err := wrongKey.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	ghost := seedUser(t, users, "ghost", models.RoleUser)
	ghostToken, err := tokens.Issue(ghost)
	require.NoError(t, err)
	require.NoError(t, users.Delete(context.Background(), ghost.ID))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{"missing header", "", http.StatusUnauthorized, "missing authentication token"},
		{"malformed header", "Token " + valid, http.StatusUnauthorized, "malformed authorization header"},
		{"bare token without scheme", valid, http.StatusUnauthorized, "malformed authorization header"},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, "token expired"},
		{"forged signature", "Bearer " + forged, http.StatusUnauthorized, "invalid token"},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized, "invalid token"},
		{"user deleted after issue", "Bearer " + ghostToken, http.StatusUnauthorized, "invalid token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var called bool
			rec := doRequest(t, gate.RequireAuth(okHandler(&called, nil)), tc.header)

			assert.False(t, called, "handler must not run")
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantMsg, envelopeMessage(t, rec))
		})
	}
}

func TestRequireAuthRejectsDisabledMidSession(t *testing.T) {
	gate, users, tokens := newTestGate(t)
	user := seedUser(t, users, "carol", models.RoleUser)
	token, err := tokens.Issue(user)
	require.NoError(t, err)

	// Token is still cryptographically valid, only the account state
	// changed after issuance.
	user.Status = models.StatusBanned
	require.NoError(t, users.Update(context.Background(), user))

	var called bool
	rec := doRequest(t, gate.RequireAuth(okHandler(&called, nil)), "Bearer "+token)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "account disabled", envelopeMessage(t, rec))
}

func TestRequireAdmin(t *testing.T) {
	gate, users, tokens := newTestGate(t)
	admin := seedUser(t, users, "root", models.RoleAdmin)
	editor := seedUser(t, users, "ed", models.RoleEditor)

	adminToken, err := tokens.Issue(admin)
	require.NoError(t, err)
	editorToken, err := tokens.Issue(editor)
	require.NoError(t, err)

	t.Run("admin passes", func(t *testing.T) {
		var called bool
		rec := doRequest(t, gate.RequireAdmin(okHandler(&called, nil)), "Bearer "+adminToken)
		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("editor is rejected", func(t *testing.T) {
		var called bool
		rec := doRequest(t, gate.RequireAdmin(okHandler(&called, nil)), "Bearer "+editorToken)
		assert.False(t, called)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "insufficient privileges", envelopeMessage(t, rec))
	})
}

func TestRequireRoleAdminOverride(t *testing.T) {
	gate, users, tokens := newTestGate(t)
	admin := seedUser(t, users, "root", models.RoleAdmin)
	regular := seedUser(t, users, "dave", models.RoleUser)

	adminToken, err := tokens.Issue(admin)
	require.NoError(t, err)
	userToken, err := tokens.Issue(regular)
	require.NoError(t, err)

	requireEditor := gate.RequireRole(models.RoleEditor)

	t.Run("admin satisfies editor requirement", func(t *testing.T) {
		var called bool
		rec := doRequest(t, requireEditor(okHandler(&called, nil)), "Bearer "+adminToken)
		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("regular user does not", func(t *testing.T) {
		var called bool
		rec := doRequest(t, requireEditor(okHandler(&called, nil)), "Bearer "+userToken)
		assert.False(t, called)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestGateCountsRejections(t *testing.T) {
	gate, _, _ := newTestGate(t)

	var called bool
	doRequest(t, gate.RequireAuth(okHandler(&called, nil)), "")
	doRequest(t, gate.RequireAuth(okHandler(&called, nil)), "Bearer not.a.jwt")
	doRequest(t, gate.RequireAuth(okHandler(&called, nil)), "Bearer not.a.jwt")

	assert.False(t, called)
	assert.Equal(t, 1.0, testutil.ToFloat64(gate.metrics.AuthRejectionsTotal.WithLabelValues("missing_token")))
	assert.Equal(t, 2.0, testutil.ToFloat64(gate.metrics.AuthRejectionsTotal.WithLabelValues("token_invalid")))
}

func TestCurrentUserWithoutGate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, CurrentUser(req))
}

// signedToken builds a session token with the test secret directly so
// tests can control the expiry.
func signedToken(t *testing.T, userID int64, username string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.Issuer,
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:   userID,
		Username: username,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return signed
}
