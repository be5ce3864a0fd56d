package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mylifeforrent/react-management-backend/pkg/models"
)

func userWithPassword(t *testing.T, username, password string) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	return &models.User{Username: username, PasswordHash: hash}
}

func TestPreHashVerifier_KnownCandidate(t *testing.T) {
	v := NewPreHashVerifier(nil)
	user := userWithPassword(t, "admin", "admin123")

	assert.True(t, v.Verify(user, PreHash("admin123", "admin"), "admin"))
}

func TestPreHashVerifier_CandidateMatchButWrongStoredPassword(t *testing.T) {
	// Pre-hash matches the candidate "admin123", but the account's real
	// password is different, so the bcrypt check must still fail.
	v := NewPreHashVerifier(nil)
	user := userWithPassword(t, "admin", "something-else")

	assert.False(t, v.Verify(user, PreHash("admin123", "admin"), "admin"))
}

func TestPreHashVerifier_UnknownPassword(t *testing.T) {
	// The scheme cannot authenticate passwords outside the candidate
	// list, even when they are correct.
	v := NewPreHashVerifier(nil)
	user := userWithPassword(t, "alice", "s3cure-and-unique")

	assert.False(t, v.Verify(user, PreHash("s3cure-and-unique", "alice"), "alice"))
}

func TestPreHashVerifier_SaltBinding(t *testing.T) {
	// A pre-hash computed with a different username salt must not verify.
	v := NewPreHashVerifier(nil)
	user := userWithPassword(t, "admin", "admin123")

	assert.False(t, v.Verify(user, PreHash("admin123", "someone-else"), "admin"))
}

func TestPreHashVerifier_CaseInsensitiveInput(t *testing.T) {
	v := NewPreHashVerifier(nil)
	user := userWithPassword(t, "admin", "admin123")

	assert.True(t, v.Verify(user, strings.ToUpper(PreHash("admin123", "admin")), "admin"))
}

func TestPreHashVerifier_CustomCandidates(t *testing.T) {
	v := NewPreHashVerifier([]string{"hunter2"})
	user := userWithPassword(t, "bob", "hunter2")

	assert.True(t, v.Verify(user, PreHash("hunter2", "bob"), "bob"))
	assert.False(t, v.Verify(user, PreHash("admin123", "bob"), "bob"))
}
