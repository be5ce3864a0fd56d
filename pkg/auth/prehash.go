package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/Mylifeforrent/react-management-backend/pkg/models"
)

// DefaultPasswordCandidates are the demo account passwords the pre-hash
// verifier can recognize.
var DefaultPasswordCandidates = []string{"admin123", "test123", "editor123", "user123", "123456"}

// PreHashVerifier checks the client-side password pre-hash. The client
// never transmits the plaintext; it sends hex(SHA256(password+username)).
// The server cannot invert that digest, so verification walks a bounded
// candidate list: for each known plaintext, recompute the pre-hash and,
// on a match, confirm the candidate against the stored bcrypt digest.
//
// This only authenticates accounts whose password is in the candidate
// list. It is a structural limitation of the scheme, acceptable for demo
// deployments only; supporting arbitrary passwords requires either a
// server-side-verifiable pre-hash column or TLS-protected plaintext
// submission.
type PreHashVerifier struct {
	candidates []string
}

// NewPreHashVerifier creates a verifier over the given candidate
// passwords, or DefaultPasswordCandidates when none are supplied.
func NewPreHashVerifier(candidates []string) *PreHashVerifier {
	if len(candidates) == 0 {
		candidates = DefaultPasswordCandidates
	}
	return &PreHashVerifier{candidates: candidates}
}

// PreHash computes the client-side digest for a password and username
func PreHash(password, username string) string {
	sum := sha256.Sum256([]byte(password + username))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether the pre-hashed input authenticates the user.
// The username is the salt the client used, which the login endpoint
// passes through verbatim (it may be an email when the user logged in
// by email).
func (v *PreHashVerifier) Verify(user *models.User, preHashed, username string) bool {
	input := strings.ToLower(preHashed)
	for _, candidate := range v.candidates {
		expected := PreHash(candidate, username)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(input)) == 1 {
			return VerifyPassword(candidate, user.PasswordHash)
		}
	}
	return false
}
