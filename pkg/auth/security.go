package auth

import "github.com/sirupsen/logrus"

// SecurityEvent identifies a security-relevant outcome
type SecurityEvent string

const (
	EventLoginSuccess   SecurityEvent = "auth.login"
	EventLoginFailed    SecurityEvent = "auth.login_failed"
	EventLogout         SecurityEvent = "auth.logout"
	EventPasswordChange SecurityEvent = "auth.password_change"
	EventPasswordReset  SecurityEvent = "auth.password_reset"
	EventReplayDetected SecurityEvent = "auth.replay_detected"
	EventAccessDenied   SecurityEvent = "authz.access_denied"
)

// LogSecurityEvent records a discrete security event. Passwords and
// tokens must never be passed in fields.
func LogSecurityEvent(log logrus.FieldLogger, event SecurityEvent, username, sourceIP string, fields logrus.Fields) {
	entry := log.WithFields(logrus.Fields{
		"event":     string(event),
		"username":  username,
		"source_ip": sourceIP,
	})
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Info("security event")
}
