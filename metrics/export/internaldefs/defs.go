// Package internaldefs holds the shared counter definitions read by the
// Prometheus and OTel exporters. It is internal to metrics/export and not
// part of the public API.
package internaldefs

import (
	scholarauth "github.com/DESMOND-77/scholarauth"
)

// CounterDef binds an engine counter to its exported name and help text.
type CounterDef struct {
	ID   scholarauth.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: scholarauth.MetricLoginSuccess, Name: "scholarauth_login_success_total", Help: "Successful logins."},
	{ID: scholarauth.MetricLoginFailure, Name: "scholarauth_login_failure_total", Help: "Failed login attempts."},
	{ID: scholarauth.MetricLoginLocked, Name: "scholarauth_login_locked_total", Help: "Logins rejected by brute-force lockout."},
	{ID: scholarauth.MetricRegisterSuccess, Name: "scholarauth_register_success_total", Help: "Successful registrations."},
	{ID: scholarauth.MetricRegisterDuplicate, Name: "scholarauth_register_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: scholarauth.MetricRefreshSuccess, Name: "scholarauth_refresh_success_total", Help: "Successful token refreshes."},
	{ID: scholarauth.MetricRefreshFailure, Name: "scholarauth_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: scholarauth.MetricRefreshReuse, Name: "scholarauth_refresh_reuse_total", Help: "Refresh attempts with an already-rotated token."},
	{ID: scholarauth.MetricTokenBlacklisted, Name: "scholarauth_token_blacklisted_total", Help: "Tokens blacklisted on logout."},
	{ID: scholarauth.MetricLogout, Name: "scholarauth_logout_total", Help: "Logout operations."},
	{ID: scholarauth.MetricLogoutAll, Name: "scholarauth_logout_all_total", Help: "Logout-all operations."},
	{ID: scholarauth.MetricPasswordResetRequest, Name: "scholarauth_password_reset_request_total", Help: "Password reset requests."},
	{ID: scholarauth.MetricPasswordResetConfirm, Name: "scholarauth_password_reset_confirm_total", Help: "Successful password reset confirmations."},
	{ID: scholarauth.MetricPasswordResetFailure, Name: "scholarauth_password_reset_failure_total", Help: "Failed password reset confirmations."},
	{ID: scholarauth.MetricPasswordChange, Name: "scholarauth_password_change_total", Help: "Successful password changes."},
	{ID: scholarauth.MetricVerificationRequest, Name: "scholarauth_email_verification_request_total", Help: "Email verification challenges issued."},
	{ID: scholarauth.MetricVerificationSuccess, Name: "scholarauth_email_verification_success_total", Help: "Successful email verifications."},
	{ID: scholarauth.MetricVerificationFailure, Name: "scholarauth_email_verification_failure_total", Help: "Failed email verifications."},
}
