package entity

import "time"

// AuditEvent records a security-relevant action for later review.
type AuditEvent struct {
	UserID    string
	Email     string
	Action    string
	IP        string
	UserAgent string
	Metadata  map[string]any
	CreatedAt time.Time
}

// Audit actions
const (
	AuditRegister        = "register"
	AuditLogin           = "login"
	AuditLoginFailed     = "login_failed"
	AuditLogout          = "logout"
	AuditResetInit       = "reset_init_issue"
	AuditResetInitFailed = "reset_init_mail_failed"
	AuditResetConfirm    = "reset_confirm"
	AuditOAuthLink       = "oauth_link"
	AuditOAuthSignup     = "oauth_signup"
	AuditTempAdminGrant  = "temp_admin_grant"
	AuditTempAdminExpire = "temp_admin_expire"
	AuditUserDelete      = "user_delete"
	AuditRoleChange      = "role_change"
	AuditPasswordChange  = "password_change"
)
