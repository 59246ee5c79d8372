package models

// Audit actions recorded for account-level events.
const (
	AuditActionRegister               = "register"
	AuditActionLogin                  = "login"
	AuditActionLoginFailed            = "login_failed"
	AuditActionPasswordResetRequested = "password_reset_requested"
	AuditActionPasswordReset          = "password_reset"
	AuditActionDataSaved              = "data_saved"
)

// AuditLog records sensitive user operations for security and compliance.
type AuditLog struct {
	Base
	Email     string `gorm:"size:255;not null;index" json:"email"`
	Action    string `gorm:"size:64;not null" json:"action"`
	IPAddress string `gorm:"size:64" json:"ip_address"`
	Details   string `json:"details,omitempty"`
}
