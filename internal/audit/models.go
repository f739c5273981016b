package audit

import "time"

// Actions recorded across the certificate lifecycle.
const (
	ActionRegister    = "user.register"
	ActionLogin       = "user.login"
	ActionAdminLogin  = "admin.login"
	ActionMint        = "certificate.mint"
	ActionAdminUpdate = "admin.user_update"
	ActionBackup      = "admin.backup"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
}
