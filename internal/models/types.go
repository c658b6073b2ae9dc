package models

import (
	"strings"
	"time"

	"github.com/acbay/co2survey/internal/footprint"
)

// Role gates what a user may see and do.
type Role string

const (
	RoleEmployee   Role = "EMPLOYEE"
	RoleHR         Role = "HR"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// ParseRole accepts any casing; unknown values fall back to EMPLOYEE.
func ParseRole(s string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleHR:
		return RoleHR
	case RoleAdmin:
		return RoleAdmin
	case RoleSuperAdmin:
		return RoleSuperAdmin
	default:
		return RoleEmployee
	}
}

// IsAdmin reports ADMIN or SUPER_ADMIN.
func (r Role) IsAdmin() bool { return r == RoleAdmin || r == RoleSuperAdmin }

// User is an account. PassHash is a bcrypt hash and never leaves the server.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	PassHash  []byte    `json:"-"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// EmissionFactor is a stored factor row. BatchID groups the rows written by
// one import; the whole table is replaced per batch.
type EmissionFactor struct {
	ID      string `json:"id"`
	BatchID string `json:"batch_id"`
	footprint.EmissionFactor
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Factors strips the persistence fields for the calculator.
func Factors(rows []*EmissionFactor) []footprint.EmissionFactor {
	out := make([]footprint.EmissionFactor, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, r.EmissionFactor)
		}
	}
	return out
}

// Survey is one stored submission with its parsed fields and computed total.
// TotalCo2Kg is nil only until the first computation.
type Survey struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	footprint.Inputs
	TotalCo2Kg *float64 `json:"total_co2_kg"`
}

// AuditEntry records a privileged action.
type AuditEntry struct {
	Time   time.Time `json:"time"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Target string    `json:"target"`
	Note   string    `json:"note,omitempty"`
}
