package models

import "time"

// Role is the fixed capability tier of a caller. The set is closed;
// nothing at runtime can add a role.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
	RoleClient     Role = "client"
)

// Valid reports whether the role is one of the three known tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTechnician, RoleClient:
		return true
	}
	return false
}

// Identity is the verified representation of a caller, passed explicitly
// through every core function. It is never mutated after verification.
type Identity struct {
	ID            string          `json:"id"`
	Login         string          `json:"login"`
	Role          Role            `json:"role"`
	ClientScopeID string          `json:"client_scope_id,omitempty"`
	Active        bool            `json:"active"`
	Permissions   map[string]bool `json:"permissions,omitempty"`
}

// Permits reports the per-category opt-in flag. Only meaningful for the
// client role; absence of a flag is a denial.
func (i Identity) Permits(category string) bool {
	return i.Permissions[category]
}

// Profile is the stored account record an Identity is loaded from.
type Profile struct {
	ID            string     `json:"id" db:"id"`
	Login         string     `json:"login" db:"login"`
	Role          Role       `json:"role" db:"role"`
	ClientScopeID string     `json:"client_scope_id" db:"client_scope_id"`
	Active        bool       `json:"active" db:"active"`
	LastAccess    *time.Time `json:"last_access,omitempty" db:"last_access"`
	CreateTime    time.Time  `json:"create_time" db:"create_time"`

	SeeQuotes            bool `json:"see_quotes" db:"see_quotes"`
	SeeReceipts          bool `json:"see_receipts" db:"see_receipts"`
	SeeDeliveryNotes     bool `json:"see_delivery_notes" db:"see_delivery_notes"`
	SeeAccountStatements bool `json:"see_account_statements" db:"see_account_statements"`
	SeeWorkOrders        bool `json:"see_work_orders" db:"see_work_orders"`
	SeeReminders         bool `json:"see_reminders" db:"see_reminders"`
}

// Identity converts the stored profile into the per-request caller value.
func (p *Profile) Identity() Identity {
	return Identity{
		ID:            p.ID,
		Login:         p.Login,
		Role:          p.Role,
		ClientScopeID: p.ClientScopeID,
		Active:        p.Active,
		Permissions: map[string]bool{
			CategoryQuote:            p.SeeQuotes,
			CategoryReceipt:          p.SeeReceipts,
			CategoryDeliveryNote:     p.SeeDeliveryNotes,
			CategoryAccountStatement: p.SeeAccountStatements,
			CategoryWorkOrder:        p.SeeWorkOrders,
			CategoryReminder:         p.SeeReminders,
		},
	}
}
