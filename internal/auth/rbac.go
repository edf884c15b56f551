package auth

import "github.com/docport-io/docport/internal/models"

// Action is one of the operations the router authorizes per category.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// RBAC holds the role capability table. All role-conditioned behavior is
// driven from this one table so the permission surface stays auditable in
// a single place.
type RBAC struct {
	grants map[models.Role]map[string][]Action
}

func NewRBAC() *RBAC {
	rbac := &RBAC{
		grants: make(map[models.Role]map[string][]Action),
	}
	rbac.initializeGrants()
	return rbac
}

func (r *RBAC) initializeGrants() {
	allActions := []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}
	allCategories := []string{
		models.CategoryQuote,
		models.CategoryReceipt,
		models.CategoryDeliveryNote,
		models.CategoryAccountStatement,
		models.CategoryWorkOrder,
		models.CategoryReminder,
	}

	// Admin can do everything in every category.
	admin := make(map[string][]Action, len(allCategories))
	for _, c := range allCategories {
		admin[c] = allActions
	}
	r.grants[models.RoleAdmin] = admin

	// Technician works only with work orders and reminders. Visibility
	// within those categories is category-wide, not assignment-scoped;
	// see registry.Descriptor.AssignedOnly.
	r.grants[models.RoleTechnician] = map[string][]Action{
		models.CategoryWorkOrder: allActions,
		models.CategoryReminder:  allActions,
	}

	// Client may only read its own documents, additionally gated by the
	// per-client permission flags (ClientPermits).
	client := make(map[string][]Action, len(allCategories))
	for _, c := range allCategories {
		client[c] = []Action{ActionRead}
	}
	r.grants[models.RoleClient] = client
}

// Allows reports whether the role grants the action in the category.
// Unknown roles and unknown categories deny.
func (r *RBAC) Allows(role models.Role, category string, action Action) bool {
	actions, ok := r.grants[role][category]
	if !ok {
		return false
	}
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

// ClientPermits reports the per-client opt-in flag for a category.
// Identities that are not clients are not subject to the flags.
func (r *RBAC) ClientPermits(identity models.Identity, category string) bool {
	if identity.Role != models.RoleClient {
		return true
	}
	return identity.Permits(category)
}

// CategoryActions returns the actions the role holds for a category.
func (r *RBAC) CategoryActions(role models.Role, category string) []Action {
	return r.grants[role][category]
}
