// Package access decides, for every request, which stored documents a
// caller may see or change. The router is a pure per-request decision
// function: it holds no state across calls and takes the verified
// Identity explicitly.
package access

import (
	"context"
	"time"

	"github.com/docport-io/docport/internal/apperrors"
	"github.com/docport-io/docport/internal/auth"
	"github.com/docport-io/docport/internal/models"
	"github.com/docport-io/docport/internal/query"
	"github.com/docport-io/docport/internal/registry"
)

// Default result caps: scoped roles see fewer rows per page than admins.
const (
	DefaultScopedLimit = 50
	DefaultAdminLimit  = 100
)

// ProfileDirectory is the slice of the profile store the router needs
// for owner-reference checks and deletion safeguards.
type ProfileDirectory interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	FindClientProfile(ctx context.Context, clientScopeID string) (*models.Profile, error)
	CountActiveAdmins(ctx context.Context) (int, error)
}

// ListFilters are the caller-supplied optional query filters.
type ListFilters struct {
	Status   string
	ClientID string // honored for admins only
	DateFrom *time.Time
	DateTo   *time.Time
}

// ListDecision is the routed outcome of a list or count request: the
// spec for the query layer plus the date bounds, which are applied
// in-process after retrieval and never pushed down to the store.
type ListDecision struct {
	Spec     query.Spec
	DateFrom *time.Time
	DateTo   *time.Time
}

type Router struct {
	rbac     *auth.RBAC
	profiles ProfileDirectory

	ScopedLimit int
	AdminLimit  int
}

func NewRouter(rbac *auth.RBAC, profiles ProfileDirectory) *Router {
	return &Router{
		rbac:        rbac,
		profiles:    profiles,
		ScopedLimit: DefaultScopedLimit,
		AdminLimit:  DefaultAdminLimit,
	}
}

// RouteList resolves the type, authorizes the read and constructs the
// query spec with the role's forced visibility scope. Caller-supplied
// ownership filters are discarded for scoped roles, never merged.
func (r *Router) RouteList(identity models.Identity, typeName string, filters ListFilters) (ListDecision, error) {
	desc, err := registry.Resolve(typeName)
	if err != nil {
		return ListDecision{}, err
	}

	if !r.rbac.Allows(identity.Role, desc.Name, auth.ActionRead) {
		return ListDecision{}, apperrors.E(apperrors.KindForbidden, "category_not_permitted")
	}

	spec := query.Spec{
		Collection: desc.Collection,
		OrderBy:    models.FieldCreatedAt,
		Descending: true,
		Limit:      r.ScopedLimit,
	}

	switch identity.Role {
	case models.RoleClient:
		if !r.rbac.ClientPermits(identity, desc.Name) {
			return ListDecision{}, apperrors.E(apperrors.KindForbidden, "category_not_enabled")
		}
		// Forced ownership scope; a caller-sent client filter is ignored.
		spec = spec.WithFilter(desc.OwnerField, identity.ClientScopeID)

	case models.RoleTechnician:
		if desc.AssignedOnly {
			spec = spec.WithFilter(desc.AssignField, identity.ID)
		}
		// Category-wide visibility otherwise; nothing to add.

	case models.RoleAdmin:
		spec.Limit = r.AdminLimit
		if filters.ClientID != "" {
			spec = spec.WithFilter(desc.OwnerField, filters.ClientID)
		}

	default:
		return ListDecision{}, apperrors.E(apperrors.KindForbidden, "unknown_role")
	}

	if filters.Status != "" {
		spec = spec.WithFilter(models.FieldStatus, filters.Status)
	}

	return ListDecision{
		Spec:     spec,
		DateFrom: filters.DateFrom,
		DateTo:   filters.DateTo,
	}, nil
}

// AuthorizeRead checks a single already-fetched document against the
// caller's visibility scope. The same invariants as RouteList: a client
// only sees documents it owns, an assignment-scoped technician only
// documents assigned to it.
func (r *Router) AuthorizeRead(identity models.Identity, desc registry.Descriptor, doc *models.Document) error {
	if !r.rbac.Allows(identity.Role, desc.Name, auth.ActionRead) {
		return apperrors.E(apperrors.KindForbidden, "category_not_permitted")
	}

	switch identity.Role {
	case models.RoleClient:
		if !r.rbac.ClientPermits(identity, desc.Name) {
			return apperrors.E(apperrors.KindForbidden, "category_not_enabled")
		}
		if doc.ClientID != identity.ClientScopeID {
			// Report absence, not existence, of other clients' documents.
			return apperrors.E(apperrors.KindNotFound, "document_not_found")
		}
	case models.RoleTechnician:
		if desc.AssignedOnly && doc.AssignedTo != identity.ID {
			return apperrors.E(apperrors.KindNotFound, "document_not_found")
		}
	}
	return nil
}

// AuthorizeCreate gates document creation. Clients never originate
// documents. A payload that references an owner must reference a real
// client profile, which prevents misassignment.
func (r *Router) AuthorizeCreate(ctx context.Context, identity models.Identity, typeName string, fields map[string]any) (registry.Descriptor, error) {
	desc, err := registry.Resolve(typeName)
	if err != nil {
		return registry.Descriptor{}, err
	}

	if identity.Role == models.RoleClient {
		return registry.Descriptor{}, apperrors.E(apperrors.KindForbidden, "clients_cannot_create")
	}
	if !r.rbac.Allows(identity.Role, desc.Name, auth.ActionCreate) {
		return registry.Descriptor{}, apperrors.E(apperrors.KindForbidden, "category_not_permitted")
	}

	if owner, ok := fields[desc.OwnerField]; ok {
		ownerID, _ := owner.(string)
		if ownerID == "" {
			return registry.Descriptor{}, apperrors.E(apperrors.KindBadRequest, "invalid_owner_reference")
		}
		profile, err := r.profiles.FindClientProfile(ctx, ownerID)
		if err != nil {
			if apperrors.KindOf(err) == apperrors.KindNotFound {
				return registry.Descriptor{}, apperrors.E(apperrors.KindBadRequest, "invalid_owner_reference")
			}
			return registry.Descriptor{}, apperrors.Wrap(apperrors.KindUnavailable, "profile_store_unreachable", err)
		}
		if profile.Role != models.RoleClient || !profile.Active {
			return registry.Descriptor{}, apperrors.E(apperrors.KindBadRequest, "invalid_owner_reference")
		}
	}

	return desc, nil
}

// AuthorizeUpdate gates document mutation; the field-level filtering
// itself happens in the mutation guard.
func (r *Router) AuthorizeUpdate(identity models.Identity, typeName string) (registry.Descriptor, error) {
	desc, err := registry.Resolve(typeName)
	if err != nil {
		return registry.Descriptor{}, err
	}
	if identity.Role == models.RoleClient {
		return registry.Descriptor{}, apperrors.E(apperrors.KindForbidden, "clients_cannot_mutate")
	}
	if !r.rbac.Allows(identity.Role, desc.Name, auth.ActionUpdate) {
		return registry.Descriptor{}, apperrors.E(apperrors.KindForbidden, "category_not_permitted")
	}
	return desc, nil
}

// AuthorizeDelete gates document deletion.
func (r *Router) AuthorizeDelete(identity models.Identity, typeName string) (registry.Descriptor, error) {
	desc, err := registry.Resolve(typeName)
	if err != nil {
		return registry.Descriptor{}, err
	}
	if identity.Role == models.RoleClient {
		return registry.Descriptor{}, apperrors.E(apperrors.KindForbidden, "clients_cannot_mutate")
	}
	if !r.rbac.Allows(identity.Role, desc.Name, auth.ActionDelete) {
		return registry.Descriptor{}, apperrors.E(apperrors.KindForbidden, "category_not_permitted")
	}
	return desc, nil
}

// AuthorizeProfileDelete enforces the account deletion safeguards: only
// admins delete profiles, nobody deletes their own admin profile, and
// the last active admin can never be removed.
func (r *Router) AuthorizeProfileDelete(ctx context.Context, actor models.Identity, target *models.Profile) error {
	if actor.Role != models.RoleAdmin {
		return apperrors.E(apperrors.KindForbidden, "admin_only")
	}

	if target.Role != models.RoleAdmin {
		return nil
	}

	if target.ID == actor.ID {
		return apperrors.E(apperrors.KindConflict, "self_deletion")
	}

	if target.Active {
		admins, err := r.profiles.CountActiveAdmins(ctx)
		if err != nil {
			return apperrors.Wrap(apperrors.KindUnavailable, "profile_store_unreachable", err)
		}
		if admins <= 1 {
			return apperrors.E(apperrors.KindConflict, "last_admin")
		}
	}
	return nil
}

// ApplyDateRange filters retrieved documents by creation time, inclusive
// on both bounds. Date filtering always happens here, in-process, for
// every role; it is never part of the store query.
func ApplyDateRange(docs []models.Document, from, to *time.Time) []models.Document {
	if from == nil && to == nil {
		return docs
	}
	kept := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if from != nil && doc.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && doc.CreatedAt.After(*to) {
			continue
		}
		kept = append(kept, doc)
	}
	return kept
}
