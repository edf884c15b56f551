// Package guard filters field-level writes and stamps audit metadata.
// Technician updates are intersected with the category allow-list:
// fields outside the list are dropped, not rejected. That is deliberate
// partial-edit semantics; the dropped set is returned so callers can log
// an audit entry, and is also counted.
package guard

import (
	"sort"
	"time"

	"github.com/docport-io/docport/internal/apperrors"
	"github.com/docport-io/docport/internal/metrics"
	"github.com/docport-io/docport/internal/models"
	"github.com/docport-io/docport/internal/registry"
)

// Result is a sanitized field map ready to persist, plus the names of
// any fields the allow-list removed.
type Result struct {
	Fields  map[string]any
	Dropped []string
}

// auditFields are always stamped by the guard itself; a caller-supplied
// value never survives.
var auditFields = map[string]bool{
	models.FieldCreatedAt:  true,
	models.FieldCreatedBy:  true,
	models.FieldModifiedAt: true,
	models.FieldModifiedBy: true,
}

// SanitizeUpdate produces the field map an update is allowed to persist.
func SanitizeUpdate(identity models.Identity, desc registry.Descriptor, proposed map[string]any, now time.Time) (Result, error) {
	if identity.Role == models.RoleClient {
		return Result{}, apperrors.E(apperrors.KindForbidden, "clients_cannot_mutate")
	}

	out := Result{Fields: make(map[string]any, len(proposed)+2)}
	for name, value := range proposed {
		if auditFields[name] {
			out.Dropped = append(out.Dropped, name)
			continue
		}
		if identity.Role == models.RoleTechnician && !desc.TechnicianMayWrite(name) {
			out.Dropped = append(out.Dropped, name)
			continue
		}
		out.Fields[name] = value
	}
	sort.Strings(out.Dropped)

	if len(out.Dropped) > 0 {
		metrics.DroppedFields.WithLabelValues(desc.Name, string(identity.Role)).Add(float64(len(out.Dropped)))
	}

	out.Fields[models.FieldModifiedAt] = now
	out.Fields[models.FieldModifiedBy] = identity.ID
	return out, nil
}

// SanitizeCreate produces the field map for a new document: the same
// role filtering as an update plus the creation stamps and a default
// pending status.
func SanitizeCreate(identity models.Identity, desc registry.Descriptor, proposed map[string]any, now time.Time) (Result, error) {
	out, err := SanitizeUpdate(identity, desc, proposed, now)
	if err != nil {
		return Result{}, err
	}

	out.Fields[models.FieldCreatedAt] = now
	out.Fields[models.FieldCreatedBy] = identity.ID
	if _, ok := out.Fields[models.FieldStatus]; !ok {
		out.Fields[models.FieldStatus] = models.StatusPending
	}
	return out, nil
}
