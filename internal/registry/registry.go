package registry

import (
	"github.com/docport-io/docport/internal/apperrors"
	"github.com/docport-io/docport/internal/models"
)

// Descriptor is the static routing record for one document category.
type Descriptor struct {
	Name       string
	Collection string

	// OwnerField scopes client visibility, AssignField scopes technician
	// visibility when AssignedOnly is set.
	OwnerField  string
	AssignField string

	// AssignedOnly narrows technicians to documents assigned to them.
	// The deployed configuration leaves every category at category-wide
	// visibility; confirm with stakeholders before narrowing.
	AssignedOnly bool

	// TechnicianFields is the allow-list a technician update is
	// intersected with. Admins are not restricted by it.
	TechnicianFields []string
}

// TechnicianMayWrite reports whether the field survives a technician
// update.
func (d Descriptor) TechnicianMayWrite(field string) bool {
	for _, f := range d.TechnicianFields {
		if f == field {
			return true
		}
	}
	return false
}

var descriptors = map[string]Descriptor{
	models.CategoryQuote: {
		Name:             models.CategoryQuote,
		Collection:       "quotes",
		OwnerField:       models.FieldClientID,
		AssignField:      models.FieldAssignedTo,
		TechnicianFields: []string{models.FieldStatus, "notes"},
	},
	models.CategoryReceipt: {
		Name:             models.CategoryReceipt,
		Collection:       "receipts",
		OwnerField:       models.FieldClientID,
		AssignField:      models.FieldAssignedTo,
		TechnicianFields: []string{models.FieldStatus, "notes"},
	},
	models.CategoryDeliveryNote: {
		Name:             models.CategoryDeliveryNote,
		Collection:       "delivery_notes",
		OwnerField:       models.FieldClientID,
		AssignField:      models.FieldAssignedTo,
		TechnicianFields: []string{models.FieldStatus, "notes", "delivered_at"},
	},
	models.CategoryAccountStatement: {
		Name:             models.CategoryAccountStatement,
		Collection:       "account_statements",
		OwnerField:       models.FieldClientID,
		AssignField:      models.FieldAssignedTo,
		TechnicianFields: nil,
	},
	models.CategoryWorkOrder: {
		Name:             models.CategoryWorkOrder,
		Collection:       "work_orders",
		OwnerField:       models.FieldClientID,
		AssignField:      models.FieldAssignedTo,
		TechnicianFields: []string{models.FieldClientID, models.FieldStatus, models.FieldAssignedTo, "notes", "work_performed", "hours", "scheduled_for"},
	},
	models.CategoryReminder: {
		Name:             models.CategoryReminder,
		Collection:       "reminders",
		OwnerField:       models.FieldClientID,
		AssignField:      models.FieldAssignedTo,
		TechnicianFields: []string{models.FieldClientID, models.FieldStatus, models.FieldAssignedTo, "notes", "due_at", "message"},
	},
}

// Resolve maps a logical type name to its descriptor. Unknown names fail
// closed.
func Resolve(typeName string) (Descriptor, error) {
	d, ok := descriptors[typeName]
	if !ok {
		return Descriptor{}, apperrors.E(apperrors.KindBadRequest, "unknown_document_type")
	}
	return d, nil
}

// Categories lists the registered category names.
func Categories() []string {
	names := make([]string, 0, len(descriptors))
	for name := range descriptors {
		names = append(names, name)
	}
	return names
}
