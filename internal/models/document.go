package models

import "time"

// Document category names. These are the only six the core routes;
// anything else fails closed at the registry.
const (
	CategoryQuote            = "quote"
	CategoryReceipt          = "receipt"
	CategoryDeliveryNote     = "delivery_note"
	CategoryAccountStatement = "account_statement"
	CategoryWorkOrder        = "work_order"
	CategoryReminder         = "reminder"
)

// Routed field names. The core inspects and writes only these; everything
// else in a document is opaque category payload.
const (
	FieldClientID   = "client_id"
	FieldAssignedTo = "assigned_to"
	FieldStatus     = "status"
	FieldCreatedAt  = "created_at"
	FieldCreatedBy  = "created_by"
	FieldModifiedAt = "modified_at"
	FieldModifiedBy = "modified_by"
)

// StatusPending is stamped onto created documents when the caller omits a
// status.
const StatusPending = "pending"

// Document is a stored document as seen by the routing core: the routed
// fields drawn out, the category-specific payload kept opaque in Fields.
type Document struct {
	ID         string         `json:"id"`
	ClientID   string         `json:"client_id"`
	AssignedTo string         `json:"assigned_to,omitempty"`
	Status     string         `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	CreatedBy  string         `json:"created_by"`
	ModifiedAt time.Time      `json:"modified_at"`
	ModifiedBy string         `json:"modified_by"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// Field returns the value of a routed field by name, falling back to the
// opaque payload for anything else. The second return reports presence.
func (d Document) Field(name string) (any, bool) {
	switch name {
	case FieldClientID:
		return d.ClientID, true
	case FieldAssignedTo:
		return d.AssignedTo, true
	case FieldStatus:
		return d.Status, true
	case FieldCreatedAt:
		return d.CreatedAt, true
	case FieldCreatedBy:
		return d.CreatedBy, true
	case FieldModifiedAt:
		return d.ModifiedAt, true
	case FieldModifiedBy:
		return d.ModifiedBy, true
	}
	v, ok := d.Fields[name]
	return v, ok
}

// ApplyFields writes a sanitized field map onto the document, routing the
// known fields into their struct slots and the rest into the payload.
func (d *Document) ApplyFields(fields map[string]any) {
	for name, value := range fields {
		switch name {
		case FieldClientID:
			d.ClientID = asString(value)
		case FieldAssignedTo:
			d.AssignedTo = asString(value)
		case FieldStatus:
			d.Status = asString(value)
		case FieldCreatedAt:
			if t, ok := value.(time.Time); ok {
				d.CreatedAt = t
			}
		case FieldCreatedBy:
			d.CreatedBy = asString(value)
		case FieldModifiedAt:
			if t, ok := value.(time.Time); ok {
				d.ModifiedAt = t
			}
		case FieldModifiedBy:
			d.ModifiedBy = asString(value)
		default:
			if d.Fields == nil {
				d.Fields = make(map[string]any)
			}
			d.Fields[name] = value
		}
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// DocumentListResponse is the list endpoint payload.
type DocumentListResponse struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}
