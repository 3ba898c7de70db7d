// Package policy holds the role/ownership predicates consulted before every
// mutation and before returning any resource to a non-admin caller. The
// predicates are pure functions over the caller's identity and the resource's
// ownership facts; they hold no state and touch no storage.
package policy

import "essentia-system/internal/database/models"

// Subject is the authenticated caller as seen by the predicates.
type Subject struct {
	UserID string
	Role   string
}

type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
)

func (s Subject) IsAdmin() bool    { return s.Role == models.RoleAdmin }
func (s Subject) IsSupplier() bool { return s.Role == models.RoleSupplier }
func (s Subject) IsClient() bool   { return s.Role == models.RoleClient }

// CanManageCatalogItem decides create/update/delete on a Perfume or
// Component. ownerID is the item's supplier id, nil while unassigned.
// Admins are unrestricted; suppliers only touch rows they own; clients
// never mutate the catalog.
func CanManageCatalogItem(sub Subject, ownerID *string, action Action) bool {
	if sub.IsAdmin() {
		return true
	}
	if !sub.IsSupplier() {
		return false
	}
	if action == ActionCreate {
		return true
	}
	return ownerID != nil && *ownerID == sub.UserID
}

// CanViewOrder decides read access to a single order. clientID is the order's
// owner; suppliesItem is whether any of the order's line items references a
// perfume supplied by the caller.
func CanViewOrder(sub Subject, clientID string, suppliesItem bool) bool {
	if sub.IsAdmin() {
		return true
	}
	if sub.IsSupplier() {
		return suppliesItem
	}
	return clientID == sub.UserID
}

// CanTransitionOrder decides whether the caller may change an order's status.
// Only suppliers with at least one of their own products in the order, and
// admins, may transition.
func CanTransitionOrder(sub Subject, suppliesItem bool) bool {
	if sub.IsAdmin() {
		return true
	}
	return sub.IsSupplier() && suppliesItem
}

// CanViewCustomOrder mirrors the read rule for custom order detail: the
// owning client, any supplier, or an admin.
func CanViewCustomOrder(sub Subject, clientID string) bool {
	if sub.IsAdmin() || sub.IsSupplier() {
		return true
	}
	return clientID == sub.UserID
}
