package policy_test

import (
	"testing"

	"essentia-system/internal/database/models"
	"essentia-system/internal/policy"
)

func strPtr(s string) *string { return &s }

func TestCanManageCatalogItem_AdminUnrestricted(t *testing.T) {
	admin := policy.Subject{UserID: "a-1", Role: models.RoleAdmin}

	for _, action := range []policy.Action{policy.ActionCreate, policy.ActionUpdate, policy.ActionDelete} {
		if !policy.CanManageCatalogItem(admin, strPtr("someone-else"), action) {
			t.Errorf("expected admin to be allowed for %s", action)
		}
		if !policy.CanManageCatalogItem(admin, nil, action) {
			t.Errorf("expected admin to be allowed for %s on unassigned item", action)
		}
	}
}

func TestCanManageCatalogItem_SupplierOwnership(t *testing.T) {
	supplier := policy.Subject{UserID: "s-1", Role: models.RoleSupplier}

	if !policy.CanManageCatalogItem(supplier, nil, policy.ActionCreate) {
		t.Error("expected supplier to be allowed to create")
	}
	if !policy.CanManageCatalogItem(supplier, strPtr("s-1"), policy.ActionUpdate) {
		t.Error("expected supplier to update own item")
	}
	if policy.CanManageCatalogItem(supplier, strPtr("s-2"), policy.ActionUpdate) {
		t.Error("expected supplier to be denied on another supplier's item")
	}
	if policy.CanManageCatalogItem(supplier, strPtr("s-2"), policy.ActionDelete) {
		t.Error("expected supplier to be denied delete on another supplier's item")
	}
	if policy.CanManageCatalogItem(supplier, nil, policy.ActionDelete) {
		t.Error("expected supplier to be denied delete on unassigned item")
	}
}

func TestCanManageCatalogItem_ClientDenied(t *testing.T) {
	client := policy.Subject{UserID: "c-1", Role: models.RoleClient}

	for _, action := range []policy.Action{policy.ActionCreate, policy.ActionUpdate, policy.ActionDelete} {
		if policy.CanManageCatalogItem(client, strPtr("c-1"), action) {
			t.Errorf("expected client to be denied for %s", action)
		}
	}
}

func TestCanViewOrder(t *testing.T) {
	admin := policy.Subject{UserID: "a-1", Role: models.RoleAdmin}
	supplier := policy.Subject{UserID: "s-1", Role: models.RoleSupplier}
	client := policy.Subject{UserID: "c-1", Role: models.RoleClient}

	if !policy.CanViewOrder(admin, "c-9", false) {
		t.Error("expected admin to view any order")
	}
	if !policy.CanViewOrder(supplier, "c-9", true) {
		t.Error("expected supplier with own item to view the order")
	}
	if policy.CanViewOrder(supplier, "c-9", false) {
		t.Error("expected supplier without own item to be denied")
	}
	if !policy.CanViewOrder(client, "c-1", false) {
		t.Error("expected client to view own order")
	}
	if policy.CanViewOrder(client, "c-2", false) {
		t.Error("expected client to be denied on another client's order")
	}
}

func TestCanTransitionOrder(t *testing.T) {
	admin := policy.Subject{UserID: "a-1", Role: models.RoleAdmin}
	supplier := policy.Subject{UserID: "s-1", Role: models.RoleSupplier}
	client := policy.Subject{UserID: "c-1", Role: models.RoleClient}

	if !policy.CanTransitionOrder(admin, false) {
		t.Error("expected admin to transition any order")
	}
	if !policy.CanTransitionOrder(supplier, true) {
		t.Error("expected supplier with own item to transition")
	}
	if policy.CanTransitionOrder(supplier, false) {
		t.Error("expected supplier without own item to be denied")
	}
	if policy.CanTransitionOrder(client, true) {
		t.Error("expected client to be denied transition")
	}
}

func TestCanViewCustomOrder(t *testing.T) {
	supplier := policy.Subject{UserID: "s-1", Role: models.RoleSupplier}
	client := policy.Subject{UserID: "c-1", Role: models.RoleClient}

	if !policy.CanViewCustomOrder(supplier, "c-9") {
		t.Error("expected supplier to view custom order detail")
	}
	if !policy.CanViewCustomOrder(client, "c-1") {
		t.Error("expected owning client to view own custom order")
	}
	if policy.CanViewCustomOrder(client, "c-2") {
		t.Error("expected foreign client to be denied")
	}
}
