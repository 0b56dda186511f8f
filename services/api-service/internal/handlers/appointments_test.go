package handlers

import (
	"testing"

	"github.com/nabil-hasan/bizbook/services/api-service/internal/identity"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/model"
	"github.com/nabil-hasan/bizbook/services/api-service/internal/storage"
)

func TestPartitionBillingSplitsLines(t *testing.T) {
	services, products := partitionBilling([]billingItem{
		{ServiceID: "svc-1", Name: "Haircut", Quantity: 1, UnitPrice: 30, Discount: 5},
		{VariantID: "var-1", Name: "Shampoo 250ml", Quantity: 2, UnitPrice: 12},
		{Name: "no id, dropped", Quantity: 1, UnitPrice: 99},
	})

	if len(services) != 1 {
		t.Fatalf("got %d service lines, want 1", len(services))
	}
	if len(products) != 1 {
		t.Fatalf("got %d product lines, want 1", len(products))
	}
	if services[0].ServiceID != "svc-1" || services[0].UnitPrice != 30 {
		t.Fatalf("service line = %+v", services[0])
	}
	if products[0].VariantID != "var-1" || products[0].Quantity != 2 {
		t.Fatalf("product line = %+v", products[0])
	}
}

func TestPartitionBillingDefaultsQuantity(t *testing.T) {
	services, _ := partitionBilling([]billingItem{
		{ServiceID: "svc-1", Name: "Massage", Quantity: 0, UnitPrice: 50},
	})
	if len(services) != 1 || services[0].Quantity != 1 {
		t.Fatalf("zero quantity should become 1, got %+v", services)
	}
}

func TestSaleTotals(t *testing.T) {
	services := []model.SaleLine{{Quantity: 1, UnitPrice: 30, Discount: 5}}
	products := []model.SaleLine{{Quantity: 2, UnitPrice: 12}}

	subtotal, discount, total := saleTotals(services, products)
	if subtotal != 54 {
		t.Fatalf("subtotal = %v, want 54", subtotal)
	}
	if discount != 5 {
		t.Fatalf("discount = %v, want 5", discount)
	}
	if total != 49 {
		t.Fatalf("total = %v, want 49", total)
	}
}

func TestCanSee(t *testing.T) {
	appt := model.Appointment{ClientID: "user-1", CompanyID: "co-1"}

	cases := []struct {
		name string
		id   identity.Identity
		want bool
	}{
		{"admin", identity.Identity{UserID: "x", Role: identity.RoleAdmin}, true},
		{"owning client", identity.Identity{UserID: "user-1", Role: identity.RoleClient}, true},
		{"other client", identity.Identity{UserID: "user-2", Role: identity.RoleClient}, false},
		{"same company staff", identity.Identity{UserID: "s1", CompanyID: "co-1", Role: identity.RoleStaff}, true},
		{"other company owner", identity.Identity{UserID: "o1", CompanyID: "co-2", Role: identity.RoleOwner}, false},
		{"companyless staff", identity.Identity{UserID: "s2", Role: identity.RoleStaff}, false},
	}
	for _, tc := range cases {
		if got := canSee(tc.id, appt); got != tc.want {
			t.Fatalf("%s: canSee = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestScopeFilter(t *testing.T) {
	var f storage.AppointmentFilter
	scopeFilter(identity.Identity{UserID: "u1", Role: identity.RoleClient}, &f)
	if f.ClientID != "u1" || f.CompanyID != "" {
		t.Fatalf("client scope = %+v", f)
	}

	f = storage.AppointmentFilter{}
	scopeFilter(identity.Identity{UserID: "s1", CompanyID: "co-1", Role: identity.RoleStaff}, &f)
	if f.CompanyID != "co-1" || f.ClientID != "" {
		t.Fatalf("staff scope = %+v", f)
	}

	f = storage.AppointmentFilter{}
	scopeFilter(identity.Identity{UserID: "a1", Role: identity.RoleAdmin}, &f)
	if f.CompanyID != "" || f.ClientID != "" {
		t.Fatalf("admin scope should stay unrestricted, got %+v", f)
	}
}
