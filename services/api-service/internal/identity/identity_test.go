package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nabil-hasan/bizbook/libs/auth"
)

const testSecret = "test-secret"

func errFunc(w http.ResponseWriter, status int, message string) {
	http.Error(w, message, status)
}

func signToken(t *testing.T, claims auth.Claims) string {
	t.Helper()
	token, err := auth.SignHS256(claims, testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestRequireRejectsMissingToken(t *testing.T) {
	mw := Require(testSecret, errFunc)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/appointments", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRejectsBadSignature(t *testing.T) {
	token, err := auth.SignHS256(auth.Claims{Sub: "u1", Role: RoleClient}, "wrong-secret")
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	mw := Require(testSecret, errFunc)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	r := httptest.NewRequest("GET", "/appointments", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAttachesIdentity(t *testing.T) {
	token := signToken(t, auth.Claims{
		Sub:       "u1",
		CompanyID: "co-1",
		Role:      RoleOwner,
		Exp:       time.Now().Add(time.Hour).Unix(),
	})

	var got Identity
	mw := Require(testSecret, errFunc)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok {
			t.Fatal("identity missing from context")
		}
		got = id
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest("GET", "/appointments", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	want := Identity{UserID: "u1", CompanyID: "co-1", Role: RoleOwner}
	if got != want {
		t.Fatalf("identity = %+v, want %+v", got, want)
	}
}

func TestCanManageCompany(t *testing.T) {
	cases := []struct {
		name string
		id   Identity
		want bool
	}{
		{"admin anywhere", Identity{Role: RoleAdmin}, true},
		{"owner same company", Identity{CompanyID: "co-1", Role: RoleOwner}, true},
		{"owner other company", Identity{CompanyID: "co-2", Role: RoleOwner}, false},
		{"staff same company", Identity{CompanyID: "co-1", Role: RoleStaff}, true},
		{"client never", Identity{CompanyID: "co-1", Role: RoleClient}, false},
		{"owner no company", Identity{Role: RoleOwner}, false},
	}
	for _, tc := range cases {
		if got := tc.id.CanManageCompany("co-1"); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCanActOnUser(t *testing.T) {
	self := Identity{UserID: "u1", Role: RoleClient}
	if !self.CanActOnUser("u1") {
		t.Fatal("user should act on own record")
	}
	if self.CanActOnUser("u2") {
		t.Fatal("user should not act on another's record")
	}
	admin := Identity{UserID: "a1", Role: RoleAdmin}
	if !admin.CanActOnUser("u2") {
		t.Fatal("admin should act on any record")
	}
}
