package identity

import (
	"context"
	"net/http"

	"github.com/nabil-hasan/bizbook/libs/auth"
)

// Identity is the authenticated caller, decoded once from the bearer token and
// carried on the request context.
type Identity struct {
	UserID    string
	CompanyID string
	Role      string
}

const (
	RoleClient = "client"
	RoleStaff  = "staff"
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
)

type contextKey struct{}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

func ContextWith(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// Require rejects requests without a valid bearer token and attaches the
// decoded identity for handlers downstream.
func Require(secret string, onError func(w http.ResponseWriter, status int, message string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				onError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
				return
			}
			claims, err := auth.ParseAndVerifyHS256(token, secret)
			if err != nil {
				onError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			id := Identity{UserID: claims.Sub, CompanyID: claims.CompanyID, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(ContextWith(r.Context(), id)))
		})
	}
}

// CanManageCompany reports whether the caller may mutate the given company's
// data. A mismatched company is a hard boundary, reported as forbidden rather
// than filtered to an empty result.
func (id Identity) CanManageCompany(companyID string) bool {
	if id.Role == RoleAdmin {
		return true
	}
	if id.Role != RoleOwner && id.Role != RoleStaff {
		return false
	}
	return id.CompanyID != "" && id.CompanyID == companyID
}

// CanActOnUser reports whether the caller may read or change data belonging to
// the given user id.
func (id Identity) CanActOnUser(userID string) bool {
	return id.Role == RoleAdmin || id.UserID == userID
}

func (id Identity) IsStaffOrAbove() bool {
	switch id.Role {
	case RoleStaff, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

func (id Identity) IsOwnerOrAdmin() bool {
	return id.Role == RoleOwner || id.Role == RoleAdmin
}
