package auth

import (
	"github.com/go-faster/errors"
)

var (
	// ErrUnauthenticated is returned when an operation needs a signed-in user
	// and the caller is a visitor.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the caller's role does not allow the operation.
	ErrForbidden = errors.New("access denied")
)

// Role is the closed set of caller roles.
type Role int

const (
	// RoleVisitor is an anonymous caller. It may browse the catalog and probe
	// stock but never touch a cart.
	RoleVisitor Role = iota
	// RoleMember is a signed-in customer.
	RoleMember
	// RoleAdmin may additionally manage stock and see every order.
	RoleAdmin
)

// Claim values issued by the auth service.
const (
	claimVisitor = "visiteur"
	claimMember  = "connecté"
	claimAdmin   = "admin"
)

// ParseRole maps a token role claim onto a Role. Unknown values degrade to
// RoleVisitor.
func ParseRole(s string) Role {
	switch s {
	case claimMember:
		return RoleMember
	case claimAdmin:
		return RoleAdmin
	default:
		return RoleVisitor
	}
}

// Claim returns the wire value of the role.
func (r Role) Claim() string {
	switch r {
	case RoleMember:
		return claimMember
	case RoleAdmin:
		return claimAdmin
	default:
		return claimVisitor
	}
}

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleAdmin:
		return "admin"
	default:
		return "visitor"
	}
}

// Identity is the resolved caller of an operation.
type Identity struct {
	UserID   int64
	Username string
	Email    string
	Role     Role
}

// Visitor returns the anonymous identity.
func Visitor() Identity {
	return Identity{Role: RoleVisitor}
}

// IsAuthenticated reports whether the caller is a signed-in user.
func (i Identity) IsAuthenticated() bool {
	return i.Role != RoleVisitor && i.UserID > 0
}

// RequireCustomer fails unless the caller may own a cart and place orders.
func (i Identity) RequireCustomer() error {
	if !i.IsAuthenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// RequireAdmin fails unless the caller is an administrator.
func (i Identity) RequireAdmin() error {
	if !i.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if i.Role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}
