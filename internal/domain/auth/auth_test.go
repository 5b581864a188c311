package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleMember, ParseRole("connecté"))
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleVisitor, ParseRole("visiteur"))
	assert.Equal(t, RoleVisitor, ParseRole("root"))
	assert.Equal(t, RoleVisitor, ParseRole(""))

	for _, r := range []Role{RoleVisitor, RoleMember, RoleAdmin} {
		assert.Equal(t, r, ParseRole(r.Claim()))
	}
}

func TestIdentity_Require(t *testing.T) {
	visitor := Visitor()
	member := Identity{UserID: 7, Role: RoleMember}
	admin := Identity{UserID: 1, Role: RoleAdmin}

	require.ErrorIs(t, visitor.RequireCustomer(), ErrUnauthenticated)
	require.NoError(t, member.RequireCustomer())
	require.NoError(t, admin.RequireCustomer())

	require.ErrorIs(t, visitor.RequireAdmin(), ErrUnauthenticated)
	require.ErrorIs(t, member.RequireAdmin(), ErrForbidden)
	require.NoError(t, admin.RequireAdmin())

	// A member role without a user id is not a usable identity.
	require.ErrorIs(t, Identity{Role: RoleMember}.RequireCustomer(), ErrUnauthenticated)
}

func TestTokenVerifier_RoundTrip(t *testing.T) {
	v := NewTokenVerifier([]byte("test-secret-key-at-least-32-chars"))

	token, err := v.Sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		ID:       2,
		Email:    "buyer@example.com",
		Username: "buyer",
		Role:     "connecté",
	})
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 2, Username: "buyer", Email: "buyer@example.com", Role: RoleMember}, id)
}

func TestTokenVerifier_SubjectFallback(t *testing.T) {
	v := NewTokenVerifier([]byte("secret"))

	token, err := v.Sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "42"},
		Role:             "admin",
	})
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id.UserID)
	assert.Equal(t, RoleAdmin, id.Role)
}

func TestTokenVerifier_Rejects(t *testing.T) {
	v := NewTokenVerifier([]byte("secret"))

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewTokenVerifier([]byte("other"))
		token, err := other.Sign(Claims{ID: 1, Role: "admin"})
		require.NoError(t, err)

		_, err = v.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := v.Sign(Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
			ID:   1,
			Role: "connecté",
		})
		require.NoError(t, err)

		_, err = v.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("NoneAlgorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ID: 1, Role: "admin"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = v.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("MissingUser", func(t *testing.T) {
		token, err := v.Sign(Claims{Role: "connecté"})
		require.NoError(t, err)

		_, err = v.Verify(token)
		require.ErrorIs(t, err, ErrMissingUserID)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := v.Verify("not-a-token")
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}
