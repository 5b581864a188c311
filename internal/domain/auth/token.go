package auth

import (
	"fmt"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for malformed, forged or expired tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingUserID is returned when a token carries no usable user id.
	ErrMissingUserID = errors.New("missing user id in claims")
)

// Claims is the payload issued by the external auth service.
type Claims struct {
	jwt.RegisteredClaims
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenVerifier validates HS256 bearer tokens and turns them into identities.
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenVerifier creates a verifier for tokens signed with secret.
func NewTokenVerifier(secret []byte) *TokenVerifier {
	return &TokenVerifier{
		secret: secret,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Verify parses and validates token and returns the caller identity.
func (v *TokenVerifier) Verify(token string) (Identity, error) {
	var claims Claims
	_, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID := claims.ID
	if userID == 0 && claims.Subject != "" {
		// Some issuers only set "sub".
		if id, err := strconv.ParseInt(claims.Subject, 10, 64); err == nil {
			userID = id
		}
	}
	if userID <= 0 {
		return Identity{}, ErrMissingUserID
	}

	return Identity{
		UserID:   userID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     ParseRole(claims.Role),
	}, nil
}

// Sign issues a token for claims. Used by tooling and tests.
func (v *TokenVerifier) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
