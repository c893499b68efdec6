package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fitdesk/backend/internal/identity/domain"
)

// ErrInvalidToken is returned when a token is malformed or invalid.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims holds JWT claims for the access token. The role assignment
// travels in the token; permissions never do, they are resolved server-side.
type AccessClaims struct {
	jwt.RegisteredClaims
	OrgID    string `json:"org_id"`
	Role     string `json:"role"`
	TeamRole string `json:"team_role,omitempty"`
	BranchID string `json:"branch_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
}

// TokenProvider issues and validates JWT access tokens using RS256 or ES256
// (private/public key).
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	accessTTL  time.Duration
}

// NewTokenProvider returns a TokenProvider that signs with the given private
// key (RS256 or ES256). issuer and audience are set on claims and validated
// on verification.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, accessTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
	}
}

// IssueAccess issues a short-lived access JWT for the given principal.
// Returns the token string and its expiration time.
func (p *TokenProvider) IssueAccess(principal *domain.Principal) (token string, expiresAt time.Time, err error) {
	if principal == nil || principal.ID == "" {
		return "", time.Time{}, ErrInvalidToken
	}
	now := time.Now().UTC()
	expiresAt = now.Add(p.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		OrgID:    principal.OrgID,
		Role:     principal.Role,
		TeamRole: principal.TeamRole,
		BranchID: principal.BranchID,
		Email:    principal.Email,
		Name:     principal.Name,
	}
	token, err = p.sign(claims)
	return token, expiresAt, err
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	var method jwt.SigningMethod
	switch p.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidToken
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(p.privateKey)
}

// VerifyAccess parses and validates the access token (signature, exp, iss,
// aud) and returns the principal it encodes.
func (p *TokenProvider) VerifyAccess(tokenString string) (*domain.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
			return p.publicKey, nil
		}
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
			return p.publicKey, nil
		}
		return nil, ErrInvalidToken
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == p.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return nil, ErrInvalidToken
	}
	return &domain.Principal{
		ID:       claims.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		Role:     claims.Role,
		TeamRole: claims.TeamRole,
		BranchID: claims.BranchID,
		OrgID:    claims.OrgID,
	}, nil
}
