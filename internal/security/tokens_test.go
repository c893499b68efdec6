package security

import (
	"testing"
	"time"

	"fitdesk/backend/internal/identity/domain"
)

func TestTokenProvider_IssueAndVerifyAccess(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	principal := &domain.Principal{
		ID:       "u1",
		Email:    "staff@example.com",
		Name:     "Staff User",
		Role:     "team",
		TeamRole: "staff",
		BranchID: "branch-1",
		OrgID:    "org-1",
	}

	access, exp, err := p.IssueAccess(principal)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if access == "" {
		t.Fatal("access token empty")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}

	got, err := p.VerifyAccess(access)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if *got != *principal {
		t.Errorf("VerifyAccess = %+v, want %+v", got, principal)
	}
}

func TestTokenProvider_IssueAccess_NilPrincipal(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	if _, _, err := p.IssueAccess(nil); err != ErrInvalidToken {
		t.Errorf("IssueAccess(nil): want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_VerifyAccessInvalid(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	if _, err := p.VerifyAccess("invalid-token"); err != ErrInvalidToken {
		t.Errorf("VerifyAccess invalid token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_VerifyAccessExpired(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	p.accessTTL = -time.Minute
	access, _, err := p.IssueAccess(&domain.Principal{ID: "u1", Role: "member", OrgID: "org-1"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := p.VerifyAccess(access); err != ErrInvalidToken {
		t.Errorf("VerifyAccess expired token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_VerifyAccessWrongIssuer(t *testing.T) {
	issuing, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	issuing.issuer = "other-issuer"
	access, _, err := issuing.IssueAccess(&domain.Principal{ID: "u1", Role: "member", OrgID: "org-1"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	verifying, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	if _, err := verifying.VerifyAccess(access); err != ErrInvalidToken {
		t.Errorf("VerifyAccess wrong issuer: want ErrInvalidToken, got %v", err)
	}
}
