// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev admin (admin@fitdesk.dev) already exists.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"fitdesk/backend/internal/config"
	"fitdesk/backend/internal/db"
	"fitdesk/backend/internal/identity/domain"
	"fitdesk/backend/internal/permission"
	"fitdesk/backend/internal/role"
	roledomain "fitdesk/backend/internal/role/domain"
	rolerepo "fitdesk/backend/internal/role/repository"
	"fitdesk/backend/internal/security"
)

const (
	devPassword = "password123"

	devOrgID      = "dev-org-001"
	devBranch1ID  = "dev-branch-001"
	devBranch2ID  = "dev-branch-002"
	auditorRoleID = "dev-role-auditor"

	superAdminEmail = "root@fitdesk.dev"
	adminEmail      = "admin@fitdesk.dev"
	managerEmail    = "manager@fitdesk.dev"
	staffEmail      = "staff@fitdesk.dev"
	memberEmail     = "member@fitdesk.dev"
)

type seedUser struct {
	id          string
	email       string
	name        string
	roleID      string
	teamRole    string
	allBranches bool
	branches    []string
	grants      []permission.Permission
	denials     []permission.Permission
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()

	var existing string
	err = conn.QueryRowContext(ctx, `SELECT id FROM users WHERE email = $1`, adminEmail).Scan(&existing)
	if err == nil {
		log.Printf("Seed already applied (%s exists). Skipping.", adminEmail)
		os.Exit(0)
	}
	if err != sql.ErrNoRows {
		log.Fatalf("seed check: %v", err)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()

	if _, err := conn.ExecContext(ctx,
		`INSERT INTO organizations (id, name, created_at) VALUES ($1, $2, $3)`,
		devOrgID, "FitDesk Dev Gym", now); err != nil {
		log.Fatalf("create org: %v", err)
	}

	branches := []struct{ id, name string }{
		{devBranch1ID, "Downtown"},
		{devBranch2ID, "Riverside"},
	}
	for _, b := range branches {
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO branches (id, org_id, name, status, created_at) VALUES ($1, $2, $3, 'active', $4)`,
			b.id, devOrgID, b.name, now); err != nil {
			log.Fatalf("create branch %s: %v", b.id, err)
		}
	}

	users := []seedUser{
		{
			id: "dev-user-root", email: superAdminEmail, name: "Root Operator",
			roleID: roledomain.RoleSuperAdmin, allBranches: true,
		},
		{
			id: "dev-user-admin", email: adminEmail, name: "Org Admin",
			roleID: roledomain.RoleAdmin, allBranches: true,
		},
		{
			id: "dev-user-manager", email: managerEmail, name: "Branch Manager",
			roleID: roledomain.RoleTeam, teamRole: roledomain.TeamRoleManager,
			branches: []string{devBranch1ID},
		},
		{
			id: "dev-user-staff", email: staffEmail, name: "Front Desk",
			roleID: roledomain.RoleTeam, teamRole: roledomain.TeamRoleStaff,
			branches: []string{devBranch1ID},
			grants:   []permission.Permission{permission.ReportsExport},
			denials:  []permission.Permission{permission.SMSSend},
		},
		{
			id: "dev-user-member", email: memberEmail, name: "Gym Member",
			roleID: roledomain.RoleMember, branches: []string{devBranch2ID},
		},
	}

	for _, u := range users {
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO users (id, org_id, email, name, password_hash, role_id, team_role, is_active, all_branches, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $9, $9)`,
			u.id, devOrgID, u.email, u.name, passwordHash, u.roleID,
			sql.NullString{String: u.teamRole, Valid: u.teamRole != ""}, u.allBranches, now); err != nil {
			log.Fatalf("create user %s: %v", u.email, err)
		}
		for _, branchID := range u.branches {
			if _, err := conn.ExecContext(ctx,
				`INSERT INTO user_branch_assignments (user_id, branch_id) VALUES ($1, $2)`,
				u.id, branchID); err != nil {
				log.Fatalf("assign branch %s to %s: %v", branchID, u.email, err)
			}
		}
		for _, p := range u.grants {
			if _, err := conn.ExecContext(ctx,
				`INSERT INTO user_permission_overrides (user_id, permission, denied) VALUES ($1, $2, FALSE)`,
				u.id, string(p)); err != nil {
				log.Fatalf("grant %s to %s: %v", p, u.email, err)
			}
		}
		for _, p := range u.denials {
			if _, err := conn.ExecContext(ctx,
				`INSERT INTO user_permission_overrides (user_id, permission, denied) VALUES ($1, $2, TRUE)`,
				u.id, string(p)); err != nil {
				log.Fatalf("deny %s to %s: %v", p, u.email, err)
			}
		}
	}

	registry := role.NewRegistry(rolerepo.NewPostgresRepository(conn))
	if _, err := registry.CreateCustomRole(ctx, &roledomain.RoleDefinition{
		ID:          auditorRoleID,
		Name:        "Auditor",
		Description: "Read-only finance and reporting access",
		Color:       "#64748b",
		Scope:       roledomain.ScopeBranch,
		Permissions: permission.NewSet(
			permission.FinanceView, permission.InvoicesView,
			permission.ReportsView, permission.ReportsExport,
			permission.AuditView,
		),
	}); err != nil {
		log.Fatalf("create custom role: %v", err)
	}

	printDevTokens(cfg, users)

	log.Println("Seed completed successfully.")
	fmt.Printf("Dev login password for all users: %s\n", devPassword)
}

// printDevTokens mints an access token per seeded user when signing keys are
// configured, so the HTTP API can be exercised immediately.
func printDevTokens(cfg *config.Config, users []seedUser) {
	if cfg.JWTPrivateKey == "" || cfg.JWTPublicKey == "" {
		log.Println("JWT keys not configured; skipping dev token minting.")
		return
	}
	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Printf("jwt private key: %v", err)
		return
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Printf("jwt public key: %v", err)
		return
	}
	tokens := security.NewTokenProvider(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())

	for _, u := range users {
		branchID := ""
		if len(u.branches) > 0 {
			branchID = u.branches[0]
		}
		token, _, err := tokens.IssueAccess(&domain.Principal{
			ID:       u.id,
			Email:    u.email,
			Name:     u.name,
			Role:     u.roleID,
			TeamRole: u.teamRole,
			BranchID: branchID,
			OrgID:    devOrgID,
		})
		if err != nil {
			log.Printf("mint token for %s: %v", u.email, err)
			continue
		}
		fmt.Printf("%s token:\n%s\n", u.email, token)
	}
}
