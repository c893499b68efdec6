package repository

import (
	"context"
	"database/sql"

	"fitdesk/backend/internal/permission"
	"fitdesk/backend/internal/role/domain"
)

var _ Repository = (*PostgresRepository)(nil)

// PostgresRepository persists custom roles. Permission sets are stored as a
// text array column.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a custom-role repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListRoles returns every persisted custom role ordered by id.
func (r *PostgresRepository) ListRoles(ctx context.Context) ([]*domain.RoleDefinition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, color, scope, permissions, created_at, updated_at
		   FROM custom_roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.RoleDefinition
	for rows.Next() {
		def, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

// CreateRole inserts the custom role. The definition must already be validated.
func (r *PostgresRepository) CreateRole(ctx context.Context, def *domain.RoleDefinition) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO custom_roles (id, name, description, color, scope, permissions, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		def.ID, def.Name, def.Description, def.Color, string(def.Scope),
		encodePermissions(def.Permissions), def.CreatedAt, def.UpdatedAt)
	return err
}

// UpdateRole replaces the mutable fields of an existing custom role.
func (r *PostgresRepository) UpdateRole(ctx context.Context, def *domain.RoleDefinition) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE custom_roles
		    SET name = $2, description = $3, color = $4, scope = $5, permissions = $6, updated_at = $7
		  WHERE id = $1`,
		def.ID, def.Name, def.Description, def.Color, string(def.Scope),
		encodePermissions(def.Permissions), def.UpdatedAt)
	return err
}

// DeleteRole removes the custom role with the given id.
func (r *PostgresRepository) DeleteRole(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM custom_roles WHERE id = $1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (*domain.RoleDefinition, error) {
	var (
		def   domain.RoleDefinition
		scope string
		perms []byte
	)
	if err := row.Scan(&def.ID, &def.Name, &def.Description, &def.Color,
		&scope, &perms, &def.CreatedAt, &def.UpdatedAt); err != nil {
		return nil, err
	}
	def.Scope = domain.Scope(scope)
	def.Permissions = decodePermissions(perms)
	return &def, nil
}

// encodePermissions renders a permission set as a Postgres text array literal
// in stable order.
func encodePermissions(s permission.Set) string {
	sorted := s.Sorted()
	out := "{"
	for i, p := range sorted {
		if i > 0 {
			out += ","
		}
		out += string(p)
	}
	return out + "}"
}

// decodePermissions parses the text array literal written by encodePermissions.
// Catalog tags never contain quotes or commas, so a plain split suffices.
func decodePermissions(raw []byte) permission.Set {
	s := string(raw)
	if len(s) >= 2 && s[0] == '{' && s[len(s)-1] == '}' {
		s = s[1 : len(s)-1]
	}
	set := permission.NewSet()
	if s == "" {
		return set
	}
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if tag := s[start:i]; tag != "" {
				set.Add(permission.Permission(tag))
			}
			start = i + 1
		}
	}
	return set
}
