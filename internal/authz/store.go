package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides the read-only queries the engine needs. Implementations
// must be safe for concurrent use; the engine never writes.
type Store interface {
	// GetUserStatus returns nil without error when the user does not
	// exist; unknown users are an expected state, not a fault.
	GetUserStatus(ctx context.Context, userID string) (*UserStatus, error)
	// ListRoleNames returns the names of all roles assigned to the user.
	ListRoleNames(ctx context.Context, userID string) ([]string, error)
	// ListDirectGrants returns the user's own grant rows for a type.
	ListDirectGrants(ctx context.Context, userID string, rt ResourceType) ([]Grant, error)
	// ListRoleGrants returns grant rows for a type from every role the
	// user holds.
	ListRoleGrants(ctx context.Context, userID string, rt ResourceType) ([]Grant, error)
	// SolutionsForProduct returns ids of solutions bundling the product.
	SolutionsForProduct(ctx context.Context, productID string) ([]string, error)
	// ProductsForSolution returns ids of products the solution bundles.
	ProductsForSolution(ctx context.Context, solutionID string) ([]string, error)
	// SolutionProductIDs returns the full membership graph for live
	// solutions, keyed by solution id.
	SolutionProductIDs(ctx context.Context) (map[string][]string, error)
}

// PGStore implements Store against PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a store backed by the provided pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

var _ Store = (*PGStore)(nil)

// GetUserStatus loads the account flags and primary role.
func (s *PGStore) GetUserStatus(ctx context.Context, userID string) (*UserStatus, error) {
	const query = `SELECT id, is_active, is_admin, role FROM users WHERE id = $1`
	var st UserStatus
	err := s.retry(ctx, func() error {
		return s.pool.QueryRow(ctx, query, userID).Scan(&st.ID, &st.IsActive, &st.IsAdmin, &st.PrimaryRole)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("authz: get user status: %w", err)
	}
	return &st, nil
}

// ListRoleNames returns names of roles held via assignment.
func (s *PGStore) ListRoleNames(ctx context.Context, userID string) ([]string, error) {
	const query = `
		SELECT r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1`
	var names []string
	err := s.retry(ctx, func() error {
		rows, err := s.pool.Query(ctx, query, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		names = names[:0]
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			names = append(names, name)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("authz: list role names: %w", err)
	}
	return names, nil
}

// ListDirectGrants returns the user's own grant rows for a type.
func (s *PGStore) ListDirectGrants(ctx context.Context, userID string, rt ResourceType) ([]Grant, error) {
	const query = `
		SELECT resource_id, permission_level
		FROM permissions
		WHERE user_id = $1 AND resource_type = $2`
	grants, err := s.listGrants(ctx, query, rt, userID, string(rt))
	if err != nil {
		return nil, fmt.Errorf("authz: list direct grants: %w", err)
	}
	return grants, nil
}

// ListRoleGrants returns grant rows reachable through role assignments.
func (s *PGStore) ListRoleGrants(ctx context.Context, userID string, rt ResourceType) ([]Grant, error) {
	const query = `
		SELECT rp.resource_id, rp.permission_level
		FROM role_permissions rp
		JOIN user_roles ur ON ur.role_id = rp.role_id
		WHERE ur.user_id = $1 AND rp.resource_type = $2`
	grants, err := s.listGrants(ctx, query, rt, userID, string(rt))
	if err != nil {
		return nil, fmt.Errorf("authz: list role grants: %w", err)
	}
	return grants, nil
}

// SolutionsForProduct returns ids of solutions containing the product.
func (s *PGStore) SolutionsForProduct(ctx context.Context, productID string) ([]string, error) {
	const query = `SELECT solution_id FROM solution_products WHERE product_id = $1`
	ids, err := s.listIDs(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("authz: solutions for product: %w", err)
	}
	return ids, nil
}

// ProductsForSolution returns ids of products bundled in the solution.
func (s *PGStore) ProductsForSolution(ctx context.Context, solutionID string) ([]string, error) {
	const query = `SELECT product_id FROM solution_products WHERE solution_id = $1`
	ids, err := s.listIDs(ctx, query, solutionID)
	if err != nil {
		return nil, fmt.Errorf("authz: products for solution: %w", err)
	}
	return ids, nil
}

// SolutionProductIDs loads the membership graph for all live solutions.
func (s *PGStore) SolutionProductIDs(ctx context.Context) (map[string][]string, error) {
	const query = `
		SELECT sp.solution_id, sp.product_id
		FROM solution_products sp
		JOIN solutions sol ON sol.id = sp.solution_id
		WHERE sol.deleted_at IS NULL`
	links := make(map[string][]string)
	err := s.retry(ctx, func() error {
		rows, err := s.pool.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()
		clear(links)
		for rows.Next() {
			var solutionID, productID string
			if err := rows.Scan(&solutionID, &productID); err != nil {
				return err
			}
			links[solutionID] = append(links[solutionID], productID)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("authz: solution product ids: %w", err)
	}
	return links, nil
}

func (s *PGStore) listGrants(ctx context.Context, query string, rt ResourceType, args ...any) ([]Grant, error) {
	var grants []Grant
	err := s.retry(ctx, func() error {
		rows, err := s.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		grants = grants[:0]
		for rows.Next() {
			var resourceID pgtype.Text
			var level string
			if err := rows.Scan(&resourceID, &level); err != nil {
				return err
			}
			grants = append(grants, Grant{
				ResourceType: rt,
				ResourceID:   resourceID.String,
				Level:        Level(level),
			})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return grants, nil
}

func (s *PGStore) listIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	var ids []string
	err := s.retry(ctx, func() error {
		rows, err := s.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		ids = ids[:0]
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// retry re-runs a query once when pgx reports the failure happened
// before the statement reached the server. Decisions are never retried,
// only reads.
func (s *PGStore) retry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if pgconn.SafeToRetry(err) && ctx.Err() == nil {
		return fn()
	}
	return err
}
