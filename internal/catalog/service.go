package catalog

import (
	"context"

	"github.com/rajesharora27/dap-sub001/internal/authz"
)

// Resolver is the slice of the permission engine the catalog needs.
type Resolver interface {
	AccessibleResources(ctx context.Context, userID string, rt authz.ResourceType, minLevel authz.Level) (authz.AccessibleSet, error)
}

// Service returns catalog entities visible to a user. Every list goes
// through the accessible-set query: an unrestricted result skips
// filtering, an empty result short-circuits without touching the store,
// and an enumerated result filters by id.
type Service struct {
	repo     Repository
	resolver Resolver
}

// NewService constructs a Service.
func NewService(repo Repository, resolver Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// ListProducts returns products the user can read.
func (s *Service) ListProducts(ctx context.Context, userID string) ([]Product, error) {
	set, err := s.resolver.AccessibleResources(ctx, userID, authz.ResourceProduct, authz.LevelRead)
	if err != nil {
		return nil, err
	}
	switch set.Kind {
	case authz.AccessNone:
		return []Product{}, nil
	case authz.AccessAll:
		return s.repo.ListProducts(ctx, nil)
	default:
		return s.repo.ListProducts(ctx, set.IDs)
	}
}

// GetProduct returns a single product. Access is enforced by the route
// guard before this runs.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListSolutions returns solutions the user can read.
func (s *Service) ListSolutions(ctx context.Context, userID string) ([]Solution, error) {
	set, err := s.resolver.AccessibleResources(ctx, userID, authz.ResourceSolution, authz.LevelRead)
	if err != nil {
		return nil, err
	}
	switch set.Kind {
	case authz.AccessNone:
		return []Solution{}, nil
	case authz.AccessAll:
		return s.repo.ListSolutions(ctx, nil)
	default:
		return s.repo.ListSolutions(ctx, set.IDs)
	}
}

// GetSolution returns a single solution with its product ids.
func (s *Service) GetSolution(ctx context.Context, id string) (Solution, error) {
	return s.repo.GetSolution(ctx, id)
}

// ListCustomers returns customers the user can read.
func (s *Service) ListCustomers(ctx context.Context, userID string) ([]Customer, error) {
	set, err := s.resolver.AccessibleResources(ctx, userID, authz.ResourceCustomer, authz.LevelRead)
	if err != nil {
		return nil, err
	}
	switch set.Kind {
	case authz.AccessNone:
		return []Customer{}, nil
	case authz.AccessAll:
		return s.repo.ListCustomers(ctx, nil)
	default:
		return s.repo.ListCustomers(ctx, set.IDs)
	}
}
