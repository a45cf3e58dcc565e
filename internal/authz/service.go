package authz

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Service answers permission questions for the API layer. It holds no
// mutable state; every call re-reads grants through the store handle.
type Service struct {
	store  Store
	policy Policy
}

// NewService constructs a Service backed by the provided store.
func NewService(store Store, policy Policy) *Service {
	return &Service{store: store, policy: policy}
}

// CheckPermission reports whether the user holds the required level for
// the resource. An empty resourceID asks for type-level access, which
// only global grants and type-wide role rules can satisfy.
func (s *Service) CheckPermission(ctx context.Context, userID string, rt ResourceType, resourceID string, required Level) (bool, error) {
	e := s.newEvaluator(userID)
	return e.check(ctx, rt, resourceID, required)
}

// CheckResources answers a point check for many ids in one pass: user
// status, grants, and the solution-product graph are each fetched once.
// Per-id results are identical to CheckPermission.
func (s *Service) CheckResources(ctx context.Context, userID string, rt ResourceType, resourceIDs []string, required Level) (map[string]bool, error) {
	results := make(map[string]bool, len(resourceIDs))
	e := s.newEvaluator(userID)

	status, roles, err := e.loadStatus(ctx)
	if err != nil {
		return nil, err
	}
	if status == nil || !status.IsActive {
		for _, id := range resourceIDs {
			results[id] = false
		}
		return results, nil
	}
	if isAdmin(status, roles) || s.policy.Allows(roles, rt, required) {
		for _, id := range resourceIDs {
			results[id] = true
		}
		return results, nil
	}

	if err := e.prefetch(ctx, rt); err != nil {
		return nil, err
	}
	for _, id := range resourceIDs {
		ok, err := e.check(ctx, rt, id, required)
		if err != nil {
			return nil, err
		}
		results[id] = ok
	}
	return results, nil
}

// AccessibleResources resolves which resource ids of a type the user can
// reach at the minimum level. The result is tri-state: unrestricted,
// empty, or an explicit id set. It accumulates the same sources the
// point check consults, so membership here matches CheckPermission.
func (s *Service) AccessibleResources(ctx context.Context, userID string, rt ResourceType, minLevel Level) (AccessibleSet, error) {
	e := s.newEvaluator(userID)

	status, roles, err := e.loadStatus(ctx)
	if err != nil {
		return AccessibleSet{}, err
	}
	if status == nil || !status.IsActive {
		return NoResources(), nil
	}
	if isAdmin(status, roles) || s.policy.Allows(roles, rt, minLevel) {
		return AllResources(), nil
	}

	ids := make(map[string]struct{})
	grants, err := e.grantsFor(ctx, rt)
	if err != nil {
		return AccessibleSet{}, err
	}
	for _, g := range grants {
		if !g.Level.Meets(minLevel) {
			continue
		}
		if g.Global() {
			return AllResources(), nil
		}
		ids[g.ResourceID] = struct{}{}
	}

	switch rt {
	case ResourceProduct:
		all, err := e.addProductsFromSolutions(ctx, minLevel, ids)
		if err != nil {
			return AccessibleSet{}, err
		}
		if all {
			return AllResources(), nil
		}
	case ResourceSolution:
		all, err := e.addSolutionsFromProducts(ctx, minLevel, ids)
		if err != nil {
			return AccessibleSet{}, err
		}
		if all {
			return AllResources(), nil
		}
	}

	if len(ids) == 0 {
		return NoResources(), nil
	}
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return SomeResources(out), nil
}

// PermissionLevelFor returns the highest level the user's explicit
// grants and system roles imply for a resource, for "what can I do"
// queries. Cross-type inference is intentionally excluded; use
// CheckPermission to probe derived access.
func (s *Service) PermissionLevelFor(ctx context.Context, userID string, rt ResourceType, resourceID string) (Level, bool, error) {
	e := s.newEvaluator(userID)

	status, roles, err := e.loadStatus(ctx)
	if err != nil {
		return "", false, err
	}
	if status == nil || !status.IsActive {
		return "", false, nil
	}
	if isAdmin(status, roles) {
		return LevelAdmin, true, nil
	}

	var best Level
	found := false
	raise := func(l Level) {
		if !found || levelRank[l] > levelRank[best] {
			best = l
			found = true
		}
	}
	if l, ok := s.policy.LevelFor(roles, rt); ok {
		raise(l)
	}
	grants, err := e.grantsFor(ctx, rt)
	if err != nil {
		return "", false, err
	}
	if l, ok := highestCovering(grants, resourceID); ok {
		raise(l)
	}
	return best, found, nil
}

func isAdmin(status *UserStatus, roles map[string]struct{}) bool {
	if status.IsAdmin {
		return true
	}
	_, ok := roles[RoleAdmin]
	return ok
}

// highestCovering reduces grant rows to the single highest level
// applicable to the resource id.
func highestCovering(grants []Grant, resourceID string) (Level, bool) {
	var best Level
	found := false
	for _, g := range grants {
		if !g.covers(resourceID) {
			continue
		}
		if !found || levelRank[g.Level] > levelRank[best] {
			best = g.Level
			found = true
		}
	}
	return best, found
}

// evaluator carries the request-scoped memo for one engine call. Status,
// role names, per-type grants, and the link graph are each fetched at
// most once; nothing survives the call.
type evaluator struct {
	svc    *Service
	userID string

	statusLoaded bool
	status       *UserStatus
	roles        map[string]struct{}

	grants map[ResourceType][]Grant
	links  map[string][]string
}

func (s *Service) newEvaluator(userID string) *evaluator {
	return &evaluator{
		svc:    s,
		userID: userID,
		grants: make(map[ResourceType][]Grant),
	}
}

func (e *evaluator) loadStatus(ctx context.Context) (*UserStatus, map[string]struct{}, error) {
	if e.statusLoaded {
		return e.status, e.roles, nil
	}
	status, err := e.svc.store.GetUserStatus(ctx, e.userID)
	if err != nil {
		return nil, nil, err
	}
	roles := make(map[string]struct{})
	if status != nil {
		if status.PrimaryRole != "" {
			roles[status.PrimaryRole] = struct{}{}
		}
		names, err := e.svc.store.ListRoleNames(ctx, e.userID)
		if err != nil {
			return nil, nil, err
		}
		for _, name := range names {
			roles[name] = struct{}{}
		}
	}
	e.status = status
	e.roles = roles
	e.statusLoaded = true
	return status, roles, nil
}

func (e *evaluator) grantsFor(ctx context.Context, rt ResourceType) ([]Grant, error) {
	if grants, ok := e.grants[rt]; ok {
		return grants, nil
	}
	grants, err := e.loadGrants(ctx, rt)
	if err != nil {
		return nil, err
	}
	e.grants[rt] = grants
	return grants, nil
}

// loadGrants merges direct and role-scoped rows; the effective level is
// always the maximum across both sources, so the merged slice loses
// nothing.
func (e *evaluator) loadGrants(ctx context.Context, rt ResourceType) ([]Grant, error) {
	direct, err := e.svc.store.ListDirectGrants(ctx, e.userID, rt)
	if err != nil {
		return nil, err
	}
	role, err := e.svc.store.ListRoleGrants(ctx, e.userID, rt)
	if err != nil {
		return nil, err
	}
	return append(direct, role...), nil
}

// prefetch loads the grant slices and link graph a batch over one
// resource type will touch, concurrently.
func (e *evaluator) prefetch(ctx context.Context, rt ResourceType) error {
	g, gctx := errgroup.WithContext(ctx)

	var primary, cross []Grant
	var links map[string][]string

	g.Go(func() error {
		var err error
		primary, err = e.loadGrants(gctx, rt)
		return err
	})
	crossType, hasCross := crossTypeOf(rt)
	if hasCross {
		g.Go(func() error {
			var err error
			cross, err = e.loadGrants(gctx, crossType)
			return err
		})
		g.Go(func() error {
			var err error
			links, err = e.svc.store.SolutionProductIDs(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	e.grants[rt] = primary
	if hasCross {
		e.grants[crossType] = cross
		e.links = links
	}
	return nil
}

func crossTypeOf(rt ResourceType) (ResourceType, bool) {
	switch rt {
	case ResourceProduct:
		return ResourceSolution, true
	case ResourceSolution:
		return ResourceProduct, true
	}
	return "", false
}

func (e *evaluator) solutionsForProduct(ctx context.Context, productID string) ([]string, error) {
	if e.links != nil {
		var ids []string
		for solutionID, products := range e.links {
			for _, p := range products {
				if p == productID {
					ids = append(ids, solutionID)
					break
				}
			}
		}
		return ids, nil
	}
	return e.svc.store.SolutionsForProduct(ctx, productID)
}

func (e *evaluator) productsForSolution(ctx context.Context, solutionID string) ([]string, error) {
	if e.links != nil {
		return e.links[solutionID], nil
	}
	return e.svc.store.ProductsForSolution(ctx, solutionID)
}

// check runs the full point-check pipeline: status, admin shortcut,
// system-role policy, grant lookup, cross-type inference. All grant
// sources raise a single highest level; the maximum wins, not the first
// source consulted.
func (e *evaluator) check(ctx context.Context, rt ResourceType, resourceID string, required Level) (bool, error) {
	status, roles, err := e.loadStatus(ctx)
	if err != nil {
		return false, err
	}
	if status == nil || !status.IsActive {
		return false, nil
	}
	if isAdmin(status, roles) {
		return true, nil
	}
	if e.svc.policy.Allows(roles, rt, required) {
		return true, nil
	}

	best, found, err := e.effectiveLevel(ctx, rt, resourceID, required)
	if err != nil {
		return false, err
	}
	return found && best.Meets(required), nil
}
