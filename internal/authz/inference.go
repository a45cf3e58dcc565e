package authz

import "context"

// Product and Solution access imply each other through the membership
// graph, asymmetrically: trust over a solution covers every product it
// bundles (union), while product-level trust only covers a solution when
// it spans every bundled product, capped by the weakest product grant
// (intersection with minimum).

// effectiveLevel computes the user's highest level for the resource from
// explicit grants plus cross-type derivation. The required level feeds
// only the product→solution gate; everything else is level-agnostic.
func (e *evaluator) effectiveLevel(ctx context.Context, rt ResourceType, resourceID string, required Level) (Level, bool, error) {
	grants, err := e.grantsFor(ctx, rt)
	if err != nil {
		return "", false, err
	}
	best, found := highestCovering(grants, resourceID)
	raise := func(l Level) {
		if !found || levelRank[l] > levelRank[best] {
			best = l
			found = true
		}
	}

	switch rt {
	case ResourceProduct:
		solutionGrants, err := e.grantsFor(ctx, ResourceSolution)
		if err != nil {
			return "", false, err
		}
		// An "all solutions" grant widens to all products.
		for _, g := range solutionGrants {
			if g.Global() {
				raise(g.Level)
			}
		}
		if resourceID != "" {
			solutionIDs, err := e.solutionsForProduct(ctx, resourceID)
			if err != nil {
				return "", false, err
			}
			for _, solutionID := range solutionIDs {
				for _, g := range solutionGrants {
					if g.ResourceID == solutionID {
						raise(g.Level)
					}
				}
			}
		}

	case ResourceSolution:
		productGrants, err := e.grantsFor(ctx, ResourceProduct)
		if err != nil {
			return "", false, err
		}
		// An "all products" grant covers every solution.
		for _, g := range productGrants {
			if g.Global() {
				raise(g.Level)
			}
		}
		if resourceID != "" {
			productIDs, err := e.productsForSolution(ctx, resourceID)
			if err != nil {
				return "", false, err
			}
			// A solution with no products derives nothing from product
			// grants; grants obtained above still stand.
			if derived, ok := deriveFromProducts(productGrants, productIDs, required); ok {
				raise(derived)
			}
		}
	}

	return best, found, nil
}

// deriveFromProducts computes the solution level implied by per-product
// grants. Every bundled product must be accessible at the required
// level; the derived level is the minimum of the products' highest
// grants, so the weakest-linked product caps the solution.
func deriveFromProducts(productGrants []Grant, productIDs []string, required Level) (Level, bool) {
	if len(productIDs) == 0 {
		return "", false
	}
	derived := LevelAdmin
	for _, productID := range productIDs {
		highest, ok := highestCovering(productGrants, productID)
		if !ok || !highest.Meets(required) {
			return "", false
		}
		derived = minLevel(derived, highest)
	}
	return derived, true
}

// addProductsFromSolutions unions into ids every product reachable from
// a solution grant meeting the minimum level. Returns true when a global
// solution grant widens access to all products.
func (e *evaluator) addProductsFromSolutions(ctx context.Context, minLevel Level, ids map[string]struct{}) (bool, error) {
	solutionGrants, err := e.grantsFor(ctx, ResourceSolution)
	if err != nil {
		return false, err
	}
	solutionIDs := make(map[string]struct{})
	for _, g := range solutionGrants {
		if !g.Level.Meets(minLevel) {
			continue
		}
		if g.Global() {
			return true, nil
		}
		solutionIDs[g.ResourceID] = struct{}{}
	}
	if len(solutionIDs) == 0 {
		return false, nil
	}
	links, err := e.linkGraph(ctx)
	if err != nil {
		return false, err
	}
	for solutionID := range solutionIDs {
		for _, productID := range links[solutionID] {
			ids[productID] = struct{}{}
		}
	}
	return false, nil
}

// addSolutionsFromProducts unions into ids every solution whose full
// product set is accessible at the minimum level. Returns true when a
// global product grant covers all solutions.
func (e *evaluator) addSolutionsFromProducts(ctx context.Context, minLevel Level, ids map[string]struct{}) (bool, error) {
	productGrants, err := e.grantsFor(ctx, ResourceProduct)
	if err != nil {
		return false, err
	}
	productIDs := make(map[string]struct{})
	for _, g := range productGrants {
		if !g.Level.Meets(minLevel) {
			continue
		}
		if g.Global() {
			return true, nil
		}
		productIDs[g.ResourceID] = struct{}{}
	}
	if len(productIDs) == 0 {
		return false, nil
	}
	links, err := e.linkGraph(ctx)
	if err != nil {
		return false, err
	}
	for solutionID, products := range links {
		if len(products) == 0 {
			continue
		}
		covered := true
		for _, productID := range products {
			if _, ok := productIDs[productID]; !ok {
				covered = false
				break
			}
		}
		if covered {
			ids[solutionID] = struct{}{}
		}
	}
	return false, nil
}

func (e *evaluator) linkGraph(ctx context.Context) (map[string][]string, error) {
	if e.links != nil {
		return e.links, nil
	}
	links, err := e.svc.store.SolutionProductIDs(ctx)
	if err != nil {
		return nil, err
	}
	e.links = links
	return links, nil
}
