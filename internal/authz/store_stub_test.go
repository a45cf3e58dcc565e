package authz

import "context"

// stubStore is an in-memory Store for tests.
type stubStore struct {
	users      map[string]*UserStatus
	roleNames  map[string][]string
	direct     map[string][]Grant
	roleGrants map[string][]Grant
	links      map[string][]string

	err error
}

func newStubStore() *stubStore {
	return &stubStore{
		users:      make(map[string]*UserStatus),
		roleNames:  make(map[string][]string),
		direct:     make(map[string][]Grant),
		roleGrants: make(map[string][]Grant),
		links:      make(map[string][]string),
	}
}

func (s *stubStore) addUser(id string, active, admin bool, primaryRole string, roles ...string) {
	s.users[id] = &UserStatus{ID: id, IsActive: active, IsAdmin: admin, PrimaryRole: primaryRole}
	s.roleNames[id] = roles
}

func (s *stubStore) addDirect(userID string, rt ResourceType, resourceID string, level Level) {
	s.direct[userID] = append(s.direct[userID], Grant{ResourceType: rt, ResourceID: resourceID, Level: level})
}

func (s *stubStore) addRoleGrant(userID string, rt ResourceType, resourceID string, level Level) {
	s.roleGrants[userID] = append(s.roleGrants[userID], Grant{ResourceType: rt, ResourceID: resourceID, Level: level})
}

func (s *stubStore) link(solutionID string, productIDs ...string) {
	s.links[solutionID] = append(s.links[solutionID], productIDs...)
}

func (s *stubStore) GetUserStatus(ctx context.Context, userID string) (*UserStatus, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.users[userID], nil
}

func (s *stubStore) ListRoleNames(ctx context.Context, userID string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.roleNames[userID], nil
}

func (s *stubStore) ListDirectGrants(ctx context.Context, userID string, rt ResourceType) ([]Grant, error) {
	if s.err != nil {
		return nil, s.err
	}
	return filterByType(s.direct[userID], rt), nil
}

func (s *stubStore) ListRoleGrants(ctx context.Context, userID string, rt ResourceType) ([]Grant, error) {
	if s.err != nil {
		return nil, s.err
	}
	return filterByType(s.roleGrants[userID], rt), nil
}

func (s *stubStore) SolutionsForProduct(ctx context.Context, productID string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	var ids []string
	for solutionID, products := range s.links {
		for _, p := range products {
			if p == productID {
				ids = append(ids, solutionID)
				break
			}
		}
	}
	return ids, nil
}

func (s *stubStore) ProductsForSolution(ctx context.Context, solutionID string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.links[solutionID], nil
}

func (s *stubStore) SolutionProductIDs(ctx context.Context) (map[string][]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string][]string, len(s.links))
	for k, v := range s.links {
		out[k] = append([]string(nil), v...)
	}
	return out, nil
}

func filterByType(grants []Grant, rt ResourceType) []Grant {
	var out []Grant
	for _, g := range grants {
		if g.ResourceType == rt {
			out = append(out, g)
		}
	}
	return out
}
