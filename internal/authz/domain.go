package authz

// ResourceType identifies a category of protected entity.
type ResourceType string

// Known resource types.
const (
	ResourceProduct  ResourceType = "PRODUCT"
	ResourceSolution ResourceType = "SOLUTION"
	ResourceCustomer ResourceType = "CUSTOMER"
)

// ParseResourceType validates a resource type received from a caller.
func ParseResourceType(s string) (ResourceType, bool) {
	switch ResourceType(s) {
	case ResourceProduct, ResourceSolution, ResourceCustomer:
		return ResourceType(s), true
	}
	return "", false
}

// Grant is a stored permission row, either user-scoped or role-scoped.
// An empty ResourceID means the grant covers every resource of its type
// (stored as NULL resource_id).
type Grant struct {
	ResourceType ResourceType
	ResourceID   string
	Level        Level
}

// Global reports whether the grant applies to all resources of its type.
func (g Grant) Global() bool {
	return g.ResourceID == ""
}

// covers reports whether the grant applies to the given resource id.
// A type-level check (empty id) is only covered by a global grant.
func (g Grant) covers(resourceID string) bool {
	return g.Global() || (resourceID != "" && g.ResourceID == resourceID)
}

// UserStatus is the slice of a user account the engine reads.
type UserStatus struct {
	ID          string
	IsActive    bool
	IsAdmin     bool
	PrimaryRole string
}

// AccessKind discriminates the tri-state accessible-set result.
type AccessKind int

const (
	// AccessNone means the user can access no resources of the type.
	AccessNone AccessKind = iota
	// AccessAll means the user can access every resource of the type;
	// callers should skip id filtering entirely.
	AccessAll
	// AccessSome means access is limited to the enumerated ids.
	AccessSome
)

// AccessibleSet is the result of an accessible-resources query. It is an
// explicit tagged value so "no filter" and "empty filter" cannot be
// confused.
type AccessibleSet struct {
	Kind AccessKind
	IDs  []string
}

// AllResources marks unrestricted access to a resource type.
func AllResources() AccessibleSet {
	return AccessibleSet{Kind: AccessAll}
}

// NoResources marks zero access to a resource type.
func NoResources() AccessibleSet {
	return AccessibleSet{Kind: AccessNone}
}

// SomeResources enumerates the accessible ids.
func SomeResources(ids []string) AccessibleSet {
	if len(ids) == 0 {
		return NoResources()
	}
	return AccessibleSet{Kind: AccessSome, IDs: ids}
}

// Contains reports whether the set admits the given id.
func (s AccessibleSet) Contains(id string) bool {
	switch s.Kind {
	case AccessAll:
		return true
	case AccessSome:
		for _, v := range s.IDs {
			if v == id {
				return true
			}
		}
	}
	return false
}
