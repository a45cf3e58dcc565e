package authz

// System roles with hard-coded, type-wide rules. They are evaluated
// against the user's effective role set (primary role plus every named
// role held via assignment), never against stored grant rows.
const (
	RoleAdmin  = "ADMIN"
	RoleSME    = "SME"
	RoleCSS    = "CSS"
	RoleViewer = "VIEWER"
)

// Policy evaluates system-role shortcuts. DefaultLevels is an optional
// layer granting a type-wide level to arbitrary role names (e.g. a
// deployment that wants the plain USER role to read everything); it is
// empty unless configured.
type Policy struct {
	DefaultLevels map[string]Level
}

// Allows reports whether the role set satisfies the required level for
// the resource type without consulting stored grants. A false result is
// not a denial; it falls through to grant lookup.
func (p Policy) Allows(roles map[string]struct{}, rt ResourceType, required Level) bool {
	if _, ok := roles[RoleViewer]; ok && required == LevelRead {
		return true
	}
	if _, ok := roles[RoleSME]; ok {
		if rt == ResourceProduct || rt == ResourceSolution {
			return true
		}
	}
	if _, ok := roles[RoleCSS]; ok {
		if rt == ResourceCustomer {
			return true
		}
		if (rt == ResourceProduct || rt == ResourceSolution) && required == LevelRead {
			return true
		}
	}
	for name, level := range p.DefaultLevels {
		if _, ok := roles[name]; ok && level.Meets(required) {
			return true
		}
	}
	return false
}

// LevelFor returns the highest type-wide level the role set implies, for
// "what can I do" queries. The second result is false when the roles
// imply nothing for the type.
func (p Policy) LevelFor(roles map[string]struct{}, rt ResourceType) (Level, bool) {
	var best Level
	found := false
	raise := func(l Level) {
		if !found || levelRank[l] > levelRank[best] {
			best = l
			found = true
		}
	}
	if _, ok := roles[RoleSME]; ok && (rt == ResourceProduct || rt == ResourceSolution) {
		raise(LevelAdmin)
	}
	if _, ok := roles[RoleCSS]; ok {
		if rt == ResourceCustomer {
			raise(LevelAdmin)
		}
		if rt == ResourceProduct || rt == ResourceSolution {
			raise(LevelRead)
		}
	}
	if _, ok := roles[RoleViewer]; ok {
		raise(LevelRead)
	}
	for name, level := range p.DefaultLevels {
		if _, ok := roles[name]; ok {
			raise(level)
		}
	}
	return best, found
}
