package authz

import "testing"

func roleSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func TestPolicySystemRoles(t *testing.T) {
	var p Policy
	cases := []struct {
		name     string
		roles    []string
		rt       ResourceType
		required Level
		want     bool
	}{
		{"viewer reads anything", []string{RoleViewer}, ResourceCustomer, LevelRead, true},
		{"viewer cannot write", []string{RoleViewer}, ResourceProduct, LevelWrite, false},
		{"sme admin on products", []string{RoleSME}, ResourceProduct, LevelAdmin, true},
		{"sme admin on solutions", []string{RoleSME}, ResourceSolution, LevelAdmin, true},
		{"sme has no customer shortcut", []string{RoleSME}, ResourceCustomer, LevelRead, false},
		{"css admin on customers", []string{RoleCSS}, ResourceCustomer, LevelAdmin, true},
		{"css reads products", []string{RoleCSS}, ResourceProduct, LevelRead, true},
		{"css reads solutions", []string{RoleCSS}, ResourceSolution, LevelRead, true},
		{"css cannot write products", []string{RoleCSS}, ResourceProduct, LevelWrite, false},
		{"no roles no opinion", nil, ResourceProduct, LevelRead, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.Allows(roleSet(tc.roles...), tc.rt, tc.required); got != tc.want {
				t.Fatalf("Allows = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPolicyDefaultLevels(t *testing.T) {
	p := Policy{DefaultLevels: map[string]Level{"USER": LevelRead}}
	if !p.Allows(roleSet("USER"), ResourceProduct, LevelRead) {
		t.Fatalf("default layer should grant USER read")
	}
	if p.Allows(roleSet("USER"), ResourceProduct, LevelWrite) {
		t.Fatalf("default read layer must not grant write")
	}
	if p.Allows(roleSet("GUEST"), ResourceProduct, LevelRead) {
		t.Fatalf("roles outside the layer gain nothing")
	}
}

func TestPolicyLevelFor(t *testing.T) {
	var p Policy
	if l, ok := p.LevelFor(roleSet(RoleSME), ResourceProduct); !ok || l != LevelAdmin {
		t.Fatalf("SME level on products = %v/%v, want ADMIN", l, ok)
	}
	if l, ok := p.LevelFor(roleSet(RoleCSS), ResourceProduct); !ok || l != LevelRead {
		t.Fatalf("CSS level on products = %v/%v, want READ", l, ok)
	}
	if l, ok := p.LevelFor(roleSet(RoleCSS), ResourceCustomer); !ok || l != LevelAdmin {
		t.Fatalf("CSS level on customers = %v/%v, want ADMIN", l, ok)
	}
	if l, ok := p.LevelFor(roleSet(RoleViewer), ResourceSolution); !ok || l != LevelRead {
		t.Fatalf("VIEWER level = %v/%v, want READ", l, ok)
	}
	if _, ok := p.LevelFor(roleSet("USER"), ResourceProduct); ok {
		t.Fatalf("plain role implies no level without the default layer")
	}
}
