package auth

import "testing"

func TestNormalizeRole(t *testing.T) {
	for _, value := range []string{"viewer", "operator", "admin"} {
		if _, ok := NormalizeRole(value); !ok {
			t.Fatalf("role %q should normalize", value)
		}
	}
	if _, ok := NormalizeRole("superuser"); ok {
		t.Fatalf("unknown role should not normalize")
	}
}

func TestRoleAtLeast(t *testing.T) {
	if !RoleAtLeast(RoleAdmin, RoleViewer) {
		t.Fatalf("admin should satisfy viewer")
	}
	if RoleAtLeast(RoleViewer, RoleOperator) {
		t.Fatalf("viewer must not satisfy operator")
	}
	if RoleAtLeast(Role("superuser"), RoleViewer) {
		t.Fatalf("unknown roles must rank below every known role")
	}
}
