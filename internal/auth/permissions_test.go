package auth

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleSkill, PermDirectiveExecute, true},
		{RoleSkill, PermAuditRead, false},
		{RoleSkill, PermEventsSubscribe, false},
		{RoleViewer, PermDirectiveExecute, false},
		{RoleViewer, PermAuditRead, true},
		{RoleViewer, PermEventsSubscribe, true},
		{RoleAdmin, PermDirectiveExecute, true},
		{RoleAdmin, PermAuditRead, true},
		{Role("unknown"), PermAuditRead, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			if got := HasPermission(tt.role, tt.perm); got != tt.want {
				t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.want)
			}
		})
	}
}

func TestPermissionsForRole_ReturnsCopy(t *testing.T) {
	perms := PermissionsForRole(RoleAdmin)
	if len(perms) != 3 {
		t.Fatalf("len = %d, want 3", len(perms))
	}
	perms[0] = "mutated"
	if !HasPermission(RoleAdmin, PermDirectiveExecute) {
		t.Error("mutating the result changed the role table")
	}

	if PermissionsForRole(Role("nobody")) != nil {
		t.Error("unknown role should return nil")
	}
}

func TestIsValidRole(t *testing.T) {
	for _, r := range []Role{RoleSkill, RoleViewer, RoleAdmin} {
		if !IsValidRole(r) {
			t.Errorf("IsValidRole(%q) = false", r)
		}
	}
	if IsValidRole("") {
		t.Error(`IsValidRole("") = true`)
	}
}
