package authz

import (
	"errors"
	"testing"

	"github.com/ilyasvvv/BridgeAZ-sub000/types"
)

var allRoles = []types.Role{
	types.RoleStudent,
	types.RoleProfessional,
	types.RoleMentor,
	types.RoleModerator,
	types.RoleManager,
	types.RoleAdmin,
}

func TestHasRoleLegacyAdminFlag(t *testing.T) {
	p := Principal{UserID: 1, IsAdmin: true}
	for _, role := range allRoles {
		if !HasRole(p, role) {
			t.Errorf("HasRole(is_admin, %q) = false, want true", role)
		}
	}
}

func TestHasRoleAdminRoleWithoutFlag(t *testing.T) {
	p := Principal{UserID: 2, Roles: []types.Role{types.RoleAdmin}}
	for _, role := range allRoles {
		if !HasRole(p, role) {
			t.Errorf("HasRole(admin role, %q) = false, want true", role)
		}
	}
	if !p.IsSuperuser() {
		t.Error("IsSuperuser() = false for admin role without legacy flag")
	}
}

func TestHasRoleStaffRanks(t *testing.T) {
	tests := []struct {
		name string
		held []types.Role
		role types.Role
		want bool
	}{
		{"manager satisfies moderator", []types.Role{types.RoleManager}, types.RoleModerator, true},
		{"manager satisfies manager", []types.Role{types.RoleManager}, types.RoleManager, true},
		{"manager does not satisfy admin", []types.Role{types.RoleManager}, types.RoleAdmin, false},
		{"moderator does not satisfy manager", []types.Role{types.RoleModerator}, types.RoleManager, false},
		{"moderator satisfies moderator", []types.Role{types.RoleModerator}, types.RoleModerator, true},
		{"highest held rank wins", []types.Role{types.RoleModerator, types.RoleManager}, types.RoleManager, true},
		{"rank does not grant membership roles", []types.Role{types.RoleManager}, types.RoleMentor, false},
		{"membership role ignores rank", []types.Role{types.RoleMentor}, types.RoleModerator, false},
		{"plain membership", []types.Role{types.RoleStudent}, types.RoleStudent, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Principal{UserID: 3, Roles: tt.held}
			if got := HasRole(p, tt.role); got != tt.want {
				t.Errorf("HasRole(%v, %q) = %v, want %v", tt.held, tt.role, got, tt.want)
			}
		})
	}
}

func TestHasRoleEmptyPrincipal(t *testing.T) {
	p := Principal{UserID: 4}
	for _, role := range allRoles {
		if HasRole(p, role) {
			t.Errorf("HasRole(no roles, %q) = true, want false", role)
		}
	}
}

func TestRequireAnyRole(t *testing.T) {
	manager := Principal{UserID: 5, Roles: []types.Role{types.RoleManager}}
	student := Principal{UserID: 6, Roles: []types.Role{types.RoleStudent}}

	t.Run("nil principal is unauthenticated", func(t *testing.T) {
		err := RequireAnyRole(nil, []types.Role{types.RoleStudent})
		if !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("err = %v, want ErrUnauthenticated", err)
		}
	})

	t.Run("empty requirement fails closed", func(t *testing.T) {
		err := RequireAnyRole(&manager, nil)
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("any satisfying role grants", func(t *testing.T) {
		err := RequireAnyRole(&manager, []types.Role{types.RoleManager, types.RoleAdmin})
		if err != nil {
			t.Errorf("err = %v, want nil", err)
		}
	})

	t.Run("no satisfying role denies", func(t *testing.T) {
		err := RequireAnyRole(&student, []types.Role{types.RoleManager, types.RoleAdmin})
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("err = %v, want ErrForbidden", err)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name    string
		p       *Principal
		wantErr error
	}{
		{"nil principal", nil, ErrUnauthenticated},
		{"legacy flag", &Principal{IsAdmin: true}, nil},
		{"admin role", &Principal{Roles: []types.Role{types.RoleAdmin}}, nil},
		{"manager denied", &Principal{Roles: []types.Role{types.RoleManager}}, ErrForbidden},
		{"plain member denied", &Principal{Roles: []types.Role{types.RoleProfessional}}, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireAdmin(tt.p)
			if tt.wantErr == nil && err != nil {
				t.Errorf("err = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPrincipalOf(t *testing.T) {
	user := types.User{
		ID:      7,
		IsAdmin: true,
		Roles:   []types.Role{types.RoleStudent, types.RoleMentor},
	}
	p := PrincipalOf(user)
	if p.UserID != user.ID || !p.IsAdmin || len(p.Roles) != 2 {
		t.Errorf("PrincipalOf(%+v) = %+v", user, p)
	}
}
