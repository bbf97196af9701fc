package casdoor

import (
	"errors"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
)

func TestToPrincipal(t *testing.T) {
	tests := []struct {
		name     string
		user     *casdoorsdk.User
		wantRole models.AdminRole
		wantName string
		wantOK   bool
	}{
		{
			name:     "casdoor admin flag",
			user:     &casdoorsdk.User{Id: "u1", Name: "root", Email: "root@school.test", IsAdmin: true},
			wantRole: models.RoleSuperAdmin,
			wantName: "root",
			wantOK:   true,
		},
		{
			name:     "admin role",
			user:     &casdoorsdk.User{Id: "u2", Name: "head", Roles: []*casdoorsdk.Role{{Name: "Administrator"}}},
			wantRole: models.RoleSuperAdmin,
			wantName: "head",
			wantOK:   true,
		},
		{
			name:     "exam admin role",
			user:     &casdoorsdk.User{Id: "u3", Name: "tobi", DisplayName: "Mr Tobi", Roles: []*casdoorsdk.Role{{Name: "exam_admin"}}},
			wantRole: models.RoleExamAdmin,
			wantName: "Mr Tobi",
			wantOK:   true,
		},
		{
			name:     "admin wins over teacher",
			user:     &casdoorsdk.User{Id: "u4", Name: "vp", Roles: []*casdoorsdk.Role{{Name: "teacher"}, {Name: "super_admin"}}},
			wantRole: models.RoleSuperAdmin,
			wantName: "vp",
			wantOK:   true,
		},
		{
			name:     "nil role entry skipped",
			user:     &casdoorsdk.User{Id: "u5", Name: "ada", Roles: []*casdoorsdk.Role{nil, {Name: "Teacher"}}},
			wantRole: models.RoleExamAdmin,
			wantName: "ada",
			wantOK:   true,
		},
		{
			name: "unrelated role",
			user: &casdoorsdk.User{Id: "u6", Name: "clerk", Roles: []*casdoorsdk.Role{{Name: "bursar"}}},
		},
		{
			name: "no roles",
			user: &casdoorsdk.User{Id: "u7", Name: "guest"},
		},
		{
			name: "only nil roles",
			user: &casdoorsdk.User{Id: "u8", Name: "ghost", Roles: []*casdoorsdk.Role{nil}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := ToPrincipal(tt.user)
			if ok != tt.wantOK {
				t.Fatalf("ToPrincipal() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				if p != nil {
					t.Errorf("ToPrincipal() = %+v, want nil", p)
				}
				return
			}
			if p.Role != tt.wantRole || p.Name != tt.wantName {
				t.Errorf("ToPrincipal() role = %s name = %q, want %s %q", p.Role, p.Name, tt.wantRole, tt.wantName)
			}
			if p.ID != tt.user.Id || p.Email != tt.user.Email || p.Provider != "casdoor" {
				t.Errorf("ToPrincipal() = %+v", p)
			}
		})
	}
}

func TestResolveAdmin(t *testing.T) {
	tests := []struct {
		name    string
		user    *casdoorsdk.User
		wantErr error
	}{
		{name: "admin", user: &casdoorsdk.User{Id: "u1", IsAdmin: true}},
		{name: "no roles", user: &casdoorsdk.User{Id: "u2"}, wantErr: repositories.ErrNotFound},
		{name: "nil role only", user: &casdoorsdk.User{Id: "u3", Roles: []*casdoorsdk.Role{nil}}, wantErr: repositories.ErrNotFound},
		{name: "missing user", wantErr: repositories.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := resolveAdmin("u", tt.user)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || p != nil {
					t.Fatalf("resolveAdmin() = %+v, %v, want %v", p, err, tt.wantErr)
				}
				return
			}
			if err != nil || p == nil {
				t.Fatalf("resolveAdmin() = %+v, %v", p, err)
			}
		})
	}
}
