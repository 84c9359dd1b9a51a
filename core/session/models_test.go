package session

import "testing"

func TestHighestRole(t *testing.T) {
	tests := []struct {
		name   string
		roles  []string
		want   string
		wantOk bool
	}{
		{name: "empty set", roles: nil},
		{name: "no recognized role", roles: []string{"JANITOR", "lowercase_admin"}},
		{name: "single student", roles: []string{RoleStudent}, want: RoleStudent, wantOk: true},
		{name: "single instructor", roles: []string{RoleInstructor}, want: RoleInstructor, wantOk: true},
		{name: "single admin", roles: []string{RoleAdmin}, want: RoleAdmin, wantOk: true},
		{name: "admin first", roles: []string{RoleAdmin, RoleStudent}, want: RoleAdmin, wantOk: true},
		{name: "admin last", roles: []string{RoleStudent, RoleInstructor, RoleAdmin}, want: RoleAdmin, wantOk: true},
		{name: "admin among unknowns", roles: []string{"X", RoleAdmin, "Y"}, want: RoleAdmin, wantOk: true},
		{name: "instructor beats student", roles: []string{RoleStudent, RoleInstructor}, want: RoleInstructor, wantOk: true},
		{name: "unknowns ignored", roles: []string{"X", RoleStudent}, want: RoleStudent, wantOk: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := HighestRole(tt.roles)
			if got != tt.want || ok != tt.wantOk {
				t.Errorf("HighestRole() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestIdentityHasRole(t *testing.T) {
	id := Identity{Subject: "jdoe", Roles: []string{RoleInstructor, RoleStudent}, Highest: RoleInstructor}
	if !id.HasRole(RoleStudent) {
		t.Error("HasRole(STUDENT) = false, want true")
	}
	if id.HasRole(RoleAdmin) {
		t.Error("HasRole(ADMIN) = true, want false")
	}
	if !id.IsInstructor() || id.IsAdmin() || id.IsStudent() {
		t.Error("highest-role helpers disagree with Highest")
	}
}
