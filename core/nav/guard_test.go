package nav

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core/session"
	tokenstore "github.com/trezcool/darasa/storage/token"
)

func newSession(t *testing.T, scope string) *session.Store {
	t.Helper()
	s := session.NewStore(tokenstore.NewInMemStorage())
	if scope != "" {
		token := session.MakeTestToken("jdoe", scope, time.Now().Add(time.Hour))
		if err := s.Login(token); err != nil {
			t.Fatalf("newSession() failed: %v", err)
		}
	}
	return s
}

func TestGuardCheck(t *testing.T) {
	tests := []struct {
		name    string
		scope   string // "" = unauthenticated
		allowed []string
		want    Decision
	}{
		{
			name: "unauthenticated denied without allow-list",
			want: Decision{Redirect: LoginPath},
		},
		{
			name:    "unauthenticated denied regardless of allow-list",
			allowed: []string{session.RoleAdmin, session.RoleInstructor, session.RoleStudent},
			want:    Decision{Redirect: LoginPath},
		},
		{
			name:  "authenticated passes with empty allow-list",
			scope: "STUDENT",
			want:  Decision{Allow: true},
		},
		{
			name:    "highest role in allow-list",
			scope:   "INSTRUCTOR",
			allowed: []string{session.RoleAdmin, session.RoleInstructor},
			want:    Decision{Allow: true},
		},
		{
			name:    "student kept out of the admin portal",
			scope:   "STUDENT",
			allowed: []string{session.RoleAdmin},
			want:    Decision{Redirect: StudentRoot},
		},
		{
			name:    "admin+student is treated as admin",
			scope:   "STUDENT ADMIN",
			allowed: []string{session.RoleAdmin},
			want:    Decision{Allow: true},
		},
		{
			name:    "held-but-not-highest role does not pass",
			scope:   "STUDENT ADMIN",
			allowed: []string{session.RoleStudent},
			want:    Decision{Redirect: AdminRoot},
		},
		{
			name:    "no recognized role redirects to login",
			scope:   "JANITOR",
			allowed: []string{session.RoleAdmin},
			want:    Decision{Redirect: LoginPath},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(newSession(t, tt.scope))
			assert.Equal(t, tt.want, g.Check(tt.allowed...))
		})
	}
}

func TestGuardReflectsSessionTransitions(t *testing.T) {
	s := newSession(t, "ADMIN")
	g := NewGuard(s)

	assert.True(t, g.Check(session.RoleAdmin).Allow)
	s.Logout()
	assert.Equal(t, Decision{Redirect: LoginPath}, g.Check(session.RoleAdmin))
}
