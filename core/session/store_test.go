package session

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type memStorage struct {
	raw     string
	set     bool
	loadErr error
}

func (s *memStorage) Load() (string, bool, error) { return s.raw, s.set, s.loadErr }
func (s *memStorage) Save(raw string) error       { s.raw, s.set = raw, true; return nil }
func (s *memStorage) Clear() error                { s.raw, s.set = "", false; return nil }

func TestStoreRestore(t *testing.T) {
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name       string
		storage    *memStorage
		wantAuthed bool
		wantID     Identity
	}{
		{name: "no token", storage: &memStorage{}},
		{name: "storage error", storage: &memStorage{loadErr: errors.New("disk on fire")}},
		{name: "malformed token", storage: &memStorage{raw: "lol.not.a-jwt", set: true}},
		{name: "expired token", storage: &memStorage{raw: MakeTestToken("jdoe", "STUDENT", past), set: true}},
		{
			name:       "valid token",
			storage:    &memStorage{raw: MakeTestToken("jdoe", "INSTRUCTOR STUDENT", future), set: true},
			wantAuthed: true,
			wantID:     Identity{Subject: "jdoe", Roles: []string{"INSTRUCTOR", "STUDENT"}, Highest: RoleInstructor},
		},
		{
			name:       "admin wins regardless of scope order",
			storage:    &memStorage{raw: MakeTestToken("root", "STUDENT ADMIN", future), set: true},
			wantAuthed: true,
			wantID:     Identity{Subject: "root", Roles: []string{"STUDENT", "ADMIN"}, Highest: RoleAdmin},
		},
		{
			name:       "unrecognized scope still authenticates",
			storage:    &memStorage{raw: MakeTestToken("ghost", "JANITOR", future), set: true},
			wantAuthed: true,
			wantID:     Identity{Subject: "ghost", Roles: []string{"JANITOR"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(tt.storage)
			s.Restore()

			id, authed := s.Identity()
			assert.Equal(t, tt.wantAuthed, authed)
			assert.Equal(t, tt.wantID, id)
			if !tt.wantAuthed {
				assert.Empty(t, s.Token())
			}
		})
	}
}

func TestStoreLoginLogout(t *testing.T) {
	storage := &memStorage{}
	s := NewStore(storage)

	var events []bool
	s.Subscribe(func(_ Identity, authed bool) { events = append(events, authed) })

	token := MakeTestToken("jdoe", "ADMIN", time.Now().Add(time.Hour))
	if err := s.Login(token); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	assert.True(t, s.Authenticated())
	assert.Equal(t, token, s.Token())
	assert.True(t, storage.set, "login must persist the raw token")

	// the persisted token survives a fresh store's Restore
	s2 := NewStore(storage)
	s2.Restore()
	id, authed := s2.Identity()
	assert.True(t, authed)
	assert.Equal(t, "jdoe", id.Subject)

	s.Logout()
	assert.False(t, s.Authenticated())
	assert.False(t, storage.set, "logout must clear the persisted token")

	assert.Equal(t, []bool{true, false}, events)
}

func TestStoreLoginRejectsBadToken(t *testing.T) {
	storage := &memStorage{}
	s := NewStore(storage)

	err := s.Login("garbage")
	assert.Equal(t, ErrInvalidToken, errors.Cause(err))
	assert.False(t, s.Authenticated())
	assert.False(t, storage.set, "a rejected login must not persist anything")
}

func TestStoreLoginRejectsMissingSubject(t *testing.T) {
	s := NewStore(&memStorage{})
	err := s.Login(MakeTestToken("", "ADMIN", time.Now().Add(time.Hour)))
	assert.Error(t, err)
	assert.False(t, s.Authenticated())
}
