package services

import (
	"strings"
	"testing"
	"time"
)

type authStubStore struct {
	users   []*User
	session *Session
}

func newAuthStubStore() *authStubStore {
	return &authStubStore{}
}

func (s *authStubStore) FindUserByEmail(email string) (*User, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *authStubStore) AddUser(u *User) error {
	cp := *u
	s.users = append(s.users, &cp)
	return nil
}

func (s *authStubStore) SaveSession(sess *Session) error {
	cp := *sess
	s.session = &cp
	return nil
}

func (s *authStubStore) GetSession() (*Session, error) {
	if s.session == nil {
		return nil, nil
	}
	cp := *s.session
	return &cp, nil
}

func (s *authStubStore) ClearSession() error {
	s.session = nil
	return nil
}

func stubSigner(uid, email string, role Role, ttl time.Duration) (string, error) {
	return "token:" + uid, nil
}

func TestAuthRegisterAndLogin(t *testing.T) {
	store := newAuthStubStore()
	svc := NewAuthService(store, stubSigner)
	svc.now = func() time.Time { return time.Unix(0, 0).UTC() }

	res, err := svc.Register(RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "Secret123", Role: RoleTechnician})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.Session == nil || res.Session.UserID == "" {
		t.Fatalf("expected session in result: %+v", res)
	}
	if res.Token != "token:"+res.Session.UserID {
		t.Fatalf("unexpected token %q", res.Token)
	}
	if store.session == nil || store.session.UserID != res.Session.UserID {
		t.Fatalf("register must establish the session (auto-login)")
	}

	loginRes, err := svc.Login("ana@example.com", "Secret123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if loginRes.Token == "" {
		t.Fatalf("expected token in login response")
	}
	if _, err := svc.Login("missing@example.com", "Secret123"); err == nil {
		t.Fatalf("expected error for missing user")
	}
}

func TestAuthDuplicateEmailIsCaseInsensitive(t *testing.T) {
	store := newAuthStubStore()
	svc := NewAuthService(store, stubSigner)

	if _, err := svc.Register(RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "Secret123"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	_, err := svc.Register(RegisterRequest{Name: "Other", Email: "ANA@Example.COM", Password: "Secret123"})
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorConflict {
		t.Fatalf("expected conflict error on duplicate registration, got %v", err)
	}
	if len(store.users) != 1 {
		t.Fatalf("failed registration must not alter the user collection, have %d users", len(store.users))
	}
}

func TestAuthWrongPasswordKeepsSession(t *testing.T) {
	store := newAuthStubStore()
	svc := NewAuthService(store, stubSigner)

	if _, err := svc.Register(RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "Secret123"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	before, _ := svc.CurrentSession()

	_, err := svc.Login("ana@example.com", "wrong")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	after, _ := svc.CurrentSession()
	if before == nil || after == nil || before.UserID != after.UserID {
		t.Fatalf("failed login must not change the current session: before=%+v after=%+v", before, after)
	}
}

func TestAuthLogoutAndRestore(t *testing.T) {
	store := newAuthStubStore()
	svc := NewAuthService(store, stubSigner)

	res, err := svc.Register(RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "Secret123"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	// A fresh service over the same store sees the persisted session.
	restored := NewAuthService(store, stubSigner)
	sess, err := restored.CurrentSession()
	if err != nil || sess == nil || sess.UserID != res.Session.UserID {
		t.Fatalf("expected session to survive service restart, got %+v (%v)", sess, err)
	}

	if err := restored.Logout(); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	sess, _ = restored.CurrentSession()
	if sess != nil {
		t.Fatalf("expected no session after logout, got %+v", sess)
	}
}

func TestAuthValidation(t *testing.T) {
	svc := NewAuthService(newAuthStubStore(), stubSigner)
	if _, err := svc.Register(RegisterRequest{}); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := svc.Register(RegisterRequest{Name: "A", Email: "a@b.c", Password: "x", Role: "MANAGER"}); err == nil {
		t.Fatalf("expected error for unknown role")
	}
	if _, err := svc.Login("", ""); err == nil {
		t.Fatalf("expected validation error on login")
	}
}
