package services

import "testing"

type userStubStore struct {
	users    map[string]*User
	checkins map[string]int // userID -> record count, emptied on cascade
}

func newUserStubStore() *userStubStore {
	return &userStubStore{users: map[string]*User{}, checkins: map[string]int{}}
}

func (s *userStubStore) GetUser(id string) (*User, error) {
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *userStubStore) ListUsers() ([]*User, error) {
	out := []*User{}
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (s *userStubStore) DeleteUser(id string) (bool, error) {
	if _, ok := s.users[id]; !ok {
		return false, nil
	}
	delete(s.users, id)
	delete(s.checkins, id)
	return true, nil
}

func TestUserDirectoryDelete(t *testing.T) {
	store := newUserStubStore()
	store.users["u1"] = &User{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: RoleTechnician}
	store.checkins["u1"] = 3
	svc := NewUserDirectoryService(store)

	if err := svc.Delete("u1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok := store.users["u1"]; ok {
		t.Fatalf("user must be removed")
	}
	if _, ok := store.checkins["u1"]; ok {
		t.Fatalf("delete must cascade to the user's check-ins")
	}

	err := svc.Delete("u1")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("expected not_found for missing user, got %v", err)
	}
	if err := svc.Delete(""); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestUserDirectoryGet(t *testing.T) {
	store := newUserStubStore()
	store.users["u1"] = &User{ID: "u1", Name: "Ana"}
	svc := NewUserDirectoryService(store)

	u, err := svc.Get("u1")
	if err != nil || u.Name != "Ana" {
		t.Fatalf("Get: %+v, %v", u, err)
	}
	if _, err := svc.Get("nope"); err == nil {
		t.Fatalf("expected not_found")
	}
}
