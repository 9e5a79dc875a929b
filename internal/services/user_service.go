package services

import "strings"

type UserStore interface {
	GetUser(id string) (*User, error)
	ListUsers() ([]*User, error)
	// DeleteUser removes the user and every check-in record belonging to it
	// as one atomic operation; no partial state is observable afterwards.
	DeleteUser(id string) (bool, error)
}

// UserDirectoryService exposes the supervisor/admin view over registered
// users. Users have no update path; the only mutation is cascade deletion.
type UserDirectoryService struct {
	store UserStore
}

func NewUserDirectoryService(store UserStore) *UserDirectoryService {
	return &UserDirectoryService{store: store}
}

func (s *UserDirectoryService) List() ([]*User, error) {
	return s.store.ListUsers()
}

func (s *UserDirectoryService) Get(id string) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, NewInvalidError("user id required")
	}
	u, err := s.store.GetUser(id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewNotFoundError("user not found")
	}
	return u, nil
}

func (s *UserDirectoryService) Delete(id string) error {
	if strings.TrimSpace(id) == "" {
		return NewInvalidError("user id required")
	}
	ok, err := s.store.DeleteUser(id)
	if err != nil {
		return err
	}
	if !ok {
		return NewNotFoundError("user not found")
	}
	return nil
}
