package api

import "github.com/crewvitals/vigil/internal/services"

type userStoreAdapter struct {
	store Store
}

func newUserStoreAdapter(store Store) services.UserStore {
	return &userStoreAdapter{store: store}
}

func (a *userStoreAdapter) GetUser(id string) (*services.User, error) {
	return userToService(a.store.GetUser(id)), nil
}

func (a *userStoreAdapter) ListUsers() ([]*services.User, error) {
	users := a.store.ListUsers()
	out := make([]*services.User, 0, len(users))
	for _, u := range users {
		out = append(out, userToService(u))
	}
	return out, nil
}

func (a *userStoreAdapter) DeleteUser(id string) (bool, error) {
	return a.store.DeleteUser(id), nil
}

var _ services.UserStore = (*userStoreAdapter)(nil)
