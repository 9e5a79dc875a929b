package api

import (
	"github.com/crewvitals/vigil/internal/services"
)

type authStoreAdapter struct {
	store Store
}

func newAuthStoreAdapter(store Store) services.AuthStore {
	return &authStoreAdapter{store: store}
}

func (a *authStoreAdapter) FindUserByEmail(email string) (*services.User, error) {
	return userToService(a.store.FindUserByEmail(email)), nil
}

func (a *authStoreAdapter) AddUser(u *services.User) error {
	if u == nil {
		return services.NewInvalidError("user required")
	}
	a.store.AddUser(userFromService(u))
	return nil
}

func (a *authStoreAdapter) SaveSession(s *services.Session) error {
	if s == nil {
		return services.NewInvalidError("session required")
	}
	a.store.SaveSession(sessionFromService(s))
	return nil
}

func (a *authStoreAdapter) GetSession() (*services.Session, error) {
	return sessionToService(a.store.GetSession()), nil
}

func (a *authStoreAdapter) ClearSession() error {
	a.store.ClearSession()
	return nil
}

var _ services.AuthStore = (*authStoreAdapter)(nil)
