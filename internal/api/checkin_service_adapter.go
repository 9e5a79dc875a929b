package api

import "github.com/crewvitals/vigil/internal/services"

type checkInStoreAdapter struct {
	store Store
}

func newCheckInStoreAdapter(store Store) services.CheckInStore {
	return &checkInStoreAdapter{store: store}
}

func (a *checkInStoreAdapter) AddCheckIn(r *services.CheckInRecord) error {
	if r == nil {
		return services.NewInvalidError("record required")
	}
	a.store.AddCheckIn(checkInFromService(r))
	return nil
}

func (a *checkInStoreAdapter) ListCheckInsByUser(userID string) ([]*services.CheckInRecord, error) {
	return checkInsToService(a.store.ListCheckInsByUser(userID)), nil
}

func (a *checkInStoreAdapter) ListCheckIns() ([]*services.CheckInRecord, error) {
	return checkInsToService(a.store.ListCheckIns()), nil
}

var _ services.CheckInStore = (*checkInStoreAdapter)(nil)
