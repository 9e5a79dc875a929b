package api

// Store is the persistence boundary shared by the in-memory snapshot store
// and the sqlite store. Three collections: users, check-in records and the
// current session.
type Store interface {
	AddUser(u *User)
	FindUserByEmail(email string) *User // case-insensitive
	GetUser(id string) *User
	ListUsers() []*User
	// DeleteUser removes the user together with all of its check-in records;
	// reports whether the user existed.
	DeleteUser(id string) bool

	// AddCheckIn inserts at the head of the log; existing records are never
	// mutated.
	AddCheckIn(r *CheckInRecord)
	ListCheckInsByUser(userID string) []*CheckInRecord
	ListCheckIns() []*CheckInRecord

	SaveSession(s *Session)
	GetSession() *Session
	ClearSession()
}

var _ Store = (*memoryStore)(nil)
