package api

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PassHash     []byte    `json:"pass_hash,omitempty"`
	Role         string    `json:"role"`
	BusinessUnit string    `json:"business_unit,omitempty"`
	Segment      string    `json:"segment,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Session struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	BusinessUnit string    `json:"business_unit,omitempty"`
	Segment      string    `json:"segment,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	LoggedInAt   time.Time `json:"logged_in_at"`
}

type SurveyAnswers struct {
	SleepQuality    int `json:"sleep_quality"`
	EnergyLevel     int `json:"energy_level"`
	FocusLevel      int `json:"focus_level"`
	MotivationLevel int `json:"motivation_level"`
	FeelingSafe     int `json:"feeling_safe"`
}

type AnalysisResult struct {
	FatigueLevel   int    `json:"fatigue_level"`
	RiskLevel      string `json:"risk_level"`
	Explanation    string `json:"explanation"`
	Recommendation string `json:"recommendation"`
}

type Geolocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type CheckInRecord struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"`
	ImageRef  string         `json:"image_ref"`
	Survey    SurveyAnswers  `json:"survey"`
	Analysis  AnalysisResult `json:"analysis"`
	Location  *Geolocation   `json:"location,omitempty"`
}

// snapshot is the on-disk shape: the three collections serialized wholesale.
type snapshot struct {
	Users    []*User          `json:"users"`
	CheckIns []*CheckInRecord `json:"checkins"`
	Session  *Session         `json:"session,omitempty"`
}

// memoryStore keeps all three collections in memory, optionally mirrored to a
// JSON snapshot file rewritten wholesale after every mutation. Mutations are
// atomic within one process; two processes sharing the same snapshot file
// still race last-write-wins, which is why deployments that need concurrent
// writers use the sqlite store instead.
type memoryStore struct {
	mu       sync.RWMutex
	path     string
	users    []*User
	checkins []*CheckInRecord
	session  *Session
}

// NewMemoryStore loads the snapshot at path, or starts empty when path is ""
// or the file is missing. A malformed snapshot is treated as empty with a
// logged warning rather than failing startup.
func NewMemoryStore(path string) *memoryStore {
	s := &memoryStore{path: path}
	if path == "" {
		return s
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("memory store: read snapshot %s: %v", path, err)
		}
		return s
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("memory store: malformed snapshot %s, starting empty: %v", path, err)
		return s
	}
	s.users = snap.Users
	s.checkins = snap.CheckIns
	s.session = snap.Session
	return s
}

// Snapshot returns a copy of all three collections, for one-time migration
// into the sqlite store.
func (s *memoryStore) Snapshot() ([]*User, []*CheckInRecord, *Session) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := append([]*User(nil), s.users...)
	checkins := append([]*CheckInRecord(nil), s.checkins...)
	var sess *Session
	if s.session != nil {
		cp := *s.session
		sess = &cp
	}
	return users, checkins, sess
}

// save rewrites the whole snapshot. Callers hold the write lock. The write
// goes through a temp file and rename so a crash never leaves a truncated
// snapshot behind.
func (s *memoryStore) save() {
	if s.path == "" {
		return
	}
	snap := snapshot{Users: s.users, CheckIns: s.checkins, Session: s.session}
	data, err := json.Marshal(&snap)
	if err != nil {
		log.Printf("memory store: encode snapshot: %v", err)
		return
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		log.Printf("memory store: create snapshot dir: %v", err)
		return
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		log.Printf("memory store: write snapshot: %v", err)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		log.Printf("memory store: replace snapshot: %v", err)
	}
}

func (s *memoryStore) AddUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
	s.save()
}

func (s *memoryStore) FindUserByEmail(email string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if strings.ToLower(u.Email) == needle {
			return u
		}
	}
	return nil
}

func (s *memoryStore) GetUser(id string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *memoryStore) ListUsers() []*User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*User(nil), s.users...)
}

func (s *memoryStore) DeleteUser(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	users := s.users[:0]
	for _, u := range s.users {
		if u.ID == id {
			found = true
			continue
		}
		users = append(users, u)
	}
	if !found {
		return false
	}
	s.users = users
	checkins := s.checkins[:0]
	for _, r := range s.checkins {
		if r.UserID != id {
			checkins = append(checkins, r)
		}
	}
	s.checkins = checkins
	if s.session != nil && s.session.UserID == id {
		s.session = nil
	}
	s.save()
	return true
}

func (s *memoryStore) AddCheckIn(r *CheckInRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkins = append([]*CheckInRecord{r}, s.checkins...)
	s.save()
}

func (s *memoryStore) ListCheckInsByUser(userID string) []*CheckInRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*CheckInRecord{}
	for _, r := range s.checkins {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

func (s *memoryStore) ListCheckIns() []*CheckInRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*CheckInRecord(nil), s.checkins...)
}

func (s *memoryStore) SaveSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
	s.save()
}

func (s *memoryStore) GetSession() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *memoryStore) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	s.save()
}
