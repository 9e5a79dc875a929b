package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/crewvitals/vigil/internal/api"
)

// SQLiteStore is the durable implementation of api.Store. Unlike the snapshot
// store, mutations run inside real transactions, so the cascade delete and
// read-modify-write cycles hold up under concurrent callers.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		log.Printf("sqlite store: %s: %v", prefix, err)
	}
}

func toNullString(v string) sql.NullString {
	if strings.TrimSpace(v) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func fromNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

func (s *SQLiteStore) AddUser(u *api.User) {
	if u == nil {
		return
	}
	_, err := s.db.Exec(
		`INSERT INTO users (id, name, email, pass_hash, role, business_unit, segment, avatar_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PassHash, u.Role,
		toNullString(u.BusinessUnit), toNullString(u.Segment), toNullString(u.AvatarURL), u.CreatedAt,
	)
	s.logErr("add user", err)
}

const userColumns = `id, name, email, pass_hash, role, business_unit, segment, avatar_url, created_at`

func scanUser(row interface{ Scan(...any) error }) (*api.User, error) {
	var u api.User
	var bu, seg, avatar sql.NullString
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PassHash, &u.Role, &bu, &seg, &avatar, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.BusinessUnit = fromNullString(bu)
	u.Segment = fromNullString(seg)
	u.AvatarURL = fromNullString(avatar)
	return &u, nil
}

func (s *SQLiteStore) FindUserByEmail(email string) *api.User {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE lower(email) = lower(?)`, strings.TrimSpace(email))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		s.logErr("find user by email", err)
		return nil
	}
	return u
}

func (s *SQLiteStore) GetUser(id string) *api.User {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		s.logErr("get user", err)
		return nil
	}
	return u
}

func (s *SQLiteStore) ListUsers() []*api.User {
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY rowid`)
	if err != nil {
		s.logErr("list users", err)
		return nil
	}
	defer func() { _ = rows.Close() }()
	var out []*api.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			s.logErr("scan user", err)
			continue
		}
		out = append(out, u)
	}
	s.logErr("list users rows", rows.Err())
	return out
}

// DeleteUser removes the user, its check-ins and a session pointing at it in
// one transaction.
func (s *SQLiteStore) DeleteUser(id string) bool {
	tx, err := s.db.Begin()
	if err != nil {
		s.logErr("delete user begin", err)
		return false
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`DELETE FROM checkins WHERE user_id = ?`, id); err != nil {
		s.logErr("delete user checkins", err)
		return false
	}
	res, err := tx.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		s.logErr("delete user", err)
		return false
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false
	}
	if _, err := tx.Exec(`DELETE FROM session WHERE json_extract(payload, '$.user_id') = ?`, id); err != nil {
		s.logErr("delete user session", err)
		return false
	}
	if err := tx.Commit(); err != nil {
		s.logErr("delete user commit", err)
		return false
	}
	return true
}

func (s *SQLiteStore) AddCheckIn(r *api.CheckInRecord) {
	if r == nil {
		return
	}
	survey, err := json.Marshal(r.Survey)
	if err != nil {
		s.logErr("encode survey", err)
		return
	}
	var lat, lng sql.NullFloat64
	if r.Location != nil {
		lat = sql.NullFloat64{Float64: r.Location.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: r.Location.Lng, Valid: true}
	}
	_, err = s.db.Exec(
		`INSERT INTO checkins (id, user_id, ts, type, image_ref, survey, fatigue_level, risk_level, explanation, recommendation, lat, lng)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Timestamp, r.Type, toNullString(r.ImageRef), string(survey),
		r.Analysis.FatigueLevel, r.Analysis.RiskLevel, r.Analysis.Explanation, r.Analysis.Recommendation,
		lat, lng,
	)
	s.logErr("add checkin", err)
}

const checkinColumns = `id, user_id, ts, type, image_ref, survey, fatigue_level, risk_level, explanation, recommendation, lat, lng`

func scanCheckIn(row interface{ Scan(...any) error }) (*api.CheckInRecord, error) {
	var r api.CheckInRecord
	var image sql.NullString
	var survey string
	var lat, lng sql.NullFloat64
	if err := row.Scan(&r.ID, &r.UserID, &r.Timestamp, &r.Type, &image, &survey,
		&r.Analysis.FatigueLevel, &r.Analysis.RiskLevel, &r.Analysis.Explanation, &r.Analysis.Recommendation,
		&lat, &lng); err != nil {
		return nil, err
	}
	r.ImageRef = fromNullString(image)
	if err := json.Unmarshal([]byte(survey), &r.Survey); err != nil {
		return nil, fmt.Errorf("decode survey: %w", err)
	}
	if lat.Valid && lng.Valid {
		r.Location = &api.Geolocation{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &r, nil
}

func (s *SQLiteStore) listCheckIns(query string, args ...any) []*api.CheckInRecord {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		s.logErr("list checkins", err)
		return nil
	}
	defer func() { _ = rows.Close() }()
	var out []*api.CheckInRecord
	for rows.Next() {
		r, err := scanCheckIn(rows)
		if err != nil {
			s.logErr("scan checkin", err)
			continue
		}
		out = append(out, r)
	}
	s.logErr("list checkins rows", rows.Err())
	return out
}

// Most-recent-first: insertion order descending matches the head-insert log.
func (s *SQLiteStore) ListCheckInsByUser(userID string) []*api.CheckInRecord {
	return s.listCheckIns(`SELECT `+checkinColumns+` FROM checkins WHERE user_id = ? ORDER BY rowid DESC`, userID)
}

func (s *SQLiteStore) ListCheckIns() []*api.CheckInRecord {
	return s.listCheckIns(`SELECT ` + checkinColumns + ` FROM checkins ORDER BY rowid DESC`)
}

func (s *SQLiteStore) SaveSession(sess *api.Session) {
	if sess == nil {
		s.ClearSession()
		return
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		s.logErr("encode session", err)
		return
	}
	_, err = s.db.Exec(
		`INSERT INTO session (id, payload) VALUES (1, ?)
		 ON CONFLICT (id) DO UPDATE SET payload = excluded.payload`,
		string(payload),
	)
	s.logErr("save session", err)
}

func (s *SQLiteStore) GetSession() *api.Session {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM session WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		s.logErr("get session", err)
		return nil
	}
	var sess api.Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		s.logErr("decode session", err)
		return nil
	}
	return &sess
}

func (s *SQLiteStore) ClearSession() {
	_, err := s.db.Exec(`DELETE FROM session WHERE id = 1`)
	s.logErr("clear session", err)
}

var _ api.Store = (*SQLiteStore)(nil)
