package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type AuthStore interface {
	FindUserByEmail(email string) (*User, error)
	AddUser(u *User) error
	SaveSession(s *Session) error
	GetSession() (*Session, error)
	ClearSession() error
}

type TokenSigner func(uid, email string, role Role, ttl time.Duration) (string, error)

type AuthService struct {
	store     AuthStore
	now       func() time.Time
	idGen     func() string
	signToken TokenSigner
	tokenTTL  time.Duration
}

type AuthResult struct {
	Token   string
	Session *Session
}

func NewAuthService(store AuthStore, signer TokenSigner) *AuthService {
	return &AuthService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     func() string { return shortID(12) },
		signToken: signer,
		tokenTTL:  12 * time.Hour,
	}
}

type RegisterRequest struct {
	Name         string
	Email        string
	Password     string
	Role         Role
	BusinessUnit string
	Segment      string
	AvatarURL    string
}

func (s *AuthService) Register(req RegisterRequest) (*AuthResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || strings.TrimSpace(req.Password) == "" {
		return nil, NewInvalidError("name/email/password required")
	}
	if req.Role == "" {
		req.Role = RoleTechnician
	}
	if !ValidRole(req.Role) {
		return nil, NewInvalidError("unknown role")
	}
	existing, err := s.store.FindUserByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("email already exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           s.idGen(),
		Name:         req.Name,
		Email:        req.Email,
		PassHash:     hash,
		Role:         req.Role,
		BusinessUnit: req.BusinessUnit,
		Segment:      req.Segment,
		AvatarURL:    req.AvatarURL,
		CreatedAt:    s.now(),
	}
	if err := s.store.AddUser(u); err != nil {
		return nil, err
	}
	return s.establishSession(u)
}

func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	u, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(u.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	return s.establishSession(u)
}

// Logout clears the persisted session. Logging out without a session is not
// an error.
func (s *AuthService) Logout() error {
	return s.store.ClearSession()
}

// CurrentSession returns the persisted session, or nil when nobody is logged
// in. The session collection is durable, so this also restores identity after
// a process restart.
func (s *AuthService) CurrentSession() (*Session, error) {
	return s.store.GetSession()
}

// establishSession stores a credential-stripped projection of u as the
// current session and signs an API token for it.
func (s *AuthService) establishSession(u *User) (*AuthResult, error) {
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	sess := &Session{
		UserID:       u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		BusinessUnit: u.BusinessUnit,
		Segment:      u.Segment,
		AvatarURL:    u.AvatarURL,
		LoggedInAt:   s.now(),
	}
	if err := s.store.SaveSession(sess); err != nil {
		return nil, err
	}
	token, err := s.signToken(u.ID, u.Email, u.Role, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Session: sess}, nil
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}
