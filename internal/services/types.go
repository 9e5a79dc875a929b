package services

import "time"

type Role string

const (
	RoleTechnician Role = "TECHNICIAN"
	RoleSupervisor Role = "SUPERVISOR"
	RoleAdmin      Role = "ADMIN"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleTechnician, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

type CheckInType string

const (
	CheckInStartShift CheckInType = "START_SHIFT"
	CheckInBreak      CheckInType = "BREAK"
	CheckInEndShift   CheckInType = "END_SHIFT"
)

func ValidCheckInType(t CheckInType) bool {
	switch t {
	case CheckInStartShift, CheckInBreak, CheckInEndShift:
		return true
	}
	return false
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
	RiskInvalid  RiskLevel = "INVALID"
)

// User is a registered identity. Users are immutable after creation; the only
// mutation is deletion, which cascades to the user's check-in records.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PassHash     []byte    `json:"-"`
	Role         Role      `json:"role"`
	BusinessUnit string    `json:"business_unit,omitempty"`
	Segment      string    `json:"segment,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is a credential-stripped projection of a User. At most one session
// is active per store; it survives restarts via the persistent store.
type Session struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	BusinessUnit string    `json:"business_unit,omitempty"`
	Segment      string    `json:"segment,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	LoggedInAt   time.Time `json:"logged_in_at"`
}

// SurveyAnswers are the five self-report wellbeing answers. Immutable once
// submitted; embedded inside a CheckInRecord.
type SurveyAnswers struct {
	SleepQuality    int `json:"sleep_quality" validate:"min=1,max=5"`
	EnergyLevel     int `json:"energy_level" validate:"min=0,max=10"`
	FocusLevel      int `json:"focus_level" validate:"min=0,max=10"`
	MotivationLevel int `json:"motivation_level" validate:"min=0,max=10"`
	FeelingSafe     int `json:"feeling_safe" validate:"min=0,max=10"`
}

// AnalysisResult is the gateway's fatigue assessment. Explanation and
// recommendation are in the language requested at analysis time.
type AnalysisResult struct {
	FatigueLevel   int       `json:"fatigue_level"`
	RiskLevel      RiskLevel `json:"risk_level"`
	Explanation    string    `json:"explanation"`
	Recommendation string    `json:"recommendation"`
}

type Geolocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CheckInRecord is one accepted check-in. A record exists in the store iff its
// analysis risk level is not INVALID; invalid attempts are never persisted.
type CheckInRecord struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      CheckInType    `json:"type"`
	ImageRef  string         `json:"image_ref"`
	Survey    SurveyAnswers  `json:"survey"`
	Analysis  AnalysisResult `json:"analysis"`
	Location  *Geolocation   `json:"location,omitempty"`
}
