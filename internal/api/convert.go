package api

import "github.com/crewvitals/vigil/internal/services"

func userToService(u *User) *services.User {
	if u == nil {
		return nil
	}
	return &services.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PassHash:     u.PassHash,
		Role:         services.Role(u.Role),
		BusinessUnit: u.BusinessUnit,
		Segment:      u.Segment,
		AvatarURL:    u.AvatarURL,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromService(u *services.User) *User {
	return &User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PassHash:     u.PassHash,
		Role:         string(u.Role),
		BusinessUnit: u.BusinessUnit,
		Segment:      u.Segment,
		AvatarURL:    u.AvatarURL,
		CreatedAt:    u.CreatedAt,
	}
}

func sessionToService(s *Session) *services.Session {
	if s == nil {
		return nil
	}
	return &services.Session{
		UserID:       s.UserID,
		Name:         s.Name,
		Email:        s.Email,
		Role:         services.Role(s.Role),
		BusinessUnit: s.BusinessUnit,
		Segment:      s.Segment,
		AvatarURL:    s.AvatarURL,
		LoggedInAt:   s.LoggedInAt,
	}
}

func sessionFromService(s *services.Session) *Session {
	return &Session{
		UserID:       s.UserID,
		Name:         s.Name,
		Email:        s.Email,
		Role:         string(s.Role),
		BusinessUnit: s.BusinessUnit,
		Segment:      s.Segment,
		AvatarURL:    s.AvatarURL,
		LoggedInAt:   s.LoggedInAt,
	}
}

func checkInToService(r *CheckInRecord) *services.CheckInRecord {
	if r == nil {
		return nil
	}
	rec := &services.CheckInRecord{
		ID:        r.ID,
		UserID:    r.UserID,
		Timestamp: r.Timestamp,
		Type:      services.CheckInType(r.Type),
		ImageRef:  r.ImageRef,
		Survey: services.SurveyAnswers{
			SleepQuality:    r.Survey.SleepQuality,
			EnergyLevel:     r.Survey.EnergyLevel,
			FocusLevel:      r.Survey.FocusLevel,
			MotivationLevel: r.Survey.MotivationLevel,
			FeelingSafe:     r.Survey.FeelingSafe,
		},
		Analysis: services.AnalysisResult{
			FatigueLevel:   r.Analysis.FatigueLevel,
			RiskLevel:      services.RiskLevel(r.Analysis.RiskLevel),
			Explanation:    r.Analysis.Explanation,
			Recommendation: r.Analysis.Recommendation,
		},
	}
	if r.Location != nil {
		rec.Location = &services.Geolocation{Lat: r.Location.Lat, Lng: r.Location.Lng}
	}
	return rec
}

func checkInFromService(r *services.CheckInRecord) *CheckInRecord {
	rec := &CheckInRecord{
		ID:        r.ID,
		UserID:    r.UserID,
		Timestamp: r.Timestamp,
		Type:      string(r.Type),
		ImageRef:  r.ImageRef,
		Survey: SurveyAnswers{
			SleepQuality:    r.Survey.SleepQuality,
			EnergyLevel:     r.Survey.EnergyLevel,
			FocusLevel:      r.Survey.FocusLevel,
			MotivationLevel: r.Survey.MotivationLevel,
			FeelingSafe:     r.Survey.FeelingSafe,
		},
		Analysis: AnalysisResult{
			FatigueLevel:   r.Analysis.FatigueLevel,
			RiskLevel:      string(r.Analysis.RiskLevel),
			Explanation:    r.Analysis.Explanation,
			Recommendation: r.Analysis.Recommendation,
		},
	}
	if r.Location != nil {
		rec.Location = &Geolocation{Lat: r.Location.Lat, Lng: r.Location.Lng}
	}
	return rec
}

func checkInsToService(rs []*CheckInRecord) []*services.CheckInRecord {
	out := make([]*services.CheckInRecord, 0, len(rs))
	for _, r := range rs {
		out = append(out, checkInToService(r))
	}
	return out
}
