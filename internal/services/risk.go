package services

const (
	visualWeight = 0.8
	surveyWeight = 0.2
)

// RiskPolicy holds the score cutoffs used to map a final score to a risk
// tier, plus the visual-override threshold above which visual evidence
// forces HIGH regardless of self-report.
type RiskPolicy struct {
	ModerateAt     float64
	HighAt         float64
	VisualOverride float64
}

func DefaultRiskPolicy() RiskPolicy {
	return RiskPolicy{ModerateAt: 40, HighAt: 70, VisualOverride: 70}
}

// Validate checks that the tiers are monotonic and non-overlapping.
func (p RiskPolicy) Validate() error {
	if p.ModerateAt < 0 || p.HighAt > 100 {
		return NewInvalidError("risk thresholds must lie within [0,100]")
	}
	if p.ModerateAt >= p.HighAt {
		return NewInvalidError("moderate threshold must be below high threshold")
	}
	if p.VisualOverride < 0 || p.VisualOverride > 100 {
		return NewInvalidError("visual override threshold must lie within [0,100]")
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SurveyScore normalizes the five answers into a [0,100] fatigue aggregate.
// Lower reported wellbeing yields a higher score.
func SurveyScore(a SurveyAnswers) float64 {
	sleep := float64(5-clampInt(a.SleepQuality, 1, 5)) / 4 * 100
	energy := float64(10-clampInt(a.EnergyLevel, 0, 10)) / 10 * 100
	focus := float64(10-clampInt(a.FocusLevel, 0, 10)) / 10 * 100
	motivation := float64(10-clampInt(a.MotivationLevel, 0, 10)) / 10 * 100
	safe := float64(10-clampInt(a.FeelingSafe, 0, 10)) / 10 * 100
	return (sleep + energy + focus + motivation + safe) / 5
}

// FinalScore = VisualFatigueScore*0.8 + SurveyScore*0.2.
func FinalScore(visual, survey float64) float64 {
	return visual*visualWeight + survey*surveyWeight
}

// Tier maps a visual score and survey score to a risk tier. Visual evidence
// above the override threshold forces HIGH irrespective of the final score.
func (p RiskPolicy) Tier(visual, survey float64) RiskLevel {
	if visual > p.VisualOverride {
		return RiskHigh
	}
	final := FinalScore(visual, survey)
	switch {
	case final >= p.HighAt:
		return RiskHigh
	case final >= p.ModerateAt:
		return RiskModerate
	default:
		return RiskLow
	}
}

// Apply re-derives the tier of a gateway result from its fatigue level and
// the submitted survey, enforcing the override rule locally even when the
// model's claimed tier disagrees. INVALID results pass through untouched.
func (p RiskPolicy) Apply(res AnalysisResult, survey SurveyAnswers) AnalysisResult {
	if res.RiskLevel == RiskInvalid {
		return res
	}
	res.FatigueLevel = clampInt(res.FatigueLevel, 0, 100)
	res.RiskLevel = p.Tier(float64(res.FatigueLevel), SurveyScore(survey))
	return res
}
