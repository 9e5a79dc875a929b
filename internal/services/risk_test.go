package services

import (
	"math"
	"testing"
)

func TestFinalScoreFormula(t *testing.T) {
	cases := []struct {
		visual, survey, want float64
	}{
		{50, 50, 50},
		{80, 10, 66},
		{0, 100, 20},
		{100, 0, 80},
	}
	for _, c := range cases {
		if got := FinalScore(c.visual, c.survey); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("FinalScore(%v,%v)=%v, want %v", c.visual, c.survey, got, c.want)
		}
	}
}

func TestVisualOverrideForcesHigh(t *testing.T) {
	p := DefaultRiskPolicy()
	// Visual=80, Survey=10: FinalScore=66, below the HIGH cutoff, but the
	// override must win.
	if got := p.Tier(80, 10); got != RiskHigh {
		t.Fatalf("visual 80 must force HIGH, got %s", got)
	}
	// At exactly the threshold the override does not trigger.
	if got := p.Tier(70, 0); got != RiskModerate {
		t.Fatalf("visual 70 survey 0 should be MODERATE (final 56), got %s", got)
	}
	if got := p.Tier(71, 0); got != RiskHigh {
		t.Fatalf("visual 71 must force HIGH, got %s", got)
	}
}

func TestTierThresholds(t *testing.T) {
	p := DefaultRiskPolicy()
	cases := []struct {
		visual, survey float64
		want           RiskLevel
	}{
		{10, 10, RiskLow},      // final 10
		{50, 50, RiskModerate}, // final 50
		{40, 39, RiskLow},      // final 39.8
		{65, 100, RiskHigh},    // final 72
	}
	for _, c := range cases {
		if got := p.Tier(c.visual, c.survey); got != c.want {
			t.Fatalf("Tier(%v,%v)=%s, want %s", c.visual, c.survey, got, c.want)
		}
	}
}

func TestSurveyScoreNormalization(t *testing.T) {
	best := SurveyAnswers{SleepQuality: 5, EnergyLevel: 10, FocusLevel: 10, MotivationLevel: 10, FeelingSafe: 10}
	if got := SurveyScore(best); got != 0 {
		t.Fatalf("best-case answers should score 0, got %v", got)
	}
	worst := SurveyAnswers{SleepQuality: 1, EnergyLevel: 0, FocusLevel: 0, MotivationLevel: 0, FeelingSafe: 0}
	if got := SurveyScore(worst); got != 100 {
		t.Fatalf("worst-case answers should score 100, got %v", got)
	}
	mid := SurveyAnswers{SleepQuality: 3, EnergyLevel: 5, FocusLevel: 5, MotivationLevel: 5, FeelingSafe: 5}
	if got := SurveyScore(mid); got != 50 {
		t.Fatalf("mid answers should score 50, got %v", got)
	}
}

func TestApplyReDerivesTier(t *testing.T) {
	p := DefaultRiskPolicy()
	survey := SurveyAnswers{SleepQuality: 5, EnergyLevel: 10, FocusLevel: 10, MotivationLevel: 10, FeelingSafe: 10}

	// Model claimed LOW at visual 90: the override must correct it to HIGH.
	res := p.Apply(AnalysisResult{FatigueLevel: 90, RiskLevel: RiskLow}, survey)
	if res.RiskLevel != RiskHigh {
		t.Fatalf("expected override to HIGH, got %s", res.RiskLevel)
	}

	// INVALID passes through untouched.
	inv := p.Apply(AnalysisResult{FatigueLevel: 0, RiskLevel: RiskInvalid, Explanation: "x"}, survey)
	if inv.RiskLevel != RiskInvalid || inv.Explanation != "x" {
		t.Fatalf("INVALID must pass through, got %+v", inv)
	}
}

func TestRiskPolicyValidate(t *testing.T) {
	if err := DefaultRiskPolicy().Validate(); err != nil {
		t.Fatalf("default policy must validate: %v", err)
	}
	bad := RiskPolicy{ModerateAt: 70, HighAt: 40, VisualOverride: 70}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for non-monotonic thresholds")
	}
	if err := (RiskPolicy{ModerateAt: 10, HighAt: 20, VisualOverride: 150}).Validate(); err == nil {
		t.Fatalf("expected error for out-of-range override")
	}
}
