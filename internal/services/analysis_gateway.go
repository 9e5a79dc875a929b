package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/crewvitals/vigil/internal/utils"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// FaceValidation is the outcome of the face pre-check. Message carries the
// model's rejection reason (or a localized connection-error text) when the
// photo is not usable.
type FaceValidation struct {
	IsValid bool   `json:"is_valid"`
	Message string `json:"message,omitempty"`
}

type GatewayConfig struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// AnalysisGateway talks to an OpenAI-compatible vision model. Both operations
// absorb every transport, auth and schema failure into a fail-closed result;
// neither ever returns an error to the caller.
type AnalysisGateway struct {
	cfg      GatewayConfig
	client   HTTPClient
	validate *validator.Validate
}

func NewAnalysisGateway(cfg GatewayConfig, client HTTPClient) *AnalysisGateway {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &AnalysisGateway{cfg: cfg, client: client, validate: validator.New()}
}

// ValidateFace asks the model whether the photo shows a single, clearly
// visible, neutral face. Any failure degrades to an invalid verdict with a
// localized connection-error message.
func (g *AnalysisGateway) ValidateFace(ctx context.Context, imageB64, lang string) FaceValidation {
	content, err := g.complete(ctx, faceValidationPrompt(), imageB64, "")
	if err != nil {
		log.Printf("analysis gateway: validate face: %v", err)
		return FaceValidation{IsValid: false, Message: utils.T(lang, "face.connection_error")}
	}
	var payload struct {
		IsValid *bool  `json:"is_valid" validate:"required"`
		Message string `json:"message"`
	}
	if err = decodeStrict(content, &payload); err == nil {
		err = g.validate.Struct(&payload)
	} else {
		log.Printf("analysis gateway: validate face: bad schema: %v", err)
	}
	if err != nil || payload.IsValid == nil {
		return FaceValidation{IsValid: false, Message: utils.T(lang, "face.connection_error")}
	}
	return FaceValidation{IsValid: *payload.IsValid, Message: payload.Message}
}

// AnalyzeFatigue scores visible fatigue in the photo together with the survey
// answers. Failures of any kind yield the INVALID fallback with localized
// connection-error and retry texts.
func (g *AnalysisGateway) AnalyzeFatigue(ctx context.Context, imageB64 string, survey SurveyAnswers, lang string) AnalysisResult {
	surveyJSON, err := json.Marshal(survey)
	if err != nil {
		return fallbackResult(lang)
	}
	content, err := g.complete(ctx, fatigueAnalysisPrompt(lang), imageB64, string(surveyJSON))
	if err != nil {
		log.Printf("analysis gateway: analyze fatigue: %v", err)
		return fallbackResult(lang)
	}
	var payload struct {
		FatigueLevel   *int   `json:"fatigue_level" validate:"required,min=0,max=100"`
		RiskLevel      string `json:"risk_level" validate:"required,oneof=LOW MODERATE HIGH INVALID"`
		Explanation    string `json:"explanation" validate:"required"`
		Recommendation string `json:"recommendation" validate:"required"`
	}
	if err = decodeStrict(content, &payload); err == nil {
		err = g.validate.Struct(&payload)
	} else {
		log.Printf("analysis gateway: analyze fatigue: bad schema: %v", err)
	}
	if err != nil || payload.FatigueLevel == nil {
		return fallbackResult(lang)
	}
	return AnalysisResult{
		FatigueLevel:   *payload.FatigueLevel,
		RiskLevel:      RiskLevel(payload.RiskLevel),
		Explanation:    payload.Explanation,
		Recommendation: payload.Recommendation,
	}
}

func fallbackResult(lang string) AnalysisResult {
	return AnalysisResult{
		FatigueLevel:   0,
		RiskLevel:      RiskInvalid,
		Explanation:    utils.T(lang, "analysis.connection_error"),
		Recommendation: utils.T(lang, "analysis.retry"),
	}
}

// complete sends one vision chat completion and returns the message content.
func (g *AnalysisGateway) complete(ctx context.Context, systemPrompt, imageB64, userText string) (string, error) {
	userContent := []map[string]any{}
	if userText != "" {
		userContent = append(userContent, map[string]any{"type": "text", "text": userText})
	}
	userContent = append(userContent, map[string]any{
		"type":      "image_url",
		"image_url": map[string]string{"url": "data:image/jpeg;base64," + imageB64},
	})
	payload := map[string]any{
		"model":       g.cfg.Model,
		"temperature": 0.2,
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userContent},
		},
		"response_format": map[string]string{"type": "json_object"},
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, normalizeEndpoint(g.cfg.Endpoint), bytes.NewReader(pb))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return "", NewBadGatewayError(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", NewBadGatewayError(fmt.Sprintf("status %d: %s", resp.StatusCode, string(b)))
	}
	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&cc); err != nil {
		return "", NewBadGatewayError(err.Error())
	}
	if len(cc.Choices) == 0 {
		return "", NewBadGatewayError("no choices")
	}
	return cc.Choices[0].Message.Content, nil
}

// decodeStrict parses the model's JSON content rejecting unknown fields.
func decodeStrict(content string, v any) error {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func normalizeEndpoint(base string) string {
	endpoint := strings.TrimRight(strings.TrimSpace(base), "/")
	if endpoint == "" {
		endpoint = "https://api.openai.com"
	}
	switch {
	case strings.HasSuffix(endpoint, "/chat/completions"):
		return endpoint
	case strings.HasSuffix(endpoint, "/v1"):
		return endpoint + "/chat/completions"
	default:
		return endpoint + "/v1/chat/completions"
	}
}

func faceValidationPrompt() string {
	return "You are a photo intake check for a workplace fatigue self-check-in. " +
		"Inspect the attached photo and decide whether it shows exactly one clearly visible human face, " +
		"looking at the camera with a neutral expression. Reject photos where the face is missing, obscured " +
		"(hands, masks, objects), heavily blurred, or showing an acted expression such as a wide open mouth, " +
		"tongue out, or exaggerated grimace. Return ONLY a JSON object: " +
		`{"is_valid": boolean, "message": string}. message briefly states the rejection reason and is empty when valid.`
}

func fatigueAnalysisPrompt(lang string) string {
	return "You are a fatigue assessor for a workplace self-check-in. The user message contains the technician's " +
		"wellbeing survey answers as JSON (sleep_quality 1-5, the rest 0-10, higher is better) and a face photo. " +
		"First, if the facial expression is non-neutral or acted (mouth wide open, tongue out, hands obscuring the face, " +
		"exaggerated expression), return risk_level INVALID regardless of anything else. Otherwise score visible fatigue " +
		"markers (droopy eyelids, dark circles, low muscle tone, glassy eyes) as fatigue_level in [0,100]. " +
		"Combine fatigue_level*0.8 with the survey-derived fatigue (normalized to [0,100])*0.2 to pick risk_level LOW, " +
		"MODERATE or HIGH; fatigue_level above 70 is always HIGH. Return ONLY a JSON object: " +
		`{"fatigue_level": int, "risk_level": "LOW"|"MODERATE"|"HIGH"|"INVALID", "explanation": string, "recommendation": string}. ` +
		"Write explanation and recommendation in the language with code " + strings.TrimSpace(lang) + "."
}
