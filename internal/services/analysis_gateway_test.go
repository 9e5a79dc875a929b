package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/crewvitals/vigil/internal/utils"
)

type stubHTTPClient struct {
	status  int
	body    string
	err     error
	lastReq *http.Request
}

func (c *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.lastReq = req
	if c.err != nil {
		return nil, c.err
	}
	return &http.Response{
		StatusCode: c.status,
		Body:       io.NopCloser(strings.NewReader(c.body)),
		Header:     http.Header{},
	}, nil
}

func chatCompletion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(b)
}

func TestValidateFaceSuccess(t *testing.T) {
	client := &stubHTTPClient{status: 200, body: chatCompletion(`{"is_valid": true, "message": ""}`)}
	gw := NewAnalysisGateway(GatewayConfig{Endpoint: "https://model.example", APIKey: "k"}, client)

	fv := gw.ValidateFace(context.Background(), "aW1n", "en")
	if !fv.IsValid {
		t.Fatalf("expected valid face, got %+v", fv)
	}
	if client.lastReq.URL.String() != "https://model.example/v1/chat/completions" {
		t.Fatalf("unexpected endpoint %s", client.lastReq.URL)
	}
	if got := client.lastReq.Header.Get("Authorization"); got != "Bearer k" {
		t.Fatalf("unexpected auth header %q", got)
	}
}

func TestValidateFaceRejection(t *testing.T) {
	client := &stubHTTPClient{status: 200, body: chatCompletion(`{"is_valid": false, "message": "no face visible"}`)}
	gw := NewAnalysisGateway(GatewayConfig{}, client)

	fv := gw.ValidateFace(context.Background(), "aW1n", "en")
	if fv.IsValid || fv.Message != "no face visible" {
		t.Fatalf("expected rejection with message, got %+v", fv)
	}
}

func TestValidateFaceFailClosed(t *testing.T) {
	cases := []struct {
		name   string
		client *stubHTTPClient
	}{
		{"transport error", &stubHTTPClient{err: errors.New("dial timeout")}},
		{"server error", &stubHTTPClient{status: 500, body: "boom"}},
		{"schema mismatch", &stubHTTPClient{status: 200, body: chatCompletion(`{"valid": "yes"}`)}},
		{"not json", &stubHTTPClient{status: 200, body: chatCompletion(`I think it looks fine`)}},
	}
	for _, c := range cases {
		gw := NewAnalysisGateway(GatewayConfig{}, c.client)
		fv := gw.ValidateFace(context.Background(), "aW1n", "es")
		if fv.IsValid {
			t.Fatalf("%s: gateway failure must fail closed", c.name)
		}
		if fv.Message != utils.T("es", "face.connection_error") {
			t.Fatalf("%s: expected localized connection error, got %q", c.name, fv.Message)
		}
	}
}

func TestAnalyzeFatigueSuccess(t *testing.T) {
	body := chatCompletion(`{"fatigue_level": 42, "risk_level": "MODERATE", "explanation": "visible tiredness", "recommendation": "take a break"}`)
	client := &stubHTTPClient{status: 200, body: body}
	gw := NewAnalysisGateway(GatewayConfig{}, client)

	res := gw.AnalyzeFatigue(context.Background(), "aW1n", okSurvey(), "en")
	if res.FatigueLevel != 42 || res.RiskLevel != RiskModerate {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Explanation == "" || res.Recommendation == "" {
		t.Fatalf("explanation and recommendation are required: %+v", res)
	}
}

func TestAnalyzeFatigueFailClosed(t *testing.T) {
	cases := []struct {
		name   string
		client *stubHTTPClient
	}{
		{"transport error", &stubHTTPClient{err: errors.New("connection refused")}},
		{"auth failure", &stubHTTPClient{status: 401, body: `{"error": "bad key"}`}},
		{"empty choices", &stubHTTPClient{status: 200, body: `{"choices": []}`}},
		{"out of range", &stubHTTPClient{status: 200, body: chatCompletion(`{"fatigue_level": 180, "risk_level": "HIGH", "explanation": "x", "recommendation": "y"}`)}},
		{"unknown tier", &stubHTTPClient{status: 200, body: chatCompletion(`{"fatigue_level": 10, "risk_level": "SEVERE", "explanation": "x", "recommendation": "y"}`)}},
		{"extra fields", &stubHTTPClient{status: 200, body: chatCompletion(`{"fatigue_level": 10, "risk_level": "LOW", "explanation": "x", "recommendation": "y", "mood": "fine"}`)}},
	}
	for _, c := range cases {
		gw := NewAnalysisGateway(GatewayConfig{}, c.client)
		res := gw.AnalyzeFatigue(context.Background(), "aW1n", okSurvey(), "pt")
		if res.RiskLevel != RiskInvalid || res.FatigueLevel != 0 {
			t.Fatalf("%s: expected INVALID fallback, got %+v", c.name, res)
		}
		if res.Explanation != utils.T("pt", "analysis.connection_error") {
			t.Fatalf("%s: expected localized explanation, got %q", c.name, res.Explanation)
		}
		if res.Recommendation != utils.T("pt", "analysis.retry") {
			t.Fatalf("%s: expected localized retry text, got %q", c.name, res.Recommendation)
		}
	}
}
