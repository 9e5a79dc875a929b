//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func baseURL() string {
	if v := os.Getenv("VIGIL_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

// Exercises the auth and workflow surface of a running server. The analysis
// gateway is not assumed reachable: the flow stops before a gateway call.
func TestCheckInJourneyIntegration(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	base := baseURL()

	email := fmt.Sprintf("integration_%d@example.com", time.Now().UnixNano())
	password := "Secret123!"

	var registerResp struct {
		Token   string `json:"token"`
		Session struct {
			UserID string `json:"user_id"`
			Role   string `json:"role"`
		} `json:"session"`
	}
	doPost(t, client, base+"/api/auth/register", "", map[string]any{
		"name":     "Integration Tech",
		"email":    email,
		"password": password,
		"role":     "TECHNICIAN",
	}, &registerResp)
	if registerResp.Token == "" || registerResp.Session.UserID == "" {
		t.Fatalf("unexpected register response: %+v", registerResp)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	doPost(t, client, base+"/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &loginResp)
	token := loginResp.Token
	if token == "" {
		t.Fatalf("login did not return token")
	}

	var sessResp struct {
		Session *struct {
			Email string `json:"email"`
		} `json:"session"`
	}
	doGet(t, client, base+"/api/auth/session", token, &sessResp)
	if sessResp.Session == nil || sessResp.Session.Email != email {
		t.Fatalf("unexpected session: %+v", sessResp)
	}

	var startResp struct {
		State string `json:"state"`
	}
	doPost(t, client, base+"/api/checkins/start", token, map[string]string{"type": "START_SHIFT"}, &startResp)
	if startResp.State != "CAPTURING_IMAGE" {
		t.Fatalf("unexpected workflow state after start: %+v", startResp)
	}

	var stateResp struct {
		State string `json:"state"`
	}
	doGet(t, client, base+"/api/checkins/state", token, &stateResp)
	if stateResp.State != "CAPTURING_IMAGE" {
		t.Fatalf("unexpected state: %+v", stateResp)
	}

	var cancelResp struct {
		State string `json:"state"`
	}
	doPost(t, client, base+"/api/checkins/cancel", token, nil, &cancelResp)
	if cancelResp.State != "IDLE" {
		t.Fatalf("unexpected state after cancel: %+v", cancelResp)
	}

	var histResp struct {
		CheckIns []json.RawMessage `json:"checkins"`
	}
	doGet(t, client, base+"/api/checkins", token, &histResp)
	if len(histResp.CheckIns) != 0 {
		t.Fatalf("cancelled attempt must not appear in history: %d records", len(histResp.CheckIns))
	}
}

func doPost(t *testing.T, client *http.Client, url, token string, body any, out any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body for %s: %v", url, err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		t.Fatalf("new request %s: %v", url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	doRequest(t, client, req, out)
}

func doGet(t *testing.T, client *http.Client, url, token string, out any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request %s: %v", url, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	doRequest(t, client, req, out)
}

func doRequest(t *testing.T, client *http.Client, req *http.Request, out any) {
	t.Helper()
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode >= 300 {
		t.Fatalf("%s %s: status %d: %s", req.Method, req.URL, resp.StatusCode, string(data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("decode response from %s: %v (%s)", req.URL, err, string(data))
		}
	}
}
