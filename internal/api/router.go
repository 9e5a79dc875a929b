package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/crewvitals/vigil/internal/middleware"
	"github.com/crewvitals/vigil/internal/services"
)

type Router struct {
	store    Store
	auth     *services.AuthService
	users    *services.UserDirectoryService
	checkins *services.CheckInService
}

// NewRouter wires the services over the given store. The analyzer is injected
// so tests can stub the external model.
func NewRouter(store Store, analyzer services.Analyzer, policy services.RiskPolicy) *Router {
	signer := func(uid, email string, role services.Role, ttl time.Duration) (string, error) {
		return middleware.SignToken(uid, email, string(role), ttl)
	}
	return &Router{
		store:    store,
		auth:     services.NewAuthService(newAuthStoreAdapter(store), signer),
		users:    services.NewUserDirectoryService(newUserStoreAdapter(store)),
		checkins: services.NewCheckInService(newCheckInStoreAdapter(store), analyzer, policy),
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleRegister) // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)       // POST
	mux.Handle("/api/auth/logout", middleware.RequireAuth(http.HandlerFunc(rt.handleLogout)))
	mux.HandleFunc("/api/auth/session", rt.handleSession) // GET

	mux.Handle("/api/users", middleware.RequireRole(http.HandlerFunc(rt.handleUsers),
		string(services.RoleSupervisor), string(services.RoleAdmin)))
	mux.Handle("/api/users/", middleware.RequireRole(http.HandlerFunc(rt.handleUserScoped),
		string(services.RoleAdmin)))

	mux.Handle("/api/checkins", middleware.RequireAuth(http.HandlerFunc(rt.handleCheckIns)))
	mux.Handle("/api/checkins/start", middleware.RequireAuth(http.HandlerFunc(rt.handleStart)))
	mux.Handle("/api/checkins/image", middleware.RequireAuth(http.HandlerFunc(rt.handleImage)))
	mux.Handle("/api/checkins/survey", middleware.RequireAuth(http.HandlerFunc(rt.handleSurvey)))
	mux.Handle("/api/checkins/retake", middleware.RequireAuth(http.HandlerFunc(rt.handleRetake)))
	mux.Handle("/api/checkins/cancel", middleware.RequireAuth(http.HandlerFunc(rt.handleCancel)))
	mux.Handle("/api/checkins/finish", middleware.RequireAuth(http.HandlerFunc(rt.handleFinish)))
	mux.Handle("/api/checkins/state", middleware.RequireAuth(http.HandlerFunc(rt.handleWorkflowState)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeServiceError(w http.ResponseWriter, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	status := http.StatusInternalServerError
	switch se.Code {
	case services.ErrorInvalid:
		status = http.StatusBadRequest
	case services.ErrorUnauthorized:
		status = http.StatusUnauthorized
	case services.ErrorForbidden:
		status = http.StatusForbidden
	case services.ErrorNotFound:
		status = http.StatusNotFound
	case services.ErrorConflict:
		status = http.StatusConflict
	case services.ErrorBadGateway:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{"error": se.Message, "code": string(se.Code)})
}

func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Name         string `json:"name"`
		Email        string `json:"email"`
		Password     string `json:"password"`
		Role         string `json:"role"`
		BusinessUnit string `json:"business_unit"`
		Segment      string `json:"segment"`
		AvatarURL    string `json:"avatar_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Register(services.RegisterRequest{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         services.Role(req.Role),
		BusinessUnit: req.BusinessUnit,
		Segment:      req.Segment,
		AvatarURL:    req.AvatarURL,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "session": res.Session})
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "session": res.Session})
}

func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := rt.auth.Logout(); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (rt *Router) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, err := rt.auth.CurrentSession()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": sess})
}

func (rt *Router) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	users, err := rt.users.List()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// DELETE /api/users/{id} — removes the user and all of its check-ins.
func (rt *Router) handleUserScoped(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/users/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := rt.users.Delete(id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// GET /api/checkins — own history; ?all=1 returns everyone's for
// supervisors and admins.
func (rt *Router) handleCheckIns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	uid, _ := middleware.UserIDFromContext(r.Context())
	if r.URL.Query().Get("all") == "1" {
		role, _ := middleware.RoleFromContext(r.Context())
		if role != string(services.RoleSupervisor) && role != string(services.RoleAdmin) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		records, err := rt.checkins.AllHistory()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"checkins": records})
		return
	}
	records, err := rt.checkins.History(uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"checkins": records})
}

func (rt *Router) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	uid, _ := middleware.UserIDFromContext(r.Context())
	var req struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	lang := middleware.LocaleFromContext(r.Context())
	wf, err := rt.checkins.Start(uid, services.CheckInType(req.Type), lang)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": wf.State()})
}

func (rt *Router) handleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	uid, _ := middleware.UserIDFromContext(r.Context())
	var req struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	wf, err := rt.checkins.Active(uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	fv, err := wf.SubmitImage(r.Context(), req.Image)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": wf.State(), "is_valid": fv.IsValid, "message": fv.Message})
}

func (rt *Router) handleSurvey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	uid, _ := middleware.UserIDFromContext(r.Context())
	var req struct {
		Survey   services.SurveyAnswers `json:"survey"`
		Location *services.Geolocation  `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	wf, err := rt.checkins.Active(uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := wf.SubmitSurvey(r.Context(), req.Survey, req.Location)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := map[string]any{"state": wf.State(), "analysis": res}
	if rec := wf.Record(); rec != nil {
		resp["record"] = rec
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) handleRetake(w http.ResponseWriter, r *http.Request) {
	rt.handleWorkflowAction(w, r, func(wf *services.Workflow) error { return wf.Retake() })
}

func (rt *Router) handleCancel(w http.ResponseWriter, r *http.Request) {
	rt.handleWorkflowAction(w, r, func(wf *services.Workflow) error { return wf.Cancel() })
}

func (rt *Router) handleFinish(w http.ResponseWriter, r *http.Request) {
	rt.handleWorkflowAction(w, r, func(wf *services.Workflow) error { return wf.Finish() })
}

func (rt *Router) handleWorkflowAction(w http.ResponseWriter, r *http.Request, action func(*services.Workflow) error) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	uid, _ := middleware.UserIDFromContext(r.Context())
	wf, err := rt.checkins.Active(uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := action(wf); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": wf.State()})
}

func (rt *Router) handleWorkflowState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	uid, _ := middleware.UserIDFromContext(r.Context())
	wf, err := rt.checkins.Active(uid)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"state": services.StateIdle})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": wf.State(), "face_message": wf.FaceMessage()})
}
