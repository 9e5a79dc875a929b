package services

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

type WorkflowState string

const (
	StateIdle               WorkflowState = "IDLE"
	StateCapturingImage     WorkflowState = "CAPTURING_IMAGE"
	StateValidatingFace     WorkflowState = "VALIDATING_FACE"
	StateAwaitingSurvey     WorkflowState = "AWAITING_SURVEY"
	StateSubmittingAnalysis WorkflowState = "SUBMITTING_ANALYSIS"
	StateResultAccepted     WorkflowState = "RESULT_ACCEPTED"
	StateResultRejected     WorkflowState = "RESULT_REJECTED"
)

type CheckInStore interface {
	// AddCheckIn inserts at the head of the log (most-recent-first order).
	AddCheckIn(r *CheckInRecord) error
	ListCheckInsByUser(userID string) ([]*CheckInRecord, error)
	ListCheckIns() ([]*CheckInRecord, error)
}

type Analyzer interface {
	ValidateFace(ctx context.Context, imageB64, lang string) FaceValidation
	AnalyzeFatigue(ctx context.Context, imageB64 string, survey SurveyAnswers, lang string) AnalysisResult
}

// CheckInService owns the per-user check-in workflows. At most one workflow
// is active per user; a new one cannot start while another is in flight.
type CheckInService struct {
	store    CheckInStore
	gateway  Analyzer
	policy   RiskPolicy
	validate *validator.Validate
	now      func() time.Time
	idGen    func() string

	mu     sync.Mutex
	active map[string]*Workflow
}

func NewCheckInService(store CheckInStore, gateway Analyzer, policy RiskPolicy) *CheckInService {
	return &CheckInService{
		store:    store,
		gateway:  gateway,
		policy:   policy,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    func() string { return shortID(0) },
		active:   map[string]*Workflow{},
	}
}

// Workflow is one in-flight check-in attempt. All step methods serialize on
// the workflow mutex; the two gateway calls are the only points where a step
// blocks on the network.
type Workflow struct {
	mu  sync.Mutex
	svc *CheckInService

	userID    string
	checkType CheckInType
	lang      string

	state       WorkflowState
	imageB64    string
	faceMessage string
	rejected    *AnalysisResult
	record      *CheckInRecord
}

// Start opens a workflow for userID. A type already completed today for this
// user is not retriggerable.
func (s *CheckInService) Start(userID string, t CheckInType, lang string) (*Workflow, error) {
	if userID == "" {
		return nil, NewInvalidError("user id required")
	}
	if !ValidCheckInType(t) {
		return nil, NewInvalidError("unknown check-in type")
	}
	done, err := s.completedToday(userID, t)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, NewConflictError("check-in of this type already completed today")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[userID]; ok {
		return nil, NewConflictError("a check-in is already in progress")
	}
	wf := &Workflow{svc: s, userID: userID, checkType: t, lang: lang, state: StateCapturingImage}
	s.active[userID] = wf
	return wf, nil
}

// Active returns the in-flight workflow for userID, if any.
func (s *CheckInService) Active(userID string) (*Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.active[userID]
	if !ok {
		return nil, NewNotFoundError("no check-in in progress")
	}
	return wf, nil
}

// History returns the user's check-ins, most recent first.
func (s *CheckInService) History(userID string) ([]*CheckInRecord, error) {
	return s.store.ListCheckInsByUser(userID)
}

// AllHistory returns every check-in, most recent first (supervisor view).
func (s *CheckInService) AllHistory() ([]*CheckInRecord, error) {
	return s.store.ListCheckIns()
}

func (s *CheckInService) completedToday(userID string, t CheckInType) (bool, error) {
	records, err := s.store.ListCheckInsByUser(userID)
	if err != nil {
		return false, err
	}
	y, m, d := s.now().Date()
	for _, r := range records {
		ry, rm, rd := r.Timestamp.UTC().Date()
		if r.Type == t && ry == y && rm == m && rd == d {
			return true, nil
		}
	}
	return false, nil
}

func (s *CheckInService) release(userID string) {
	s.mu.Lock()
	delete(s.active, userID)
	s.mu.Unlock()
}

func (w *Workflow) State() WorkflowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// FaceMessage returns the last face rejection (or gateway failure) message.
func (w *Workflow) FaceMessage() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.faceMessage
}

// Record returns the persisted record after acceptance, nil otherwise.
func (w *Workflow) Record() *CheckInRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.record
}

// RejectedResult returns the INVALID analysis after rejection, nil otherwise.
func (w *Workflow) RejectedResult() *AnalysisResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rejected
}

// SubmitImage validates the captured photo. On a valid face the workflow
// advances to the survey; otherwise (including gateway failure, fail-closed)
// it returns to image capture with the rejection message surfaced and nothing
// persisted.
func (w *Workflow) SubmitImage(ctx context.Context, imageB64 string) (FaceValidation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateCapturingImage {
		return FaceValidation{}, NewConflictError("no image expected in state " + string(w.state))
	}
	if imageB64 == "" {
		return FaceValidation{}, NewInvalidError("image payload required")
	}
	w.state = StateValidatingFace
	fv := w.svc.gateway.ValidateFace(ctx, imageB64, w.lang)
	if !fv.IsValid {
		w.state = StateCapturingImage
		w.faceMessage = fv.Message
		w.imageB64 = ""
		return fv, nil
	}
	w.state = StateAwaitingSurvey
	w.faceMessage = ""
	w.imageB64 = imageB64
	return fv, nil
}

// SubmitSurvey runs the fatigue analysis over the stored image and the
// answers. An INVALID result rejects the attempt without persisting anything;
// any other tier builds the record, re-derives its risk tier under the local
// policy and appends it to the log.
func (w *Workflow) SubmitSurvey(ctx context.Context, answers SurveyAnswers, loc *Geolocation) (*AnalysisResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateAwaitingSurvey {
		return nil, NewConflictError("no survey expected in state " + string(w.state))
	}
	if err := w.svc.validate.Struct(&answers); err != nil {
		return nil, NewInvalidError("survey answers out of range")
	}
	w.state = StateSubmittingAnalysis
	res := w.svc.gateway.AnalyzeFatigue(ctx, w.imageB64, answers, w.lang)
	if res.RiskLevel == RiskInvalid {
		w.state = StateResultRejected
		w.rejected = &res
		return &res, nil
	}
	res = w.svc.policy.Apply(res, answers)
	rec := &CheckInRecord{
		ID:        w.svc.idGen(),
		UserID:    w.userID,
		Timestamp: w.svc.now(),
		Type:      w.checkType,
		ImageRef:  w.imageB64,
		Survey:    answers,
		Analysis:  res,
		Location:  loc,
	}
	if err := w.svc.store.AddCheckIn(rec); err != nil {
		w.state = StateAwaitingSurvey
		return nil, err
	}
	w.state = StateResultAccepted
	w.record = rec
	return &res, nil
}

// Retake returns a rejected attempt to image capture, discarding the buffered
// image and result.
func (w *Workflow) Retake() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case StateResultRejected, StateAwaitingSurvey:
		w.state = StateCapturingImage
		w.imageB64 = ""
		w.rejected = nil
		return nil
	default:
		return NewConflictError("cannot retake in state " + string(w.state))
	}
}

// Cancel abandons the attempt from any non-terminal state. Buffered image and
// survey data are discarded; nothing is persisted.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	switch w.state {
	case StateResultAccepted, StateResultRejected:
		w.mu.Unlock()
		return NewConflictError("attempt already finished")
	}
	w.state = StateIdle
	w.imageB64 = ""
	w.faceMessage = ""
	w.rejected = nil
	uid := w.userID
	w.mu.Unlock()
	w.svc.release(uid)
	return nil
}

// Finish closes a terminal workflow and frees the user's slot.
func (w *Workflow) Finish() error {
	w.mu.Lock()
	switch w.state {
	case StateResultAccepted, StateResultRejected:
	default:
		w.mu.Unlock()
		return NewConflictError("attempt still in progress")
	}
	w.state = StateIdle
	uid := w.userID
	w.mu.Unlock()
	w.svc.release(uid)
	return nil
}
