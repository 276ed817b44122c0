package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// State-machine misuse surfaces as these sentinel errors; they are the only
// assessment errors a caller ever sees. AI and storage failures are absorbed
// behind fallbacks and never fail the flow.
var (
	// ErrInvalidStateTransition is returned when an operation is invoked from
	// a state that does not permit it.
	ErrInvalidStateTransition = errors.New("invalid assessment state transition")
	// ErrNotInProgress is returned when no assessment is in progress.
	ErrNotInProgress = errors.New("assessment not in progress")
	// ErrNoResponseSelected is returned by Next when the current question has
	// no recorded response.
	ErrNoResponseSelected = errors.New("no response selected for current question")
	// ErrInvalidOption is returned when an answer value is not among the
	// current question's options.
	ErrInvalidOption = errors.New("value is not an option for the current question")
	// ErrUnknownQuestion is returned when an answer targets a question other
	// than the current one.
	ErrUnknownQuestion = errors.New("question is not the current question")
)

type SessionState string

const (
	StateNotStarted SessionState = "not_started"
	StateInProgress SessionState = "in_progress"
	StateCompleted  SessionState = "completed"
)

// AssessmentStore is the persistence surface the assessment service needs.
type AssessmentStore interface {
	SaveAssessment(rec *AssessmentRecord) error
	ListAssessmentsByUser(userID string) ([]*AssessmentRecord, error)
}

// ResultFallbackStore receives the best-effort flat snapshot when the primary
// store is unavailable.
type ResultFallbackStore interface {
	SaveResultSnapshot(snap *ResultSnapshot) error
}

// session is the working state of one questionnaire attempt. The service owns
// sessions exclusively; the question bank is shared read-only data.
type session struct {
	state      SessionState
	index      int
	responses  map[string]int
	generation int
	result     *AssessmentResult
}

// SessionView is the read-only projection handed back to callers.
type SessionView struct {
	State    SessionState `json:"state"`
	Question *Question    `json:"question,omitempty"`
	Index    int          `json:"index"`
	Total    int          `json:"total"`
	Progress float64      `json:"progress"`
	Selected *int         `json:"selected,omitempty"`
}

// StepResult is returned by Next. Result is set once the session completes;
// StorageWarning carries a non-fatal persistence warning.
type StepResult struct {
	View           *SessionView      `json:"view"`
	Result         *AssessmentResult `json:"result,omitempty"`
	StorageWarning string            `json:"storage_warning,omitempty"`
}

// AssessmentService drives the risk questionnaire: one active session per
// user, navigation with validation gating, and the completion pipeline of
// scoring, explanation, and persistence.
type AssessmentService struct {
	mu        sync.Mutex
	sessions  map[string]*session
	questions []Question
	explainer *ExplanationService
	store     AssessmentStore
	fallback  ResultFallbackStore
	now       func() time.Time
	idGen     func() string
}

func NewAssessmentService(store AssessmentStore, fallback ResultFallbackStore, explainer *ExplanationService) *AssessmentService {
	return &AssessmentService{
		sessions:  map[string]*session{},
		questions: RiskQuestions(),
		explainer: explainer,
		store:     store,
		fallback:  fallback,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:12] },
	}
}

// Questions exposes the bank for question listing endpoints.
func (s *AssessmentService) Questions() []Question { return RiskQuestions() }

// Start begins a fresh attempt. Valid from NotStarted or Completed; a retake
// always constructs fresh working state, never reuses the old result.
func (s *AssessmentService) Start(userID string) (*SessionView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewUnauthorizedError("user required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[userID]
	if sess == nil {
		sess = &session{state: StateNotStarted}
		s.sessions[userID] = sess
	}
	if sess.state == StateInProgress {
		return nil, ErrInvalidStateTransition
	}
	sess.state = StateInProgress
	sess.index = 0
	sess.responses = map[string]int{}
	sess.result = nil
	sess.generation++
	return s.viewLocked(sess), nil
}

// Answer records or overwrites the response to the current question. The
// value must be one of the current question's option values.
func (s *AssessmentService) Answer(userID, questionID string, value int) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[userID]
	if sess == nil || sess.state != StateInProgress {
		return nil, ErrInvalidStateTransition
	}
	q := s.questions[sess.index]
	if questionID != q.ID {
		return nil, ErrUnknownQuestion
	}
	if !q.HasOption(value) {
		return nil, ErrInvalidOption
	}
	sess.responses[q.ID] = value
	return s.viewLocked(sess), nil
}

// Next advances the cursor. It refuses to move past an unanswered question.
// On the final question it completes the session: the score and category are
// computed, the explanation generated (fallback on any AI failure), and the
// result persisted. Persistence failure never rolls completion back.
func (s *AssessmentService) Next(ctx context.Context, userID string) (*StepResult, error) {
	s.mu.Lock()
	sess := s.sessions[userID]
	if sess == nil || sess.state != StateInProgress {
		s.mu.Unlock()
		return nil, ErrInvalidStateTransition
	}
	q := s.questions[sess.index]
	if _, ok := sess.responses[q.ID]; !ok {
		s.mu.Unlock()
		return nil, ErrNoResponseSelected
	}
	if sess.index < len(s.questions)-1 {
		sess.index++
		view := s.viewLocked(sess)
		s.mu.Unlock()
		return &StepResult{View: view}, nil
	}

	// Final question answered: seal the session and copy the responses so the
	// pipeline below runs without holding the lock.
	sess.state = StateCompleted
	gen := sess.generation
	responses := make(map[string]int, len(sess.responses))
	for k, v := range sess.responses {
		responses[k] = v
	}
	s.mu.Unlock()

	score := ComputeScore(responses, s.questions)
	result := &AssessmentResult{
		ID:          s.idGen(),
		Score:       score,
		Category:    Categorize(score),
		Responses:   responses,
		CompletedAt: s.now(),
	}
	result.Explanation = s.explainer.Explain(ctx, result, s.questions)
	warning := s.persist(result, userID)

	s.mu.Lock()
	// A retake may have reset the session while we were generating or
	// persisting; results for a superseded generation are discarded.
	if sess.generation == gen {
		sess.result = result
	}
	view := s.viewLocked(sess)
	s.mu.Unlock()
	return &StepResult{View: view, Result: result, StorageWarning: warning}, nil
}

// Previous moves the cursor back one question, keeping the response recorded
// for the question being left.
func (s *AssessmentService) Previous(userID string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[userID]
	if sess == nil || sess.state != StateInProgress {
		return nil, ErrInvalidStateTransition
	}
	if sess.index == 0 {
		return nil, NewInvalidError("already at the first question")
	}
	sess.index--
	return s.viewLocked(sess), nil
}

// Current returns the question at the cursor.
func (s *AssessmentService) Current(userID string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[userID]
	if sess == nil || sess.state != StateInProgress {
		return nil, ErrNotInProgress
	}
	return s.viewLocked(sess), nil
}

// ProgressFraction is defined in every state: 0 before the first Start, 1
// once completed, and (index+1)/total while in progress.
func (s *AssessmentService) ProgressFraction(userID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[userID]
	if sess == nil || sess.state == StateNotStarted {
		return 0
	}
	if sess.state == StateCompleted {
		return 1
	}
	return float64(sess.index+1) / float64(len(s.questions))
}

// Result returns the in-memory result of the user's last completed attempt.
func (s *AssessmentService) Result(userID string) (*AssessmentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[userID]
	if sess == nil || sess.state != StateCompleted || sess.result == nil {
		return nil, NewNotFoundError("no completed assessment")
	}
	return sess.result, nil
}

// History lists the user's persisted assessments, newest first.
func (s *AssessmentService) History(userID string) ([]*AssessmentRecord, error) {
	if s.store == nil {
		return nil, NewNotFoundError("no assessment history")
	}
	return s.store.ListAssessmentsByUser(userID)
}

// persist writes the record to the primary store and falls back to the flat
// snapshot store on failure. Both failing is reported as a warning, never as
// an error: the in-memory result stays valid and displayable.
func (s *AssessmentService) persist(result *AssessmentResult, userID string) string {
	if s.store != nil {
		rec := &AssessmentRecord{AssessmentResult: *result, UserID: userID}
		if err := s.store.SaveAssessment(rec); err == nil {
			return ""
		}
	}
	if s.fallback != nil {
		snap := &ResultSnapshot{
			UserID:      userID,
			Score:       result.Score,
			Category:    result.Category,
			CompletedAt: result.CompletedAt,
		}
		if err := s.fallback.SaveResultSnapshot(snap); err == nil {
			return "result saved to fallback storage only"
		}
	}
	return "result could not be saved; it remains available in this session"
}

func (s *AssessmentService) viewLocked(sess *session) *SessionView {
	view := &SessionView{
		State: sess.state,
		Total: len(s.questions),
	}
	switch sess.state {
	case StateInProgress:
		q := s.questions[sess.index]
		view.Question = &q
		view.Index = sess.index
		view.Progress = float64(sess.index+1) / float64(len(s.questions))
		if v, ok := sess.responses[q.ID]; ok {
			selected := v
			view.Selected = &selected
		}
	case StateCompleted:
		view.Index = len(s.questions) - 1
		view.Progress = 1
	}
	return view
}
