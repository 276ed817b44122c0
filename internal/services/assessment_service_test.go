package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubAssessmentStore struct {
	records []*AssessmentRecord
	saveErr error
}

func (s *stubAssessmentStore) SaveAssessment(rec *AssessmentRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	copy := *rec
	s.records = append(s.records, &copy)
	return nil
}

func (s *stubAssessmentStore) ListAssessmentsByUser(userID string) ([]*AssessmentRecord, error) {
	out := []*AssessmentRecord{}
	for _, r := range s.records {
		if r.UserID == userID {
			copy := *r
			out = append(out, &copy)
		}
	}
	return out, nil
}

type stubFallbackStore struct {
	snaps []*ResultSnapshot
	err   error
}

func (s *stubFallbackStore) SaveResultSnapshot(snap *ResultSnapshot) error {
	if s.err != nil {
		return s.err
	}
	copy := *snap
	s.snaps = append(s.snaps, &copy)
	return nil
}

func newTestAssessmentService(store *stubAssessmentStore, fallback *stubFallbackStore) *AssessmentService {
	var fb ResultFallbackStore
	if fallback != nil {
		fb = fallback
	}
	svc := NewAssessmentService(store, fb, NewExplanationService(nil, 0))
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	svc.idGen = func() string { return "result000001" }
	return svc
}

// answerCurrent answers the current question with the given value and calls Next.
func answerCurrent(t *testing.T, svc *AssessmentService, userID string, value int) *StepResult {
	t.Helper()
	view, err := svc.Current(userID)
	if err != nil {
		t.Fatalf("Current returned error: %v", err)
	}
	if _, err := svc.Answer(userID, view.Question.ID, value); err != nil {
		t.Fatalf("Answer(%s, %d) returned error: %v", view.Question.ID, value, err)
	}
	step, err := svc.Next(context.Background(), userID)
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	return step
}

func lowestOptions(questions []Question) []int {
	out := make([]int, len(questions))
	for i, q := range questions {
		min := q.Options[0].Value
		for _, opt := range q.Options {
			if opt.Value < min {
				min = opt.Value
			}
		}
		out[i] = min
	}
	return out
}

func highestOptions(questions []Question) []int {
	out := make([]int, len(questions))
	for i, q := range questions {
		max := q.Options[0].Value
		for _, opt := range q.Options {
			if opt.Value > max {
				max = opt.Value
			}
		}
		out[i] = max
	}
	return out
}

func TestAssessmentFullFlow(t *testing.T) {
	store := &stubAssessmentStore{}
	svc := newTestAssessmentService(store, &stubFallbackStore{})

	if _, err := svc.Start("u1"); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	values := highestOptions(svc.Questions())

	var last *StepResult
	for _, v := range values {
		last = answerCurrent(t, svc, "u1", v)
	}
	if last.Result == nil {
		t.Fatalf("expected result after final Next")
	}
	if last.Result.Score != 23 {
		t.Fatalf("score=%d, want 23", last.Result.Score)
	}
	if last.Result.Category != RiskPossibleDiabetes {
		t.Fatalf("category=%s, want possible_diabetes", last.Result.Category)
	}
	if last.Result.Explanation == "" {
		t.Fatalf("expected non-empty explanation")
	}
	if last.StorageWarning != "" {
		t.Fatalf("unexpected storage warning: %q", last.StorageWarning)
	}
	if len(store.records) != 1 || store.records[0].UserID != "u1" {
		t.Fatalf("expected one persisted record for u1, got %+v", store.records)
	}
	if got := svc.ProgressFraction("u1"); got != 1 {
		t.Fatalf("ProgressFraction after completion=%v, want 1", got)
	}
	if _, err := svc.Result("u1"); err != nil {
		t.Fatalf("Result returned error: %v", err)
	}
}

func TestAssessmentCompletenessGate(t *testing.T) {
	svc := newTestAssessmentService(&stubAssessmentStore{}, nil)
	if _, err := svc.Start("u1"); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	values := lowestOptions(svc.Questions())
	for _, v := range values[:len(values)-1] {
		answerCurrent(t, svc, "u1", v)
	}
	// Final question left unanswered.
	if _, err := svc.Next(context.Background(), "u1"); !errors.Is(err, ErrNoResponseSelected) {
		t.Fatalf("Next without response: err=%v, want ErrNoResponseSelected", err)
	}
	view, err := svc.Current("u1")
	if err != nil {
		t.Fatalf("Current returned error: %v", err)
	}
	if view.State != StateInProgress {
		t.Fatalf("state=%s after gated Next, want in_progress", view.State)
	}
}

func TestAssessmentInvalidOption(t *testing.T) {
	svc := newTestAssessmentService(&stubAssessmentStore{}, nil)
	if _, err := svc.Start("u1"); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if _, err := svc.Answer("u1", "age", 99); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("Answer with bad value: err=%v, want ErrInvalidOption", err)
	}
	if _, err := svc.Answer("u1", "bmi", 0); !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("Answer for non-current question: err=%v, want ErrUnknownQuestion", err)
	}
	view, _ := svc.Current("u1")
	if view.Selected != nil {
		t.Fatalf("rejected answers must not be recorded")
	}
}

func TestAssessmentStateGuards(t *testing.T) {
	svc := newTestAssessmentService(&stubAssessmentStore{}, nil)

	if _, err := svc.Current("u1"); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("Current before start: err=%v, want ErrNotInProgress", err)
	}
	if _, err := svc.Answer("u1", "age", 0); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("Answer before start: err=%v, want ErrInvalidStateTransition", err)
	}
	if got := svc.ProgressFraction("u1"); got != 0 {
		t.Fatalf("ProgressFraction before start=%v, want 0", got)
	}

	if _, err := svc.Start("u1"); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if _, err := svc.Start("u1"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("Start while in progress: err=%v, want ErrInvalidStateTransition", err)
	}
	if _, err := svc.Previous("u1"); err == nil {
		t.Fatalf("Previous at index 0 must fail")
	}
}

func TestAssessmentBackAndForth(t *testing.T) {
	svc := newTestAssessmentService(&stubAssessmentStore{}, nil)
	if _, err := svc.Start("u1"); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	answerCurrent(t, svc, "u1", 2) // age: 45-54

	before, _ := svc.Current("u1")
	back, err := svc.Previous("u1")
	if err != nil {
		t.Fatalf("Previous returned error: %v", err)
	}
	if back.Selected == nil || *back.Selected != 2 {
		t.Fatalf("response lost after Previous: %+v", back)
	}
	step, err := svc.Next(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Next after Previous returned error: %v", err)
	}
	if step.View.Index != before.Index || step.View.Question.ID != before.Question.ID {
		t.Fatalf("back-and-forth changed position: %+v vs %+v", step.View, before)
	}
}

func TestAssessmentRetakeIsFresh(t *testing.T) {
	store := &stubAssessmentStore{}
	svc := newTestAssessmentService(store, nil)
	if _, err := svc.Start("u1"); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	for _, v := range highestOptions(svc.Questions()) {
		answerCurrent(t, svc, "u1", v)
	}

	view, err := svc.Start("u1") // retake from Completed
	if err != nil {
		t.Fatalf("retake Start returned error: %v", err)
	}
	if view.State != StateInProgress || view.Index != 0 || view.Selected != nil {
		t.Fatalf("retake did not reset state: %+v", view)
	}
	if _, err := svc.Result("u1"); err == nil {
		t.Fatalf("old result must not survive a retake")
	}
	if len(store.records) != 1 {
		t.Fatalf("retake must not write records, got %d", len(store.records))
	}
}

func TestAssessmentPersistenceFallback(t *testing.T) {
	store := &stubAssessmentStore{saveErr: errors.New("disk full")}
	fallback := &stubFallbackStore{}
	svc := newTestAssessmentService(store, fallback)
	if _, err := svc.Start("u1"); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	var last *StepResult
	for _, v := range lowestOptions(svc.Questions()) {
		last = answerCurrent(t, svc, "u1", v)
	}
	if last.Result == nil || last.Result.Score != 0 || last.Result.Category != RiskLow {
		t.Fatalf("unexpected result: %+v", last.Result)
	}
	if last.StorageWarning == "" {
		t.Fatalf("expected storage warning when primary store fails")
	}
	if len(fallback.snaps) != 1 {
		t.Fatalf("expected one fallback snapshot, got %d", len(fallback.snaps))
	}
	snap := fallback.snaps[0]
	if snap.UserID != "u1" || snap.Score != 0 || snap.Category != RiskLow {
		t.Fatalf("snapshot mismatch: %+v", snap)
	}
}

// gateGenerator blocks Generate until released, so a test can interleave
// other calls with an in-flight completion pipeline.
type gateGenerator struct {
	started chan struct{}
	release chan struct{}
}

func (g *gateGenerator) Available() bool { return true }

func (g *gateGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	close(g.started)
	select {
	case <-g.release:
		return "slow but fine", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestAssessmentRetakeDuringCompletionDiscardsStaleResult(t *testing.T) {
	gen := &gateGenerator{started: make(chan struct{}), release: make(chan struct{})}
	store := &stubAssessmentStore{}
	svc := NewAssessmentService(store, nil, NewExplanationService(gen, time.Second))
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	svc.idGen = func() string { return "result000001" }

	if _, err := svc.Start("u1"); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	values := highestOptions(svc.Questions())
	for _, v := range values[:len(values)-1] {
		answerCurrent(t, svc, "u1", v)
	}
	view, err := svc.Current("u1")
	if err != nil {
		t.Fatalf("Current returned error: %v", err)
	}
	if _, err := svc.Answer("u1", view.Question.ID, values[len(values)-1]); err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}

	type nextOutcome struct {
		step *StepResult
		err  error
	}
	done := make(chan nextOutcome, 1)
	go func() {
		step, err := svc.Next(context.Background(), "u1")
		done <- nextOutcome{step, err}
	}()

	// The pipeline is inside Generate, past the completion state change.
	<-gen.started
	if _, err := svc.Start("u1"); err != nil {
		t.Fatalf("retake Start during completion returned error: %v", err)
	}
	close(gen.release)

	out := <-done
	if out.err != nil {
		t.Fatalf("Next returned error: %v", out.err)
	}
	if out.step.Result == nil || out.step.Result.Score != 23 {
		t.Fatalf("completing caller lost its result: %+v", out.step.Result)
	}

	// The retaken session must be untouched by the superseded completion.
	view, err = svc.Current("u1")
	if err != nil {
		t.Fatalf("Current after retake returned error: %v", err)
	}
	if view.State != StateInProgress || view.Index != 0 || view.Selected != nil {
		t.Fatalf("stale result leaked into retaken session: %+v", view)
	}
	if _, err := svc.Result("u1"); err == nil {
		t.Fatalf("Result must fail while the retaken session is in progress")
	}
}

func TestAssessmentBothStoresFailing(t *testing.T) {
	store := &stubAssessmentStore{saveErr: errors.New("disk full")}
	fallback := &stubFallbackStore{err: errors.New("also broken")}
	svc := newTestAssessmentService(store, fallback)
	if _, err := svc.Start("u1"); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	var last *StepResult
	for _, v := range lowestOptions(svc.Questions()) {
		last = answerCurrent(t, svc, "u1", v)
	}
	if last.Result == nil {
		t.Fatalf("result must survive total persistence failure")
	}
	if last.StorageWarning == "" {
		t.Fatalf("expected storage warning when both writes fail")
	}
	if res, err := svc.Result("u1"); err != nil || res.Score != 0 {
		t.Fatalf("in-memory result unusable after storage failure: %+v %v", res, err)
	}
}
