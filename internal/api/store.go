package api

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/allroundedgrowth/glucobalance/internal/services"
)

// memoryStore keeps everything in process. It backs tests and API-only runs
// without a sqlite path configured.
type memoryStore struct {
	mu           sync.RWMutex
	usersByEmail map[string]*services.User
	assessments  []*services.AssessmentRecord
	moodsByKey   map[string]*services.MoodEntry // userID/day
	plans        []*services.NutritionPlan
	audit        []services.AuditEntry
}

func NewMemoryStore() Store { return newMemoryStore() }

func newMemoryStore() *memoryStore {
	return &memoryStore{
		usersByEmail: map[string]*services.User{},
		moodsByKey:   map[string]*services.MoodEntry{},
	}
}

func (s *memoryStore) AddUser(u *services.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := s.usersByEmail[key]; ok {
		return services.NewConflictError("email exists")
	}
	copy := *u
	s.usersByEmail[key] = &copy
	return nil
}

func (s *memoryStore) FindUserByEmail(email string) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.usersByEmail[strings.ToLower(email)]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, nil
}

func (s *memoryStore) SaveAssessment(rec *services.AssessmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *rec
	copy.Responses = cloneResponses(rec.Responses)
	s.assessments = append(s.assessments, &copy)
	return nil
}

func (s *memoryStore) ListAssessmentsByUser(userID string) ([]*services.AssessmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.AssessmentRecord{}
	for _, r := range s.assessments {
		if r.UserID == userID {
			copy := *r
			copy.Responses = cloneResponses(r.Responses)
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, nil
}

func (s *memoryStore) LatestAssessmentByUser(userID string) (*services.AssessmentRecord, error) {
	records, err := s.ListAssessmentsByUser(userID)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

func (s *memoryStore) UpsertMood(e *services.MoodEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *e
	s.moodsByKey[e.UserID+"/"+e.Day] = &copy
	return nil
}

func (s *memoryStore) ListMoodsByUser(userID string, since time.Time) ([]*services.MoodEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.MoodEntry{}
	for _, e := range s.moodsByKey {
		if e.UserID == userID && !e.RecordedAt.Before(since) {
			copy := *e
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func (s *memoryStore) SavePlan(p *services.NutritionPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *p
	copy.Restrictions = append([]string(nil), p.Restrictions...)
	s.plans = append(s.plans, &copy)
	return nil
}

func (s *memoryStore) ListPlansByUser(userID string) ([]*services.NutritionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*services.NutritionPlan{}
	for _, p := range s.plans {
		if p.UserID == userID {
			copy := *p
			copy.Restrictions = append([]string(nil), p.Restrictions...)
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) CountPlansByUser(userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.plans {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) AddAudit(e services.AuditEntry) {
	s.mu.Lock()
	s.audit = append(s.audit, e)
	s.mu.Unlock()
}

func (s *memoryStore) ListAudit() []services.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]services.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

func cloneResponses(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
