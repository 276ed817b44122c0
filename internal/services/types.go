package services

import "time"

// Option is one selectable answer to a risk question. Value doubles as the
// point contribution of the option; values are unique within a question.
type Option struct {
	Value int    `json:"value"`
	Text  string `json:"text"`
}

// Question is a single-choice risk-factor question.
type Question struct {
	ID          string   `json:"id"`
	Prompt      string   `json:"prompt"`
	Explanation string   `json:"explanation,omitempty"`
	Note        string   `json:"note,omitempty"`
	Options     []Option `json:"options"`
}

// OptionText returns the display text for the option with the given value.
func (q Question) OptionText(value int) (string, bool) {
	for _, opt := range q.Options {
		if opt.Value == value {
			return opt.Text, true
		}
	}
	return "", false
}

// HasOption reports whether value matches one of the question's options.
func (q Question) HasOption(value int) bool {
	_, ok := q.OptionText(value)
	return ok
}

// AssessmentResult is the immutable outcome of one completed questionnaire
// attempt. A retake produces a new result, never a mutation of an old one.
type AssessmentResult struct {
	ID          string         `json:"id"`
	Score       int            `json:"score"`
	Category    RiskCategory   `json:"category"`
	Responses   map[string]int `json:"responses"`
	Explanation string         `json:"explanation"`
	CompletedAt time.Time      `json:"completed_at"`
}

// AssessmentRecord is a persisted result bound to a user.
type AssessmentRecord struct {
	AssessmentResult
	UserID string `json:"user_id"`
}

// ResultSnapshot is the flat best-effort form written to the fallback store
// when the primary store is unavailable.
type ResultSnapshot struct {
	UserID      string       `json:"user_id"`
	Score       int          `json:"score"`
	Category    RiskCategory `json:"category"`
	CompletedAt time.Time    `json:"completed_at"`
}

// User is a registered account.
type User struct {
	ID        string
	Email     string
	Name      string
	PassHash  []byte
	CreatedAt time.Time
}

// MoodEntry records one mood check-in. Day keys entries to a calendar day;
// re-logging the same day overwrites the earlier entry.
type MoodEntry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Mood       int       `json:"mood"` // 1 (very low) .. 5 (excellent)
	Note       string    `json:"note,omitempty"`
	Day        string    `json:"day"` // YYYY-MM-DD
	RecordedAt time.Time `json:"recorded_at"`
}

// NutritionPlan is a generated day meal plan.
type NutritionPlan struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Restrictions []string  `json:"restrictions,omitempty"`
	Cuisine      string    `json:"cuisine,omitempty"`
	PlanText     string    `json:"plan_text"`
	Source       string    `json:"source"` // "ai" or "fallback"
	CreatedAt    time.Time `json:"created_at"`
}

// AuditEntry records an administrative or data-changing action.
type AuditEntry struct {
	Time   time.Time `json:"time"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Target string    `json:"target"`
	Note   string    `json:"note,omitempty"`
}
