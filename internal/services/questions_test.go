package services

import "testing"

func TestRiskQuestionsShape(t *testing.T) {
	questions := RiskQuestions()
	wantOrder := []string{
		"age", "gender", "family_history", "blood_pressure",
		"physical_activity", "bmi", "gestational_diabetes", "prediabetes",
	}
	if len(questions) != len(wantOrder) {
		t.Fatalf("expected %d questions, got %d", len(wantOrder), len(questions))
	}
	for i, q := range questions {
		if q.ID != wantOrder[i] {
			t.Fatalf("question %d: id %q, want %q", i, q.ID, wantOrder[i])
		}
		if q.Prompt == "" {
			t.Fatalf("question %s has empty prompt", q.ID)
		}
		if len(q.Options) < 2 || len(q.Options) > 4 {
			t.Fatalf("question %s has %d options, want 2-4", q.ID, len(q.Options))
		}
		seen := map[int]bool{}
		for _, opt := range q.Options {
			if opt.Value < 0 {
				t.Fatalf("question %s has negative option value %d", q.ID, opt.Value)
			}
			if opt.Text == "" {
				t.Fatalf("question %s has option with empty text", q.ID)
			}
			if seen[opt.Value] {
				t.Fatalf("question %s has duplicate option value %d", q.ID, opt.Value)
			}
			seen[opt.Value] = true
		}
	}
}

func TestRiskQuestionsMaxScore(t *testing.T) {
	total := 0
	for _, q := range RiskQuestions() {
		max := 0
		for _, opt := range q.Options {
			if opt.Value > max {
				max = opt.Value
			}
		}
		total += max
	}
	if total != 23 {
		t.Fatalf("maximum attainable score=%d, want 23", total)
	}
}

func TestRiskQuestionsCopyIsStable(t *testing.T) {
	first := RiskQuestions()
	first[0] = Question{ID: "tampered"}
	if RiskQuestions()[0].ID != "age" {
		t.Fatalf("mutating the returned slice leaked into the bank")
	}
}

func TestQuestionByID(t *testing.T) {
	q, ok := QuestionByID("bmi")
	if !ok || q.ID != "bmi" {
		t.Fatalf("QuestionByID(bmi) failed: %+v %v", q, ok)
	}
	if _, ok := QuestionByID("nope"); ok {
		t.Fatalf("expected lookup miss for unknown id")
	}
}

func TestQuestionOptionHelpers(t *testing.T) {
	q, _ := QuestionByID("family_history")
	if !q.HasOption(5) {
		t.Fatalf("expected option value 5 on family_history")
	}
	if q.HasOption(4) {
		t.Fatalf("did not expect option value 4 on family_history")
	}
	text, ok := q.OptionText(0)
	if !ok || text == "" {
		t.Fatalf("expected text for option 0, got %q %v", text, ok)
	}
}
