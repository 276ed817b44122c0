package services

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// TextGenerator is the external generative-text capability. Implementations
// must be safe to call from handler goroutines.
type TextGenerator interface {
	Available() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

// RiskFactor is one answered question that contributed points to the score.
type RiskFactor struct {
	QuestionID string `json:"question_id"`
	Label      string `json:"label"`
	Answer     string `json:"answer"`
	Points     int    `json:"points"`
	Impact     string `json:"impact"` // "high", "moderate", or "low"
}

// RiskFactors extracts the contributing factors from a response map: every
// question whose recorded value is above zero, classified by point weight.
func RiskFactors(responses map[string]int, questions []Question) []RiskFactor {
	out := make([]RiskFactor, 0, len(questions))
	for _, q := range questions {
		v, ok := responses[q.ID]
		if !ok || v <= 0 {
			continue
		}
		answer, _ := q.OptionText(v)
		impact := "low"
		switch {
		case v >= 5:
			impact = "high"
		case v >= 2:
			impact = "moderate"
		}
		out = append(out, RiskFactor{
			QuestionID: q.ID,
			Label:      q.Prompt,
			Answer:     answer,
			Points:     v,
			Impact:     impact,
		})
	}
	return out
}

// ExplanationService turns a completed result into human-readable text. It
// prefers the external generator and falls back to fixed per-category copy on
// any failure; the fallback path never errors and never returns empty text.
type ExplanationService struct {
	gen     TextGenerator
	timeout time.Duration
}

const defaultExplainTimeout = 8 * time.Second

func NewExplanationService(gen TextGenerator, timeout time.Duration) *ExplanationService {
	if timeout <= 0 {
		timeout = defaultExplainTimeout
	}
	return &ExplanationService{gen: gen, timeout: timeout}
}

// Explain produces the explanation for a completed result. The generator call
// runs under a timeout so a hanging backend cannot block completion.
func (s *ExplanationService) Explain(ctx context.Context, result *AssessmentResult, questions []Question) string {
	if s == nil || s.gen == nil || !s.gen.Available() {
		return FallbackExplanation(result.Category)
	}
	prompt := buildExplanationPrompt(result, questions)
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	text, err := s.gen.Generate(genCtx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		return FallbackExplanation(result.Category)
	}
	return strings.TrimSpace(text)
}

func buildExplanationPrompt(result *AssessmentResult, questions []Question) string {
	var b strings.Builder
	b.WriteString("You are a supportive health coach. A user completed a diabetes risk assessment.\n")
	fmt.Fprintf(&b, "Score: %d. Category: %s.\n", result.Score, result.Category.DisplayName())
	factors := RiskFactors(result.Responses, questions)
	if len(factors) == 0 {
		b.WriteString("No individual risk factors contributed points.\n")
	} else {
		b.WriteString("Contributing factors:\n")
		for _, f := range factors {
			fmt.Fprintf(&b, "- %s %s (%d points, %s impact)\n", f.Label, f.Answer, f.Points, f.Impact)
		}
	}
	b.WriteString("Explain what this result means in plain, encouraging language, ")
	b.WriteString("suggest practical next steps, and do not give a medical diagnosis. ")
	b.WriteString("Answer in 3-5 short sentences of prose, no markdown.")
	return b.String()
}

// fallbackExplanations is the terminal safety net, keyed by category. High
// and possible-diabetes copy must always recommend professional consultation.
var fallbackExplanations = map[RiskCategory]string{
	RiskLow: "Your result places you in the low risk range, which means your current " +
		"risk of developing type 2 diabetes is small. Keep up the habits that got you " +
		"here: stay active, eat a balanced diet, and repeat this assessment about once a year.",
	RiskIncreased: "Your result places you in the increased risk range. You are not " +
		"diabetic, but some of your answers point to factors that raise your long-term risk. " +
		"Small changes help the most now: add regular physical activity, work toward a " +
		"healthy weight, and consider a routine blood sugar check at your next visit.",
	RiskHigh: "Your result places you in the high risk range, meaning several strong " +
		"risk factors apply to you. Please consult a healthcare professional about a blood " +
		"glucose test, and start with structured lifestyle changes such as daily activity " +
		"and a reduced-sugar diet. Acting early can prevent or delay type 2 diabetes.",
	RiskPossibleDiabetes: "Your result suggests you may already have elevated blood " +
		"sugar. This assessment is not a diagnosis, but you should consult a healthcare " +
		"professional promptly for laboratory testing. Until then, favour regular meals, " +
		"limit sugary food and drink, and stay as active as you comfortably can.",
}

// FallbackExplanation returns the canned explanation for a category. It is
// total: unknown categories get the most cautious copy.
func FallbackExplanation(category RiskCategory) string {
	if text, ok := fallbackExplanations[category]; ok {
		return text
	}
	return fallbackExplanations[RiskPossibleDiabetes]
}
