package services

import (
	"context"
	"strings"
	"time"
)

type NutritionStore interface {
	SavePlan(p *NutritionPlan) error
	ListPlansByUser(userID string) ([]*NutritionPlan, error)
}

// NutritionService generates day meal plans through the external text
// generator, with a fixed balanced plan as the fallback. Storage failure is
// reported as a warning; the generated plan is always returned.
type NutritionService struct {
	store NutritionStore
	gen   TextGenerator
	now   func() time.Time
	idGen func() string
}

type PlanRequest struct {
	Restrictions []string `json:"restrictions,omitempty"`
	Cuisine      string   `json:"cuisine,omitempty"`
}

type PlanResult struct {
	Plan           *NutritionPlan `json:"plan"`
	StorageWarning string         `json:"storage_warning,omitempty"`
}

func NewNutritionService(store NutritionStore, gen TextGenerator) *NutritionService {
	return &NutritionService{
		store: store,
		gen:   gen,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(12) },
	}
}

// GeneratePlan builds a 3-meals-plus-2-snacks plan for one day.
func (s *NutritionService) GeneratePlan(ctx context.Context, userID string, req PlanRequest) (*PlanResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewUnauthorizedError("user required")
	}
	text, source := s.planText(ctx, req)
	plan := &NutritionPlan{
		ID:           s.idGen(),
		UserID:       userID,
		Restrictions: req.Restrictions,
		Cuisine:      strings.TrimSpace(req.Cuisine),
		PlanText:     text,
		Source:       source,
		CreatedAt:    s.now(),
	}
	result := &PlanResult{Plan: plan}
	if s.store == nil {
		result.StorageWarning = "plan was not saved; storage is not configured"
		return result, nil
	}
	if err := s.store.SavePlan(plan); err != nil {
		result.StorageWarning = "plan could not be saved; it remains available in this session"
	}
	return result, nil
}

// History lists the user's saved plans, newest first.
func (s *NutritionService) History(userID string) ([]*NutritionPlan, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListPlansByUser(userID)
}

func (s *NutritionService) planText(ctx context.Context, req PlanRequest) (string, string) {
	if s.gen != nil && s.gen.Available() {
		genCtx, cancel := context.WithTimeout(ctx, defaultExplainTimeout)
		defer cancel()
		if text, err := s.gen.Generate(genCtx, buildPlanPrompt(req)); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), "ai"
		}
	}
	return fallbackPlanText, "fallback"
}

func buildPlanPrompt(req PlanRequest) string {
	var b strings.Builder
	b.WriteString("Create a one-day diabetes-prevention meal plan with breakfast, lunch, dinner, ")
	b.WriteString("and two snacks. Favour low glycemic index foods, lean protein, and vegetables.\n")
	if len(req.Restrictions) > 0 {
		b.WriteString("Dietary restrictions: " + strings.Join(req.Restrictions, ", ") + ".\n")
	}
	if strings.TrimSpace(req.Cuisine) != "" {
		b.WriteString("Preferred cuisine: " + strings.TrimSpace(req.Cuisine) + ".\n")
	}
	b.WriteString("Write plain text, one line per meal, no markdown.")
	return b.String()
}

const fallbackPlanText = `Breakfast: Steel-cut oats with berries and a handful of walnuts.
Morning snack: A small apple with natural peanut butter.
Lunch: Grilled chicken salad with leafy greens, chickpeas, and olive oil dressing.
Afternoon snack: Plain yogurt with cinnamon.
Dinner: Baked fish, steamed broccoli, and a half cup of brown rice.`
