package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/allroundedgrowth/glucobalance/internal/middleware"
	"github.com/allroundedgrowth/glucobalance/internal/services"
)

// Router wires the domain services to HTTP. All assessment, mood, nutrition,
// and dashboard routes require an authenticated user.
type Router struct {
	store      Store
	auth       *services.AuthService
	assessment *services.AssessmentService
	mood       *services.MoodService
	nutrition  *services.NutritionService
	dashboard  *services.DashboardService
}

// Config carries the collaborators the router needs; zero values fall back to
// an in-memory store and the deterministic text fallbacks.
type Config struct {
	Store     Store
	Generator services.TextGenerator
	Fallback  services.ResultFallbackStore
	Signer    services.TokenSigner
	AITimeout time.Duration
}

func NewRouter(cfg Config) *Router {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	signer := cfg.Signer
	if signer == nil {
		signer = middleware.SignToken
	}
	explainer := services.NewExplanationService(cfg.Generator, cfg.AITimeout)
	return &Router{
		store:      store,
		auth:       services.NewAuthService(store, signer),
		assessment: services.NewAssessmentService(store, cfg.Fallback, explainer),
		mood:       services.NewMoodService(store, cfg.Generator),
		nutrition:  services.NewNutritionService(store, cfg.Generator),
		dashboard:  services.NewDashboardService(store),
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleRegister)         // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)               // POST
	mux.HandleFunc("/api/assessment/questions", rt.handleQuestions) // GET
	mux.HandleFunc("/api/assessment/start", rt.withUser(rt.handleStart))
	mux.HandleFunc("/api/assessment/answer", rt.withUser(rt.handleAnswer))
	mux.HandleFunc("/api/assessment/next", rt.withUser(rt.handleNext))
	mux.HandleFunc("/api/assessment/previous", rt.withUser(rt.handlePrevious))
	mux.HandleFunc("/api/assessment/current", rt.withUser(rt.handleCurrent))
	mux.HandleFunc("/api/assessment/result", rt.withUser(rt.handleResult))
	mux.HandleFunc("/api/assessment/history", rt.withUser(rt.handleAssessmentHistory))
	mux.HandleFunc("/api/mood", rt.withUser(rt.handleMood))
	mux.HandleFunc("/api/mood/history", rt.withUser(rt.handleMoodHistory))
	mux.HandleFunc("/api/nutrition/plan", rt.withUser(rt.handleNutritionPlan))
	mux.HandleFunc("/api/nutrition/history", rt.withUser(rt.handleNutritionHistory))
	mux.HandleFunc("/api/dashboard/summary", rt.withUser(rt.handleDashboard))
}

type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

func (rt *Router) withUser(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := middleware.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h(w, r, uid)
	}
}

// POST /api/auth/register {email, password, name}
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password, req.Name)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	rt.store.AddAudit(services.AuditEntry{Time: time.Now().UTC(), Actor: res.UserID, Action: "register", Target: res.UserID})
	writeJSON(w, map[string]any{"token": res.Token, "user_id": res.UserID, "name": res.Name})
}

// POST /api/auth/login {email, password}
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
		rt.writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"token": res.Token, "user_id": res.UserID, "name": res.Name})
}

// GET /api/assessment/questions
func (rt *Router) handleQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"questions": rt.assessment.Questions()})
}

// POST /api/assessment/start
func (rt *Router) handleStart(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	view, err := rt.assessment.Start(userID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, view)
}

// POST /api/assessment/answer {question_id, value}
func (rt *Router) handleAnswer(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		QuestionID string `json:"question_id"`
		Value      int    `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	view, err := rt.assessment.Answer(userID, req.QuestionID, req.Value)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, view)
}

// POST /api/assessment/next
func (rt *Router) handleNext(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	step, err := rt.assessment.Next(r.Context(), userID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	if step.Result != nil {
		rt.store.AddAudit(services.AuditEntry{
			Time: time.Now().UTC(), Actor: userID, Action: "complete_assessment",
			Target: step.Result.ID, Note: strconv.Itoa(step.Result.Score),
		})
	}
	writeJSON(w, step)
}

// POST /api/assessment/previous
func (rt *Router) handlePrevious(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	view, err := rt.assessment.Previous(userID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, view)
}

// GET /api/assessment/current
func (rt *Router) handleCurrent(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	view, err := rt.assessment.Current(userID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, view)
}

// GET /api/assessment/result
func (rt *Router) handleResult(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	result, err := rt.assessment.Result(userID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, result)
}

// GET /api/assessment/history
func (rt *Router) handleAssessmentHistory(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	records, err := rt.assessment.History(userID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"assessments": records})
}

// POST /api/mood {mood, note}
func (rt *Router) handleMood(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Mood int    `json:"mood"`
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	checkin, err := rt.mood.Record(r.Context(), userID, req.Mood, req.Note)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, checkin)
}

// GET /api/mood/history?days=30
func (rt *Router) handleMoodHistory(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	entries, err := rt.mood.History(userID, days)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"entries": entries})
}

// POST /api/nutrition/plan {restrictions, cuisine}
func (rt *Router) handleNutritionPlan(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req services.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := rt.nutrition.GeneratePlan(r.Context(), userID, req)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, result)
}

// GET /api/nutrition/history
func (rt *Router) handleNutritionHistory(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	plans, err := rt.nutrition.History(userID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"plans": plans})
}

// GET /api/dashboard/summary
func (rt *Router) handleDashboard(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	summary, err := rt.dashboard.Summary(userID)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, summary)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to HTTP statuses. State-machine misuse is a
// conflict; bad input is a bad request.
func (rt *Router) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidStateTransition), errors.Is(err, services.ErrNotInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, services.ErrNoResponseSelected),
		errors.Is(err, services.ErrInvalidOption),
		errors.Is(err, services.ErrUnknownQuestion):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if se, ok := services.AsServiceError(err); ok {
		switch se.Code {
		case services.ErrorInvalid:
			http.Error(w, se.Message, http.StatusBadRequest)
		case services.ErrorUnauthorized:
			http.Error(w, se.Message, http.StatusUnauthorized)
		case services.ErrorForbidden:
			http.Error(w, se.Message, http.StatusForbidden)
		case services.ErrorNotFound:
			http.Error(w, se.Message, http.StatusNotFound)
		case services.ErrorConflict:
			http.Error(w, se.Message, http.StatusConflict)
		default:
			http.Error(w, se.Message, http.StatusInternalServerError)
		}
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
