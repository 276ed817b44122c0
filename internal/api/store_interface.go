package api

import (
	"time"

	"github.com/allroundedgrowth/glucobalance/internal/services"
)

// Store is the union persistence surface behind the API. Each service
// declares the narrow slice it needs; any Store satisfies all of them.
type Store interface {
	AddUser(u *services.User) error
	FindUserByEmail(email string) (*services.User, error)

	SaveAssessment(rec *services.AssessmentRecord) error
	ListAssessmentsByUser(userID string) ([]*services.AssessmentRecord, error)
	LatestAssessmentByUser(userID string) (*services.AssessmentRecord, error)

	UpsertMood(e *services.MoodEntry) error
	ListMoodsByUser(userID string, since time.Time) ([]*services.MoodEntry, error)

	SavePlan(p *services.NutritionPlan) error
	ListPlansByUser(userID string) ([]*services.NutritionPlan, error)
	CountPlansByUser(userID string) (int, error)

	AddAudit(e services.AuditEntry)
	ListAudit() []services.AuditEntry
}

// Every Store doubles as the per-service store contracts.
var (
	_ services.AuthStore       = (Store)(nil)
	_ services.AssessmentStore = (Store)(nil)
	_ services.MoodStore       = (Store)(nil)
	_ services.NutritionStore  = (Store)(nil)
	_ services.DashboardStore  = (Store)(nil)
)

var _ Store = (*memoryStore)(nil)
