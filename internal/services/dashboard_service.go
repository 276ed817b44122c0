package services

import (
	"sort"
	"time"
)

type DashboardStore interface {
	LatestAssessmentByUser(userID string) (*AssessmentRecord, error)
	ListMoodsByUser(userID string, since time.Time) ([]*MoodEntry, error)
	CountPlansByUser(userID string) (int, error)
}

type DashboardService struct {
	store DashboardStore
	now   func() time.Time
}

type MoodPoint struct {
	Date string `json:"date"`
	Mood int    `json:"mood"`
}

type DashboardSummary struct {
	LatestScore    *int         `json:"latest_score,omitempty"`
	LatestCategory RiskCategory `json:"latest_category,omitempty"`
	AssessedAt     *time.Time   `json:"assessed_at,omitempty"`
	MoodAverage7   float64      `json:"mood_average_7d"`
	MoodEntries7   int          `json:"mood_entries_7d"`
	MoodTrend      string       `json:"mood_trend"` // improving, declining, steady
	MoodSeries     []MoodPoint  `json:"mood_series"`
	PlansCount     int          `json:"plans_count"`
}

func NewDashboardService(store DashboardStore) *DashboardService {
	return &DashboardService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Summary aggregates the user's latest assessment, recent mood, and saved
// plan count for the dashboard view.
func (s *DashboardService) Summary(userID string) (*DashboardSummary, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("user required")
	}
	out := &DashboardSummary{MoodTrend: "steady"}

	rec, err := s.store.LatestAssessmentByUser(userID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		score := rec.Score
		at := rec.CompletedAt
		out.LatestScore = &score
		out.LatestCategory = rec.Category
		out.AssessedAt = &at
	}

	since := s.now().AddDate(0, 0, -7)
	moods, err := s.store.ListMoodsByUser(userID, since)
	if err != nil {
		return nil, err
	}
	out.MoodSeries = buildMoodSeries(moods)
	out.MoodEntries7 = len(moods)
	if len(moods) > 0 {
		sum := 0
		for _, m := range moods {
			sum += m.Mood
		}
		out.MoodAverage7 = float64(sum) / float64(len(moods))
		out.MoodTrend = moodTrend(out.MoodSeries)
	}

	count, err := s.store.CountPlansByUser(userID)
	if err != nil {
		return nil, err
	}
	out.PlansCount = count
	return out, nil
}

func buildMoodSeries(entries []*MoodEntry) []MoodPoint {
	byDay := map[string]int{}
	for _, e := range entries {
		byDay[e.Day] = e.Mood
	}
	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]MoodPoint, 0, len(days))
	for _, d := range days {
		out = append(out, MoodPoint{Date: d, Mood: byDay[d]})
	}
	return out
}

// moodTrend compares the mean of the older half of the series against the
// newer half; a gap of at least half a point counts as a move.
func moodTrend(series []MoodPoint) string {
	if len(series) < 2 {
		return "steady"
	}
	mid := len(series) / 2
	older, newer := series[:mid], series[mid:]
	avg := func(pts []MoodPoint) float64 {
		sum := 0
		for _, p := range pts {
			sum += p.Mood
		}
		return float64(sum) / float64(len(pts))
	}
	diff := avg(newer) - avg(older)
	switch {
	case diff >= 0.5:
		return "improving"
	case diff <= -0.5:
		return "declining"
	default:
		return "steady"
	}
}
