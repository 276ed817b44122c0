package services

import (
	"context"
	"strings"
	"time"
)

type MoodStore interface {
	UpsertMood(e *MoodEntry) error
	ListMoodsByUser(userID string, since time.Time) ([]*MoodEntry, error)
}

// MoodService records daily mood check-ins and produces a short affirmation
// for each, AI-generated when possible.
type MoodService struct {
	store MoodStore
	gen   TextGenerator
	now   func() time.Time
	idGen func() string
}

type MoodCheckin struct {
	Entry       *MoodEntry `json:"entry"`
	Affirmation string     `json:"affirmation"`
}

func NewMoodService(store MoodStore, gen TextGenerator) *MoodService {
	return &MoodService{
		store: store,
		gen:   gen,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return shortID(12) },
	}
}

// Record logs the user's mood for today. Logging twice the same day
// overwrites the earlier entry.
func (s *MoodService) Record(ctx context.Context, userID string, mood int, note string) (*MoodCheckin, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewUnauthorizedError("user required")
	}
	if mood < 1 || mood > 5 {
		return nil, NewInvalidError("mood must be between 1 and 5")
	}
	now := s.now()
	entry := &MoodEntry{
		ID:         s.idGen(),
		UserID:     userID,
		Mood:       mood,
		Note:       strings.TrimSpace(note),
		Day:        now.Format("2006-01-02"),
		RecordedAt: now,
	}
	if err := s.store.UpsertMood(entry); err != nil {
		return nil, err
	}
	return &MoodCheckin{Entry: entry, Affirmation: s.affirmation(ctx, mood)}, nil
}

// History lists entries recorded in the last `days` days, newest first.
func (s *MoodService) History(userID string, days int) ([]*MoodEntry, error) {
	if days <= 0 {
		days = 30
	}
	since := s.now().AddDate(0, 0, -days)
	return s.store.ListMoodsByUser(userID, since)
}

// Average returns the mean mood over the last `days` days and the number of
// entries it covers.
func (s *MoodService) Average(userID string, days int) (float64, int, error) {
	entries, err := s.History(userID, days)
	if err != nil {
		return 0, 0, err
	}
	if len(entries) == 0 {
		return 0, 0, nil
	}
	sum := 0
	for _, e := range entries {
		sum += e.Mood
	}
	return float64(sum) / float64(len(entries)), len(entries), nil
}

func (s *MoodService) affirmation(ctx context.Context, mood int) string {
	if s.gen != nil && s.gen.Available() {
		prompt := "A user of a diabetes-prevention app logged their mood as " +
			moodLabel(mood) + " on a 1-5 scale. Reply with one short, warm, " +
			"non-clinical sentence of encouragement. No emojis, no markdown."
		genCtx, cancel := context.WithTimeout(ctx, defaultExplainTimeout)
		defer cancel()
		if text, err := s.gen.Generate(genCtx, prompt); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
	}
	return fallbackAffirmation(mood)
}

func moodLabel(mood int) string {
	switch mood {
	case 1:
		return "very low (1)"
	case 2:
		return "low (2)"
	case 3:
		return "okay (3)"
	case 4:
		return "good (4)"
	default:
		return "excellent (5)"
	}
}

func fallbackAffirmation(mood int) string {
	switch {
	case mood <= 2:
		return "Tough days happen, and logging them still counts as taking care of yourself. Be gentle with yourself today."
	case mood == 3:
		return "Steady is fine. A short walk or a favourite meal might give today a small lift."
	default:
		return "Great to see you feeling well. Days like this are worth noticing and repeating."
	}
}
