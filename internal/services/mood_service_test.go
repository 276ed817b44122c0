package services

import (
	"context"
	"strings"
	"testing"
	"time"
)

type stubMoodStore struct {
	byDay map[string]*MoodEntry // userID+day
}

func newStubMoodStore() *stubMoodStore {
	return &stubMoodStore{byDay: map[string]*MoodEntry{}}
}

func (s *stubMoodStore) UpsertMood(e *MoodEntry) error {
	copy := *e
	s.byDay[e.UserID+"/"+e.Day] = &copy
	return nil
}

func (s *stubMoodStore) ListMoodsByUser(userID string, since time.Time) ([]*MoodEntry, error) {
	out := []*MoodEntry{}
	for _, e := range s.byDay {
		if e.UserID == userID && !e.RecordedAt.Before(since) {
			copy := *e
			out = append(out, &copy)
		}
	}
	return out, nil
}

func TestMoodRecordAndOverwrite(t *testing.T) {
	store := newStubMoodStore()
	svc := NewMoodService(store, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }

	first, err := svc.Record(context.Background(), "u1", 2, "rough morning")
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if first.Entry.Day != "2025-06-01" {
		t.Fatalf("day=%q, want 2025-06-01", first.Entry.Day)
	}
	if first.Affirmation == "" {
		t.Fatalf("expected fallback affirmation without generator")
	}

	second, err := svc.Record(context.Background(), "u1", 4, "")
	if err != nil {
		t.Fatalf("second Record returned error: %v", err)
	}
	if second.Entry.Mood != 4 {
		t.Fatalf("mood=%d, want 4", second.Entry.Mood)
	}
	entries, err := svc.History("u1", 7)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].Mood != 4 {
		t.Fatalf("same-day entry not overwritten: %+v", entries)
	}
}

func TestMoodValidation(t *testing.T) {
	svc := NewMoodService(newStubMoodStore(), nil)
	if _, err := svc.Record(context.Background(), "u1", 0, ""); err == nil {
		t.Fatalf("expected error for mood below range")
	}
	if _, err := svc.Record(context.Background(), "u1", 6, ""); err == nil {
		t.Fatalf("expected error for mood above range")
	}
	if _, err := svc.Record(context.Background(), "", 3, ""); err == nil {
		t.Fatalf("expected error for missing user")
	}
}

func TestMoodAverage(t *testing.T) {
	store := newStubMoodStore()
	svc := NewMoodService(store, nil)
	base := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	for i, mood := range []int{2, 3, 4} {
		day := base.AddDate(0, 0, -i)
		store.byDay["u1/"+day.Format("2006-01-02")] = &MoodEntry{
			UserID: "u1", Mood: mood, Day: day.Format("2006-01-02"), RecordedAt: day,
		}
	}
	svc.now = func() time.Time { return base }

	avg, n, err := svc.Average("u1", 7)
	if err != nil {
		t.Fatalf("Average returned error: %v", err)
	}
	if n != 3 || avg != 3 {
		t.Fatalf("avg=%v n=%d, want 3 over 3 entries", avg, n)
	}

	avg, n, err = svc.Average("nobody", 7)
	if err != nil || n != 0 || avg != 0 {
		t.Fatalf("empty history: avg=%v n=%d err=%v", avg, n, err)
	}
}

func TestMoodAffirmationUsesGenerator(t *testing.T) {
	gen := &stubGenerator{available: true, text: "Keep going."}
	svc := NewMoodService(newStubMoodStore(), gen)
	res, err := svc.Record(context.Background(), "u1", 5, "")
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if res.Affirmation != "Keep going." {
		t.Fatalf("affirmation=%q, want generator text", res.Affirmation)
	}
	if !strings.Contains(gen.prompt, "excellent (5)") {
		t.Fatalf("prompt missing mood label: %q", gen.prompt)
	}
}
