package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/allroundedgrowth/glucobalance/internal/api"
	"github.com/allroundedgrowth/glucobalance/internal/services"
)

// SQLiteStore implements api.Store on a sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ api.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func encodeTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		log.Printf("sqlite store: decode time %q: %v", s, err)
		return time.Time{}
	}
	return t
}

func encodeJSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("sqlite store: encode json: %v", err)
		return ""
	}
	return string(b)
}

func decodeResponses(s string) map[string]int {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out map[string]int
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		log.Printf("sqlite store: decode responses: %v", err)
		return nil
	}
	return out
}

func decodeStringSlice(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		log.Printf("sqlite store: decode string slice: %v", err)
		return nil
	}
	return out
}

func (s *SQLiteStore) AddUser(u *services.User) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, email, name, pass_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, strings.ToLower(u.Email), u.Name, u.PassHash, encodeTime(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindUserByEmail(email string) (*services.User, error) {
	row := s.db.QueryRow(
		`SELECT id, email, name, pass_hash, created_at FROM users WHERE email = ?`,
		strings.ToLower(email),
	)
	var u services.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PassHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.CreatedAt = decodeTime(createdAt)
	return &u, nil
}

func (s *SQLiteStore) SaveAssessment(rec *services.AssessmentRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO assessments (id, user_id, score, category, responses, explanation, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Score, string(rec.Category),
		encodeJSON(rec.Responses), rec.Explanation, encodeTime(rec.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListAssessmentsByUser(userID string) ([]*services.AssessmentRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, score, category, responses, explanation, completed_at
		   FROM assessments WHERE user_id = ? ORDER BY completed_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []*services.AssessmentRecord{}
	for rows.Next() {
		var rec services.AssessmentRecord
		var category, responses, completedAt string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Score, &category, &responses, &rec.Explanation, &completedAt); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		rec.Category = services.RiskCategory(category)
		rec.Responses = decodeResponses(responses)
		rec.CompletedAt = decodeTime(completedAt)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) LatestAssessmentByUser(userID string) (*services.AssessmentRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, score, category, responses, explanation, completed_at
		   FROM assessments WHERE user_id = ? ORDER BY completed_at DESC LIMIT 1`,
		userID,
	)
	var rec services.AssessmentRecord
	var category, responses, completedAt string
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Score, &category, &responses, &rec.Explanation, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest assessment: %w", err)
	}
	rec.Category = services.RiskCategory(category)
	rec.Responses = decodeResponses(responses)
	rec.CompletedAt = decodeTime(completedAt)
	return &rec, nil
}

func (s *SQLiteStore) UpsertMood(e *services.MoodEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO moods (user_id, day, id, mood, note, recorded_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, day) DO UPDATE SET
		   id = excluded.id, mood = excluded.mood, note = excluded.note, recorded_at = excluded.recorded_at`,
		e.UserID, e.Day, e.ID, e.Mood, e.Note, encodeTime(e.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert mood: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListMoodsByUser(userID string, since time.Time) ([]*services.MoodEntry, error) {
	rows, err := s.db.Query(
		`SELECT user_id, day, id, mood, note, recorded_at FROM moods
		  WHERE user_id = ? AND recorded_at >= ? ORDER BY day ASC`,
		userID, encodeTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("list moods: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []*services.MoodEntry{}
	for rows.Next() {
		var e services.MoodEntry
		var recordedAt string
		if err := rows.Scan(&e.UserID, &e.Day, &e.ID, &e.Mood, &e.Note, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan mood: %w", err)
		}
		e.RecordedAt = decodeTime(recordedAt)
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SavePlan(p *services.NutritionPlan) error {
	_, err := s.db.Exec(
		`INSERT INTO nutrition_plans (id, user_id, restrictions, cuisine, plan_text, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, encodeJSON(p.Restrictions), p.Cuisine, p.PlanText, p.Source, encodeTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListPlansByUser(userID string) ([]*services.NutritionPlan, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, restrictions, cuisine, plan_text, source, created_at
		   FROM nutrition_plans WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []*services.NutritionPlan{}
	for rows.Next() {
		var p services.NutritionPlan
		var restrictions, createdAt string
		if err := rows.Scan(&p.ID, &p.UserID, &restrictions, &p.Cuisine, &p.PlanText, &p.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		p.Restrictions = decodeStringSlice(restrictions)
		p.CreatedAt = decodeTime(createdAt)
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CountPlansByUser(userID string) (int, error) {
	row := s.db.QueryRow(`SELECT COUNT(*) FROM nutrition_plans WHERE user_id = ?`, userID)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count plans: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) AddAudit(e services.AuditEntry) {
	_, err := s.db.Exec(
		`INSERT INTO audit_log (time, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		encodeTime(e.Time), e.Actor, e.Action, e.Target, e.Note,
	)
	if err != nil {
		log.Printf("sqlite store: add audit: %v", err)
	}
}

func (s *SQLiteStore) ListAudit() []services.AuditEntry {
	rows, err := s.db.Query(`SELECT time, actor, action, target, note FROM audit_log ORDER BY id ASC`)
	if err != nil {
		log.Printf("sqlite store: list audit: %v", err)
		return nil
	}
	defer func() { _ = rows.Close() }()
	out := []services.AuditEntry{}
	for rows.Next() {
		var e services.AuditEntry
		var at string
		if err := rows.Scan(&at, &e.Actor, &e.Action, &e.Target, &e.Note); err != nil {
			log.Printf("sqlite store: scan audit: %v", err)
			return out
		}
		e.Time = decodeTime(at)
		out = append(out, e)
	}
	return out
}
