package store

import (
	"database/sql"
	"fmt"
	"time"
)

type Run struct {
	ID          string     `json:"id"`
	UseCaseID   string     `json:"use_case_id"`
	Status      string     `json:"status"`
	Trigger     string     `json:"trigger"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (s *Store) SaveRun(r *Run) error {
	trigger := r.Trigger
	if trigger == "" {
		trigger = "manual"
	}
	_, err := s.db.Exec(`
		INSERT INTO runs (id, use_case_id, status, triggered_by)
		VALUES (?, ?, ?, ?)`,
		r.ID, r.UseCaseID, r.Status, trigger)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

func (s *Store) FinishRun(id, status string) error {
	_, err := s.db.Exec(`
		UPDATE runs SET status = ?, completed_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

func (s *Store) GetRun(id string) (*Run, error) {
	r := &Run{}
	var completed sql.NullTime
	err := s.db.QueryRow(`SELECT id, use_case_id, status, triggered_by, started_at, completed_at FROM runs WHERE id = ?`, id).
		Scan(&r.ID, &r.UseCaseID, &r.Status, &r.Trigger, &r.StartedAt, &completed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if completed.Valid {
		r.CompletedAt = &completed.Time
	}
	return r, nil
}

func (s *Store) ListRuns(useCaseID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, use_case_id, status, triggered_by, started_at, completed_at FROM runs`
	args := []any{}
	if useCaseID != "" {
		query += ` WHERE use_case_id = ?`
		args = append(args, useCaseID)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var completed sql.NullTime
		if err := rows.Scan(&r.ID, &r.UseCaseID, &r.Status, &r.Trigger, &r.StartedAt, &completed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if completed.Valid {
			r.CompletedAt = &completed.Time
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
