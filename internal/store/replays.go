package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ReplayTask re-deploys a use case on a schedule (kiosk mode).
type ReplayTask struct {
	ID         string     `json:"id"`
	UseCaseID  string     `json:"use_case_id"`
	Name       string     `json:"name"`
	Schedule   string     `json:"schedule"`
	Status     string     `json:"status"`
	NextRunAt  *time.Time `json:"next_run_at,omitempty"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	LastStatus string     `json:"last_status,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (s *Store) SaveReplayTask(t *ReplayTask) error {
	status := t.Status
	if status == "" {
		status = "active"
	}
	var nextRun any
	if t.NextRunAt != nil {
		nextRun = *t.NextRunAt
	}
	_, err := s.db.Exec(`
		INSERT INTO replay_tasks (id, use_case_id, name, schedule, status, next_run_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			use_case_id = excluded.use_case_id,
			name = excluded.name,
			schedule = excluded.schedule,
			status = excluded.status,
			next_run_at = excluded.next_run_at`,
		t.ID, t.UseCaseID, t.Name, t.Schedule, status, nextRun)
	if err != nil {
		return fmt.Errorf("save replay task: %w", err)
	}
	return nil
}

func (s *Store) GetDueReplayTasks(now time.Time) ([]ReplayTask, error) {
	rows, err := s.db.Query(`
		SELECT id, use_case_id, name, schedule, status, next_run_at, last_run_at, last_status, last_error, created_at
		FROM replay_tasks
		WHERE status = 'active' AND next_run_at IS NOT NULL AND next_run_at <= ?`, now)
	if err != nil {
		return nil, fmt.Errorf("get due replay tasks: %w", err)
	}
	defer rows.Close()
	return scanReplayTasks(rows)
}

func (s *Store) ListReplayTasks() ([]ReplayTask, error) {
	rows, err := s.db.Query(`
		SELECT id, use_case_id, name, schedule, status, next_run_at, last_run_at, last_status, last_error, created_at
		FROM replay_tasks ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list replay tasks: %w", err)
	}
	defer rows.Close()
	return scanReplayTasks(rows)
}

func scanReplayTasks(rows *sql.Rows) ([]ReplayTask, error) {
	var out []ReplayTask
	for rows.Next() {
		var t ReplayTask
		var nextRun, lastRun sql.NullTime
		var lastStatus, lastError sql.NullString
		if err := rows.Scan(&t.ID, &t.UseCaseID, &t.Name, &t.Schedule, &t.Status,
			&nextRun, &lastRun, &lastStatus, &lastError, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan replay task: %w", err)
		}
		if nextRun.Valid {
			t.NextRunAt = &nextRun.Time
		}
		if lastRun.Valid {
			t.LastRunAt = &lastRun.Time
		}
		t.LastStatus = lastStatus.String
		t.LastError = lastError.String
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) UpdateReplayRun(id, lastStatus, lastError string, nextRun *time.Time) error {
	var next any
	if nextRun != nil {
		next = *nextRun
	}
	_, err := s.db.Exec(`
		UPDATE replay_tasks
		SET last_run_at = CURRENT_TIMESTAMP, last_status = ?, last_error = ?, next_run_at = ?
		WHERE id = ?`,
		lastStatus, lastError, next, id)
	if err != nil {
		return fmt.Errorf("update replay run: %w", err)
	}
	return nil
}

func (s *Store) UpdateReplayStatus(id, status string) error {
	_, err := s.db.Exec(`UPDATE replay_tasks SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update replay status: %w", err)
	}
	return nil
}

func (s *Store) DeleteReplayTask(id string) error {
	_, err := s.db.Exec(`DELETE FROM replay_tasks WHERE id = ?`, id)
	return err
}
