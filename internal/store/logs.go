package store

import (
	"fmt"
	"time"
)

type IntegrationLog struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id,omitempty"`
	UseCaseID string    `json:"use_case_id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Agent     string    `json:"agent,omitempty"`
	Workflow  string    `json:"workflow,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LogFilter mirrors the pure in-memory filter's semantics on the SQL side:
// empty or "all" selectors match everything, others match exactly, combined
// with AND.
type LogFilter struct {
	Agent    string
	Workflow string
	Type     string
}

func (s *Store) SaveIntegrationLog(l *IntegrationLog) error {
	result, err := s.db.Exec(`
		INSERT INTO integration_logs (run_id, use_case_id, message, type, agent, workflow)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.RunID, l.UseCaseID, l.Message, l.Type, l.Agent, l.Workflow)
	if err != nil {
		return fmt.Errorf("save integration log: %w", err)
	}
	l.ID, _ = result.LastInsertId()
	return nil
}

func (s *Store) GetIntegrationLogs(useCaseID string, f LogFilter, limit int) ([]IntegrationLog, error) {
	if limit <= 0 {
		limit = 200
	}

	query := `SELECT id, run_id, use_case_id, message, type, agent, workflow, created_at
		FROM integration_logs WHERE use_case_id = ?`
	args := []any{useCaseID}

	if f.Agent != "" && f.Agent != "all" {
		query += ` AND agent = ?`
		args = append(args, f.Agent)
	}
	if f.Workflow != "" && f.Workflow != "all" {
		query += ` AND workflow = ?`
		args = append(args, f.Workflow)
	}
	if f.Type != "" && f.Type != "all" {
		query += ` AND type = ?`
		args = append(args, f.Type)
	}

	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("get integration logs: %w", err)
	}
	defer rows.Close()

	var out []IntegrationLog
	for rows.Next() {
		var l IntegrationLog
		if err := rows.Scan(&l.ID, &l.RunID, &l.UseCaseID, &l.Message, &l.Type, &l.Agent, &l.Workflow, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan integration log: %w", err)
		}
		out = append(out, l)
	}

	// Reverse to chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return out, rows.Err()
}

// RecordDownload appends a report download audit row.
func (s *Store) RecordDownload(reportID, reportName, useCaseID, status string) error {
	_, err := s.db.Exec(`
		INSERT INTO report_downloads (report_id, report_name, use_case_id, status)
		VALUES (?, ?, ?, ?)`,
		reportID, reportName, useCaseID, status)
	if err != nil {
		return fmt.Errorf("record download: %w", err)
	}
	return nil
}

func (s *Store) CountDownloads(useCaseID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM report_downloads WHERE use_case_id = ?`, useCaseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count downloads: %w", err)
	}
	return n, nil
}
