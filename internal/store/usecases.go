package store

import (
	"database/sql"
	"fmt"
	"time"
)

type UseCase struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Industry  string    `json:"industry,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Store) SaveUseCase(u *UseCase) error {
	_, err := s.db.Exec(`
		INSERT INTO use_cases (id, name, industry, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			industry = excluded.industry,
			active = excluded.active,
			updated_at = CURRENT_TIMESTAMP`,
		u.ID, u.Name, u.Industry, u.Active)
	if err != nil {
		return fmt.Errorf("save use case: %w", err)
	}
	return nil
}

func (s *Store) GetUseCase(id string) (*UseCase, error) {
	u := &UseCase{}
	var industry sql.NullString
	err := s.db.QueryRow(`SELECT id, name, industry, active, created_at, updated_at FROM use_cases WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &industry, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get use case: %w", err)
	}
	u.Industry = industry.String
	return u, nil
}

func (s *Store) ListUseCases() ([]UseCase, error) {
	rows, err := s.db.Query(`SELECT id, name, industry, active, created_at, updated_at FROM use_cases ORDER BY industry, name`)
	if err != nil {
		return nil, fmt.Errorf("list use cases: %w", err)
	}
	defer rows.Close()

	var out []UseCase
	for rows.Next() {
		var u UseCase
		var industry sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &industry, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan use case: %w", err)
		}
		u.Industry = industry.String
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) DeleteUseCasesNotIn(ids []string) error {
	if len(ids) == 0 {
		_, err := s.db.Exec(`DELETE FROM use_cases`)
		return err
	}
	query := `DELETE FROM use_cases WHERE id NOT IN (`
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			query += ","
		}
		query += "?"
		args[i] = id
	}
	query += ")"
	_, err := s.db.Exec(query, args...)
	return err
}

// Selection persistence: the dashboard restores the last-selected use case
// across restarts.

const selectedUseCaseKey = "selected_use_case"

func (s *Store) SetSelectedUseCase(id string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		selectedUseCaseKey, id)
	if err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return nil
}

func (s *Store) SelectedUseCase() (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, selectedUseCaseKey).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get selection: %w", err)
	}
	return id, nil
}
