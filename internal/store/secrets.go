package store

import (
	"database/sql"
	"fmt"
)

// SaveSecret stores ciphertext and nonce for key; encryption happens in the
// vault, the store only persists opaque bytes.
func (s *Store) SaveSecret(key string, ciphertext, nonce []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO secrets (key, ciphertext, nonce, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			ciphertext = excluded.ciphertext,
			nonce = excluded.nonce,
			updated_at = CURRENT_TIMESTAMP`,
		key, ciphertext, nonce)
	if err != nil {
		return fmt.Errorf("save secret: %w", err)
	}
	return nil
}

func (s *Store) GetSecret(key string) (ciphertext, nonce []byte, err error) {
	err = s.db.QueryRow(`SELECT ciphertext, nonce FROM secrets WHERE key = ?`, key).
		Scan(&ciphertext, &nonce)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get secret: %w", err)
	}
	return ciphertext, nonce, nil
}

func (s *Store) DeleteSecret(key string) error {
	_, err := s.db.Exec(`DELETE FROM secrets WHERE key = ?`, key)
	return err
}
