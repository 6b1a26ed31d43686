package main

import (
	"fmt"

	"github.com/missionhq/missionctl/internal/config"
	"github.com/missionhq/missionctl/internal/store"
	"github.com/missionhq/missionctl/internal/vault"
)

const telegramTokenKey = "telegram_token"

// resolveTelegramToken returns the bot token, keeping it encrypted at rest
// when a vault passphrase is configured. A token present in the config wins
// and is re-sealed into the store, so the config copy can be removed after
// first start.
func resolveTelegramToken(db *store.Store, cfg config.TelegramConfig) (string, error) {
	if cfg.Passphrase == "" {
		return cfg.Token, nil
	}

	v, err := vault.Open(cfg.Passphrase)
	if err != nil {
		return "", err
	}

	if cfg.Token != "" {
		ciphertext, nonce, err := v.Seal([]byte(cfg.Token))
		if err != nil {
			return "", fmt.Errorf("seal telegram token: %w", err)
		}
		if err := db.SaveSecret(telegramTokenKey, ciphertext, nonce); err != nil {
			return "", err
		}
		return cfg.Token, nil
	}

	ciphertext, nonce, err := db.GetSecret(telegramTokenKey)
	if err != nil {
		return "", err
	}
	if ciphertext == nil {
		return "", nil
	}

	plaintext, err := v.Unseal(ciphertext, nonce)
	if err != nil {
		return "", fmt.Errorf("unseal telegram token: %w", err)
	}
	return string(plaintext), nil
}
