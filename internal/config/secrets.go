package config

import (
	"context"
	"encoding/json"
	"fmt"
)

// SecretSource is what the stages need from Secrets Manager; awslib's
// client satisfies it, tests substitute a literal.
type SecretSource interface {
	GetSecretString(ctx context.Context, secretID string) (string, error)
}

// LoadDBSecret fetches and parses one database credential secret. Any
// failure here is fatal to the calling stage: no partial work is possible
// without credentials.
func LoadDBSecret(ctx context.Context, sm SecretSource, secretID string) (DBSecret, error) {
	raw, err := sm.GetSecretString(ctx, secretID)
	if err != nil {
		return DBSecret{}, fmt.Errorf("retrieving secret: %w", err)
	}

	var secret DBSecret
	if err := json.Unmarshal([]byte(raw), &secret); err != nil {
		return DBSecret{}, fmt.Errorf("parsing secret %q as JSON: %w", secretID, err)
	}
	if err := secret.Validate(); err != nil {
		return DBSecret{}, fmt.Errorf("secret %q: %w", secretID, err)
	}
	return secret, nil
}
