package app

import (
	"fmt"
	"log/slog"

	"github.com/lecternhq/lectern/pkg/cryptox"
	"github.com/lecternhq/lectern/pkg/jwtx"
)

// InitSecrets builds the HS256 secret set from the configuration.
//
// Outside development a configured AUTH_JWT_SECRET is mandatory. In
// development a missing secret is replaced by a random one, so every token
// issued before a restart stops verifying.
//
// AUTH_JWT_PREVIOUS_SECRETS keeps retired secrets usable for verification
// while tokens they signed are still alive.
func InitSecrets(cfg Config, logger *slog.Logger) (*jwtx.SecretSet, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		if cfg.Env != EnvDevelopment {
			return nil, fmt.Errorf("AUTH_JWT_SECRET is required when ENV=%s", cfg.Env)
		}

		generated, err := cryptox.GenerateToken(jwtx.MinSecretLength)
		if err != nil {
			return nil, fmt.Errorf("generate development secret: %w", err)
		}
		secret = generated
		logger.Warn("AUTH_JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	keys, err := jwtx.NewSecretSet(secret, cfg.JWTPreviousSecrets...)
	if err != nil {
		return nil, fmt.Errorf("load signing secrets: %w", err)
	}

	logger.Info("signing secrets loaded",
		"kid", jwtx.KeyID(secret),
		"verification_keys", keys.Len(),
		"issuer", cfg.Issuer,
	)
	return keys, nil
}
