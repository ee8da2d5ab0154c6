package app

import "github.com/hamzarao/carsaaz/internal/auth"

// JWTServiceConfig converts AuthConfig to the auth package representation.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: c.JWT.TTL,
	}
}
