package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("token has no subject")
)

// TokenVerifierConfig configures token verification.
type TokenVerifierConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// TokenVerifier validates provider-issued HMAC-signed JWTs.
type TokenVerifier struct {
	cfg TokenVerifierConfig
}

func NewTokenVerifier(cfg TokenVerifierConfig) *TokenVerifier {
	return &TokenVerifier{cfg: cfg}
}

func (v *TokenVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(v.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, ErrMissingSubject
	}

	email, _ := claims["email"].(string)

	return &Identity{
		SubjectID: subject,
		Email:     email,
		Claims:    claims,
	}, nil
}
