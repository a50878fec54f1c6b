// Package auth is the authorization gate. It resolves a bearer token to
// a directory user and checks role requirements. Every authentication
// failure surfaces the same generic message so callers cannot probe for
// which accounts exist.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"
	"github.com/latra/medicsystem-gta-backend/pkg/identity"
	"github.com/latra/medicsystem-gta-backend/pkg/logger"

	"github.com/latra/medicsystem-gta-backend/internal/model"
	"github.com/latra/medicsystem-gta-backend/internal/repository"
)

// Principal is the authenticated caller handed to handlers.
type Principal struct {
	User *model.User
}

func (p *Principal) Role() model.UserRole { return p.User.Role }
func (p *Principal) IsAdmin() bool        { return p.User.IsAdmin }
func (p *Principal) DNI() string          { return p.User.DNI }

type AuthService interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
	Authorize(principal *Principal, req Requirement) error
	RevokeUser(ctx context.Context, subjectID string) error
	RestoreUser(ctx context.Context, subjectID string) error
}

const revokedSetKey = "auth:revoked_subjects"

type Service struct {
	verifier identity.Verifier
	users    repository.UserRepository
	cache    *cache.Cache
	redis    redis.UniversalClient
	logger   *logger.Logger
}

// NewService builds the gate. The redis client may be nil; revocation
// checks then fall back to the directory's enabled flag alone.
func NewService(verifier identity.Verifier, users repository.UserRepository, redisClient redis.UniversalClient, cacheTTL time.Duration, log *logger.Logger) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{
		verifier: verifier,
		users:    users,
		cache:    cache.New(cacheTTL, 2*cacheTTL),
		redis:    redisClient,
		logger:   log,
	}
}

// Authenticate verifies the token, loads the matching user and rejects
// disabled or revoked accounts. All failures map to the same
// unauthenticated error.
func (s *Service) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, apperrors.Unauthenticated(nil)
	}

	ident, err := s.verifier.Verify(ctx, token)
	if err != nil {
		s.logger.Debug(fmt.Sprintf("token verification failed: %v", err))
		return nil, apperrors.Unauthenticated(err)
	}

	if s.isRevoked(ctx, ident.SubjectID) {
		return nil, apperrors.Unauthenticated(nil)
	}

	user, err := s.lookupUser(ctx, ident.SubjectID)
	if err != nil {
		s.logger.Debug(fmt.Sprintf("user lookup failed for subject: %v", err))
		return nil, apperrors.Unauthenticated(err)
	}

	if !user.Enabled {
		return nil, apperrors.Unauthenticated(nil)
	}

	return &Principal{User: user}, nil
}

func (s *Service) lookupUser(ctx context.Context, subjectID string) (*model.User, error) {
	if cached, ok := s.cache.Get(subjectID); ok {
		return cached.(*model.User), nil
	}
	user, err := s.users.GetBySubjectID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(subjectID, user, cache.DefaultExpiration)
	return user, nil
}

// isRevoked consults the revocation set. Redis being down fails open;
// the directory enabled flag still catches disabled accounts.
func (s *Service) isRevoked(ctx context.Context, subjectID string) bool {
	if s.redis == nil {
		return false
	}
	revoked, err := s.redis.SIsMember(ctx, revokedSetKey, subjectID).Result()
	if err != nil {
		s.logger.Warn(fmt.Sprintf("revocation check failed, falling back to directory flag: %v", err))
		return false
	}
	return revoked
}

// RevokeUser adds the subject to the revocation set and drops the
// cached user so the lockout takes effect immediately.
func (s *Service) RevokeUser(ctx context.Context, subjectID string) error {
	s.cache.Delete(subjectID)
	if s.redis == nil {
		return nil
	}
	if err := s.redis.SAdd(ctx, revokedSetKey, subjectID).Err(); err != nil {
		return fmt.Errorf("failed to revoke subject: %w", err)
	}
	return nil
}

func (s *Service) RestoreUser(ctx context.Context, subjectID string) error {
	s.cache.Delete(subjectID)
	if s.redis == nil {
		return nil
	}
	if err := s.redis.SRem(ctx, revokedSetKey, subjectID).Err(); err != nil {
		return fmt.Errorf("failed to restore subject: %w", err)
	}
	return nil
}

// Authorize checks the requirement against an already authenticated
// principal. Unmet requirements are reported by name in the error.
func (s *Service) Authorize(principal *Principal, req Requirement) error {
	if principal == nil {
		return apperrors.Unauthenticated(nil)
	}
	return req.Check(principal)
}
