package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/models"
	"github.com/darsy-edu/darsy-api/internal/repository"
)

// PermissionService maps a staff principal to its capability set. The owner
// implicitly holds every capability; supervisor snapshots are cached with a
// short TTL, so callers tolerate a bounded staleness window but never an
// unbounded one.
type PermissionService interface {
	Authorize(ctx context.Context, principal Principal, capability models.Capability) error
	AuthorizeAny(ctx context.Context, principal Principal, capabilities ...models.Capability) error
	// Invalidate drops the cached snapshot for a supervisor after a
	// capability mutation or deletion.
	Invalidate(ctx context.Context, supervisorID uint)
}

type permissionService struct {
	repo     repository.SupervisorRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewPermissionService builds the capability resolver. The cache client may
// be nil, in which case every check hits the repository.
func NewPermissionService(repo repository.SupervisorRepository, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) PermissionService {
	if cacheTTL <= 0 || cacheTTL > time.Minute {
		cacheTTL = time.Minute
	}
	return &permissionService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.With().Str("component", "permission_service").Logger(),
	}
}

func (s *permissionService) Authorize(ctx context.Context, principal Principal, capability models.Capability) error {
	switch principal.Role {
	case RoleOwner:
		return nil
	case RoleSupervisor:
		set, err := s.resolve(ctx, principal.ID)
		if err != nil {
			return err
		}
		if !set.Has(capability) {
			return ErrForbidden
		}
		return nil
	case "":
		return ErrUnauthenticated
	default:
		return ErrForbidden
	}
}

func (s *permissionService) AuthorizeAny(ctx context.Context, principal Principal, capabilities ...models.Capability) error {
	switch principal.Role {
	case RoleOwner:
		return nil
	case RoleSupervisor:
		set, err := s.resolve(ctx, principal.ID)
		if err != nil {
			return err
		}
		for _, capability := range capabilities {
			if set.Has(capability) {
				return nil
			}
		}
		return ErrForbidden
	case "":
		return ErrUnauthenticated
	default:
		return ErrForbidden
	}
}

func (s *permissionService) Invalidate(ctx context.Context, supervisorID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, capabilityCacheKey(supervisorID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("supervisor_id", supervisorID).Msg("failed to drop capability cache entry")
	}
}

func (s *permissionService) resolve(ctx context.Context, supervisorID uint) (models.CapabilitySet, error) {
	if supervisorID == 0 {
		return nil, ErrUnauthenticated
	}

	cacheKey := capabilityCacheKey(supervisorID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var values []string
			if unmarshalErr := json.Unmarshal([]byte(cached), &values); unmarshalErr == nil {
				return models.NewCapabilitySet(values), nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read capability cache")
		}
	}

	supervisor, err := s.repo.GetByID(ctx, supervisorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	set := supervisor.CapabilitySet()
	if s.cache != nil {
		payload, err := json.Marshal(set.Strings())
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store capability cache")
			}
		}
	}
	return set, nil
}

func capabilityCacheKey(supervisorID uint) string {
	return fmt.Sprintf("capabilities:supervisor:%d", supervisorID)
}
