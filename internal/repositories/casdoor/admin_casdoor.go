package casdoor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/cbt-service/internal/cache"
	"github.com/SAP-F-2025/cbt-service/internal/config"
	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
)

// NewClient builds a Casdoor SDK client from service configuration.
func NewClient(cfg config.CasdoorConfig) *casdoorsdk.Client {
	return casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
}

// AdminCasdoor resolves admins managed in Casdoor. Users without an admin
// role are reported as not found.
type AdminCasdoor struct {
	client *casdoorsdk.Client
	cache  *cache.CacheHelper
}

func NewAdminCasdoor(cfg config.CasdoorConfig, redisClient *redis.Client) repositories.AdminDirectory {
	return &AdminCasdoor{
		client: NewClient(cfg),
		cache:  cache.NewCacheManager(redisClient).Admin,
	}
}

func (a *AdminCasdoor) GetByID(ctx context.Context, id string) (*models.Principal, error) {
	key := "casdoor:" + id

	var principal models.Principal
	if err := a.cache.Get(ctx, key, &principal); err == nil {
		return &principal, nil
	} else if !errors.Is(err, cache.ErrCacheNotFound) && !errors.Is(err, cache.ErrCacheNotAvailable) {
		return nil, err
	}

	user, err := a.client.GetUserByUserId(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
	}
	p, err := resolveAdmin(id, user)
	if err != nil {
		return nil, err
	}

	if err := a.cache.Set(ctx, key, p, cache.AdminCacheConfig.TTL); err != nil {
		cache.SafeDelete(ctx, a.cache, key)
	}
	return p, nil
}

func resolveAdmin(id string, user *casdoorsdk.User) (*models.Principal, error) {
	if user == nil {
		return nil, fmt.Errorf("casdoor user %s: %w", id, repositories.ErrNotFound)
	}
	p, ok := ToPrincipal(user)
	if !ok {
		return nil, fmt.Errorf("casdoor user %s has no admin role: %w", id, repositories.ErrNotFound)
	}
	return p, nil
}

// ToPrincipal maps a Casdoor user onto an admin principal. The second result
// is false when the user holds neither an admin nor an exam-admin role.
func ToPrincipal(user *casdoorsdk.User) (*models.Principal, bool) {
	role, ok := mapRole(user)
	if !ok {
		return nil, false
	}
	name := user.DisplayName
	if name == "" {
		name = user.Name
	}
	return &models.Principal{
		ID:       user.Id,
		Email:    user.Email,
		Name:     name,
		Role:     role,
		Provider: "casdoor",
	}, true
}

func mapRole(user *casdoorsdk.User) (models.AdminRole, bool) {
	if user.IsAdmin {
		return models.RoleSuperAdmin, true
	}

	examAdmin := false
	for _, r := range user.Roles {
		if r == nil {
			continue
		}
		switch strings.ToLower(r.Name) {
		case "admin", "administrator", "super_admin":
			return models.RoleSuperAdmin, true
		case "exam_admin", "teacher", "instructor":
			examAdmin = true
		}
	}
	if examAdmin {
		return models.RoleExamAdmin, true
	}
	return "", false
}
