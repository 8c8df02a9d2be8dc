package casdoor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/exam-prep-service/internal/cache"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

var userCacheConfig = cache.CacheConfig{
	TTL:    15 * time.Minute,
	Prefix: "user:",
}

// UserCasdoor resolves identities through the Casdoor API with a redis read-through cache
type UserCasdoor struct {
	client *casdoorsdk.Client
	cache  *cache.CacheHelper
}

func NewUserCasdoor(config CasdoorConfig, redisClient *redis.Client) repositories.UserRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	return &UserCasdoor{
		client: client,
		cache:  cache.NewCacheHelper(redisClient, userCacheConfig),
	}
}

func (u *UserCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User

	err := u.cache.CacheOrExecute(ctx, "id:"+id, &user, func() (interface{}, error) {
		casdoorUser, err := u.client.GetUserByUserId(id)
		if err != nil {
			return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
		}
		if casdoorUser == nil {
			return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
		}
		return ConvertUser(casdoorUser), nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (u *UserCasdoor) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, err := u.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ConvertUser maps a Casdoor user onto the internal model
func ConvertUser(casdoorUser *casdoorsdk.User) *models.User {
	var createdAt, updatedAt time.Time
	if casdoorUser.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, casdoorUser.CreatedTime)
	}
	if casdoorUser.UpdatedTime != "" {
		updatedAt, _ = time.Parse(time.RFC3339, casdoorUser.UpdatedTime)
	}

	avatar := casdoorUser.Avatar
	return &models.User{
		ID:            casdoorUser.Id,
		FullName:      casdoorUser.DisplayName,
		Email:         casdoorUser.Email,
		Role:          resolveRole(casdoorUser),
		AvatarURL:     &avatar,
		EmailVerified: casdoorUser.EmailVerified,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}

// resolveRole collapses Casdoor roles; admin wins, everyone else takes tests
func resolveRole(casdoorUser *casdoorsdk.User) models.UserRole {
	if casdoorUser.IsAdmin {
		return models.RoleAdmin
	}

	names := make([]string, 0, len(casdoorUser.Roles))
	for _, role := range casdoorUser.Roles {
		if role != nil {
			names = append(names, strings.ToLower(role.Name))
		}
	}
	if slices.Contains(names, "admin") || slices.Contains(names, "administrator") {
		return models.RoleAdmin
	}
	return models.RoleStudent
}
