package repositories

import (
	"context"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
)

// UserRepository reads identities from the auth provider
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
}
