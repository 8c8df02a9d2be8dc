package repositories

import "context"

// Repository groups every repository the services depend on
type Repository interface {
	// Catalog domain (read-only)
	Exam() ExamRepository
	Test() TestRepository

	// Attempt domain
	Attempt() AttemptRepository
	Achievement() AchievementRepository
	UserStats() UserStatsRepository

	// User domain (read-only, backed by the identity provider)
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
