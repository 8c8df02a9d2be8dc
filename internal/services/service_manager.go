package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/exam-prep-service/internal/events"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
	"github.com/SAP-F-2025/exam-prep-service/internal/validator"
)

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher

	// Service instances
	testService        TestService
	attemptService     AttemptService
	achievementService AchievementService
	resultsService     ResultsService
	userService        UserService
	exportService      ExportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies.
// A nil publisher disables event publishing.
func NewServiceManager(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ServiceManager {
	return &serviceManager{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.achievementService = NewAchievementService(sm.repo, sm.logger, sm.publisher)
	sm.testService = NewTestService(sm.repo, sm.logger, sm.validator)
	sm.attemptService = NewAttemptService(sm.repo, sm.logger, sm.validator, sm.publisher, sm.achievementService)
	sm.resultsService = NewResultsService(sm.repo, sm.logger)
	sm.userService = NewUserService(sm.repo, sm.logger, sm.validator, sm.achievementService)
	sm.exportService = NewExportService(sm.repo, sm.logger)

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

// Service getters
func (sm *serviceManager) Test() TestService {
	sm.mustBeInitialized()
	return sm.testService
}

func (sm *serviceManager) Attempt() AttemptService {
	sm.mustBeInitialized()
	return sm.attemptService
}

func (sm *serviceManager) Achievement() AchievementService {
	sm.mustBeInitialized()
	return sm.achievementService
}

func (sm *serviceManager) Results() ResultsService {
	sm.mustBeInitialized()
	return sm.resultsService
}

func (sm *serviceManager) User() UserService {
	sm.mustBeInitialized()
	return sm.userService
}

func (sm *serviceManager) Export() ExportService {
	sm.mustBeInitialized()
	return sm.exportService
}

func (sm *serviceManager) mustBeInitialized() {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

// Shutdown flushes the event publisher. The repository is owned by the caller.
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}
