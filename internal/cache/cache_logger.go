package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeDelete deletes keys and logs instead of failing
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// SafeInvalidatePattern invalidates a pattern and logs instead of failing
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

func TestKey(testID uint) string {
	return fmt.Sprintf("id:%d", testID)
}

func ExamTestsKey(examID uint) string {
	return fmt.Sprintf("exam:%d:tests", examID)
}

func ExamKey(examID uint) string {
	return fmt.Sprintf("id:%d", examID)
}

func ActiveExamsPageKey(limit, offset int) string {
	return fmt.Sprintf("list:active:%d:%d", limit, offset)
}

func UserStatsKey(userID string) string {
	return fmt.Sprintf("user:%s:stats", userID)
}

// InvalidateUserStats drops every cached aggregate for the user
func InvalidateUserStats(ctx context.Context, cm *CacheManager, userID string) {
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("user:%s:*", userID))
}
