package services

// pageBounds applies defaults and returns the page, limit and row offset
func pageBounds(page, limit, defaultLimit int) (int, int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return page, limit, (page - 1) * limit
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
