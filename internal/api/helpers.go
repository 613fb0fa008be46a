package api

import (
	"context" // Context for Redis operations
	"strconv" // String conversion
	"strings" // Cache key building

	"etuition/internal/domain"     // Importing domain models
	"etuition/internal/middleware" // Caller identity
	"etuition/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Structured logging
)

// Cache key prefix for everything served to anonymous visitors about posts
const publicTuitionsPrefix = "tuitions:public:"

// fail hands err to middleware.ErrorHandler
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

// intQuery reads a positive integer query parameter, falling back to def
func intQuery(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil && v > 0 {
		return v
	}
	return def
}

// tuitionQuery reads the public listing parameters
func tuitionQuery(c *gin.Context) domain.TuitionQuery {
	q := domain.TuitionQuery{
		Search:   strings.TrimSpace(c.Query("search")),
		Class:    strings.TrimSpace(c.Query("class")),
		Subject:  strings.TrimSpace(c.Query("subject")),
		Location: strings.TrimSpace(c.Query("location")),
		Sort:     c.DefaultQuery("sort", domain.SortDateDesc),
		Page:     intQuery(c, "page", 1),
		Limit:    min(intQuery(c, "limit", 8), 100), // Cap page size
	}
	switch q.Sort {
	case domain.SortBudgetAsc, domain.SortBudgetDesc, domain.SortDateAsc, domain.SortDateDesc:
	default:
		q.Sort = domain.SortDateDesc
	}
	return q
}

// listCacheKey derives the cache key of a listing query
func listCacheKey(q domain.TuitionQuery) string {
	parts := []string{
		"search=" + strings.ToLower(q.Search),
		"class=" + strings.ToLower(q.Class),
		"subject=" + strings.ToLower(q.Subject),
		"location=" + strings.ToLower(q.Location),
		"sort=" + q.Sort,
		"page=" + strconv.Itoa(q.Page),
		"limit=" + strconv.Itoa(q.Limit),
	}
	return publicTuitionsPrefix + "list:" + strings.Join(parts, ":")
}

// invalidatePublicTuitions drops every cached public view of posts
func invalidatePublicTuitions(ctx context.Context, rdb *redis.Client) {
	if err := utils.DeleteCachePrefix(ctx, rdb, publicTuitionsPrefix); err != nil {
		logrus.WithField("error", err.Error()).Warn("Failed to invalidate tuition cache")
	}
}

// callerEmail is the authenticated caller's email
func callerEmail(c *gin.Context) string {
	return middleware.Email(c)
}
