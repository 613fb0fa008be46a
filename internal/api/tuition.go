package api

import (
	"net/http" // HTTP status codes
	"time"     // Timestamps, cache TTL

	"etuition/internal/domain" // Importing domain models
	"etuition/internal/store"  // Data store
	"etuition/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Structured logging
)

const publicCacheTTL = 60 * time.Second

// AddTuitionRequest is a new tuition post
type AddTuitionRequest struct {
	StudentName string `json:"studentName"`
	Subject     string `json:"subject" binding:"required"`
	Class       string `json:"class" binding:"required"`
	Location    string `json:"location"`
	Budget      int    `json:"budget" binding:"gte=0"`
	Details     string `json:"details"`
}

// LatestTuitionsHandler returns the newest approved posts for the home page
func LatestTuitionsHandler(tuitions store.Tuitions, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		cacheKey := publicTuitionsPrefix + "latest"
		var posts []domain.TuitionPost
		// Try to get cached response
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &posts); err == nil && found {
			c.JSON(http.StatusOK, posts)
			return
		}
		posts, err := tuitions.LatestTuitions(ctx, 4)
		if err != nil {
			fail(c, err)
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, posts, publicCacheTTL)
		c.JSON(http.StatusOK, posts)
	}
}

// TuitionDetailsHandler returns one post
func TuitionDetailsHandler(tuitions store.Tuitions) gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := tuitions.GetTuition(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}

// AllTuitionsHandler serves the filtered, sorted, paginated approved listing
func AllTuitionsHandler(tuitions store.Tuitions, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		q := tuitionQuery(c)        // Parse filters, sort and paging
		cacheKey := listCacheKey(q) // Cache key for this query
		var page domain.TuitionPage
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &page); err == nil && found {
			c.JSON(http.StatusOK, page)
			return
		}
		page, err := tuitions.ListApprovedTuitions(ctx, q)
		if err != nil {
			fail(c, err)
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, page, publicCacheTTL)
		c.JSON(http.StatusOK, page)
	}
}

// TuitionFiltersHandler returns the distinct classes, subjects and locations
func TuitionFiltersHandler(tuitions store.Tuitions, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		cacheKey := publicTuitionsPrefix + "filters"
		var filters domain.TuitionFilters
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &filters); err == nil && found {
			c.JSON(http.StatusOK, filters)
			return
		}
		filters, err := tuitions.TuitionFilters(ctx)
		if err != nil {
			fail(c, err)
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, filters, publicCacheTTL)
		c.JSON(http.StatusOK, filters)
	}
}

// LatestTutorsHandler returns the newest tutors
func LatestTutorsHandler(users store.Users) gin.HandlerFunc {
	return tutorsHandler(users, 4)
}

// AllTutorsHandler returns every tutor
func AllTutorsHandler(users store.Users) gin.HandlerFunc {
	return tutorsHandler(users, 0)
}

func tutorsHandler(users store.Users, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		tutors, err := users.ListTutors(c.Request.Context(), limit)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, tutors)
	}
}

// AddTuitionHandler creates a pending post owned by the calling student
func AddTuitionHandler(tuitions store.Tuitions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddTuitionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		post := domain.TuitionPost{
			StudentEmail: callerEmail(c), // Owner is the token identity
			StudentName:  req.StudentName,
			Subject:      req.Subject,
			Class:        req.Class,
			Location:     req.Location,
			Budget:       req.Budget,
			Details:      req.Details,
			Status:       domain.StatusPending, // Awaits admin review
			CreatedAt:    time.Now(),
		}
		if err := tuitions.CreateTuition(c.Request.Context(), &post); err != nil {
			fail(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"tuition_id": post.ID,
			"student":    post.StudentEmail,
			"subject":    post.Subject,
		}).Info("Tuition posted")
		c.JSON(http.StatusOK, domain.InsertResult{Acknowledged: true, InsertedID: post.ID})
	}
}

// MyTuitionsHandler lists the calling student's approved posts
func MyTuitionsHandler(tuitions store.Tuitions) gin.HandlerFunc {
	return func(c *gin.Context) {
		posts, err := tuitions.ListStudentTuitions(c.Request.Context(), callerEmail(c), domain.StatusApproved)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, posts)
	}
}

// UpdateTuitionHandler edits a post owned by the calling student
func UpdateTuitionHandler(tuitions store.Tuitions, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req domain.TuitionUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		res, err := tuitions.UpdateOwnTuition(c.Request.Context(), c.Param("id"), callerEmail(c), req.Fields())
		if err != nil {
			fail(c, err)
			return
		}
		// An approved post may be on the public pages
		if res.ModifiedCount > 0 {
			invalidatePublicTuitions(c.Request.Context(), rdb)
		}
		c.JSON(http.StatusOK, res)
	}
}

// DeleteTuitionHandler deletes a post owned by the calling student
func DeleteTuitionHandler(tuitions store.Tuitions, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := tuitions.DeleteOwnTuition(c.Request.Context(), c.Param("id"), callerEmail(c))
		if err != nil {
			fail(c, err)
			return
		}
		if res.DeletedCount > 0 {
			invalidatePublicTuitions(c.Request.Context(), rdb)
			logrus.WithFields(logrus.Fields{
				"tuition_id": c.Param("id"),
				"student":    callerEmail(c),
			}).Info("Tuition deleted")
		}
		c.JSON(http.StatusOK, res)
	}
}

// StudentStatsHandler counts the calling student's posts by status
func StudentStatsHandler(tuitions store.Tuitions) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := tuitions.StudentStats(c.Request.Context(), callerEmail(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
