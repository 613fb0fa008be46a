package api

import (
	"net/http" // HTTP status codes

	"etuition/internal/domain"     // Importing domain models
	"etuition/internal/middleware" // Caller identity
	"etuition/internal/store"      // Data store

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Structured logging
	"golang.org/x/sync/errgroup"   // Concurrent aggregations
)

// StatusRequest moves a post through review
type StatusRequest struct {
	Status string `json:"status" binding:"required"` // Pending, Approved or Rejected
}

// ListUsersHandler returns every user
func ListUsersHandler(users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := users.ListUsers(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// UpdateUserHandler edits a user's profile, role or status
func UpdateUserHandler(users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req domain.UserUpdate // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		fields, err := req.Fields() // Rejects unknown roles and statuses
		if err != nil {
			fail(c, err)
			return
		}
		res, err := users.UpdateUser(c.Request.Context(), c.Param("id"), fields)
		if err != nil {
			fail(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":  c.Param("id"),
			"admin":    middleware.Email(c),
			"modified": res.ModifiedCount,
		}).Info("User updated")
		c.JSON(http.StatusOK, res)
	}
}

// DeleteUserHandler removes a user
func DeleteUserHandler(users store.Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := users.DeleteUser(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id": c.Param("id"),
			"admin":   middleware.Email(c),
		}).Info("User deleted")
		c.JSON(http.StatusOK, res)
	}
}

// ListTuitionsHandler returns every post in any status
func ListTuitionsHandler(tuitions store.Tuitions) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := tuitions.ListTuitions(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// UpdateTuitionStatusHandler approves or rejects a post
func UpdateTuitionStatusHandler(tuitions store.Tuitions, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil || !domain.ValidPostStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status value"})
			return
		}
		res, err := tuitions.SetTuitionStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			fail(c, err)
			return
		}
		// Public listings show approved posts only
		if res.ModifiedCount > 0 {
			invalidatePublicTuitions(c.Request.Context(), rdb)
		}
		logrus.WithFields(logrus.Fields{
			"tuition_id": c.Param("id"),
			"status":     req.Status,
			"admin":      middleware.Email(c),
		}).Info("Tuition status changed")
		c.JSON(http.StatusOK, res)
	}
}

// ReportsHandler returns total earnings and every paid transaction
func ReportsHandler(payments store.Payments) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := payments.Report(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// AdminStatsHandler runs the dashboard aggregations concurrently
func AdminStatsHandler(stats store.Stats) gin.HandlerFunc {
	return func(c *gin.Context) {
		var out domain.AdminStats
		g, ctx := errgroup.WithContext(c.Request.Context())
		g.Go(func() (err error) {
			out.UserStats, err = stats.CountUsersBy(ctx, store.ByStatus)
			return err
		})
		g.Go(func() (err error) {
			out.RoleStats, err = stats.CountUsersBy(ctx, store.ByRole)
			return err
		})
		g.Go(func() (err error) {
			out.TuitionStats, err = stats.CountTuitionsByStatus(ctx)
			return err
		})
		g.Go(func() (err error) {
			out.TotalTuitions, err = stats.CountTuitions(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}
