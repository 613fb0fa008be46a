package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"time"     // Timestamps

	"etuition/internal/domain" // Importing domain models
	"etuition/internal/store"  // Data store

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

const alreadyApplied = "You have already applied to this tuition."

// ApplyRequest is a tutor's application to a post
type ApplyRequest struct {
	TuitionID      string `json:"tuitionId" binding:"required"`
	TutorEmail     string `json:"tutorEmail" binding:"required,email"`
	TutorName      string `json:"tutorName"`
	Qualifications string `json:"qualifications"`
	Experience     string `json:"experience"`
	ExpectedSalary int    `json:"expectedSalary" binding:"gte=0"`
}

// ApplyTuitionHandler records one application per (post, tutor).
// A repeat is answered with success false rather than an error status.
func ApplyTuitionHandler(tuitions store.Tuitions, apps store.Applications) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ApplyRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		ctx := c.Request.Context()
		// Post must exist
		if _, err := tuitions.GetTuition(ctx, req.TuitionID); err != nil {
			fail(c, err)
			return
		}
		// Check for an earlier application
		if _, err := apps.FindApplication(ctx, req.TuitionID, req.TutorEmail); err == nil {
			c.JSON(http.StatusOK, gin.H{"success": false, "message": alreadyApplied})
			return
		} else if !errors.Is(err, domain.ErrNotFound) {
			fail(c, err)
			return
		}
		application := domain.Application{
			TuitionID:      req.TuitionID,
			TutorEmail:     req.TutorEmail,
			TutorName:      req.TutorName,
			Qualifications: req.Qualifications,
			Experience:     req.Experience,
			ExpectedSalary: req.ExpectedSalary,
			Status:         domain.StatusPending,
			AppliedAt:      time.Now(),
		}
		// The unique (tuition, tutor) index settles concurrent duplicates
		if err := apps.CreateApplication(ctx, &application); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				c.JSON(http.StatusOK, gin.H{"success": false, "message": alreadyApplied})
				return
			}
			fail(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"application_id": application.ID,
			"tuition_id":     application.TuitionID,
			"tutor":          application.TutorEmail,
		}).Info("Tuition application submitted")
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"message":    "Application submitted successfully",
			"insertedId": application.ID,
		})
	}
}

// StudentApplicationsHandler lists applications on the caller's approved posts
func StudentApplicationsHandler(apps store.Applications) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := apps.ListApplicationsForStudent(c.Request.Context(), callerEmail(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// TutorApplicationsHandler lists every application of the calling tutor
func TutorApplicationsHandler(apps store.Applications) gin.HandlerFunc {
	return tutorApplications(apps, "")
}

// OngoingTuitionsHandler lists the calling tutor's approved applications
func OngoingTuitionsHandler(apps store.Applications) gin.HandlerFunc {
	return tutorApplications(apps, domain.StatusApproved)
}

func tutorApplications(apps store.Applications, status string) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := apps.ListTutorApplications(c.Request.Context(), callerEmail(c), status)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// UpdateApplicationHandler edits the caller's application while it is not approved
func UpdateApplicationHandler(apps store.Applications) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req domain.ApplicationUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		res, err := apps.UpdateOwnApplication(c.Request.Context(), c.Param("id"), callerEmail(c), req.Fields())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// DeleteApplicationHandler withdraws the caller's application while it is not approved
func DeleteApplicationHandler(apps store.Applications) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := apps.DeleteOwnApplication(c.Request.Context(), c.Param("id"), callerEmail(c))
		if err != nil {
			fail(c, err)
			return
		}
		if res.DeletedCount > 0 {
			logrus.WithFields(logrus.Fields{
				"application_id": c.Param("id"),
				"tutor":          callerEmail(c),
			}).Info("Tuition application withdrawn")
		}
		c.JSON(http.StatusOK, res)
	}
}

// TutorStatsHandler counts the caller's applications by status
func TutorStatsHandler(apps store.Applications) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := apps.TutorStats(c.Request.Context(), callerEmail(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
