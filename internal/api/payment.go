package api

import (
	"net/http" // HTTP status codes

	"etuition/internal/payment" // Payment bridge
	"etuition/internal/store"   // Data store

	"github.com/gin-gonic/gin" // Gin web framework
)

// CheckoutHandler opens a hosted checkout for an application
func CheckoutHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in payment.CheckoutInput // Bind JSON request to struct
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		url, err := svc.Checkout(c.Request.Context(), in)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}

// PaymentSuccessHandler reconciles the session the browser returned with.
// Unpaid sessions answer success false; paid ones answer the stored payment.
func PaymentSuccessHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Reconcile(c.Request.Context(), c.Query("session_id"))
		if err != nil {
			fail(c, err)
			return
		}
		if !res.Paid {
			c.JSON(http.StatusOK, gin.H{"success": false})
			return
		}
		c.JSON(http.StatusOK, res.Payment)
	}
}

// StripeWebhookHandler verifies and applies provider notifications
func StripeWebhookHandler(svc *payment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := c.GetRawData() // Signature covers the raw body
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := svc.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

// StudentPaymentsHandler lists the caller's payments
func StudentPaymentsHandler(payments store.Payments) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := payments.ListStudentPayments(c.Request.Context(), callerEmail(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// RevenueHandler lists payments received by the calling tutor
func RevenueHandler(payments store.Payments) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := payments.ListTutorPayments(c.Request.Context(), callerEmail(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}
