package api

import (
	"net/http" // HTTP status codes
	"strings"  // Origin normalization
	"time"     // Token lifetime

	"etuition/internal/domain"     // Roles
	"etuition/internal/middleware" // Custom package for middleware
	"etuition/internal/payment"    // Payment bridge
	"etuition/internal/store"      // Data store

	"github.com/gin-contrib/cors"  // CORS middleware for Gin
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// Deps are the handler dependencies
type Deps struct {
	Store        store.Store      // Persistence
	Cache        *redis.Client    // Optional listing cache, nil disables it
	Payments     *payment.Service // Checkout and reconciliation
	JWTSecret    string           // Token signing key
	TokenTTL     time.Duration    // Token lifetime
	AllowOrigins []string         // Browser origins allowed by CORS, empty allows any
}

// corsConfig admits the front-end origins with the methods and headers the API uses
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour, // Cache preflight responses
	}
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, o)
		}
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	}
	return cfg
}

// RegisterRoutes mounts every endpoint on r
func RegisterRoutes(r *gin.Engine, d Deps) {
	st := d.Store
	self := middleware.SelfOnly(middleware.PathEmail("email"))

	r.Use(cors.New(corsConfig(d.AllowOrigins))) // Answer preflights before routing
	r.Use(middleware.ErrorHandler())            // Render handler errors

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "eTuitionBd server is running")
	})

	// Auth routes
	r.POST("/users", RegisterHandler(st))                             // Registration endpoint
	r.POST("/getToken", GetTokenHandler(st, d.JWTSecret, d.TokenTTL)) // Token endpoint

	// Public routes
	r.GET("/latest-tuitions", LatestTuitionsHandler(st, d.Cache))
	r.GET("/tuition/:id", TuitionDetailsHandler(st))
	r.GET("/all-tuitions", AllTuitionsHandler(st, d.Cache))
	r.GET("/tuition-filters", TuitionFiltersHandler(st, d.Cache))
	r.GET("/latest-tutors", LatestTutorsHandler(st))
	r.GET("/all-tutors", AllTutorsHandler(st))
	r.POST("/apply-tuition", ApplyTuitionHandler(st, st))

	// Payment routes; the webhook is authenticated by signature
	r.POST("/payment-checkout-session", CheckoutHandler(d.Payments))
	r.PATCH("/payment-success", PaymentSuccessHandler(d.Payments))
	r.POST("/webhooks/stripe", StripeWebhookHandler(d.Payments))

	// Everything below needs a valid token from an account that is not blocked
	secured := r.Group("")
	secured.Use(middleware.JWTAuthMiddleware(d.JWTSecret), middleware.ActiveUserMiddleware(st))
	secured.GET("/users/:email/role", self, UserRoleHandler(st)) // Caller's role

	// Student routes
	studentGroup := secured.Group("", middleware.StudentOnly())
	studentGroup.POST("/add-tuition", AddTuitionHandler(st))
	studentGroup.PATCH("/tuition/:id", UpdateTuitionHandler(st, d.Cache))
	studentGroup.DELETE("/tuition/:id", DeleteTuitionHandler(st, d.Cache))
	studentGroup.GET("/applications/student/:email", self, StudentApplicationsHandler(st))
	studentGroup.GET("/payments/:email", self, StudentPaymentsHandler(st))
	studentGroup.GET("/student/stats/:email", self, StudentStatsHandler(st))
	secured.GET("/my-tuitions", middleware.Authorize(domain.RoleStudent, middleware.QueryEmail("email")), MyTuitionsHandler(st))

	// Tutor routes
	tutorGroup := secured.Group("", middleware.TutorOnly())
	tutorGroup.GET("/my-applications/tutor/:email", self, TutorApplicationsHandler(st))
	tutorGroup.PATCH("/applications/:id", UpdateApplicationHandler(st))
	tutorGroup.DELETE("/applications/:id", DeleteApplicationHandler(st))
	tutorGroup.GET("/tuitions/ongoing/:email", self, OngoingTuitionsHandler(st))
	tutorGroup.GET("/revenue/:tutorEmail", middleware.SelfOnly(middleware.PathEmail("tutorEmail")), RevenueHandler(st))
	tutorGroup.GET("/tutor/stats/:email", self, TutorStatsHandler(st))

	// Admin routes (protected, admin only)
	adminGroup := secured.Group("", middleware.AdminOnly())
	adminGroup.GET("/users", ListUsersHandler(st))
	adminGroup.PATCH("/users/:id", UpdateUserHandler(st))
	adminGroup.DELETE("/users/:id", DeleteUserHandler(st))
	adminGroup.GET("/tuitions", ListTuitionsHandler(st))
	adminGroup.PATCH("/tuitions/:id", UpdateTuitionStatusHandler(st, d.Cache))
	adminGroup.GET("/admin/reports", ReportsHandler(st))
	adminGroup.GET("/admin/stats", AdminStatsHandler(st))
}
