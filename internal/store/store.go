// Package store persists users, tuition posts, applications and payments.
//
// Two implementations share the Store interface: GormStore backed by MySQL
// and MemoryStore kept in process. Owner-scoped writes take the owner's email
// and match on (id, owner) so a foreign record yields a zero match count
// rather than an error.
package store

import (
	"context"

	"etuition/internal/domain"
)

// Users is the user collection
type Users interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListTutors(ctx context.Context, limit int) ([]domain.User, error)
	UpdateUser(ctx context.Context, id string, fields map[string]any) (domain.UpdateResult, error)
	DeleteUser(ctx context.Context, id string) (domain.DeleteResult, error)
}

// Tuitions is the tuition post collection
type Tuitions interface {
	CreateTuition(ctx context.Context, t *domain.TuitionPost) error
	GetTuition(ctx context.Context, id string) (*domain.TuitionPost, error)
	ListApprovedTuitions(ctx context.Context, q domain.TuitionQuery) (domain.TuitionPage, error)
	LatestTuitions(ctx context.Context, limit int) ([]domain.TuitionPost, error)
	ListTuitions(ctx context.Context) ([]domain.TuitionPost, error)
	ListStudentTuitions(ctx context.Context, studentEmail, status string) ([]domain.TuitionPost, error)
	TuitionFilters(ctx context.Context) (domain.TuitionFilters, error)
	UpdateOwnTuition(ctx context.Context, id, studentEmail string, fields map[string]any) (domain.UpdateResult, error)
	DeleteOwnTuition(ctx context.Context, id, studentEmail string) (domain.DeleteResult, error)
	SetTuitionStatus(ctx context.Context, id, status string) (domain.UpdateResult, error)
	StudentStats(ctx context.Context, studentEmail string) (domain.StudentStats, error)
}

// Applications is the applied tuitions collection
type Applications interface {
	FindApplication(ctx context.Context, tuitionID, tutorEmail string) (*domain.Application, error)
	CreateApplication(ctx context.Context, a *domain.Application) error
	GetApplication(ctx context.Context, id string) (*domain.Application, error)
	ListTutorApplications(ctx context.Context, tutorEmail, status string) ([]domain.Application, error)
	ListApplicationsForStudent(ctx context.Context, studentEmail string) ([]domain.Application, error)
	UpdateOwnApplication(ctx context.Context, id, tutorEmail string, fields map[string]any) (domain.UpdateResult, error)
	DeleteOwnApplication(ctx context.Context, id, tutorEmail string) (domain.DeleteResult, error)
	TutorStats(ctx context.Context, tutorEmail string) (domain.TutorStats, error)
}

// Payments is the payment collection
type Payments interface {
	GetPaymentBySession(ctx context.Context, sessionID string) (*domain.Payment, error)
	// RecordPayment inserts p and approves its application as one unit.
	// When a payment for the same session already exists it returns the
	// stored record and domain.ErrDuplicate.
	RecordPayment(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
	ListStudentPayments(ctx context.Context, studentEmail string) ([]domain.Payment, error)
	ListTutorPayments(ctx context.Context, tutorEmail string) ([]domain.Payment, error)
	Report(ctx context.Context) (domain.Report, error)
}

// Stats serves the admin dashboard aggregations
type Stats interface {
	CountUsersBy(ctx context.Context, column string) ([]domain.GroupCount, error)
	CountTuitionsByStatus(ctx context.Context) ([]domain.GroupCount, error)
	CountTuitions(ctx context.Context) (int64, error)
}

// Store is the full data-store handle injected into handlers
type Store interface {
	Users
	Tuitions
	Applications
	Payments
	Stats
}

// Columns accepted by CountUsersBy
const (
	ByStatus = "status"
	ByRole   = "role"
)
