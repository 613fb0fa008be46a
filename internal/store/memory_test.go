package store

import (
	"context"
	"testing"
	"time"

	"etuition/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPost(t *testing.T, s *MemoryStore, subject, class, location string, budget int, status string, at time.Time) *domain.TuitionPost {
	t.Helper()
	p := &domain.TuitionPost{
		StudentEmail: "student@example.com",
		Subject:      subject,
		Class:        class,
		Location:     location,
		Budget:       budget,
		Status:       status,
		CreatedAt:    at,
	}
	require.NoError(t, s.CreateTuition(context.Background(), p))
	return p
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &domain.User{Email: "A@Example.com", Role: domain.RoleStudent}))
	err := s.CreateUser(ctx, &domain.User{Email: " a@example.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestListApprovedTuitionsFiltersAndSorts(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	seedPost(t, s, "Math", "10", "Dhaka", 700, domain.StatusApproved, now)
	seedPost(t, s, "Physics", "10", "Chittagong", 500, domain.StatusApproved, now.Add(-time.Hour))
	seedPost(t, s, "Math", "9", "Dhaka", 300, domain.StatusApproved, now.Add(-2*time.Hour))
	seedPost(t, s, "Math", "10", "Dhaka", 100, domain.StatusPending, now)

	page, err := s.ListApprovedTuitions(context.Background(), domain.TuitionQuery{
		Class: "10", Sort: domain.SortBudgetAsc, Page: 1, Limit: 8,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, 500, page.Data[0].Budget)
	assert.Equal(t, 700, page.Data[1].Budget)

	page, err = s.ListApprovedTuitions(context.Background(), domain.TuitionQuery{
		Search: "dhaka", Sort: domain.SortDateDesc, Page: 2, Limit: 1,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "9", page.Data[0].Class)
}

func TestOwnTuitionWritesAreScopedToOwner(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	p := seedPost(t, s, "Math", "10", "Dhaka", 500, domain.StatusPending, time.Now())

	res, err := s.UpdateOwnTuition(ctx, p.ID, "other@example.com", map[string]any{"budget": 900})
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.MatchedCount)

	res, err = s.UpdateOwnTuition(ctx, p.ID, "Student@example.com", map[string]any{"budget": 900})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.ModifiedCount)

	del, err := s.DeleteOwnTuition(ctx, p.ID, "other@example.com")
	require.NoError(t, err)
	assert.EqualValues(t, 0, del.DeletedCount)
}

func TestCreateApplicationUniquePerTutorAndPost(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateApplication(ctx, &domain.Application{TuitionID: "t1", TutorEmail: "tutor@example.com", Status: domain.StatusPending}))
	err := s.CreateApplication(ctx, &domain.Application{TuitionID: "t1", TutorEmail: "TUTOR@example.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	require.NoError(t, s.CreateApplication(ctx, &domain.Application{TuitionID: "t2", TutorEmail: "tutor@example.com"}))

	apps, err := s.ListTutorApplications(ctx, "tutor@example.com", "")
	require.NoError(t, err)
	assert.Len(t, apps, 2)
}

func TestRecordPaymentApprovesOnceAndRejectsReplay(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	app := &domain.Application{TuitionID: "t1", TutorEmail: "tutor@example.com", Status: domain.StatusPending}
	require.NoError(t, s.CreateApplication(ctx, app))

	first, err := s.RecordPayment(ctx, &domain.Payment{SessionID: "cs_1", ApplicationID: app.ID, TransactionID: "pi_1", PaymentStatus: domain.PaymentPaid})
	require.NoError(t, err)

	stored, err := s.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, stored.Status)
	assert.Equal(t, "pi_1", stored.TransactionID)

	again, err := s.RecordPayment(ctx, &domain.Payment{SessionID: "cs_1", ApplicationID: app.ID, TransactionID: "pi_2"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "pi_1", again.TransactionID)
}

func TestApprovedApplicationIsFrozenForTutor(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	app := &domain.Application{TuitionID: "t1", TutorEmail: "tutor@example.com", Status: domain.StatusApproved}
	require.NoError(t, s.CreateApplication(ctx, app))

	res, err := s.UpdateOwnApplication(ctx, app.ID, "tutor@example.com", map[string]any{"expected_salary": 10})
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.MatchedCount)

	del, err := s.DeleteOwnApplication(ctx, app.ID, "tutor@example.com")
	require.NoError(t, err)
	assert.EqualValues(t, 0, del.DeletedCount)
}

func TestListApplicationsForStudentJoinsApprovedPosts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	approved := seedPost(t, s, "Math", "10", "Dhaka", 500, domain.StatusApproved, time.Now())
	pending := seedPost(t, s, "Math", "10", "Dhaka", 500, domain.StatusPending, time.Now())
	require.NoError(t, s.CreateApplication(ctx, &domain.Application{TuitionID: approved.ID, TutorEmail: "a@example.com"}))
	require.NoError(t, s.CreateApplication(ctx, &domain.Application{TuitionID: pending.ID, TutorEmail: "a@example.com"}))

	apps, err := s.ListApplicationsForStudent(ctx, "student@example.com")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	require.NotNil(t, apps[0].Tuition)
	assert.Equal(t, approved.ID, apps[0].Tuition.ID)
}

func TestCountUsersByRejectsUnknownColumn(t *testing.T) {
	_, err := NewMemoryStore().CountUsersBy(context.Background(), "email")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
