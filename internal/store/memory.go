package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"etuition/internal/domain"

	"github.com/google/uuid"
)

// MemoryStore implements Store in process. It enforces the same unique
// keys as the relational schema: user email, (tuition, tutor) pair and
// payment session.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[string]domain.User
	tuitions     map[string]domain.TuitionPost
	applications map[string]domain.Application
	payments     map[string]domain.Payment
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        map[string]domain.User{},
		tuitions:     map[string]domain.TuitionPost{},
		applications: map[string]domain.Application{},
		payments:     map[string]domain.Payment{},
	}
}

// containsFold reports whether sub occurs in s, ignoring case
func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// newestFirst sorts items by descending timestamp
func newestFirst[T any](items []T, at func(T) time.Time) {
	slices.SortStableFunc(items, func(a, b T) int { return at(b).Compare(at(a)) })
}

// CreateUser stores u with a fresh id; the email is unique
func (m *MemoryStore) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = domain.NormalizeEmail(u.Email)
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	m.users[u.ID] = *u
	return nil
}

// GetUserByEmail finds a user by normalized email
func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = domain.NormalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListUsers returns every user newest first
func (m *MemoryStore) ListUsers(_ context.Context) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	newestFirst(users, func(u domain.User) time.Time { return u.CreatedAt })
	return users, nil
}

// ListTutors returns up to limit tutors newest first, all when limit is 0
func (m *MemoryStore) ListTutors(ctx context.Context, limit int) ([]domain.User, error) {
	all, _ := m.ListUsers(ctx)
	tutors := []domain.User{}
	for _, u := range all {
		if u.Role == domain.RoleTutor {
			tutors = append(tutors, u)
		}
	}
	if limit > 0 && len(tutors) > limit {
		tutors = tutors[:limit]
	}
	return tutors, nil
}

// UpdateUser applies admin edits to user id
func (m *MemoryStore) UpdateUser(_ context.Context, id string, fields map[string]any) (domain.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := domain.UpdateResult{Acknowledged: true}
	u, ok := m.users[id]
	if !ok {
		return res, nil
	}
	res.MatchedCount = 1
	before := u
	for k, v := range fields {
		switch k {
		case "name":
			u.Name = v.(string)
		case "photo_url":
			u.PhotoURL = v.(string)
		case "phone":
			u.Phone = v.(string)
		case "role":
			u.Role = v.(domain.Role)
		case "status":
			u.Status = v.(string)
		}
	}
	if u != before {
		res.ModifiedCount = 1
	}
	m.users[id] = u
	return res, nil
}

// DeleteUser removes user id
func (m *MemoryStore) DeleteUser(_ context.Context, id string) (domain.DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := domain.DeleteResult{Acknowledged: true}
	if _, ok := m.users[id]; ok {
		delete(m.users, id)
		res.DeletedCount = 1
	}
	return res, nil
}

// CreateTuition stores t with a fresh id
func (m *MemoryStore) CreateTuition(_ context.Context, t *domain.TuitionPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.StudentEmail = domain.NormalizeEmail(t.StudentEmail)
	m.tuitions[t.ID] = *t
	return nil
}

// GetTuition finds a post by id
func (m *MemoryStore) GetTuition(_ context.Context, id string) (*domain.TuitionPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tuitions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

// approved returns approved posts newest first
func (m *MemoryStore) approved() []domain.TuitionPost {
	m.mu.RLock()
	defer m.mu.RUnlock()
	posts := []domain.TuitionPost{}
	for _, t := range m.tuitions {
		if t.Status == domain.StatusApproved {
			posts = append(posts, t)
		}
	}
	newestFirst(posts, func(t domain.TuitionPost) time.Time { return t.CreatedAt })
	return posts
}

// matchesQuery applies the search and per-field substring filters
func matchesQuery(t domain.TuitionPost, q domain.TuitionQuery) bool {
	if q.Class != "" && !containsFold(t.Class, q.Class) {
		return false
	}
	if q.Subject != "" && !containsFold(t.Subject, q.Subject) {
		return false
	}
	if q.Location != "" && !containsFold(t.Location, q.Location) {
		return false
	}
	if q.Search != "" && !containsFold(t.Subject, q.Search) && !containsFold(t.Location, q.Search) && !containsFold(t.Class, q.Search) {
		return false
	}
	return true
}

// ListApprovedTuitions filters, sorts and pages approved posts
func (m *MemoryStore) ListApprovedTuitions(_ context.Context, q domain.TuitionQuery) (domain.TuitionPage, error) {
	page := domain.TuitionPage{Page: q.Page, Limit: q.Limit, Data: []domain.TuitionPost{}}
	matched := []domain.TuitionPost{}
	for _, t := range m.approved() {
		if matchesQuery(t, q) {
			matched = append(matched, t)
		}
	}
	slices.SortStableFunc(matched, func(a, b domain.TuitionPost) int {
		switch q.Sort {
		case domain.SortBudgetAsc:
			return cmp.Compare(a.Budget, b.Budget)
		case domain.SortBudgetDesc:
			return cmp.Compare(b.Budget, a.Budget)
		case domain.SortDateAsc:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	page.Total = int64(len(matched))
	start := min(q.Skip(), len(matched))
	end := min(start+q.Limit, len(matched))
	page.Data = append(page.Data, matched[start:end]...)
	return page, nil
}

// LatestTuitions returns the limit newest approved posts
func (m *MemoryStore) LatestTuitions(_ context.Context, limit int) ([]domain.TuitionPost, error) {
	posts := m.approved()
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// ListTuitions returns every post newest first
func (m *MemoryStore) ListTuitions(_ context.Context) ([]domain.TuitionPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	posts := make([]domain.TuitionPost, 0, len(m.tuitions))
	for _, t := range m.tuitions {
		posts = append(posts, t)
	}
	newestFirst(posts, func(t domain.TuitionPost) time.Time { return t.CreatedAt })
	return posts, nil
}

// ListStudentTuitions returns a student's posts in one status, newest first
func (m *MemoryStore) ListStudentTuitions(ctx context.Context, studentEmail, status string) ([]domain.TuitionPost, error) {
	all, _ := m.ListTuitions(ctx)
	email := domain.NormalizeEmail(studentEmail)
	posts := []domain.TuitionPost{}
	for _, t := range all {
		if t.StudentEmail == email && t.Status == status {
			posts = append(posts, t)
		}
	}
	return posts, nil
}

// TuitionFilters collects the distinct filter values of approved posts
func (m *MemoryStore) TuitionFilters(_ context.Context) (domain.TuitionFilters, error) {
	f := domain.TuitionFilters{Classes: []string{}, Subjects: []string{}, Locations: []string{}}
	for _, t := range m.approved() {
		if !slices.Contains(f.Classes, t.Class) {
			f.Classes = append(f.Classes, t.Class)
		}
		if !slices.Contains(f.Subjects, t.Subject) {
			f.Subjects = append(f.Subjects, t.Subject)
		}
		if !slices.Contains(f.Locations, t.Location) {
			f.Locations = append(f.Locations, t.Location)
		}
	}
	return f, nil
}

// updateTuition applies fields to the post id when owner accepts it
func (m *MemoryStore) updateTuition(id string, owner func(domain.TuitionPost) bool, fields map[string]any) domain.UpdateResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := domain.UpdateResult{Acknowledged: true}
	t, ok := m.tuitions[id]
	if !ok || !owner(t) {
		return res
	}
	res.MatchedCount = 1
	before := t
	for k, v := range fields {
		switch k {
		case "student_name":
			t.StudentName = v.(string)
		case "subject":
			t.Subject = v.(string)
		case "class":
			t.Class = v.(string)
		case "location":
			t.Location = v.(string)
		case "budget":
			t.Budget = v.(int)
		case "details":
			t.Details = v.(string)
		case "status":
			t.Status = v.(string)
		}
	}
	if t != before {
		res.ModifiedCount = 1
	}
	m.tuitions[id] = t
	return res
}

// UpdateOwnTuition edits a post owned by studentEmail
func (m *MemoryStore) UpdateOwnTuition(_ context.Context, id, studentEmail string, fields map[string]any) (domain.UpdateResult, error) {
	email := domain.NormalizeEmail(studentEmail)
	return m.updateTuition(id, func(t domain.TuitionPost) bool { return t.StudentEmail == email }, fields), nil
}

// DeleteOwnTuition removes a post owned by studentEmail and its applications
func (m *MemoryStore) DeleteOwnTuition(_ context.Context, id, studentEmail string) (domain.DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := domain.DeleteResult{Acknowledged: true}
	t, ok := m.tuitions[id]
	if !ok || t.StudentEmail != domain.NormalizeEmail(studentEmail) {
		return res, nil
	}
	delete(m.tuitions, id)
	// Applications cascade with their post
	for appID, a := range m.applications {
		if a.TuitionID == id {
			delete(m.applications, appID)
		}
	}
	res.DeletedCount = 1
	return res, nil
}

// SetTuitionStatus moderates post id
func (m *MemoryStore) SetTuitionStatus(_ context.Context, id, status string) (domain.UpdateResult, error) {
	return m.updateTuition(id, func(domain.TuitionPost) bool { return true }, map[string]any{"status": status}), nil
}

// StudentStats counts a student's posts by status
func (m *MemoryStore) StudentStats(ctx context.Context, studentEmail string) (domain.StudentStats, error) {
	all, _ := m.ListTuitions(ctx)
	email := domain.NormalizeEmail(studentEmail)
	var st domain.StudentStats
	for _, t := range all {
		if t.StudentEmail != email {
			continue
		}
		st.TotalPosts++
		switch t.Status {
		case domain.StatusApproved:
			st.Approved++
		case domain.StatusPending:
			st.Pending++
		case domain.StatusRejected:
			st.Rejected++
		}
	}
	return st, nil
}

// FindApplication looks up the (tuition, tutor) pair
func (m *MemoryStore) FindApplication(_ context.Context, tuitionID, tutorEmail string) (*domain.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email := domain.NormalizeEmail(tutorEmail)
	for _, a := range m.applications {
		if a.TuitionID == tuitionID && a.TutorEmail == email {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

// CreateApplication stores a with a fresh id; the (tuition, tutor) pair is unique
func (m *MemoryStore) CreateApplication(_ context.Context, a *domain.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.TutorEmail = domain.NormalizeEmail(a.TutorEmail)
	for _, existing := range m.applications {
		if existing.TuitionID == a.TuitionID && existing.TutorEmail == a.TutorEmail {
			return domain.ErrDuplicate
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	stored := *a
	stored.Tuition = nil
	m.applications[a.ID] = stored
	return nil
}

// GetApplication finds an application by id
func (m *MemoryStore) GetApplication(_ context.Context, id string) (*domain.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.applications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

// listApplications returns applications accepted by keep, newest first
func (m *MemoryStore) listApplications(keep func(domain.Application) bool) []domain.Application {
	m.mu.RLock()
	defer m.mu.RUnlock()
	apps := []domain.Application{}
	for _, a := range m.applications {
		if keep(a) {
			apps = append(apps, a)
		}
	}
	newestFirst(apps, func(a domain.Application) time.Time { return a.AppliedAt })
	return apps
}

// ListTutorApplications returns a tutor's applications, optionally in one status
func (m *MemoryStore) ListTutorApplications(_ context.Context, tutorEmail, status string) ([]domain.Application, error) {
	email := domain.NormalizeEmail(tutorEmail)
	return m.listApplications(func(a domain.Application) bool {
		return a.TutorEmail == email && (status == "" || a.Status == status)
	}), nil
}

// ListApplicationsForStudent returns applications to the student's approved posts, joined with the post
func (m *MemoryStore) ListApplicationsForStudent(_ context.Context, studentEmail string) ([]domain.Application, error) {
	email := domain.NormalizeEmail(studentEmail)
	m.mu.RLock()
	owned := map[string]domain.TuitionPost{}
	for id, t := range m.tuitions {
		if t.StudentEmail == email && t.Status == domain.StatusApproved {
			owned[id] = t
		}
	}
	m.mu.RUnlock()
	apps := m.listApplications(func(a domain.Application) bool {
		_, ok := owned[a.TuitionID]
		return ok
	})
	for i := range apps {
		t := owned[apps[i].TuitionID]
		apps[i].Tuition = &t
	}
	return apps, nil
}

// ownApplication reports whether a belongs to email and is still editable
func ownApplication(a domain.Application, email string) bool {
	return a.TutorEmail == domain.NormalizeEmail(email) && a.Status != domain.StatusApproved
}

// UpdateOwnApplication edits a tutor's application unless it is approved
func (m *MemoryStore) UpdateOwnApplication(_ context.Context, id, tutorEmail string, fields map[string]any) (domain.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := domain.UpdateResult{Acknowledged: true}
	a, ok := m.applications[id]
	if !ok || !ownApplication(a, tutorEmail) {
		return res, nil
	}
	res.MatchedCount = 1
	before := a
	for k, v := range fields {
		switch k {
		case "tutor_name":
			a.TutorName = v.(string)
		case "qualifications":
			a.Qualifications = v.(string)
		case "experience":
			a.Experience = v.(string)
		case "expected_salary":
			a.ExpectedSalary = v.(int)
		}
	}
	if a != before {
		res.ModifiedCount = 1
	}
	m.applications[id] = a
	return res, nil
}

// DeleteOwnApplication withdraws a tutor's application unless it is approved
func (m *MemoryStore) DeleteOwnApplication(_ context.Context, id, tutorEmail string) (domain.DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := domain.DeleteResult{Acknowledged: true}
	a, ok := m.applications[id]
	if !ok || !ownApplication(a, tutorEmail) {
		return res, nil
	}
	delete(m.applications, id)
	res.DeletedCount = 1
	return res, nil
}

// TutorStats counts a tutor's applications by status
func (m *MemoryStore) TutorStats(ctx context.Context, tutorEmail string) (domain.TutorStats, error) {
	apps, _ := m.ListTutorApplications(ctx, tutorEmail, "")
	st := domain.TutorStats{TotalApplications: int64(len(apps))}
	for _, a := range apps {
		switch a.Status {
		case domain.StatusApproved:
			st.ApprovedApplications++
		case domain.StatusPending:
			st.PendingApplications++
		case domain.StatusRejected:
			st.RejectedApplications++
		}
	}
	return st, nil
}

// GetPaymentBySession finds the payment recorded for a checkout session
func (m *MemoryStore) GetPaymentBySession(_ context.Context, sessionID string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.SessionID == sessionID {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

// RecordPayment stores p and approves its application. A replayed session
// returns the stored payment with ErrDuplicate.
func (m *MemoryStore) RecordPayment(_ context.Context, p *domain.Payment) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.payments {
		if existing.SessionID == p.SessionID {
			return &existing, domain.ErrDuplicate
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.payments[p.ID] = *p
	if a, ok := m.applications[p.ApplicationID]; ok {
		a.Status = domain.StatusApproved
		a.TransactionID = p.TransactionID
		m.applications[a.ID] = a
	}
	return p, nil
}

// listPayments returns payments accepted by keep, newest first
func (m *MemoryStore) listPayments(keep func(domain.Payment) bool) []domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payments := []domain.Payment{}
	for _, p := range m.payments {
		if keep(p) {
			payments = append(payments, p)
		}
	}
	newestFirst(payments, func(p domain.Payment) time.Time { return p.PaidAt })
	return payments
}

// ListStudentPayments returns a student's payments newest first
func (m *MemoryStore) ListStudentPayments(_ context.Context, studentEmail string) ([]domain.Payment, error) {
	email := domain.NormalizeEmail(studentEmail)
	return m.listPayments(func(p domain.Payment) bool {
		return p.StudentEmail == email && p.PaymentStatus == domain.PaymentPaid
	}), nil
}

// ListTutorPayments returns payments to a tutor newest first
func (m *MemoryStore) ListTutorPayments(_ context.Context, tutorEmail string) ([]domain.Payment, error) {
	email := domain.NormalizeEmail(tutorEmail)
	return m.listPayments(func(p domain.Payment) bool { return p.TutorEmail == email }), nil
}

// Report sums paid payments
func (m *MemoryStore) Report(_ context.Context) (domain.Report, error) {
	r := domain.Report{Transactions: m.listPayments(func(p domain.Payment) bool { return p.PaymentStatus == domain.PaymentPaid })}
	for _, p := range r.Transactions {
		r.TotalEarnings += p.Amount
	}
	return r, nil
}

// groupCounts turns a tally into aggregation rows ordered by key
func groupCounts(tally map[string]int64) []domain.GroupCount {
	rows := make([]domain.GroupCount, 0, len(tally))
	for k, n := range tally {
		rows = append(rows, domain.GroupCount{ID: k, Count: n})
	}
	slices.SortFunc(rows, func(a, b domain.GroupCount) int { return strings.Compare(a.ID, b.ID) })
	return rows
}

// CountUsersBy groups users by status or role
func (m *MemoryStore) CountUsersBy(_ context.Context, column string) ([]domain.GroupCount, error) {
	if column != ByStatus && column != ByRole {
		return nil, domain.ErrValidation
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	tally := map[string]int64{}
	for _, u := range m.users {
		if column == ByRole {
			tally[string(u.Role)]++
		} else {
			tally[u.Status]++
		}
	}
	return groupCounts(tally), nil
}

// CountTuitionsByStatus groups posts by status
func (m *MemoryStore) CountTuitionsByStatus(_ context.Context) ([]domain.GroupCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tally := map[string]int64{}
	for _, t := range m.tuitions {
		tally[t.Status]++
	}
	return groupCounts(tally), nil
}

// CountTuitions counts every post
func (m *MemoryStore) CountTuitions(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.tuitions)), nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*GormStore)(nil)
)
