package store

import (
	"context" // Request-scoped store calls
	"errors"  // Error translation
	"strings" // LIKE pattern escaping
	"time"    // Timestamps on insert

	"etuition/internal/domain" // Importing domain models

	"github.com/google/uuid" // Primary keys
	"gorm.io/driver/mysql"   // MySQL driver for GORM
	"gorm.io/gorm"           // GORM ORM library
)

// Open connects to MySQL with driver errors translated to gorm sentinels
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
}

// Models lists the tables GormStore reads and writes, in migration order
func Models() []any {
	return []any{&domain.User{}, &domain.TuitionPost{}, &domain.Application{}, &domain.Payment{}}
}

// GormStore implements Store on a relational database
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm handle
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// translate maps gorm errors onto the domain taxonomy
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrDuplicate
	}
	return err
}

// likeEscape is the LIKE escape character. Neither MySQL nor SQLite reads
// '!' specially inside a string literal.
const likeEscape = "!"

// likePattern builds a case-insensitive substring pattern for LOWER(col) LIKE ? ESCAPE '!'
func likePattern(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(likeEscape, likeEscape+likeEscape, `%`, likeEscape+`%`, `_`, likeEscape+`_`).Replace(s)
	return "%" + s + "%"
}

// orderFor maps a listing sort key onto an ORDER BY clause
func orderFor(sort string) string {
	switch sort {
	case domain.SortBudgetAsc:
		return "budget ASC, id ASC"
	case domain.SortBudgetDesc:
		return "budget DESC, id ASC"
	case domain.SortDateAsc:
		return "created_at ASC, id ASC"
	}
	return "created_at DESC, id ASC" // date-desc and anything unknown
}

// update counts the matching rows, then applies fields to them
func (s *GormStore) update(ctx context.Context, model any, fields map[string]any, query string, args ...any) (domain.UpdateResult, error) {
	res := domain.UpdateResult{Acknowledged: true}
	scope := s.db.WithContext(ctx).Model(model).Where(query, args...).Session(&gorm.Session{})
	if err := scope.Count(&res.MatchedCount).Error; err != nil {
		return res, err
	}
	// Nothing matched or nothing to set
	if res.MatchedCount == 0 || len(fields) == 0 {
		return res, nil
	}
	tx := scope.Updates(fields)
	if tx.Error != nil {
		return res, translate(tx.Error)
	}
	res.ModifiedCount = tx.RowsAffected // MySQL reports changed rows only, SQLite matched rows
	return res, nil
}

// remove deletes the rows matching query
func (s *GormStore) remove(ctx context.Context, model any, query string, args ...any) (domain.DeleteResult, error) {
	tx := s.db.WithContext(ctx).Where(query, args...).Delete(model)
	if tx.Error != nil {
		return domain.DeleteResult{}, tx.Error
	}
	return domain.DeleteResult{Acknowledged: true, DeletedCount: tx.RowsAffected}, nil
}

// count returns the number of rows of model matching query
func (s *GormStore) count(ctx context.Context, model any, query string, args ...any) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(model).Where(query, args...).Count(&n).Error
	return n, err
}

// CreateUser inserts a user; a taken email is domain.ErrDuplicate
func (s *GormStore) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString() // Assign primary key
	}
	u.Email = domain.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

// GetUserByEmail finds a user by email
func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).Where("email = ?", domain.NormalizeEmail(email)).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// ListUsers returns all users newest first
func (s *GormStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error
	return users, err
}

// ListTutors returns tutors newest first; limit <= 0 means all
func (s *GormStore) ListTutors(ctx context.Context, limit int) ([]domain.User, error) {
	users := []domain.User{}
	q := s.db.WithContext(ctx).Where("role = ?", domain.RoleTutor).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&users).Error
	return users, err
}

// UpdateUser applies an admin update
func (s *GormStore) UpdateUser(ctx context.Context, id string, fields map[string]any) (domain.UpdateResult, error) {
	return s.update(ctx, &domain.User{}, fields, "id = ?", id)
}

// DeleteUser removes a user
func (s *GormStore) DeleteUser(ctx context.Context, id string) (domain.DeleteResult, error) {
	return s.remove(ctx, &domain.User{}, "id = ?", id)
}

// CreateTuition inserts a post
func (s *GormStore) CreateTuition(ctx context.Context, t *domain.TuitionPost) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.StudentEmail = domain.NormalizeEmail(t.StudentEmail)
	return translate(s.db.WithContext(ctx).Create(t).Error)
}

// GetTuition finds a post by id
func (s *GormStore) GetTuition(ctx context.Context, id string) (*domain.TuitionPost, error) {
	var t domain.TuitionPost
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// ListApprovedTuitions serves the public listing
func (s *GormStore) ListApprovedTuitions(ctx context.Context, q domain.TuitionQuery) (domain.TuitionPage, error) {
	page := domain.TuitionPage{Page: q.Page, Limit: q.Limit, Data: []domain.TuitionPost{}}
	scope := s.db.WithContext(ctx).Model(&domain.TuitionPost{}).Where("status = ?", domain.StatusApproved)
	// Dropdown filters, ANDed
	if q.Class != "" {
		scope = scope.Where("LOWER(`class`) LIKE ? ESCAPE '!'", likePattern(q.Class))
	}
	if q.Subject != "" {
		scope = scope.Where("LOWER(subject) LIKE ? ESCAPE '!'", likePattern(q.Subject))
	}
	if q.Location != "" {
		scope = scope.Where("LOWER(location) LIKE ? ESCAPE '!'", likePattern(q.Location))
	}
	// Search box, ORed across the text columns
	if q.Search != "" {
		p := likePattern(q.Search)
		scope = scope.Where("(LOWER(subject) LIKE ? ESCAPE '!' OR LOWER(location) LIKE ? ESCAPE '!' OR LOWER(`class`) LIKE ? ESCAPE '!')", p, p, p)
	}
	scope = scope.Session(&gorm.Session{})
	if err := scope.Count(&page.Total).Error; err != nil {
		return page, err
	}
	err := scope.Order(orderFor(q.Sort)).Offset(q.Skip()).Limit(q.Limit).Find(&page.Data).Error
	return page, err
}

// LatestTuitions returns the newest approved posts
func (s *GormStore) LatestTuitions(ctx context.Context, limit int) ([]domain.TuitionPost, error) {
	posts := []domain.TuitionPost{}
	err := s.db.WithContext(ctx).Where("status = ?", domain.StatusApproved).
		Order("created_at DESC").Limit(limit).Find(&posts).Error
	return posts, err
}

// ListTuitions returns every post newest first
func (s *GormStore) ListTuitions(ctx context.Context) ([]domain.TuitionPost, error) {
	posts := []domain.TuitionPost{}
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&posts).Error
	return posts, err
}

// ListStudentTuitions returns a student's posts with the given status
func (s *GormStore) ListStudentTuitions(ctx context.Context, studentEmail, status string) ([]domain.TuitionPost, error) {
	posts := []domain.TuitionPost{}
	err := s.db.WithContext(ctx).Where("student_email = ? AND status = ?", domain.NormalizeEmail(studentEmail), status).
		Order("created_at DESC").Find(&posts).Error
	return posts, err
}

// TuitionFilters returns the distinct filter values of approved posts
func (s *GormStore) TuitionFilters(ctx context.Context) (domain.TuitionFilters, error) {
	f := domain.TuitionFilters{Classes: []string{}, Subjects: []string{}, Locations: []string{}}
	approved := s.db.WithContext(ctx).Model(&domain.TuitionPost{}).Where("status = ?", domain.StatusApproved).Session(&gorm.Session{})
	if err := approved.Distinct().Pluck("class", &f.Classes).Error; err != nil {
		return f, err
	}
	if err := approved.Distinct().Pluck("subject", &f.Subjects).Error; err != nil {
		return f, err
	}
	err := approved.Distinct().Pluck("location", &f.Locations).Error
	return f, err
}

// UpdateOwnTuition updates a post owned by studentEmail
func (s *GormStore) UpdateOwnTuition(ctx context.Context, id, studentEmail string, fields map[string]any) (domain.UpdateResult, error) {
	return s.update(ctx, &domain.TuitionPost{}, fields, "id = ? AND student_email = ?", id, domain.NormalizeEmail(studentEmail))
}

// DeleteOwnTuition deletes a post owned by studentEmail
func (s *GormStore) DeleteOwnTuition(ctx context.Context, id, studentEmail string) (domain.DeleteResult, error) {
	return s.remove(ctx, &domain.TuitionPost{}, "id = ? AND student_email = ?", id, domain.NormalizeEmail(studentEmail))
}

// SetTuitionStatus moves a post to status
func (s *GormStore) SetTuitionStatus(ctx context.Context, id, status string) (domain.UpdateResult, error) {
	return s.update(ctx, &domain.TuitionPost{}, map[string]any{"status": status}, "id = ?", id)
}

// StudentStats counts a student's posts by status
func (s *GormStore) StudentStats(ctx context.Context, studentEmail string) (domain.StudentStats, error) {
	var st domain.StudentStats
	email := domain.NormalizeEmail(studentEmail)
	var err error
	if st.TotalPosts, err = s.count(ctx, &domain.TuitionPost{}, "student_email = ?", email); err != nil {
		return st, err
	}
	if st.Approved, err = s.count(ctx, &domain.TuitionPost{}, "student_email = ? AND status = ?", email, domain.StatusApproved); err != nil {
		return st, err
	}
	if st.Pending, err = s.count(ctx, &domain.TuitionPost{}, "student_email = ? AND status = ?", email, domain.StatusPending); err != nil {
		return st, err
	}
	st.Rejected, err = s.count(ctx, &domain.TuitionPost{}, "student_email = ? AND status = ?", email, domain.StatusRejected)
	return st, err
}

// FindApplication finds the application of tutorEmail on tuitionID
func (s *GormStore) FindApplication(ctx context.Context, tuitionID, tutorEmail string) (*domain.Application, error) {
	var a domain.Application
	err := s.db.WithContext(ctx).Where("tuition_id = ? AND tutor_email = ?", tuitionID, domain.NormalizeEmail(tutorEmail)).First(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// CreateApplication inserts an application; a second one for the same pair is domain.ErrDuplicate
func (s *GormStore) CreateApplication(ctx context.Context, a *domain.Application) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.TutorEmail = domain.NormalizeEmail(a.TutorEmail)
	return translate(s.db.WithContext(ctx).Omit("Tuition").Create(a).Error)
}

// GetApplication finds an application by id
func (s *GormStore) GetApplication(ctx context.Context, id string) (*domain.Application, error) {
	var a domain.Application
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// ListTutorApplications returns a tutor's applications newest first; empty status means any
func (s *GormStore) ListTutorApplications(ctx context.Context, tutorEmail, status string) ([]domain.Application, error) {
	apps := []domain.Application{}
	q := s.db.WithContext(ctx).Where("tutor_email = ?", domain.NormalizeEmail(tutorEmail))
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("applied_at DESC").Find(&apps).Error
	return apps, err
}

// ListApplicationsForStudent returns applications on a student's approved posts, joined with the post
func (s *GormStore) ListApplicationsForStudent(ctx context.Context, studentEmail string) ([]domain.Application, error) {
	apps := []domain.Application{}
	err := s.db.WithContext(ctx).
		Joins("JOIN tuitions ON tuitions.id = applied_tuitions.tuition_id").
		Where("tuitions.student_email = ? AND tuitions.status = ?", domain.NormalizeEmail(studentEmail), domain.StatusApproved).
		Preload("Tuition").
		Order("applied_tuitions.applied_at DESC").
		Find(&apps).Error
	return apps, err
}

// UpdateOwnApplication edits a tutor's application while it is not approved
func (s *GormStore) UpdateOwnApplication(ctx context.Context, id, tutorEmail string, fields map[string]any) (domain.UpdateResult, error) {
	return s.update(ctx, &domain.Application{}, fields, "id = ? AND tutor_email = ? AND status <> ?",
		id, domain.NormalizeEmail(tutorEmail), domain.StatusApproved)
}

// DeleteOwnApplication withdraws a tutor's application while it is not approved
func (s *GormStore) DeleteOwnApplication(ctx context.Context, id, tutorEmail string) (domain.DeleteResult, error) {
	return s.remove(ctx, &domain.Application{}, "id = ? AND tutor_email = ? AND status <> ?",
		id, domain.NormalizeEmail(tutorEmail), domain.StatusApproved)
}

// TutorStats counts a tutor's applications by status
func (s *GormStore) TutorStats(ctx context.Context, tutorEmail string) (domain.TutorStats, error) {
	var st domain.TutorStats
	email := domain.NormalizeEmail(tutorEmail)
	var err error
	if st.TotalApplications, err = s.count(ctx, &domain.Application{}, "tutor_email = ?", email); err != nil {
		return st, err
	}
	if st.ApprovedApplications, err = s.count(ctx, &domain.Application{}, "tutor_email = ? AND status = ?", email, domain.StatusApproved); err != nil {
		return st, err
	}
	if st.PendingApplications, err = s.count(ctx, &domain.Application{}, "tutor_email = ? AND status = ?", email, domain.StatusPending); err != nil {
		return st, err
	}
	st.RejectedApplications, err = s.count(ctx, &domain.Application{}, "tutor_email = ? AND status = ?", email, domain.StatusRejected)
	return st, err
}

// GetPaymentBySession finds the payment recorded for a checkout session
func (s *GormStore) GetPaymentBySession(ctx context.Context, sessionID string) (*domain.Payment, error) {
	var p domain.Payment
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// RecordPayment inserts the payment and approves the application in one transaction
func (s *GormStore) RecordPayment(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Insert payment; the unique session index rejects a replay
		if err := tx.Create(p).Error; err != nil {
			return err // Return error to rollback
		}
		// Promote the application
		return tx.Model(&domain.Application{}).Where("id = ?", p.ApplicationID).
			Updates(map[string]any{"status": domain.StatusApproved, "transaction_id": p.TransactionID}).Error
	})
	if err = translate(err); errors.Is(err, domain.ErrDuplicate) {
		// A concurrent reconcile won the insert
		existing, gerr := s.GetPaymentBySession(ctx, p.SessionID)
		if gerr != nil {
			return nil, gerr
		}
		return existing, domain.ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListStudentPayments returns a student's paid payments newest first
func (s *GormStore) ListStudentPayments(ctx context.Context, studentEmail string) ([]domain.Payment, error) {
	payments := []domain.Payment{}
	err := s.db.WithContext(ctx).Where("student_email = ? AND payment_status = ?", domain.NormalizeEmail(studentEmail), domain.PaymentPaid).
		Order("paid_at DESC").Find(&payments).Error
	return payments, err
}

// ListTutorPayments returns payments made to a tutor
func (s *GormStore) ListTutorPayments(ctx context.Context, tutorEmail string) ([]domain.Payment, error) {
	payments := []domain.Payment{}
	err := s.db.WithContext(ctx).Where("tutor_email = ?", domain.NormalizeEmail(tutorEmail)).
		Order("paid_at DESC").Find(&payments).Error
	return payments, err
}

// Report sums paid payments and lists them newest first
func (s *GormStore) Report(ctx context.Context) (domain.Report, error) {
	r := domain.Report{Transactions: []domain.Payment{}}
	paid := s.db.WithContext(ctx).Model(&domain.Payment{}).Where("payment_status = ?", domain.PaymentPaid).Session(&gorm.Session{})
	if err := paid.Select("COALESCE(SUM(amount), 0)").Scan(&r.TotalEarnings).Error; err != nil {
		return r, err
	}
	err := paid.Order("paid_at DESC").Find(&r.Transactions).Error
	return r, err
}

// CountUsersBy groups users by status or role
func (s *GormStore) CountUsersBy(ctx context.Context, column string) ([]domain.GroupCount, error) {
	if column != ByStatus && column != ByRole {
		return nil, domain.ErrValidation
	}
	rows := []domain.GroupCount{}
	err := s.db.WithContext(ctx).Model(&domain.User{}).
		Select(column + " AS id, COUNT(*) AS count").Group(column).Scan(&rows).Error
	return rows, err
}

// CountTuitionsByStatus groups posts by status
func (s *GormStore) CountTuitionsByStatus(ctx context.Context) ([]domain.GroupCount, error) {
	rows := []domain.GroupCount{}
	err := s.db.WithContext(ctx).Model(&domain.TuitionPost{}).
		Select("status AS id, COUNT(*) AS count").Group("status").Scan(&rows).Error
	return rows, err
}

// CountTuitions counts all posts
func (s *GormStore) CountTuitions(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.TuitionPost{}).Count(&n).Error
	return n, err
}
