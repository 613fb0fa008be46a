package domain

import (
	"math"
	"time"
)

// Tuition post statuses
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// ValidPostStatus reports whether s is a status an admin may set on a post
func ValidPostStatus(s string) bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// TuitionPost Model
type TuitionPost struct {
	ID           string    `gorm:"type:char(36);primaryKey" json:"_id"`                  // Primary key (UUID)
	StudentEmail string    `gorm:"size:255;not null;index" json:"studentEmail"`          // Owner
	StudentName  string    `gorm:"size:255" json:"studentName,omitempty"`                // Owner display name
	Subject      string    `gorm:"size:255;index" json:"subject"`                        // e.g. Math
	Class        string    `gorm:"column:class;size:64;index" json:"class"`              // e.g. 10
	Location     string    `gorm:"size:255" json:"location"`                             // Area
	Budget       int       `gorm:"index" json:"budget"`                                  // Monthly budget
	Details      string    `gorm:"type:text" json:"details,omitempty"`                   // Free text
	Status       string    `gorm:"size:16;not null;default:Pending;index" json:"status"` // Pending, Approved or Rejected
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`                               // Post time
}

// TableName keeps the collection name
func (TuitionPost) TableName() string { return "tuitions" }

// TuitionUpdate holds the owner-editable post fields; nil fields are left untouched
type TuitionUpdate struct {
	StudentName *string `json:"studentName"`
	Subject     *string `json:"subject"`
	Class       *string `json:"class"`
	Location    *string `json:"location"`
	Budget      *int    `json:"budget"`
	Details     *string `json:"details"`
}

// Fields returns the column map for a partial update
func (u TuitionUpdate) Fields() map[string]any {
	fields := map[string]any{}
	if u.StudentName != nil {
		fields["student_name"] = *u.StudentName
	}
	if u.Subject != nil {
		fields["subject"] = *u.Subject
	}
	if u.Class != nil {
		fields["class"] = *u.Class
	}
	if u.Location != nil {
		fields["location"] = *u.Location
	}
	if u.Budget != nil {
		fields["budget"] = *u.Budget
	}
	if u.Details != nil {
		fields["details"] = *u.Details
	}
	return fields
}

// Sort orders accepted by the public listing
const (
	SortBudgetAsc  = "budget-asc"
	SortBudgetDesc = "budget-desc"
	SortDateAsc    = "date-asc"
	SortDateDesc   = "date-desc"
)

// TuitionQuery describes a filtered, sorted, paginated listing of approved posts
type TuitionQuery struct {
	Search   string // OR across subject, location and class
	Class    string // Case-insensitive substring
	Subject  string // Case-insensitive substring
	Location string // Case-insensitive substring
	Sort     string // One of the Sort* constants
	Page     int    // 1-based
	Limit    int    // Page size
}

// Skip is the number of rows before the requested page. Pages past the
// addressable range saturate at math.MaxInt instead of wrapping negative.
func (q TuitionQuery) Skip() int {
	if q.Page < 1 || q.Limit < 1 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// TuitionPage is the listing response
type TuitionPage struct {
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Data  []TuitionPost `json:"data"`
}

// TuitionFilters lists the distinct values offered as listing filters
type TuitionFilters struct {
	Classes   []string `json:"classes"`
	Subjects  []string `json:"subjects"`
	Locations []string `json:"locations"`
}

// StudentStats counts a student's posts by status
type StudentStats struct {
	TotalPosts int64 `json:"totalPosts"`
	Approved   int64 `json:"approved"`
	Pending    int64 `json:"pending"`
	Rejected   int64 `json:"rejected"`
}
