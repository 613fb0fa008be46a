package domain

import "time"

// Application Model
type Application struct {
	ID             string       `gorm:"type:char(36);primaryKey" json:"_id"`                                   // Primary key (UUID)
	TuitionID      string       `gorm:"type:char(36);not null;uniqueIndex:idx_tuition_tutor" json:"tuitionId"` // Post applied to
	TutorEmail     string       `gorm:"size:255;not null;uniqueIndex:idx_tuition_tutor;index" json:"tutorEmail"`
	TutorName      string       `gorm:"size:255" json:"tutorName,omitempty"`
	Qualifications string       `gorm:"type:text" json:"qualifications,omitempty"`
	Experience     string       `gorm:"type:text" json:"experience,omitempty"`
	ExpectedSalary int          `json:"expectedSalary"`                                       // Major currency units
	Status         string       `gorm:"size:16;not null;default:Pending;index" json:"status"` // Pending, Approved or Rejected
	TransactionID  string       `gorm:"size:255" json:"transactionId,omitempty"`              // Set on payment
	AppliedAt      time.Time    `gorm:"index" json:"appliedAt"`
	Tuition        *TuitionPost `gorm:"foreignKey:TuitionID;constraint:OnDelete:CASCADE" json:"tuitionInfo,omitempty"` // Joined post
}

// TableName keeps the collection name
func (Application) TableName() string { return "applied_tuitions" }

// ApplicationUpdate holds the tutor-editable application fields
type ApplicationUpdate struct {
	TutorName      *string `json:"tutorName"`
	Qualifications *string `json:"qualifications"`
	Experience     *string `json:"experience"`
	ExpectedSalary *int    `json:"expectedSalary"`
}

// Fields returns the column map for a partial update
func (u ApplicationUpdate) Fields() map[string]any {
	fields := map[string]any{}
	if u.TutorName != nil {
		fields["tutor_name"] = *u.TutorName
	}
	if u.Qualifications != nil {
		fields["qualifications"] = *u.Qualifications
	}
	if u.Experience != nil {
		fields["experience"] = *u.Experience
	}
	if u.ExpectedSalary != nil {
		fields["expected_salary"] = *u.ExpectedSalary
	}
	return fields
}

// TutorStats counts a tutor's applications by status
type TutorStats struct {
	TotalApplications    int64 `json:"totalApplications"`
	ApprovedApplications int64 `json:"approvedApplications"`
	PendingApplications  int64 `json:"pendingApplications"`
	RejectedApplications int64 `json:"rejectedApplications"`
}
