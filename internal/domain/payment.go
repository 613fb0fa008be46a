package domain

import "time"

// PaymentPaid is the provider's payment_status for a settled checkout
const PaymentPaid = "paid"

// Payment Model
type Payment struct {
	ID            string    `gorm:"type:char(36);primaryKey" json:"_id"`            // Primary key (UUID)
	SessionID     string    `gorm:"size:255;uniqueIndex;not null" json:"sessionId"` // Checkout session, one payment per session
	ApplicationID string    `gorm:"type:char(36);index" json:"applicationId"`
	TuitionID     string    `gorm:"type:char(36)" json:"tuitionId"`
	StudentEmail  string    `gorm:"size:255;index" json:"studentEmail"`
	TutorEmail    string    `gorm:"size:255;index" json:"tutorEmail"`
	TutorName     string    `gorm:"size:255" json:"tutorName,omitempty"`
	Subject       string    `gorm:"size:255" json:"subject"`
	Class         string    `gorm:"column:class;size:64" json:"class"`
	Amount        float64   `json:"amount"` // Major currency units
	Currency      string    `gorm:"size:8" json:"currency"`
	TransactionID string    `gorm:"size:255" json:"transactionId"` // Provider payment intent
	PaymentStatus string    `gorm:"size:32;index" json:"paymentStatus"`
	PaidAt        time.Time `gorm:"index" json:"paidAt"`
}

// Report summarises paid payments for the admin
type Report struct {
	TotalEarnings float64   `json:"totalEarnings"`
	Transactions  []Payment `json:"transactions"`
}

// AdminStats is the admin dashboard summary
type AdminStats struct {
	UserStats     []GroupCount `json:"userStats"`
	RoleStats     []GroupCount `json:"roleStats"`
	TuitionStats  []GroupCount `json:"tuitionStats"`
	TotalTuitions int64        `json:"totalTuitions"`
}

// InsertResult acknowledges an insert
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// UpdateResult acknowledges an update
type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// DeleteResult acknowledges a delete
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}
