package domain

import "time"

// User statuses
const (
	UserActive  = "Active"
	UserBlocked = "Blocked"
)

// User Model
type User struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"_id"`                 // Primary key (UUID)
	Name      string    `gorm:"size:255" json:"name"`                                // Display name
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`          // Unique email, stored lower-case
	PhotoURL  string    `gorm:"size:1024" json:"photoURL,omitempty"`                 // Avatar
	Phone     string    `gorm:"size:64" json:"phone,omitempty"`                      // Contact number
	Role      Role      `gorm:"size:16;not null;default:Student;index" json:"role"`  // Student, Tutor or Admin
	Status    string    `gorm:"size:16;not null;default:Active;index" json:"status"` // Active or Blocked
	CreatedAt time.Time `gorm:"index" json:"createdAt"`                              // Registration time
}

// UserUpdate holds the admin-editable user fields; nil fields are left untouched
type UserUpdate struct {
	Name     *string `json:"name"`
	PhotoURL *string `json:"photoURL"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	Status   *string `json:"status"`
}

// Fields returns the column map for a partial update, validating enums
func (u UserUpdate) Fields() (map[string]any, error) {
	fields := map[string]any{}
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.PhotoURL != nil {
		fields["photo_url"] = *u.PhotoURL
	}
	if u.Phone != nil {
		fields["phone"] = *u.Phone
	}
	if u.Role != nil {
		role, ok := ParseRole(*u.Role)
		if !ok {
			return nil, ErrValidation
		}
		fields["role"] = role
	}
	if u.Status != nil {
		if *u.Status != UserActive && *u.Status != UserBlocked {
			return nil, ErrValidation
		}
		fields["status"] = *u.Status
	}
	return fields, nil
}

// GroupCount is one bucket of a group-by count, shaped like an aggregation result
type GroupCount struct {
	ID    string `json:"_id"`   // Grouped value
	Count int64  `json:"count"` // Number of rows in the bucket
}
