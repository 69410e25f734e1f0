package models

import "time"

type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleAdmin   UserRole = "admin"
)

// User is owned by the auth service. Purchased subjects live in UserSubject.
type User struct {
	ID        string    `gorm:"column:id;primary_key;type:varchar(64)" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`
	Role      UserRole  `gorm:"column:role;type:varchar(32);not null;default:student" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserSubject is a member of a user's purchased-subject set.
// The unique pair makes inserts add-if-absent.
type UserSubject struct {
	ID        string    `gorm:"column:id;primary_key;type:uuid"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:unique_user_subject,priority:1"`
	SubjectID string    `gorm:"column:subject_id;type:varchar(64);not null;uniqueIndex:unique_user_subject,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserSubject) TableName() string {
	return "user_subject"
}

// Purchase is the per-transaction purchase log entry.
type Purchase struct {
	ID            string    `gorm:"column:id;primary_key;type:uuid" json:"id"`
	UserID        string    `gorm:"column:user_id;type:varchar(64);not null;index:idx_purchase_user_id" json:"user_id"`
	SubjectID     string    `gorm:"column:subject_id;type:varchar(64);not null;uniqueIndex:unique_subject_transaction,priority:1" json:"subject_id"`
	TransactionID string    `gorm:"column:transaction_id;type:uuid;not null;uniqueIndex:unique_subject_transaction,priority:2" json:"transaction_id"`
	Amount        int64     `gorm:"column:amount;type:bigint;not null" json:"amount"`
	PurchasedAt   time.Time `gorm:"column:purchased_at;not null" json:"purchased_at"`
}

func (Purchase) TableName() string {
	return "purchase"
}
