package models

import "time"

// Subject is owned by the content service; the payment core only reads it.
type Subject struct {
	ID        string    `gorm:"column:id;primary_key;type:varchar(64)" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(255);not null;uniqueIndex" json:"name"`
	Price     int64     `gorm:"column:price;type:bigint;not null" json:"price"`
	Overview  string    `gorm:"column:overview;type:text" json:"overview"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subject) TableName() string {
	return "subject"
}
