package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ExpenseCategory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Expense struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CategoryID  uuid.UUID        `gorm:"type:uuid;index;not null" json:"category_id"`
	Category    *ExpenseCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"-"`
	Date        time.Time        `gorm:"type:date;index;not null" json:"date"`
	Amount      decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"amount"`
	Description string           `gorm:"size:255" json:"description"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
