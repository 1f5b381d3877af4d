package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type KhataAmountType string

const (
	KhataIncome KhataAmountType = "income"
)

// DoctorKhata is a doctor's commission for one service record. It is written
// and removed only together with that record.
type DoctorKhata struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	BranchNameID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_khata_source" json:"branch_name_id"`
	BranchModel  BranchModel     `gorm:"size:30;not null;uniqueIndex:idx_khata_source" json:"branch_model"`
	DoctorID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"doctor_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Date         time.Time       `gorm:"type:date;index;not null" json:"date"`
	AmountType   KhataAmountType `gorm:"size:20;not null" json:"amount_type"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (DoctorKhata) TableName() string { return "doctor_khata" }

// Income is the clinic's revenue for one billable event.
type Income struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SaleID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_income_source" json:"sale_id"`
	SaleModel      BranchModel     `gorm:"size:30;not null;uniqueIndex:idx_income_source" json:"sale_model"`
	Date           time.Time       `gorm:"type:date;index;not null" json:"date"`
	TotalNetIncome decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_net_income"`
	Category       string          `gorm:"size:100" json:"category"`
	Description    string          `gorm:"size:255" json:"description"`
	CreatedAt      time.Time       `json:"created_at"`
}

// DoctorPayment is money paid out to a doctor against the khata balance.
type DoctorPayment struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DoctorID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"doctor_id"`
	Doctor      *User           `gorm:"foreignKey:DoctorID;constraint:OnDelete:RESTRICT" json:"-"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Date        time.Time       `gorm:"type:date;index;not null" json:"date"`
	Description string          `gorm:"size:255" json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
