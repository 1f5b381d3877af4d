package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceRecord is one performed service. Every branch table embeds it.
// Price, Percentage and Discount are snapshots taken at creation and
// TotalAmount is derived from them once; nothing recomputes it later.
type ServiceRecord struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID       uuid.UUID       `gorm:"type:uuid;index;not null" json:"patient_id"`
	Patient         *Patient        `gorm:"foreignKey:PatientID;constraint:OnDelete:RESTRICT" json:"patient,omitempty"`
	DoctorID        *uuid.UUID      `gorm:"type:uuid;index" json:"doctor_id"`
	Doctor          *User           `gorm:"foreignKey:DoctorID;constraint:OnDelete:SET NULL" json:"doctor,omitempty"`
	OperationTypeID uuid.UUID       `gorm:"type:uuid;index;not null" json:"operation_type_id"`
	OperationType   *OperationType  `gorm:"foreignKey:OperationTypeID;constraint:OnDelete:RESTRICT" json:"operation_type,omitempty"`
	Time            string          `gorm:"size:10" json:"time"`
	Date            time.Time       `gorm:"type:date;index;not null" json:"date"`
	Price           decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	Percentage      decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"percentage"`
	Discount        decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"discount"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,4);not null;check:total_amount >= 0" json:"total_amount"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (r *ServiceRecord) Base() *ServiceRecord {
	return r
}

// Record is satisfied by a pointer to any branch table type.
type Record interface {
	Base() *ServiceRecord
}

type Laboratory struct {
	ServiceRecord
}

func (Laboratory) TableName() string { return "laboratories" }

type Ultrasound struct {
	ServiceRecord
}

func (Ultrasound) TableName() string { return "ultrasounds" }

type OCT struct {
	ServiceRecord
}

func (OCT) TableName() string { return "octs" }

type OPD struct {
	ServiceRecord
}

func (OPD) TableName() string { return "opds" }

type Operation struct {
	ServiceRecord
}

func (Operation) TableName() string { return "operations" }

type Bedroom struct {
	ServiceRecord
}

func (Bedroom) TableName() string { return "bedrooms" }

type Yeglizer struct {
	ServiceRecord
}

func (Yeglizer) TableName() string { return "yeglizers" }

// BranchTables returns one zero value per branch table, for migrations.
func BranchTables() []any {
	return []any{
		&Laboratory{},
		&Ultrasound{},
		&OCT{},
		&OPD{},
		&Operation{},
		&Bedroom{},
		&Yeglizer{},
	}
}
