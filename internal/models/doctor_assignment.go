package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DoctorBranchAssignment is the only source of a doctor's commission
// percentage in a branch.
type DoctorBranchAssignment struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DoctorID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_doctor_branch" json:"doctor_id"`
	Doctor      *User           `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"doctor,omitempty"`
	BranchModel BranchModel     `gorm:"size:30;not null;uniqueIndex:idx_assignment_doctor_branch" json:"branch_model"`
	Percentage  decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0;check:percentage >= 0 AND percentage <= 100" json:"percentage"`
	Price       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
