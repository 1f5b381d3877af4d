package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationType is the price list. An empty BranchModel means the type can be
// used by any branch.
type OperationType struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(20,4);not null;check:price >= 0" json:"price"`
	BranchModel BranchModel     `gorm:"size:30;index" json:"branch_model"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
