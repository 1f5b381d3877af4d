package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// MonthlyReport is a frozen copy of a month's figures.
type MonthlyReport struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Year            int             `gorm:"not null;uniqueIndex:idx_report_period" json:"year"`
	Month           int             `gorm:"not null;uniqueIndex:idx_report_period" json:"month"`
	ReportDate      time.Time       `gorm:"not null" json:"report_date"`
	TotalIncome     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_income"`
	TotalCommission decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_commission"`
	TotalExpenses   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_expenses"`
	NetProfit       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"net_profit"`
	ReportData      datatypes.JSON  `json:"report_data"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
