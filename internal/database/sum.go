package database

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SumDecimal returns COALESCE(SUM(column), 0) over the rows matched by q.
// q must already carry its Model and Where clauses.
func SumDecimal(q *gorm.DB, column string) (decimal.Decimal, error) {
	var out struct {
		Total decimal.Decimal
	}
	err := q.Select("COALESCE(SUM(" + column + "), 0) AS total").Scan(&out).Error
	return out.Total, err
}

// GroupTotal is one row of a SUM ... GROUP BY query.
type GroupTotal struct {
	Bucket string
	Total  decimal.Decimal
}

// SumByGroup returns SUM(column) per distinct value of groupExpr.
func SumByGroup(q *gorm.DB, groupExpr, column string) ([]GroupTotal, error) {
	rows := make([]GroupTotal, 0)
	err := q.
		Select(groupExpr + " AS bucket, COALESCE(SUM(" + column + "), 0) AS total").
		Group(groupExpr).
		Order(groupExpr).
		Scan(&rows).Error
	return rows, err
}
