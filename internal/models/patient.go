package models

import (
	"time"

	"github.com/google/uuid"
)

// Patient.PatientID is the identifier printed on the patient card; clients
// refer to patients by it, never by ID.
type Patient struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID  string    `gorm:"size:50;uniqueIndex;not null" json:"patient_id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	FatherName string    `gorm:"size:100" json:"father_name"`
	Age        int       `json:"age"`
	Gender     string    `gorm:"size:10" json:"gender"`
	Phone      string    `gorm:"size:50" json:"phone"`
	Address    string    `gorm:"size:255" json:"address"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
