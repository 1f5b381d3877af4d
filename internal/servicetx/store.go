package servicetx

import (
	"context"
	"errors"

	"clinic-backend/internal/models"

	"github.com/google/uuid"
)

// ErrNoRows is returned by Tx and Reader lookups when nothing matches.
var ErrNoRows = errors.New("no rows")

// Store opens transactions over the service, ledger and reference tables.
type Store interface {
	Reader
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one open transaction. Every read happens inside it so that what was
// validated is what gets written.
type Tx interface {
	Commit() error
	Rollback() error

	FindPatientByExternalID(patientID string) (*models.Patient, error)
	FindUser(id uuid.UUID) (*models.User, error)
	FindAssignment(doctorID uuid.UUID, branch models.BranchModel) (*models.DoctorBranchAssignment, error)
	FindOperationType(id uuid.UUID) (*models.OperationType, error)

	CreateRecord(rec models.Record) error
	FindRecord(rec models.Record, id uuid.UUID) error
	DeleteRecord(rec models.Record, id uuid.UUID) (int64, error)

	CreateKhata(k *models.DoctorKhata) error
	DeleteKhata(recordID uuid.UUID, branch models.BranchModel) (int64, error)
	KhataExists(recordID uuid.UUID, branch models.BranchModel) (bool, error)

	CreateIncome(in *models.Income) error
	DeleteIncome(saleID uuid.UUID, branch models.BranchModel) (int64, error)
	IncomeExists(saleID uuid.UUID, branch models.BranchModel) (bool, error)
}

type ListQuery struct {
	Offset    int
	Limit     int
	PatientID *uuid.UUID
}

// Reader serves the non-transactional listing endpoints.
type Reader interface {
	PatientByExternalID(ctx context.Context, patientID string) (*models.Patient, error)
	// ListRecords fills dst, a pointer to a slice of a branch table type,
	// newest first, and returns the unpaginated total.
	ListRecords(ctx context.Context, dst any, q ListQuery) (int64, error)
}
