// Package servicetx creates and deletes branch service records together with
// their doctor-commission and income ledger rows in one transaction.
package servicetx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/models"
	"clinic-backend/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Branch describes one service line.
type Branch struct {
	Model          models.BranchModel
	Slug           string
	Label          string
	IncomeCategory string
}

// CreateInput has no price or percentage on purpose: both come from the
// operation type and the doctor's assignment read inside the transaction.
type CreateInput struct {
	PatientID       string
	DoctorID        uuid.UUID
	OperationTypeID uuid.UUID
	Time            string
	Date            time.Time
	Discount        decimal.Decimal
}

// Handle is an Orchestrator with its record type erased, for routing by
// branch slug.
type Handle interface {
	Branch() Branch
	CreateRecord(ctx context.Context, in CreateInput) (models.Record, error)
	DeleteRecord(ctx context.Context, id string) (models.Record, error)
	ListRecords(ctx context.Context, q ListQuery) (any, int64, error)
	ListByPatientRecords(ctx context.Context, patientID string, q ListQuery) (any, int64, error)
}

type Orchestrator[T any, P interface {
	*T
	models.Record
}] struct {
	store  Store
	branch Branch
	logger zerolog.Logger
}

func New[T any, P interface {
	*T
	models.Record
}](store Store, branch Branch, logger zerolog.Logger) *Orchestrator[T, P] {
	return &Orchestrator[T, P]{
		store:  store,
		branch: branch,
		logger: logger.With().Str("branch", string(branch.Model)).Logger(),
	}
}

func (o *Orchestrator[T, P]) Branch() Branch {
	return o.branch
}

// Create validates the references, prices the service and writes the record
// plus its ledger rows. Either all rows are committed or none are.
func (o *Orchestrator[T, P]) Create(ctx context.Context, in CreateInput) (*T, error) {
	tx, err := o.store.Begin(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to start transaction", err)
	}

	rec, err := o.create(tx, in)
	if err != nil {
		o.abort(tx, err)
		return nil, apperr.Wrap(err, fmt.Sprintf("failed to create %s record", o.branch.Label))
	}

	if err := tx.Commit(); err != nil {
		o.abort(tx, err)
		return nil, apperr.Internal("failed to commit transaction", err)
	}

	b := P(rec).Base()
	o.logger.Debug().
		Str("record_id", b.ID.String()).
		Str("total_amount", b.TotalAmount.String()).
		Msg("service record created")
	return rec, nil
}

func (o *Orchestrator[T, P]) create(tx Tx, in CreateInput) (*T, error) {
	patient, err := validatePatient(tx, in.PatientID)
	if err != nil {
		return nil, err
	}
	doctor, err := validateDoctor(tx, in.DoctorID)
	if err != nil {
		return nil, err
	}
	assignment, err := validateAssignment(tx, doctor.ID, o.branch.Model)
	if err != nil {
		return nil, err
	}
	opType, err := validateOperationType(tx, in.OperationTypeID, o.branch.Model)
	if err != nil {
		return nil, err
	}

	quote, err := pricing.QuoteService(opType.Price, assignment.Percentage, in.Discount)
	if err != nil {
		return nil, err
	}

	rec := new(T)
	b := P(rec).Base()
	b.ID = uuid.New()
	b.PatientID = patient.ID
	b.DoctorID = &doctor.ID
	b.OperationTypeID = opType.ID
	b.Time = in.Time
	b.Date = in.Date
	b.Price = quote.Price
	b.Percentage = quote.Percentage
	b.Discount = quote.Discount
	b.TotalAmount = quote.TotalAmount

	if err := tx.CreateRecord(P(rec)); err != nil {
		return nil, apperr.Internal(fmt.Sprintf("failed to save %s record", o.branch.Label), err)
	}

	if quote.Commission.IsPositive() {
		khata := &models.DoctorKhata{
			ID:           uuid.New(),
			BranchNameID: b.ID,
			BranchModel:  o.branch.Model,
			DoctorID:     doctor.ID,
			Amount:       quote.Commission,
			Date:         in.Date,
			AmountType:   models.KhataIncome,
		}
		if err := tx.CreateKhata(khata); err != nil {
			return nil, apperr.Internal("failed to save doctor khata", err)
		}
	}

	if quote.TotalAmount.IsPositive() {
		income := &models.Income{
			ID:             uuid.New(),
			SaleID:         b.ID,
			SaleModel:      o.branch.Model,
			Date:           in.Date,
			TotalNetIncome: quote.TotalAmount,
			Category:       o.branch.IncomeCategory,
			Description:    fmt.Sprintf("%s: %s for patient %s", o.branch.Label, opType.Name, patient.PatientID),
		}
		if err := tx.CreateIncome(income); err != nil {
			return nil, apperr.Internal("failed to save income", err)
		}
	}

	// associations are attached only after the insert so gorm does not try
	// to upsert them
	b.Patient = patient
	b.Doctor = doctor
	b.OperationType = opType
	return rec, nil
}

// Delete removes the record and whichever ledger rows it produced.
func (o *Orchestrator[T, P]) Delete(ctx context.Context, id string) (*T, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.InvalidArgument("invalid id")
	}

	tx, err := o.store.Begin(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to start transaction", err)
	}

	rec, err := o.delete(tx, recordID)
	if err != nil {
		o.abort(tx, err)
		return nil, apperr.Wrap(err, fmt.Sprintf("failed to delete %s record", o.branch.Label))
	}

	if err := tx.Commit(); err != nil {
		o.abort(tx, err)
		return nil, apperr.Internal("failed to commit transaction", err)
	}

	o.logger.Debug().Str("record_id", recordID.String()).Msg("service record deleted")
	return rec, nil
}

func (o *Orchestrator[T, P]) delete(tx Tx, id uuid.UUID) (*T, error) {
	rec := new(T)
	if err := tx.FindRecord(P(rec), id); err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, apperr.NotFound(o.branch.Label + " record")
		}
		return nil, apperr.Internal(fmt.Sprintf("failed to load %s record", o.branch.Label), err)
	}

	n, err := tx.DeleteRecord(P(rec), id)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("failed to delete %s record", o.branch.Label), err)
	}
	if n == 0 {
		return nil, apperr.Internal(fmt.Sprintf("failed to delete %s record", o.branch.Label), nil)
	}

	// Zero rows deleted is fine when the ledger row was never written
	// (no commission, or a zero total). If it is still there, the delete failed.
	n, err = tx.DeleteKhata(id, o.branch.Model)
	if err != nil {
		return nil, apperr.Internal("failed to delete doctor khata", err)
	}
	if n == 0 {
		exists, err := tx.KhataExists(id, o.branch.Model)
		if err != nil {
			return nil, apperr.Internal("failed to check doctor khata", err)
		}
		if exists {
			return nil, apperr.Internal("failed to delete doctor khata", nil)
		}
	}

	n, err = tx.DeleteIncome(id, o.branch.Model)
	if err != nil {
		return nil, apperr.Internal("failed to delete income", err)
	}
	if n == 0 {
		exists, err := tx.IncomeExists(id, o.branch.Model)
		if err != nil {
			return nil, apperr.Internal("failed to check income", err)
		}
		if exists {
			return nil, apperr.Internal("failed to delete income", nil)
		}
	}

	return rec, nil
}

func (o *Orchestrator[T, P]) abort(tx Tx, cause error) {
	if err := tx.Rollback(); err != nil {
		o.logger.Error().Err(err).AnErr("cause", cause).Msg("rollback failed")
		return
	}
	o.logger.Warn().Err(cause).Msg("transaction aborted")
}

// List returns one page of records, newest first.
func (o *Orchestrator[T, P]) List(ctx context.Context, q ListQuery) ([]T, int64, error) {
	rows := make([]T, 0)
	total, err := o.store.ListRecords(ctx, &rows, q)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("failed to list %s records", o.branch.Label), err)
	}
	return rows, total, nil
}

// ListByPatient lists the records of the patient with external id patientID.
func (o *Orchestrator[T, P]) ListByPatient(ctx context.Context, patientID string, q ListQuery) ([]T, int64, error) {
	p, err := o.store.PatientByExternalID(ctx, patientID)
	if err != nil {
		return nil, 0, lookupErr(err, "Patient")
	}
	q.PatientID = &p.ID
	return o.List(ctx, q)
}

func (o *Orchestrator[T, P]) CreateRecord(ctx context.Context, in CreateInput) (models.Record, error) {
	rec, err := o.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	return P(rec), nil
}

func (o *Orchestrator[T, P]) DeleteRecord(ctx context.Context, id string) (models.Record, error) {
	rec, err := o.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	return P(rec), nil
}

func (o *Orchestrator[T, P]) ListRecords(ctx context.Context, q ListQuery) (any, int64, error) {
	return o.List(ctx, q)
}

func (o *Orchestrator[T, P]) ListByPatientRecords(ctx context.Context, patientID string, q ListQuery) (any, int64, error) {
	return o.ListByPatient(ctx, patientID, q)
}
