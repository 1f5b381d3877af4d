package servicetx

import (
	"errors"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/models"

	"github.com/google/uuid"
)

func lookupErr(err error, entity string) error {
	if errors.Is(err, ErrNoRows) {
		return apperr.NotFound(entity)
	}
	return apperr.Internal("failed to load "+entity, err)
}

func validatePatient(tx Tx, patientID string) (*models.Patient, error) {
	p, err := tx.FindPatientByExternalID(patientID)
	if err != nil {
		return nil, lookupErr(err, "Patient")
	}
	return p, nil
}

func validateDoctor(tx Tx, doctorID uuid.UUID) (*models.User, error) {
	u, err := tx.FindUser(doctorID)
	if err != nil {
		return nil, lookupErr(err, "Doctor")
	}
	if u.Role != models.RoleDoctor {
		return nil, apperr.InvalidState("user is not a doctor")
	}
	return u, nil
}

// validateAssignment never falls back to a default percentage: a doctor with
// no assignment row cannot bill in the branch.
func validateAssignment(tx Tx, doctorID uuid.UUID, branch models.BranchModel) (*models.DoctorBranchAssignment, error) {
	a, err := tx.FindAssignment(doctorID, branch)
	if errors.Is(err, ErrNoRows) {
		return nil, apperr.InvalidState("doctor not assigned to this branch")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load doctor assignment", err)
	}
	return a, nil
}

func validateOperationType(tx Tx, typeID uuid.UUID, branch models.BranchModel) (*models.OperationType, error) {
	ot, err := tx.FindOperationType(typeID)
	if err != nil {
		return nil, lookupErr(err, "OperationType")
	}
	if ot.BranchModel != "" && ot.BranchModel != branch {
		return nil, apperr.NotFound("OperationType")
	}
	return ot, nil
}
