package servicetx

import (
	"context"
	"errors"

	"clinic-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Begin(ctx context.Context) (Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gormTx{db: tx}, nil
}

func (s *GormStore) PatientByExternalID(ctx context.Context, patientID string) (*models.Patient, error) {
	var p models.Patient
	if err := s.db.WithContext(ctx).Where("patient_id = ?", patientID).First(&p).Error; err != nil {
		return nil, noRows(err)
	}
	return &p, nil
}

func (s *GormStore) ListRecords(ctx context.Context, dst any, q ListQuery) (int64, error) {
	dbq := s.db.WithContext(ctx).Model(dst)
	if q.PatientID != nil {
		dbq = dbq.Where("patient_id = ?", *q.PatientID)
	}
	dbq = dbq.Session(&gorm.Session{})

	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return 0, err
	}

	err := dbq.
		Preload("Patient").
		Preload("Doctor").
		Preload("OperationType").
		Order("date DESC, created_at DESC").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(dst).Error
	return total, err
}

func noRows(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNoRows
	}
	return err
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) Commit() error {
	return t.db.Commit().Error
}

func (t *gormTx) Rollback() error {
	return t.db.Rollback().Error
}

// Reference rows are read FOR SHARE so a concurrent edit to a price or a
// percentage waits until this transaction is done.
func (t *gormTx) shared() *gorm.DB {
	return t.db.Clauses(clause.Locking{Strength: "SHARE"})
}

func (t *gormTx) FindPatientByExternalID(patientID string) (*models.Patient, error) {
	var p models.Patient
	if err := t.shared().Where("patient_id = ?", patientID).First(&p).Error; err != nil {
		return nil, noRows(err)
	}
	return &p, nil
}

func (t *gormTx) FindUser(id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := t.shared().Where("id = ?", id).First(&u).Error; err != nil {
		return nil, noRows(err)
	}
	return &u, nil
}

func (t *gormTx) FindAssignment(doctorID uuid.UUID, branch models.BranchModel) (*models.DoctorBranchAssignment, error) {
	var a models.DoctorBranchAssignment
	if err := t.shared().
		Where("doctor_id = ? AND branch_model = ?", doctorID, branch).
		First(&a).Error; err != nil {
		return nil, noRows(err)
	}
	return &a, nil
}

func (t *gormTx) FindOperationType(id uuid.UUID) (*models.OperationType, error) {
	var ot models.OperationType
	if err := t.shared().Where("id = ?", id).First(&ot).Error; err != nil {
		return nil, noRows(err)
	}
	return &ot, nil
}

func (t *gormTx) CreateRecord(rec models.Record) error {
	return t.db.Omit(clause.Associations).Create(rec).Error
}

func (t *gormTx) FindRecord(rec models.Record, id uuid.UUID) error {
	return noRows(t.db.Where("id = ?", id).First(rec).Error)
}

func (t *gormTx) DeleteRecord(rec models.Record, id uuid.UUID) (int64, error) {
	res := t.db.Where("id = ?", id).Delete(rec)
	return res.RowsAffected, res.Error
}

func (t *gormTx) CreateKhata(k *models.DoctorKhata) error {
	return t.db.Create(k).Error
}

func (t *gormTx) DeleteKhata(recordID uuid.UUID, branch models.BranchModel) (int64, error) {
	res := t.db.
		Where("branch_name_id = ? AND branch_model = ?", recordID, branch).
		Delete(&models.DoctorKhata{})
	return res.RowsAffected, res.Error
}

func (t *gormTx) KhataExists(recordID uuid.UUID, branch models.BranchModel) (bool, error) {
	var n int64
	err := t.db.Model(&models.DoctorKhata{}).
		Where("branch_name_id = ? AND branch_model = ?", recordID, branch).
		Count(&n).Error
	return n > 0, err
}

func (t *gormTx) CreateIncome(in *models.Income) error {
	return t.db.Create(in).Error
}

func (t *gormTx) DeleteIncome(saleID uuid.UUID, branch models.BranchModel) (int64, error) {
	res := t.db.
		Where("sale_id = ? AND sale_model = ?", saleID, branch).
		Delete(&models.Income{})
	return res.RowsAffected, res.Error
}

func (t *gormTx) IncomeExists(saleID uuid.UUID, branch models.BranchModel) (bool, error) {
	var n int64
	err := t.db.Model(&models.Income{}).
		Where("sale_id = ? AND sale_model = ?", saleID, branch).
		Count(&n).Error
	return n > 0, err
}
