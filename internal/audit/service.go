package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entity types logged outside the branch service tables, whose entries use
// the branch tag as EntityType.
const (
	EntityExpense       = "expense"
	EntityDoctorPayment = "doctor_payment"
)

type LogOptions struct {
	UserID      uuid.UUID
	UserName    string
	EntityType  string
	EntityID    string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Logger is what handlers need to record an action. *Service implements it.
type Logger interface {
	WriteLog(ctx context.Context, opts LogOptions) error
}

// RecordDeleter removes a branch service record together with its ledger
// rows.
type RecordDeleter interface {
	DeleteServiceRecord(ctx context.Context, branch models.BranchModel, id string) error
}

type Service struct {
	db      *gorm.DB
	records RecordDeleter
	logger  zerolog.Logger
}

func NewService(db *gorm.DB, records RecordDeleter, logger zerolog.Logger) *Service {
	return &Service{db: db, records: records, logger: logger.With().Str("component", "audit").Logger()}
}

func toJSON(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("null")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

func newEntry(opts LogOptions) models.AuditLog {
	return models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  toJSON(opts.Before),
		AfterData:   toJSON(opts.After),
	}
}

func (s *Service) WriteLog(ctx context.Context, opts LogOptions) error {
	entry := newEntry(opts)
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// Undo reverts the action recorded by the log entry and appends an undo
// entry. Creating a service record is undone through the record delete
// flow so its khata and income rows go with it.
func (s *Service) Undo(ctx context.Context, logID, userID uuid.UUID, userName string) error {
	var entry models.AuditLog
	if err := s.db.WithContext(ctx).First(&entry, "id = ?", logID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Audit log")
		}
		return apperr.Internal("failed to load audit log", err)
	}
	if entry.IsUndone {
		return apperr.InvalidState("this action has already been undone")
	}
	if entry.Action == models.AuditActionUndo {
		return apperr.InvalidState("an undo cannot be undone")
	}

	if branch := models.BranchModel(entry.EntityType); branch.Valid() {
		if entry.Action != models.AuditActionCreate {
			return apperr.InvalidState("only service record creation can be undone")
		}
		if err := s.deleteServiceRecord(ctx, branch, entry.EntityID); err != nil {
			return err
		}
		if err := s.markUndone(ctx, s.db, &entry, userID, userName); err != nil {
			s.logger.Error().Err(err).
				Str("log_id", entry.ID.String()).
				Str("entity_type", entry.EntityType).
				Str("entity_id", entry.EntityID).
				Msg("service record deleted but audit log not marked undone; retry the undo")
			return err
		}
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := revert(tx, &entry); err != nil {
			return err
		}
		return s.markUndone(ctx, tx, &entry, userID, userName)
	})
}

// deleteServiceRecord runs the record delete flow. The delete and the audit
// update are separate transactions, so a record that is already gone counts
// as deleted and a retried undo can still mark its entry.
func (s *Service) deleteServiceRecord(ctx context.Context, branch models.BranchModel, id string) error {
	err := s.records.DeleteServiceRecord(ctx, branch, id)
	if apperr.IsKind(err, apperr.KindNotFound) {
		s.logger.Warn().
			Str("entity_type", string(branch)).
			Str("entity_id", id).
			Msg("service record already deleted, completing undo")
		return nil
	}
	return err
}

func (s *Service) markUndone(ctx context.Context, db *gorm.DB, entry *models.AuditLog, userID uuid.UUID, userName string) error {
	now := time.Now()
	entry.IsUndone = true
	entry.UndoneBy = &userID
	entry.UndoneAt = &now
	if err := db.WithContext(ctx).Save(entry).Error; err != nil {
		return apperr.Internal("failed to update audit log", err)
	}

	undo := newEntry(LogOptions{
		UserID:      userID,
		UserName:    userName,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		Action:      models.AuditActionUndo,
		Description: "Undone: " + entry.Description,
	})
	undo.BeforeData = entry.AfterData
	undo.AfterData = entry.BeforeData
	if err := db.WithContext(ctx).Create(&undo).Error; err != nil {
		return apperr.Internal("failed to write undo log", err)
	}

	s.logger.Info().
		Str("log_id", entry.ID.String()).
		Str("entity_type", entry.EntityType).
		Str("entity_id", entry.EntityID).
		Msg("action undone")
	return nil
}

func revert(tx *gorm.DB, entry *models.AuditLog) error {
	switch entry.Action {
	case models.AuditActionCreate:
		return deleteEntity(tx, entry.EntityType, entry.EntityID)
	case models.AuditActionUpdate:
		return restoreEntity(tx, entry.EntityType, entry.EntityID, entry.BeforeData)
	case models.AuditActionDelete:
		return recreateEntity(tx, entry.EntityType, entry.BeforeData)
	default:
		return apperr.InvalidState("this action cannot be undone")
	}
}

func deleteEntity(tx *gorm.DB, entityType, entityID string) error {
	var model any
	switch entityType {
	case EntityExpense:
		model = &models.Expense{}
	case EntityDoctorPayment:
		model = &models.DoctorPayment{}
	default:
		return apperr.InvalidState("unknown entity type: " + entityType)
	}

	res := tx.Where("id = ?", entityID).Delete(model)
	if res.Error != nil {
		return apperr.Internal("failed to delete "+entityType, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(entityType)
	}
	return nil
}

func recreateEntity(tx *gorm.DB, entityType string, data datatypes.JSON) error {
	switch entityType {
	case EntityExpense:
		var e models.Expense
		if err := json.Unmarshal(data, &e); err != nil {
			return apperr.Internal("failed to decode expense snapshot", err)
		}
		if err := tx.Create(&e).Error; err != nil {
			return apperr.Internal("failed to recreate expense", err)
		}
		return nil
	case EntityDoctorPayment:
		var p models.DoctorPayment
		if err := json.Unmarshal(data, &p); err != nil {
			return apperr.Internal("failed to decode payment snapshot", err)
		}
		if err := tx.Create(&p).Error; err != nil {
			return apperr.Internal("failed to recreate payment", err)
		}
		return nil
	default:
		return apperr.InvalidState("unknown entity type: " + entityType)
	}
}

func restoreEntity(tx *gorm.DB, entityType, entityID string, data datatypes.JSON) error {
	switch entityType {
	case EntityExpense:
		var e models.Expense
		if err := json.Unmarshal(data, &e); err != nil {
			return apperr.Internal("failed to decode expense snapshot", err)
		}
		err := tx.Model(&models.Expense{}).Where("id = ?", entityID).Updates(map[string]any{
			"category_id": e.CategoryID,
			"date":        e.Date,
			"amount":      e.Amount,
			"description": e.Description,
		}).Error
		if err != nil {
			return apperr.Internal("failed to restore expense", err)
		}
		return nil
	default:
		return apperr.InvalidState("unknown entity type: " + entityType)
	}
}
