package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var _ Logger = (*Service)(nil)

func TestNewEntrySerializesSnapshots(t *testing.T) {
	expense := models.Expense{
		ID:          uuid.New(),
		CategoryID:  uuid.New(),
		Date:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString("1250.50"),
		Description: "Rent",
	}

	entry := newEntry(LogOptions{
		UserID:     uuid.New(),
		UserName:   "Admin",
		EntityType: EntityExpense,
		EntityID:   expense.ID.String(),
		Action:     models.AuditActionCreate,
		After:      expense,
	})

	if string(entry.BeforeData) != "null" {
		t.Errorf("before = %s, want null", entry.BeforeData)
	}

	var decoded models.Expense
	if err := json.Unmarshal(entry.AfterData, &decoded); err != nil {
		t.Fatalf("after data is not valid JSON: %v", err)
	}
	if decoded.ID != expense.ID || !decoded.Amount.Equal(expense.Amount) {
		t.Errorf("round trip lost data: %+v", decoded)
	}
}

func TestToResponse(t *testing.T) {
	undoneBy := uuid.New()
	undoneAt := time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC)
	l := models.AuditLog{
		ID:         uuid.New(),
		CreatedAt:  time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		EntityType: string(models.BranchLaboratory),
		Action:     models.AuditActionCreate,
		IsUndone:   true,
		UndoneBy:   &undoneBy,
		UndoneAt:   &undoneAt,
	}

	resp := toResponse(l)
	if resp.CreatedAt != "2025-03-01 08:00:00" {
		t.Errorf("created_at = %q", resp.CreatedAt)
	}
	if resp.UndoneBy == nil || *resp.UndoneBy != undoneBy.String() {
		t.Errorf("undone_by = %v", resp.UndoneBy)
	}
	if resp.UndoneAt == nil || *resp.UndoneAt != "2025-03-02 09:30:00" {
		t.Errorf("undone_at = %v", resp.UndoneAt)
	}
}

type fakeDeleter struct {
	err   error
	calls int
}

func (f *fakeDeleter) DeleteServiceRecord(ctx context.Context, branch models.BranchModel, id string) error {
	f.calls++
	return f.err
}

func TestDeleteServiceRecordToleratesAlreadyDeleted(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"deleted now", nil, false},
		{"deleted by an earlier attempt", apperr.NotFound("Service record"), false},
		{"store failure", apperr.Internal("could not delete record", nil), true},
		{"invalid state", apperr.InvalidState("record is locked"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := &fakeDeleter{err: tt.err}
			s := NewService(nil, records, zerolog.Nop())

			err := s.deleteServiceRecord(context.Background(), models.BranchOPD, uuid.NewString())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if records.calls != 1 {
				t.Errorf("delete called %d times, want 1", records.calls)
			}
		})
	}
}
