package audit

import (
	"clinic-backend/internal/auth"
	"clinic-backend/internal/httputil"
	"clinic-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditLogResponse struct {
	ID          string             `json:"id"`
	CreatedAt   string             `json:"created_at"`
	UserID      string             `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    string             `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	IsUndone    bool               `json:"is_undone"`
	UndoneBy    *string            `json:"undone_by"`
	UndoneAt    *string            `json:"undone_at"`
}

const timestampLayout = "2006-01-02 15:04:05"

func toResponse(l models.AuditLog) AuditLogResponse {
	resp := AuditLogResponse{
		ID:          l.ID.String(),
		CreatedAt:   l.CreatedAt.Format(timestampLayout),
		UserID:      l.UserID.String(),
		UserName:    l.UserName,
		EntityType:  l.EntityType,
		EntityID:    l.EntityID,
		Action:      l.Action,
		Description: l.Description,
		IsUndone:    l.IsUndone,
	}
	if l.UndoneBy != nil {
		s := l.UndoneBy.String()
		resp.UndoneBy = &s
	}
	if l.UndoneAt != nil {
		s := l.UndoneAt.Format(timestampLayout)
		resp.UndoneAt = &s
	}
	return resp
}

// GET /api/audit-logs?entity_type=Laboratory&entity_id=...&user_id=...&page=1&limit=20
func ListAuditLogsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.WithContext(c.UserContext()).Model(&models.AuditLog{})

		if v := c.Query("user_id"); v != "" {
			uid, err := uuid.Parse(v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid user_id")
			}
			dbq = dbq.Where("user_id = ?", uid)
		}
		if v := c.Query("entity_type"); v != "" {
			dbq = dbq.Where("entity_type = ?", v)
		}
		if v := c.Query("entity_id"); v != "" {
			dbq = dbq.Where("entity_id = ?", v)
		}
		dbq = dbq.Session(&gorm.Session{})

		page := httputil.Pagination(c)
		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not count audit logs")
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC").Offset(page.Offset).Limit(page.Limit).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list audit logs")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, toResponse(l))
		}
		return c.JSON(httputil.Paginated(resp, total, page))
	}
}

// POST /api/audit-logs/:id/undo
func UndoAuditLogHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logID, err := httputil.ParseUUID(c, "id")
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		if err := svc.Undo(c.UserContext(), logID, actor.ID, actor.Name); err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "action undone successfully",
		})
	}
}
