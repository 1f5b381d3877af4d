package branch

import (
	"fmt"

	"clinic-backend/internal/audit"
	"clinic-backend/internal/auth"
	"clinic-backend/internal/httputil"
	"clinic-backend/internal/models"
	"clinic-backend/internal/servicetx"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CreateRequest carries no price or percentage; those are read from the
// operation type and the doctor's assignment.
type CreateRequest struct {
	PatientID string          `json:"patientId" validate:"required"`
	Doctor    string          `json:"doctor" validate:"required,uuid"`
	Type      string          `json:"type" validate:"required,uuid"`
	Time      string          `json:"time" validate:"omitempty,datetime=15:04"`
	Date      string          `json:"date" validate:"required,datetime=2006-01-02"`
	Discount  decimal.Decimal `json:"discount"`
}

func lookup(reg *Registry, c *fiber.Ctx) (servicetx.Handle, error) {
	h, ok := reg.Lookup(c.Params("branch"))
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "unknown branch: "+c.Params("branch"))
	}
	return h, nil
}

func writeAudit(c *fiber.Ctx, audits audit.Logger, actor auth.Actor, opts audit.LogOptions) {
	opts.UserID = actor.ID
	opts.UserName = actor.Name
	if err := audits.WriteLog(c.UserContext(), opts); err != nil {
		log.Warn().Err(err).Str("entity_type", opts.EntityType).Str("entity_id", opts.EntityID).Msg("audit log not written")
	}
}

// POST /api/branches/:branch
func CreateHandler(reg *Registry, audits audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h, err := lookup(reg, c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body CreateRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}
		date, err := httputil.ParseDate(body.Date)
		if err != nil {
			return err
		}

		b := h.Branch()
		rec, err := h.CreateRecord(c.UserContext(), servicetx.CreateInput{
			PatientID:       body.PatientID,
			DoctorID:        uuid.MustParse(body.Doctor),
			OperationTypeID: uuid.MustParse(body.Type),
			Time:            body.Time,
			Date:            date,
			Discount:        body.Discount,
		})
		if err != nil {
			return err
		}

		base := rec.Base()
		writeAudit(c, audits, actor, audit.LogOptions{
			EntityType:  string(b.Model),
			EntityID:    base.ID.String(),
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("%s record created for patient %s", b.Label, body.PatientID),
			After:       rec,
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"message": b.Label + " record created successfully",
			"data":    rec,
		})
	}
}

// DELETE /api/branches/:branch/:id
func DeleteHandler(reg *Registry, audits audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h, err := lookup(reg, c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		b := h.Branch()
		rec, err := h.DeleteRecord(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}

		writeAudit(c, audits, actor, audit.LogOptions{
			EntityType:  string(b.Model),
			EntityID:    rec.Base().ID.String(),
			Action:      models.AuditActionDelete,
			Description: b.Label + " record deleted",
			Before:      rec,
		})

		return c.JSON(fiber.Map{
			"success": true,
			"message": b.Label + " record deleted successfully",
		})
	}
}

// GET /api/branches/:branch?page=1&limit=20
func ListHandler(reg *Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h, err := lookup(reg, c)
		if err != nil {
			return err
		}

		page := httputil.Pagination(c)
		rows, total, err := h.ListRecords(c.UserContext(), servicetx.ListQuery{Offset: page.Offset, Limit: page.Limit})
		if err != nil {
			return err
		}
		return c.JSON(httputil.Paginated(rows, total, page))
	}
}

// GET /api/branches/:branch/patient/:patientId
func ListByPatientHandler(reg *Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h, err := lookup(reg, c)
		if err != nil {
			return err
		}

		page := httputil.Pagination(c)
		rows, total, err := h.ListByPatientRecords(c.UserContext(), c.Params("patientId"), servicetx.ListQuery{Offset: page.Offset, Limit: page.Limit})
		if err != nil {
			return err
		}
		return c.JSON(httputil.Paginated(rows, total, page))
	}
}

// GET /api/branches
func ListBranchesHandler(reg *Registry) fiber.Handler {
	type item struct {
		Model models.BranchModel `json:"model"`
		Slug  string             `json:"slug"`
		Label string             `json:"label"`
	}
	return func(c *fiber.Ctx) error {
		branches := reg.Branches()
		resp := make([]item, 0, len(branches))
		for _, b := range branches {
			resp = append(resp, item{Model: b.Model, Slug: b.Slug, Label: b.Label})
		}
		return c.JSON(resp)
	}
}
