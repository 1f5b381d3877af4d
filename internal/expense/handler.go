package expense

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic-backend/internal/audit"
	"clinic-backend/internal/auth"
	"clinic-backend/internal/database"
	"clinic-backend/internal/httputil"
	"clinic-backend/internal/models"
	"clinic-backend/internal/pricing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ExpenseCategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ExpenseCategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CreateExpenseRequest struct {
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
	CategoryID  string          `json:"category_id" validate:"required,uuid"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=255"`
}

type ExpenseResponse struct {
	ID          string          `json:"id"`
	CategoryID  string          `json:"category_id"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type MonthlyExpenseSummaryItem struct {
	CategoryName string          `json:"category_name"`
	Total        decimal.Decimal `json:"total"`
}

type MonthlyExpenseSummaryResponse struct {
	Year       int                         `json:"year"`
	Month      int                         `json:"month"`
	Items      []MonthlyExpenseSummaryItem `json:"items"`
	GrandTotal decimal.Decimal             `json:"grand_total"`
}

func toExpenseResponse(e models.Expense) ExpenseResponse {
	resp := ExpenseResponse{
		ID:          e.ID.String(),
		CategoryID:  e.CategoryID.String(),
		Date:        e.Date.Format(httputil.DateLayout),
		Amount:      e.Amount,
		Description: e.Description,
	}
	if e.Category != nil {
		resp.Category = e.Category.Name
	}
	return resp
}

// -------------------------
// Expense Category CRUD
// -------------------------

// GET /api/expense-categories
func ListExpenseCategoriesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var cats []models.ExpenseCategory
		if err := db.WithContext(c.UserContext()).Order("name asc").Find(&cats).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list categories")
		}

		res := make([]ExpenseCategoryResponse, 0, len(cats))
		for _, cat := range cats {
			res = append(res, ExpenseCategoryResponse{ID: cat.ID.String(), Name: cat.Name})
		}
		return c.JSON(res)
	}
}

// POST /api/expense-categories
func CreateExpenseCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ExpenseCategoryRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		cat := models.ExpenseCategory{Name: strings.TrimSpace(body.Name)}
		if cat.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}
		if err := db.WithContext(c.UserContext()).Create(&cat).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "category already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not create category")
		}

		return c.Status(fiber.StatusCreated).JSON(ExpenseCategoryResponse{ID: cat.ID.String(), Name: cat.Name})
	}
}

// PUT /api/expense-categories/:id
func UpdateExpenseCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParseUUID(c, "id")
		if err != nil {
			return err
		}
		var body ExpenseCategoryRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		res := db.WithContext(c.UserContext()).
			Model(&models.ExpenseCategory{}).
			Where("id = ?", id).
			Update("name", strings.TrimSpace(body.Name))
		if res.Error != nil {
			if database.IsUniqueViolation(res.Error) {
				return fiber.NewError(fiber.StatusConflict, "category already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not update category")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Category not found")
		}
		return c.JSON(ExpenseCategoryResponse{ID: id.String(), Name: strings.TrimSpace(body.Name)})
	}
}

// DELETE /api/expense-categories/:id
func DeleteExpenseCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParseUUID(c, "id")
		if err != nil {
			return err
		}

		res := db.WithContext(c.UserContext()).Delete(&models.ExpenseCategory{}, "id = ?", id)
		if res.Error != nil {
			if database.IsForeignKeyViolation(res.Error) {
				return fiber.NewError(fiber.StatusConflict, "category still has expenses")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete category")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Category not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------
// Expenses
// -------------------------

// POST /api/expenses
func CreateExpenseHandler(db *gorm.DB, audits audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateExpenseRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}
		if !body.Amount.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "amount must be greater than 0")
		}
		if !pricing.FitsPlaces(body.Amount, pricing.MoneyPlaces) {
			return fiber.NewError(fiber.StatusBadRequest, "amount must have at most 2 decimal places")
		}
		date, err := httputil.ParseDate(body.Date)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		ctxDB := db.WithContext(c.UserContext())
		var cat models.ExpenseCategory
		if err := ctxDB.First(&cat, "id = ?", uuid.MustParse(body.CategoryID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Category not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not load category")
		}

		exp := models.Expense{
			ID:          uuid.New(),
			CategoryID:  cat.ID,
			Date:        date,
			Amount:      body.Amount,
			Description: strings.TrimSpace(body.Description),
		}
		if err := ctxDB.Create(&exp).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create expense")
		}

		if err := audits.WriteLog(c.UserContext(), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntityExpense,
			EntityID:    exp.ID.String(),
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Expense of %s under %s", exp.Amount.StringFixed(2), cat.Name),
			After:       exp,
		}); err != nil {
			log.Warn().Err(err).Str("expense_id", exp.ID.String()).Msg("audit log not written")
		}

		exp.Category = &cat
		return c.Status(fiber.StatusCreated).JSON(toExpenseResponse(exp))
	}
}

// DELETE /api/expenses/:id
func DeleteExpenseHandler(db *gorm.DB, audits audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParseUUID(c, "id")
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		ctxDB := db.WithContext(c.UserContext())
		var exp models.Expense
		if err := ctxDB.First(&exp, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Expense not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not load expense")
		}
		if err := ctxDB.Delete(&exp).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete expense")
		}

		if err := audits.WriteLog(c.UserContext(), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntityExpense,
			EntityID:    exp.ID.String(),
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Expense of %s deleted", exp.Amount.StringFixed(2)),
			Before:      exp,
		}); err != nil {
			log.Warn().Err(err).Str("expense_id", exp.ID.String()).Msg("audit log not written")
		}

		return c.JSON(fiber.Map{"success": true, "message": "expense deleted successfully"})
	}
}

// GET /api/expenses?from=...&to=...&category_id=...
func ListExpensesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.WithContext(c.UserContext()).Model(&models.Expense{}).Preload("Category")

		if v := c.Query("from"); v != "" {
			from, err := httputil.ParseDate(v)
			if err != nil {
				return err
			}
			dbq = dbq.Where("date >= ?", from)
		}
		if v := c.Query("to"); v != "" {
			to, err := httputil.ParseDate(v)
			if err != nil {
				return err
			}
			dbq = dbq.Where("date <= ?", to)
		}
		if v := c.Query("category_id"); v != "" {
			cid, err := uuid.Parse(v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid category_id")
			}
			dbq = dbq.Where("category_id = ?", cid)
		}

		var rows []models.Expense
		if err := dbq.Order("date asc, created_at asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list expenses")
		}

		resp := make([]ExpenseResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, toExpenseResponse(r))
		}
		return c.JSON(resp)
	}
}

// MonthlyTotals sums the expenses of [start, end) per category name.
func MonthlyTotals(db *gorm.DB, start, end time.Time) ([]MonthlyExpenseSummaryItem, decimal.Decimal, error) {
	q := db.Model(&models.Expense{}).
		Joins("JOIN expense_categories ON expense_categories.id = expenses.category_id").
		Where("expenses.date >= ? AND expenses.date < ?", start, end)

	rows, err := database.SumByGroup(q, "expense_categories.name", "expenses.amount")
	if err != nil {
		return nil, decimal.Zero, err
	}

	items := make([]MonthlyExpenseSummaryItem, 0, len(rows))
	grand := decimal.Zero
	for _, r := range rows {
		items = append(items, MonthlyExpenseSummaryItem{CategoryName: r.Bucket, Total: r.Total})
		grand = grand.Add(r.Total)
	}
	return items, grand, nil
}

// -------------------------
// Monthly expense summary
// GET /api/expenses/summary/monthly?year=2025&month=12
// -------------------------
func MonthlyExpenseSummaryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, month, start, end, err := httputil.MonthRange(c, time.Now())
		if err != nil {
			return err
		}

		items, grand, err := MonthlyTotals(db.WithContext(c.UserContext()), start, end)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not compute summary")
		}

		return c.JSON(MonthlyExpenseSummaryResponse{
			Year:       year,
			Month:      month,
			Items:      items,
			GrandTotal: grand,
		})
	}
}
