package main

import (
	"context"
	"time"

	"clinic-backend/internal/admin"
	"clinic-backend/internal/audit"
	"clinic-backend/internal/auth"
	"clinic-backend/internal/branch"
	"clinic-backend/internal/config"
	"clinic-backend/internal/dashboard"
	"clinic-backend/internal/database"
	"clinic-backend/internal/expense"
	"clinic-backend/internal/financial"
	"clinic-backend/internal/khata"
	"clinic-backend/internal/models"
	"clinic-backend/internal/patient"
	"clinic-backend/internal/report"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type routeDeps struct {
	cfg      *config.Config
	db       *gorm.DB
	registry *branch.Registry
	audits   *audit.Service
	reports  *report.Generator
}

func registerRoutes(app *fiber.App, d routeDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx, d.db); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(d.db))
	api.Post("/auth/login", auth.LoginHandler(d.cfg, d.db))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(d.cfg))

	protected.Get("/auth/me", auth.MeHandler(d.db))

	adminOnly := auth.RequireRole(models.RoleAdmin)
	desk := auth.RequireRole(models.RoleAdmin, models.RoleReception)
	staff := auth.RequireRole(models.RoleAdmin, models.RoleDoctor)

	// Service records
	protected.Get("/branches", branch.ListBranchesHandler(d.registry))
	protected.Get("/branches/:branch", branch.ListHandler(d.registry))
	protected.Get("/branches/:branch/patient/:patientId", branch.ListByPatientHandler(d.registry))
	protected.Post("/branches/:branch", desk, branch.CreateHandler(d.registry, d.audits))
	protected.Delete("/branches/:branch/:id", adminOnly, branch.DeleteHandler(d.registry, d.audits))

	// Patients
	protected.Post("/patients", desk, patient.CreatePatientHandler(d.db))
	protected.Get("/patients", desk, patient.ListPatientsHandler(d.db))
	protected.Get("/patients/:patientId", desk, patient.GetPatientHandler(d.db))

	// Operation types are read by the reception desk when filling the form.
	protected.Get("/operation-types", admin.ListOperationTypesHandler(d.db))

	// Admin
	adminRoutes := protected.Group("/admin", adminOnly)

	adminRoutes.Post("/users", admin.CreateUserHandler(d.db))
	adminRoutes.Get("/users", admin.ListUsersHandler(d.db))
	adminRoutes.Get("/users/:id", admin.GetUserHandler(d.db))
	adminRoutes.Put("/users/:id", admin.UpdateUserHandler(d.db))
	adminRoutes.Delete("/users/:id", admin.DeleteUserHandler(d.db))

	adminRoutes.Post("/assignments", admin.CreateAssignmentHandler(d.db))
	adminRoutes.Get("/assignments", admin.ListAssignmentsHandler(d.db))
	adminRoutes.Put("/assignments/:id", admin.UpdateAssignmentHandler(d.db))
	adminRoutes.Delete("/assignments/:id", admin.DeleteAssignmentHandler(d.db))

	adminRoutes.Post("/operation-types", admin.CreateOperationTypeHandler(d.db))
	adminRoutes.Get("/operation-types", admin.ListOperationTypesHandler(d.db))
	adminRoutes.Put("/operation-types/:id", admin.UpdateOperationTypeHandler(d.db))
	adminRoutes.Delete("/operation-types/:id", admin.DeleteOperationTypeHandler(d.db))

	adminRoutes.Post("/monthly-reports", report.CreateMonthlyReportHandler(d.reports, d.audits))
	adminRoutes.Get("/monthly-reports", report.ListMonthlyReportsHandler(d.db))
	adminRoutes.Get("/monthly-reports/:id", report.GetMonthlyReportHandler(d.db))

	// Doctor khata
	protected.Get("/khata/:doctorId", staff, khata.ListEntriesHandler(d.db))
	protected.Get("/khata/:doctorId/balance", staff, khata.BalanceHandler(d.db))
	protected.Post("/khata/:doctorId/payments", adminOnly, khata.CreatePaymentHandler(d.db, d.audits))
	protected.Get("/khata/:doctorId/payments", adminOnly, khata.ListPaymentsHandler(d.db))

	// Expenses
	protected.Get("/expense-categories", adminOnly, expense.ListExpenseCategoriesHandler(d.db))
	protected.Post("/expense-categories", adminOnly, expense.CreateExpenseCategoryHandler(d.db))
	protected.Put("/expense-categories/:id", adminOnly, expense.UpdateExpenseCategoryHandler(d.db))
	protected.Delete("/expense-categories/:id", adminOnly, expense.DeleteExpenseCategoryHandler(d.db))
	protected.Post("/expenses", adminOnly, expense.CreateExpenseHandler(d.db, d.audits))
	protected.Get("/expenses", adminOnly, expense.ListExpensesHandler(d.db))
	protected.Get("/expenses/summary/monthly", adminOnly, expense.MonthlyExpenseSummaryHandler(d.db))
	protected.Delete("/expenses/:id", adminOnly, expense.DeleteExpenseHandler(d.db, d.audits))

	// Money overview
	protected.Get("/incomes", adminOnly, financial.ListIncomesHandler(d.db))
	protected.Get("/financial-summary/monthly", adminOnly, financial.MonthlyFinancialSummaryHandler(d.db))
	protected.Get("/dashboard/income-chart", adminOnly, dashboard.IncomeChartHandler(d.db))

	// Audit logs
	protected.Get("/audit-logs", adminOnly, audit.ListAuditLogsHandler(d.db))
	protected.Post("/audit-logs/:id/undo", adminOnly, audit.UndoAuditLogHandler(d.audits))
}
