package khata

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"clinic-backend/internal/audit"
	"clinic-backend/internal/auth"
	"clinic-backend/internal/httputil"
	"clinic-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type nopAudit struct{ calls int }

func (n *nopAudit) WriteLog(context.Context, audit.LogOptions) error {
	n.calls++
	return nil
}

// newApp mounts the handlers behind a fake login. The database is never
// reached on the paths exercised here, so it is nil.
func newApp(actorID uuid.UUID, role models.UserRole, audits audit.Logger) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: httputil.ErrorHandler(zerolog.Nop())})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, actorID)
		c.Locals(auth.CtxUserRoleKey, role)
		c.Locals(auth.CtxUserNameKey, "tester")
		return c.Next()
	})
	app.Get("/khata/:doctorId", ListEntriesHandler(nil))
	app.Get("/khata/:doctorId/balance", BalanceHandler(nil))
	app.Post("/khata/:doctorId/payments", CreatePaymentHandler(nil, audits))
	return app
}

func call(t *testing.T, app *fiber.App, method, target, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	var out struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out.Message
}

func TestComputeBalance(t *testing.T) {
	tests := []struct {
		earned, paid, want string
	}{
		{"0", "0", "0"},
		{"350.25", "100", "250.25"},
		{"100", "150", "-50"},
	}
	for _, tt := range tests {
		got := ComputeBalance(decimal.RequireFromString(tt.earned), decimal.RequireFromString(tt.paid))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ComputeBalance(%s, %s) = %s, want %s", tt.earned, tt.paid, got, tt.want)
		}
	}
}

func TestDoctorCannotReadAnotherLedger(t *testing.T) {
	me := uuid.New()
	app := newApp(me, models.RoleDoctor, &nopAudit{})
	other := uuid.New().String()

	for _, path := range []string{"/khata/" + other, "/khata/" + other + "/balance"} {
		status, msg := call(t, app, "GET", path, "")
		if status != fiber.StatusForbidden || msg != "you can only view your own khata" {
			t.Errorf("%s: got %d %q", path, status, msg)
		}
	}
}

func TestBadDoctorID(t *testing.T) {
	app := newApp(uuid.New(), models.RoleAdmin, &nopAudit{})
	status, msg := call(t, app, "GET", "/khata/42/balance", "")
	if status != fiber.StatusBadRequest || msg != "invalid doctorId" {
		t.Errorf("got %d %q", status, msg)
	}
}

func TestCreatePaymentValidation(t *testing.T) {
	audits := &nopAudit{}
	app := newApp(uuid.New(), models.RoleAdmin, audits)
	target := "/khata/" + uuid.New().String() + "/payments"

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", `{"amount":`, "invalid request body"},
		{"missing date", `{"amount":"100"}`, "date is required"},
		{"bad date", `{"amount":"100","date":"01/02/2025"}`, "date must match 2006-01-02"},
		{"zero amount", `{"amount":"0","date":"2025-02-01"}`, "amount must be greater than 0"},
		{"negative amount", `{"amount":"-5","date":"2025-02-01"}`, "amount must be greater than 0"},
		{"sub-cent amount", `{"amount":"100.125","date":"2025-02-01"}`, "amount must have at most 2 decimal places"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := call(t, app, "POST", target, tt.body)
			if status != fiber.StatusBadRequest || msg != tt.want {
				t.Errorf("got %d %q, want 400 %q", status, msg, tt.want)
			}
		})
	}
	if audits.calls != 0 {
		t.Errorf("audit written for rejected payment")
	}
}
