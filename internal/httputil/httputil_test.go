package httputil

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clinic-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type sampleBody struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Role  string `json:"role" validate:"required,oneof=admin doctor"`
}

func run(t *testing.T, app *fiber.App, method, target, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestParseBody(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).SendString(err.Error())
		},
	})
	app.Post("/", func(c *fiber.Ctx) error {
		var body sampleBody
		if err := ParseBody(c, &body); err != nil {
			return err
		}
		return c.SendString(body.Name)
	})

	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{"valid", `{"name":"Ali","role":"doctor"}`, 200, "Ali"},
		{"malformed", `{"name":`, 400, "invalid request body"},
		{"missing field", `{"role":"doctor"}`, 400, "name is required"},
		{"bad email", `{"name":"Ali","role":"doctor","email":"x"}`, 400, "email must be a valid email"},
		{"bad enum", `{"name":"Ali","role":"nurse"}`, 400, "role must be one of: admin doctor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := run(t, app, "POST", "/", tt.body)
			if status != tt.status {
				t.Fatalf("status = %d, want %d (%s)", status, tt.status, body)
			}
			if body != tt.want {
				t.Errorf("body = %q, want %q", body, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-14")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", d)
	}
	if _, err := ParseDate("14/03/2025"); err == nil {
		t.Errorf("expected error for wrong layout")
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query string
		want  Page
	}{
		{"", Page{Page: 1, Limit: 20, Offset: 0}},
		{"?page=3&limit=10", Page{Page: 3, Limit: 10, Offset: 20}},
		{"?page=0&limit=-5", Page{Page: 1, Limit: 20, Offset: 0}},
		{"?limit=1000", Page{Page: 1, Limit: 100, Offset: 0}},
		{"?page=abc", Page{Page: 1, Limit: 20, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got Page
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				got = Pagination(c)
				return nil
			})
			run(t, app, "GET", "/"+tt.query, "")
			if got != tt.want {
				t.Errorf("Pagination() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMonthRange(t *testing.T) {
	now := time.Date(2025, 7, 20, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		query     string
		wantStart time.Time
		wantErr   bool
	}{
		{"", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), false},
		{"?year=2024&month=12", time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), false},
		{"?month=13", time.Time{}, true},
		{"?year=x", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var (
				start, end time.Time
				err        error
			)
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				_, _, start, end, err = MonthRange(c, now)
				return nil
			})
			run(t, app, "GET", "/"+tt.query, "")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !start.Equal(tt.wantStart) || !end.Equal(tt.wantStart.AddDate(0, 1, 0)) {
				t.Errorf("range = [%v, %v)", start, end)
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zerolog.Nop())})
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusForbidden, "nope") })
	app.Get("/notfound", func(c *fiber.Ctx) error { return apperr.NotFound("Doctor") })
	app.Get("/internal", func(c *fiber.Ctx) error {
		return apperr.Internal("failed to save income", errors.New("pq: deadlock"))
	})
	app.Get("/plain", func(c *fiber.Ctx) error { return errors.New("boom") })

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/fiber", 403, `{"message":"nope"}`},
		{"/notfound", 404, `{"message":"Doctor not found"}`},
		{"/internal", 500, `{"message":"failed to save income"}`},
		{"/plain", 500, `{"message":"unexpected server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := run(t, app, "GET", tt.path, "")
			if status != tt.status || body != tt.body {
				t.Errorf("got %d %s, want %d %s", status, body, tt.status, tt.body)
			}
		})
	}
}
