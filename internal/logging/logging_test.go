package logging

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"clinic-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
)

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name    string
		handler fiber.Handler
		status  int
		level   string
	}{
		{"ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) }, 201, "info"},
		{"fiber error", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusBadRequest, "bad") }, 400, "warn"},
		{"app error", func(c *fiber.Ctx) error { return apperr.NotFound("Patient") }, 404, "warn"},
		{"internal", func(c *fiber.Ctx) error { return apperr.Internal("boom", nil) }, 500, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)

			app := fiber.New()
			app.Use(requestid.New())
			app.Use(RequestLogger(logger))
			app.Get("/x", tt.handler)

			if _, err := app.Test(httptest.NewRequest("GET", "/x", nil)); err != nil {
				t.Fatalf("request failed: %v", err)
			}

			var line map[string]any
			if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
				t.Fatalf("log line is not JSON: %q", buf.String())
			}
			if got := int(line["status"].(float64)); got != tt.status {
				t.Errorf("status = %d, want %d", got, tt.status)
			}
			if line["level"] != tt.level {
				t.Errorf("level = %v, want %s", line["level"], tt.level)
			}
			if rid, _ := line["request_id"].(string); rid == "" {
				t.Errorf("missing request id")
			}
			if line["path"] != "/x" || line["method"] != "GET" {
				t.Errorf("unexpected method/path: %v %v", line["method"], line["path"])
			}
		})
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	logger := New("production", "nonsense")
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Errorf("level = %s, want info", logger.GetLevel())
	}
}
