package patient

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"clinic-backend/internal/httputil"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

func TestCreatePatientValidation(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: httputil.ErrorHandler(zerolog.Nop())})
	// Rejected bodies never reach the database.
	app.Post("/patients", CreatePatientHandler(nil))

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", `{"patientId":`, "invalid request body"},
		{"missing patient id", `{"name":"Ali"}`, "patientId is required"},
		{"missing name", `{"patientId":"P-001"}`, "name is required"},
		{"age out of range", `{"patientId":"P-001","name":"Ali","age":200}`, "age must be at most 150"},
		{"bad gender", `{"patientId":"P-001","name":"Ali","gender":"x"}`, "gender must be one of: male female other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/patients", strings.NewReader(tt.body))
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

			if resp.StatusCode != fiber.StatusBadRequest || out.Message != tt.want {
				t.Errorf("got %d %q, want 400 %q", resp.StatusCode, out.Message, tt.want)
			}
		})
	}
}
