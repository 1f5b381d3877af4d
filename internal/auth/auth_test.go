package auth

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"clinic-backend/internal/config"
	"clinic-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testUser(role models.UserRole) *models.User {
	return &models.User{ID: uuid.New(), Name: "Dr. Karimi", Email: "karimi@clinic.test", Role: role}
}

func TestGenerateAndParseToken(t *testing.T) {
	u := testUser(models.RoleDoctor)
	tok, err := GenerateToken(testSecret, u)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseToken(testSecret, tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != u.ID || claims.Role != models.RoleDoctor || claims.Name != u.Name {
		t.Errorf("unexpected claims: %+v", claims)
	}

	if _, err := ParseToken("another-secret-another-secret-xx", tok); err == nil {
		t.Errorf("expected error for wrong secret")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	claims := &JWTCustomClaims{
		UserID: uuid.New(),
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(testSecret, tok); err == nil {
		t.Errorf("expected error for expired token")
	}
}

func TestMiddlewareAndRoles(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret}

	app := fiber.New()
	app.Use(JWTMiddleware(cfg))
	app.Get("/any", func(c *fiber.Ctx) error {
		actor, err := CurrentUser(c)
		if err != nil {
			return err
		}
		return c.SendString(string(actor.Role))
	})
	app.Get("/admin", RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	adminTok, _ := GenerateToken(testSecret, testUser(models.RoleAdmin))
	doctorTok, _ := GenerateToken(testSecret, testUser(models.RoleDoctor))

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"no header", "/any", "", 401, ""},
		{"wrong scheme", "/any", "Basic abc", 401, ""},
		{"garbage token", "/any", "Bearer abc", 401, ""},
		{"valid token", "/any", "Bearer " + doctorTok, 200, "doctor"},
		{"admin route as admin", "/admin", "Bearer " + adminTok, 200, "ok"},
		{"admin route as doctor", "/admin", "Bearer " + doctorTok, 403, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.body != "" {
				b, _ := io.ReadAll(resp.Body)
				if string(b) != tt.body {
					t.Errorf("body = %q, want %q", b, tt.body)
				}
			}
		})
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret-pass" || len(hash) < 50 {
		t.Errorf("password not hashed: %q", hash)
	}
}
