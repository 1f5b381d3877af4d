// Package httputil holds the request parsing helpers shared by the handlers.
package httputil

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const DateLayout = "2006-01-02"

const (
	defaultLimit = 20
	maxLimit     = 100
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseBody decodes the JSON body into dst and runs its `validate` tags.
func ParseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid id", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must match %s", fe.Field(), fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "date must be in YYYY-MM-DD format")
	}
	return t, nil
}

// ParseUUID reads the named route parameter as a uuid.
func ParseUUID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+param)
	}
	return id, nil
}

// MonthRange returns [first day of month, first day of next month) for the
// year and month query parameters, defaulting to the current month.
func MonthRange(c *fiber.Ctx, now time.Time) (year, month int, start, end time.Time, err error) {
	year, month = now.Year(), int(now.Month())
	if v := c.Query("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil || year < 2000 || year > 2100 {
			return 0, 0, time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid year")
		}
	}
	if v := c.Query("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil || month < 1 || month > 12 {
			return 0, 0, time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid month")
		}
	}
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return year, month, start, start.AddDate(0, 1, 0), nil
}

type Page struct {
	Page   int
	Limit  int
	Offset int
}

// Pagination reads ?page and ?limit. Bad or missing values fall back to
// page 1 and the default limit; limit is capped.
func Pagination(c *fiber.Ctx) Page {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Page{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

type PaginatedResponse struct {
	Data  any   `json:"data"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func Paginated(data any, total int64, p Page) PaginatedResponse {
	return PaginatedResponse{Data: data, Total: total, Page: p.Page, Limit: p.Limit}
}
