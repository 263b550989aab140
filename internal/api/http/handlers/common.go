package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/assetdesk/asset-service/internal/api/dto"
	"github.com/assetdesk/asset-service/internal/service"
	apperrors "github.com/assetdesk/asset-service/pkg/util/errorutil"
)

// bind decodes the request body into req and runs tag validation.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(req)
}

// bindOptional is bind for endpoints whose body may be empty.
func bindOptional(c *fiber.Ctx, req any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return bind(c, req)
}

func respond(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

func respondList[T, R any](c *fiber.Ctx, result service.ListResult[T], convert func(*T) R) error {
	items := make([]R, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, convert(&result.Items[i]))
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": dto.ListMeta{Page: result.Page.Page, PageSize: result.Page.PageSize, Total: result.Total},
	})
}

func mapSlice[T, R any](items []T, convert func(*T) R) []R {
	out := make([]R, 0, len(items))
	for i := range items {
		out = append(out, convert(&items[i]))
	}
	return out
}

func pagination(c *fiber.Ctx) service.Pagination {
	return service.Pagination{
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 20),
	}
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseBool(val string) bool {
	parsed, err := strconv.ParseBool(val)
	return err == nil && parsed
}

// parseDate reads an optional YYYY-MM-DD or RFC3339 query parameter.
func parseDate(c *fiber.Ctx, key string) (*time.Time, error) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil, nil
	}
	t, err := dto.ParseDate(val)
	if err != nil {
		return nil, invalidQuery(key, val)
	}
	return &t, nil
}

// parseTime reads an optional RFC3339 timestamp, falling back to a calendar day.
func parseTime(c *fiber.Ctx, key string) (*time.Time, error) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return &t, nil
	}
	return parseDate(c, key)
}

func queryString(c *fiber.Ctx, key string) *string {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil
	}
	return &val
}

func queryList(c *fiber.Ctx, key string) []string {
	val := c.Query(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func enumQuery[T ~string](c *fiber.Ctx, key string) *T {
	val := queryString(c, key)
	if val == nil {
		return nil
	}
	v := T(strings.ToUpper(*val))
	return &v
}

func invalidQuery(key, val string) error {
	return apperrors.NewValidationError("invalid query parameter", map[string]any{key: val})
}
