package request

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes the request body into dst and runs struct validation on it.
func Parse(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "invalid request body")
	}
	return Validate(dst)
}

func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperr.Wrap(apperr.KindValidation, err, fmt.Sprintf("%s is invalid (%s)", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return apperr.Wrap(apperr.KindValidation, err, "invalid request")
	}
	return nil
}

// IntParam reads a positive integer route parameter.
func IntParam(c *fiber.Ctx, name string) (int, error) {
	v, err := strconv.Atoi(c.Params(name))
	if err != nil || v <= 0 {
		return 0, apperr.New(apperr.KindValidation, "invalid "+name)
	}
	return v, nil
}

// PathParam returns a route parameter with percent escapes decoded, so
// /categories/Gold%20Rings yields "Gold Rings".
func PathParam(c *fiber.Ctx, name string) (string, error) {
	v, err := url.PathUnescape(c.Params(name))
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, err, "invalid "+name)
	}
	return v, nil
}

// OptionalFloatQuery returns nil when the query value is absent or blank.
func OptionalFloatQuery(c *fiber.Ctx, name string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid "+name)
	}
	return &v, nil
}
