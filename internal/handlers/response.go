package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"storefront/internal/apperrors"
	"storefront/internal/middleware"
	"storefront/internal/policy"
	"storefront/internal/services"
	"storefront/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Response is the success envelope.
type Response struct {
	Success    bool               `json:"success"`
	Data       interface{}        `json:"data,omitempty"`
	Message    string             `json:"message,omitempty"`
	Pagination *services.PageMeta `json:"pagination,omitempty"`
}

// ErrorBody describes a failure inside ErrorResponse.
type ErrorBody struct {
	Name    string            `json:"name"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Error   ErrorBody `json:"error"`
}

func respond(c *fiber.Ctx, status int, data interface{}, message string) error {
	return c.Status(status).JSON(Response{Success: true, Data: data, Message: message})
}

func paged(c *fiber.Ctx, data interface{}, meta services.PageMeta) error {
	return c.Status(fiber.StatusOK).JSON(Response{Success: true, Data: data, Pagination: &meta})
}

// ErrorHandler is the single boundary translating errors into the failure
// envelope. In production, unclassified errors expose no detail.
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if appErr, ok := apperrors.As(err); ok {
			return writeError(c, appErr.StatusCode(), string(appErr.Kind), appErr.Message, appErr.Details)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			switch {
			case fiberErr.Code == fiber.StatusNotFound:
				return writeError(c, fiberErr.Code, string(apperrors.KindNotFound), fiberErr.Message, nil)
			case fiberErr.Code < fiber.StatusInternalServerError:
				return writeError(c, fiberErr.Code, string(apperrors.KindValidation), fiberErr.Message, nil)
			}
		}

		logger.FromCtx(c.UserContext()).Error("unhandled error",
			"method", c.Method(), "path", c.Path(), "error", err)
		message := err.Error()
		if production {
			message = "Internal server error"
		}
		return writeError(c, fiber.StatusInternalServerError, string(apperrors.KindInternal), message, nil)
	}
}

func writeError(c *fiber.Ctx, status int, name, message string, details map[string]string) error {
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Message: message,
		Error:   ErrorBody{Name: name, Message: message, Details: details},
	})
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// parseBody decodes the JSON body into dst and validates its struct tags.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.Validation("Invalid request body: %v", err)
	}
	return validateStruct(dst)
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Validation("Invalid request: %v", err)
	}
	details := make(map[string]string, len(fieldErrs))
	for _, e := range fieldErrs {
		details[fieldPath(e)] = describe(e)
	}
	return apperrors.ValidationDetails("Validation failed", details)
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "uuid":
		return "must be a valid UUID"
	default:
		return fmt.Sprintf("failed on the '%s' rule", e.Tag())
	}
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.ValidationDetails("Invalid query parameter", map[string]string{key: "must be an integer"})
	}
	return n, nil
}

// queryBool reads an optional boolean query parameter.
func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.ValidationDetails("Invalid query parameter", map[string]string{key: "must be true or false"})
	}
	return &b, nil
}

func pageParams(c *fiber.Ctx) (int, int, error) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return 0, 0, err
	}
	if page < 1 {
		return 0, 0, apperrors.ValidationDetails("Invalid query parameter", map[string]string{"page": "must be at least 1"})
	}
	if limit < 1 || limit > 100 {
		return 0, 0, apperrors.ValidationDetails("Invalid query parameter", map[string]string{"limit": "must be between 1 and 100"})
	}
	return page, limit, nil
}

// principal returns the authenticated caller or an UnauthenticatedError.
func principal(c *fiber.Ctx) (policy.Principal, error) {
	p, ok := middleware.Principal(c)
	if !ok {
		return policy.Principal{}, apperrors.Unauthenticated("Authentication required")
	}
	return p, nil
}
