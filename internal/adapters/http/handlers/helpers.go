package handlers

import (
	"errors"
	"strconv"

	"tikalinvest/internal/adapters/http/middleware"
	"tikalinvest/internal/core/domain"
	"tikalinvest/internal/pkg/logger"
	"tikalinvest/internal/pkg/response"
	"tikalinvest/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// currentUserID returns the caller set by AuthMiddleware
func currentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(middleware.LocalUserID).(uint)
	return id, ok && id != 0
}

// paramID parses a positive numeric path parameter
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryUint parses an optional numeric query parameter
func queryUint(c *fiber.Ctx, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, false
	}
	id := uint(v)
	return &id, true
}

// bindJSON parses and validates the request body. When ok is false the 400
// response has been written and err is what the handler returns.
func bindJSON(c *fiber.Ctx, dst interface{}) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return false, response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(dst); err != nil {
		return false, validationFailed(c, err)
	}
	return true, nil
}

func validationFailed(c *fiber.Ctx, err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return response.ValidationError(c, verrs.Error(), verrs)
	}
	return response.BadRequest(c, err.Error())
}

// serviceError maps a service error onto the response envelope. Anything
// unrecognised is logged and answered with fallback.
func serviceError(c *fiber.Ctx, err error, fallback string) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return response.ValidationError(c, verrs.Error(), verrs)

	case errors.Is(err, domain.ErrInvalidCredentials):
		return response.Unauthorized(c, "Invalid email/username or password")
	case errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenRevoked),
		errors.Is(err, domain.ErrUnauthorized):
		return response.Unauthorized(c, err.Error())

	case errors.Is(err, domain.ErrAccountPending):
		return response.Forbidden(c, "Your account is pending approval")
	case errors.Is(err, domain.ErrAccountDisabled),
		errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, err.Error())

	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrStockNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrReportNotFound),
		errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())

	case errors.Is(err, domain.ErrUserAlreadyExists),
		errors.Is(err, domain.ErrStockExists),
		errors.Is(err, domain.ErrDuplicateEntry):
		return response.Conflict(c, err.Error())

	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidReferralCode),
		errors.Is(err, domain.ErrInvalidPassword),
		errors.Is(err, domain.ErrOldPasswordWrong),
		errors.Is(err, domain.ErrInvalidStatusChange),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientShares),
		errors.Is(err, domain.ErrStockNotTradable),
		errors.Is(err, domain.ErrStockUnavailable):
		return response.BadRequest(c, err.Error())
	}

	logger.Logger.Error().Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg(fallback)
	return response.InternalServerError(c, fallback)
}
