package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code       string
	Message    string
	Detail     string
	StatusCode int
	RedirectTo string
	Fields     []string
	Err        error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail

	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err

	return e
}

// WithRedirect names the resource a client should go back to after the error.
func (e *AppError) WithRedirect(path string) *AppError {
	e.RedirectTo = path

	return e
}

func (e *AppError) WithFields(fields ...string) *AppError {
	e.Fields = append(e.Fields, fields...)

	return e
}

const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
	ErrCodeDuplicateEntry    = "DUPLICATE_ENTRY"
	ErrCodeThirdPartyError   = "THIRD_PARTY_ERROR"
	ErrCodeTooManyRequests   = "TOO_MANY_REQUESTS"
	ErrCodeResourceExhausted = "RESOURCE_EXHAUSTED"

	ErrCodeEmptyCart                 = "EMPTY_CART"
	ErrCodeInvalidQuantity           = "INVALID_QUANTITY"
	ErrCodePaymentGatewayUnavailable = "PAYMENT_GATEWAY_UNAVAILABLE"
	ErrCodePaymentGatewayError       = "PAYMENT_GATEWAY_ERROR"
	ErrCodeOrderCommitFailed         = "ORDER_COMMIT_FAILED"
)

const (
	RedirectCart     = "/api/v1/cart"
	RedirectCheckout = "/api/v1/checkout"
)

func ValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message, http.StatusBadRequest)
}

func BadRequestError(message string) *AppError {
	return NewAppError(ErrCodeBadRequest, message, http.StatusBadRequest)
}

func NotFoundError(message string) *AppError {
	return NewAppError(ErrCodeNotFound, message, http.StatusNotFound)
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func ForbiddenError(message string) *AppError {
	return NewAppError(ErrCodeForbidden, message, http.StatusForbidden)
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

func DatabaseError(message string) *AppError {
	return NewAppError(ErrCodeDatabaseError, message, http.StatusInternalServerError)
}

func DuplicateEntryError(message string) *AppError {
	return NewAppError(ErrCodeDuplicateEntry, message, http.StatusConflict)
}

func ThirdPartyError(message string) *AppError {
	return NewAppError(ErrCodeThirdPartyError, message, http.StatusInternalServerError)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError(ErrCodeTooManyRequests, message, http.StatusTooManyRequests)
}

func ResourceExhaustedError(message string) *AppError {
	return NewAppError(ErrCodeResourceExhausted, message, http.StatusTooManyRequests)
}

func EmptyCartError() *AppError {
	return NewAppError(ErrCodeEmptyCart, "Your cart is empty", http.StatusConflict).WithRedirect(RedirectCart)
}

func InvalidQuantityError(message string) *AppError {
	return NewAppError(ErrCodeInvalidQuantity, message, http.StatusBadRequest)
}

func PaymentGatewayUnavailableError(message string) *AppError {
	return NewAppError(ErrCodePaymentGatewayUnavailable, message, http.StatusServiceUnavailable).WithRedirect(RedirectCart)
}

func PaymentGatewayError(message string) *AppError {
	return NewAppError(ErrCodePaymentGatewayError, message, http.StatusBadGateway).WithRedirect(RedirectCheckout)
}

func OrderCommitFailedError(message string) *AppError {
	return NewAppError(ErrCodeOrderCommitFailed, message, http.StatusInternalServerError).WithRedirect(RedirectCheckout)
}

func IsAppError(err error) (*AppError, bool) {
	var appError *AppError

	if errors.As(err, &appError) {
		return appError, true
	}

	return nil, false
}

// field validation error.
func AddValidationError(field, reason string) *AppError {
	return ValidationError(fmt.Sprintf("Invalid field '%s': %s", field, reason))
}
