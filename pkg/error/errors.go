package error

import "net/http"

// Codes rendered in the "code" field of error responses.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND_ERROR"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// ValidationError rejects a malformed request before any store access.
type ValidationError string

func (err ValidationError) Error() string   { return string(err) }
func (err ValidationError) ErrCode() string { return CodeValidation }
func (err ValidationError) StatusCode() int { return http.StatusBadRequest }

// NotFoundError covers unknown routes and records the supplier does not own.
type NotFoundError string

func (err NotFoundError) Error() string   { return string(err) }
func (err NotFoundError) ErrCode() string { return CodeNotFound }
func (err NotFoundError) StatusCode() int { return http.StatusNotFound }

type InternalServerError string

func (err InternalServerError) Error() string   { return string(err) }
func (err InternalServerError) ErrCode() string { return CodeInternal }
func (err InternalServerError) StatusCode() int { return http.StatusInternalServerError }

// ServiceUnavailableError signals a saturated pool; clients may retry.
type ServiceUnavailableError string

func (err ServiceUnavailableError) Error() string   { return string(err) }
func (err ServiceUnavailableError) ErrCode() string { return CodeServiceUnavailable }
func (err ServiceUnavailableError) StatusCode() int { return http.StatusServiceUnavailable }
