package apperrors

import "errors"

var (
	ErrNotFound              = errors.New("not found")                // 404
	ErrInvalidCredential     = errors.New("invalid credential")       // 401
	ErrForbidden             = errors.New("forbidden")                // 403
	ErrInvalidToken          = errors.New("invalid token")            // 401
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token") // 400
	ErrValidationMismatch    = errors.New("validation mismatch")      // 400
)
