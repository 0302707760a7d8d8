package services

import (
	"errors"
	"net/http"

	tableside_errors "tableside/pkg/errors"
)

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, tableside_errors.ErrInvalidInput), errors.Is(err, tableside_errors.ErrEmptyBasket):
		return http.StatusBadRequest
	case errors.Is(err, tableside_errors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, tableside_errors.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, tableside_errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, tableside_errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tableside_errors.ErrAlreadyExists), errors.Is(err, tableside_errors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, tableside_errors.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, tableside_errors.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, tableside_errors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
